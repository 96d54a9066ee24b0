// Package money handles the internal currency (HQ$) as fixed-point integer
// amounts in cents. All ledger invariants depend on integer correctness, so
// floating point only ever appears at the parse/format boundary.
package money

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// CurrencyCode is the display prefix for the internal currency.
const CurrencyCode = "HQ$"

// ErrParse is returned when an input cannot be parsed as an amount.
var ErrParse = errors.New("cannot parse amount")

// ErrInvalidCents is returned by ValidCents for non-positive amounts.
var ErrInvalidCents = errors.New("amount must be a positive number of cents")

// ValidCents guards amounts headed for the ledger: strictly positive cents.
func ValidCents(cents int64) error {
	if cents <= 0 {
		return ErrInvalidCents
	}
	return nil
}

var printer = message.NewPrinter(language.BrazilianPortuguese)

// ParseCents parses user input into cents. It accepts comma- and dot-decimal
// locale forms with optional thousands grouping and an optional currency
// prefix:
//
//	"10,50"  "10.50"  "1.234,56"  "1,234.56"  "HQ$ 10,50"  "hq$10,50"
//
// Non-numeric or ambiguous input returns ErrParse.
func ParseCents(input string) (int64, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return 0, ErrParse
	}

	cleaned := strings.TrimSpace(stripPrefix(raw))

	safe := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' || r == '-' {
			return r
		}
		return -1
	}, cleaned)
	if safe == "" {
		return 0, ErrParse
	}

	hasComma := strings.Contains(safe, ",")
	hasDot := strings.Contains(safe, ".")

	normalized := safe
	switch {
	case hasComma && hasDot:
		// Grouped form: the last separator kind wins as the decimal mark.
		if strings.LastIndex(safe, ",") > strings.LastIndex(safe, ".") {
			normalized = strings.ReplaceAll(normalized, ".", "")
			normalized = strings.Replace(normalized, ",", ".", 1)
		} else {
			normalized = strings.ReplaceAll(normalized, ",", "")
		}
	case hasComma:
		normalized = strings.Replace(normalized, ",", ".", 1)
	}

	value, err := strconv.ParseFloat(normalized, 64)
	if err != nil || math.IsInf(value, 0) || math.IsNaN(value) {
		return 0, ErrParse
	}

	return int64(math.Round(value * 100)), nil
}

// FormatCents renders a signed, two-decimal, locale-grouped amount with the
// currency prefix, e.g. FormatCents(-123456) == "-HQ$ 1.234,56".
func FormatCents(cents int64) string {
	sign := ""
	abs := cents
	if cents < 0 {
		sign = "-"
		abs = -cents
	}

	formatted := printer.Sprint(number.Decimal(
		float64(abs)/100,
		number.MinFractionDigits(2),
		number.MaxFractionDigits(2),
	))

	return sign + CurrencyCode + " " + formatted
}

func stripPrefix(s string) string {
	lower := strings.ToLower(s)
	prefix := strings.ToLower(CurrencyCode)
	for {
		idx := strings.Index(lower, prefix)
		if idx < 0 {
			return s
		}
		s = s[:idx] + s[idx+len(prefix):]
		lower = lower[:idx] + lower[idx+len(prefix):]
	}
}
