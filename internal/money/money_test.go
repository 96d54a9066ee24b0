package money_test

import (
	"testing"

	"github.com/hqhub/taskbank/internal/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCents(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int64
	}{
		{"comma decimal", "10,50", 1050},
		{"dot decimal", "10.50", 1050},
		{"grouped comma decimal", "1.234,56", 123456},
		{"grouped dot decimal", "1,234.56", 123456},
		{"currency prefix with space", "HQ$ 10,50", 1050},
		{"currency prefix lowercase", "hq$10,50", 1050},
		{"integer", "500", 50000},
		// A lone comma reads as the decimal mark, not a thousands separator.
		{"single comma is decimal", "1,234", 123},
		{"rounding", "0.005", 1},
		{"negative", "-10,50", -1050},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := money.ParseCents(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCentsRejects(t *testing.T) {
	for _, input := range []string{
		"",
		"   ",
		"abc",
		"HQ$",
		"1.2.3,4,5",
		"--5",
		"10,50,60",
	} {
		t.Run(input, func(t *testing.T) {
			_, err := money.ParseCents(input)
			assert.ErrorIs(t, err, money.ErrParse)
		})
	}
}

func TestFormatCents(t *testing.T) {
	assert.Equal(t, "HQ$ 0,00", money.FormatCents(0))
	assert.Equal(t, "HQ$ 10,50", money.FormatCents(1050))
	assert.Equal(t, "HQ$ 1.234,56", money.FormatCents(123456))
	assert.Equal(t, "-HQ$ 1.234,56", money.FormatCents(-123456))
	assert.Equal(t, "HQ$ 0,05", money.FormatCents(5))
}

func TestParseFormatRoundTrip(t *testing.T) {
	for _, cents := range []int64{1, 99, 100, 1050, 123456, 99999999} {
		formatted := money.FormatCents(cents)
		parsed, err := money.ParseCents(formatted)
		require.NoError(t, err)
		assert.Equal(t, cents, parsed, "round trip of %s", formatted)
	}
}

func TestValidCents(t *testing.T) {
	assert.NoError(t, money.ValidCents(1))
	assert.NoError(t, money.ValidCents(123456))
	assert.ErrorIs(t, money.ValidCents(0), money.ErrInvalidCents)
	assert.ErrorIs(t, money.ValidCents(-100), money.ErrInvalidCents)
}
