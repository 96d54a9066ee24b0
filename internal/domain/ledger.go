package domain

import "time"

// EntryDirection is the sign of a monetary movement relative to the wallet.
type EntryDirection string

const (
	DirectionCredit EntryDirection = "CREDIT"
	DirectionDebit  EntryDirection = "DEBIT"
)

// Opposite returns the reversing direction for a movement.
func (d EntryDirection) Opposite() EntryDirection {
	if d == DirectionCredit {
		return DirectionDebit
	}
	return DirectionCredit
}

// EntryType classifies a ledger entry. TRANSFER and FEE are reserved for
// audit compatibility; no current operation creates them.
type EntryType string

const (
	EntryTypeReward   EntryType = "REWARD"
	EntryTypePurchase EntryType = "PURCHASE"
	EntryTypeTransfer EntryType = "TRANSFER"
	EntryTypeFee      EntryType = "FEE"
	EntryTypeReversal EntryType = "REVERSAL"
)

// IsReversible reports whether entries of this type may be reversed.
// Only PURCHASE and REWARD entries are reversible; a REVERSAL can never
// itself be reversed.
func (t EntryType) IsReversible() bool {
	return t == EntryTypePurchase || t == EntryTypeReward
}

// LedgerEntry is an immutable, append-only record of a single signed
// monetary movement. ReferenceID is the caller-supplied idempotency key and
// is globally unique: a second entry with the same reference id is never
// created, the original is returned instead.
type LedgerEntry struct {
	ID          string
	WalletID    string
	Direction   EntryDirection
	Type        EntryType
	AmountCents int64
	ReferenceID string
	Description *string
	Metadata    map[string]any
	CreatedAt   time.Time
}

// Reversal metadata keys recorded on every REVERSAL entry for audit
// traceability back to the entry it compensates.
const (
	MetaOriginalEntryID     = "original_entry_id"
	MetaOriginalReferenceID = "original_reference_id"
	MetaOriginalType        = "original_type"
	MetaOriginalDirection   = "original_direction"
)
