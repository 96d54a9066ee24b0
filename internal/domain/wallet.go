package domain

import "time"

// WalletStatus represents whether a wallet can be debited.
type WalletStatus string

const (
	WalletStatusActive WalletStatus = "ACTIVE"
	WalletStatusFrozen WalletStatus = "FROZEN"
)

// Wallet holds the cached balance for a single user. The balance is always
// the sum of the wallet's ledger entries' signed amounts; it never goes
// negative while the wallet is ACTIVE. Wallets are created lazily on first
// access and never deleted.
type Wallet struct {
	ID           string
	UserID       string
	BalanceCents int64
	Status       WalletStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsActive returns true if the wallet accepts debits.
func (w *Wallet) IsActive() bool {
	return w.Status == WalletStatusActive
}
