package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet is the single balance account owned by one user
type Wallet struct {
	ID        string          `json:"id" db:"id"`
	UserID    string          `json:"user_id" db:"user_id"`
	Balance   decimal.Decimal `json:"balance" db:"balance"`
	IsActive  bool            `json:"is_active" db:"is_active"`
	IsBlocked bool            `json:"is_blocked" db:"is_blocked"`
	Version   int64           `json:"version" db:"version"` // number of postings applied
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// CanPost reports whether mutations are permitted on the wallet.
func (w *Wallet) CanPost() bool {
	return w.IsActive && !w.IsBlocked
}

// CanDebit reports whether the wallet can be debited by amount.
func (w *Wallet) CanDebit(amount decimal.Decimal) bool {
	return w.CanPost() && w.Balance.GreaterThanOrEqual(amount)
}

// WalletFlags carries optional soft-state changes. Nil fields are left untouched.
type WalletFlags struct {
	Active  *bool
	Blocked *bool
}
