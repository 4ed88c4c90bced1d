package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeCredit     TransactionType = "credit"
	TransactionTypeDebit      TransactionType = "debit"
	TransactionTypeRefund     TransactionType = "refund"
	TransactionTypePayment    TransactionType = "payment"
	TransactionTypeAdjustment TransactionType = "adjustment"
)

// Valid reports whether t is one of the known ledger types.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeCredit, TransactionTypeDebit, TransactionTypeRefund,
		TransactionTypePayment, TransactionTypeAdjustment:
		return true
	}
	return false
}

// Direction is +1 for types that increase the balance, -1 for types that
// decrease it and 0 for adjustments, whose effect is recorded explicitly.
func (t TransactionType) Direction() int {
	switch t {
	case TransactionTypeCredit, TransactionTypeRefund:
		return 1
	case TransactionTypeDebit, TransactionTypePayment:
		return -1
	}
	return 0
}

type TransactionStatus string

// Only completed is produced synchronously; the rest are reserved for async posting.
const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusCancelled TransactionStatus = "cancelled"
)

func (s TransactionStatus) Valid() bool {
	switch s {
	case TransactionStatusPending, TransactionStatusCompleted,
		TransactionStatusFailed, TransactionStatusCancelled:
		return true
	}
	return false
}

// Transaction is an immutable ledger row. Amount is always positive; the
// sign is implied by Type.
type Transaction struct {
	ID              string            `json:"id" db:"id"`
	WalletID        string            `json:"wallet_id" db:"wallet_id"`
	UserID          string            `json:"user_id" db:"user_id"`
	Type            TransactionType   `json:"transaction_type" db:"transaction_type"`
	Amount          decimal.Decimal   `json:"amount" db:"amount"`
	Status          TransactionStatus `json:"status" db:"status"`
	BalanceBefore   decimal.Decimal   `json:"balance_before" db:"balance_before"`
	BalanceAfter    decimal.Decimal   `json:"balance_after" db:"balance_after"`
	Sequence        int64             `json:"sequence" db:"sequence"`
	OrderID         *string           `json:"order_id,omitempty" db:"order_id"`
	OrderItemID     *string           `json:"order_item_id,omitempty" db:"order_item_id"`
	Description     *string           `json:"description,omitempty" db:"description"`
	Reason          *string           `json:"reason,omitempty" db:"reason"`
	CreatedByUserID *string           `json:"created_by_user_id,omitempty" db:"created_by_user_id"`
	CreatedByRole   *string           `json:"created_by_role,omitempty" db:"created_by_role"`
	CreatedAt       time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at" db:"updated_at"`
}

// SignedAmount returns the effect the transaction had on the balance.
func (t *Transaction) SignedAmount() decimal.Decimal {
	switch t.Type.Direction() {
	case 1:
		return t.Amount
	case -1:
		return t.Amount.Neg()
	}
	return t.BalanceAfter.Sub(t.BalanceBefore)
}

// TransactionView is a ledger row enriched for history listings.
type TransactionView struct {
	Transaction
	CreatedByName *string `json:"created_by_name,omitempty" db:"created_by_name"`
	BusinessID    *string `json:"business_id,omitempty" db:"business_id"`
}

// TransactionFilter selects ledger rows for a single wallet.
type TransactionFilter struct {
	WalletID string
	Type     *TransactionType
	Status   *TransactionStatus
	Limit    int
	Offset   int
}
