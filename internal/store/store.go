// Package store persists wallets and their append-only transaction ledger.
package store

import (
	"context"

	"github.com/commerceplatform/wallet/internal/models"
	"github.com/shopspring/decimal"
)

// Store is the durable record of one balance row per user plus the ledger.
type Store interface {
	// GetWalletByUserID returns a NotFound error when the user has no wallet.
	GetWalletByUserID(ctx context.Context, userID string) (*models.Wallet, error)
	// CreateWallet inserts a zero-balance wallet unless one already exists,
	// and returns the stored row either way.
	CreateWallet(ctx context.Context, userID string) (*models.Wallet, error)
	SetWalletFlags(ctx context.Context, userID string, flags models.WalletFlags) (*models.Wallet, error)

	// WithinTx runs fn as one atomic unit. Writes are committed only when fn
	// returns nil and ctx is still live.
	WithinTx(ctx context.Context, fn func(tx Tx) error) error

	ListTransactions(ctx context.Context, filter models.TransactionFilter) ([]models.TransactionView, int, error)
	// SignedTotal sums the signed amounts of completed rows for the wallet.
	SignedTotal(ctx context.Context, walletID string) (decimal.Decimal, error)
}

// Tx is the set of operations available inside WithinTx.
type Tx interface {
	// LockWallet reads the wallet and holds its row lock until the tx ends.
	LockWallet(ctx context.Context, walletID string) (*models.Wallet, error)
	// UpdateBalance sets the balance of a locked wallet and bumps its version.
	UpdateBalance(ctx context.Context, walletID string, balance decimal.Decimal) (*models.Wallet, error)
	// InsertTransaction appends a ledger row and returns it as persisted.
	InsertTransaction(ctx context.Context, txn *models.Transaction) (*models.Transaction, error)
}

// Directory resolves platform users. It is read-only.
type Directory interface {
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
}
