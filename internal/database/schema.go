package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema creates the wallet tables if they are missing. The user profile and
// order tables belong to other services and are only read.
var schema = []string{
	`CREATE SCHEMA IF NOT EXISTS commerce`,
	`CREATE TABLE IF NOT EXISTS commerce.user_wallets (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL,
		balance NUMERIC(14, 2) NOT NULL DEFAULT 0.00 CHECK (balance >= 0),
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		is_blocked BOOLEAN NOT NULL DEFAULT FALSE,
		version BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS user_wallets_user_id_key ON commerce.user_wallets (user_id)`,
	`CREATE TABLE IF NOT EXISTS commerce.wallet_transactions (
		id UUID PRIMARY KEY,
		wallet_id UUID NOT NULL REFERENCES commerce.user_wallets (id),
		user_id UUID NOT NULL,
		transaction_type VARCHAR(20) NOT NULL
			CHECK (transaction_type IN ('credit', 'debit', 'refund', 'payment', 'adjustment')),
		amount NUMERIC(14, 2) NOT NULL CHECK (amount > 0),
		status VARCHAR(20) NOT NULL DEFAULT 'completed'
			CHECK (status IN ('pending', 'completed', 'failed', 'cancelled')),
		balance_before NUMERIC(14, 2) NOT NULL,
		balance_after NUMERIC(14, 2) NOT NULL CHECK (balance_after >= 0),
		sequence BIGINT NOT NULL,
		order_id UUID,
		order_item_id UUID,
		description TEXT,
		reason TEXT,
		created_by_user_id UUID,
		created_by_role VARCHAR(32),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS wallet_transactions_wallet_sequence_key
		ON commerce.wallet_transactions (wallet_id, sequence)`,
	`CREATE INDEX IF NOT EXISTS wallet_transactions_wallet_created_idx
		ON commerce.wallet_transactions (wallet_id, created_at DESC)`,
}

// EnsureSchema applies the wallet DDL in a single transaction.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema migration: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return tx.Commit()
}
