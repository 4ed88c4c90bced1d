package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/commerceplatform/wallet/internal/apperr"
	"github.com/commerceplatform/wallet/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const walletColumns = `id, user_id, balance, is_active, is_blocked, version, created_at, updated_at`

// Postgres is the Store backed by the commerce schema.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWallet(row rowScanner) (*models.Wallet, error) {
	var w models.Wallet
	err := row.Scan(&w.ID, &w.UserID, &w.Balance, &w.IsActive, &w.IsBlocked, &w.Version, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (s *Postgres) GetWalletByUserID(ctx context.Context, userID string) (*models.Wallet, error) {
	w, err := scanWallet(s.db.QueryRowContext(ctx, `
		SELECT `+walletColumns+`
		FROM commerce.user_wallets
		WHERE user_id = $1`, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("wallet for user %s not found", userID)
	}
	if err != nil {
		return nil, classify("get wallet", err)
	}
	return w, nil
}

func (s *Postgres) CreateWallet(ctx context.Context, userID string) (*models.Wallet, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO commerce.user_wallets (id, user_id, balance, is_active, is_blocked, version)
		VALUES ($1, $2, 0.00, TRUE, FALSE, 0)
		ON CONFLICT (user_id) DO NOTHING`,
		uuid.NewString(), userID)
	if err != nil && !isUniqueViolation(err) {
		return nil, classify("create wallet", err)
	}
	return s.GetWalletByUserID(ctx, userID)
}

func (s *Postgres) SetWalletFlags(ctx context.Context, userID string, flags models.WalletFlags) (*models.Wallet, error) {
	w, err := scanWallet(s.db.QueryRowContext(ctx, `
		UPDATE commerce.user_wallets
		SET is_active = COALESCE($2, is_active), is_blocked = COALESCE($3, is_blocked), updated_at = NOW()
		WHERE user_id = $1
		RETURNING `+walletColumns,
		userID, nullBool(flags.Active), nullBool(flags.Blocked)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("wallet for user %s not found", userID)
	}
	if err != nil {
		return nil, classify("update wallet flags", err)
	}
	return w, nil
}

func (s *Postgres) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify("begin transaction", err)
	}
	defer tx.Rollback()

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return classify("commit transaction", err)
	}
	return nil
}

func (s *Postgres) ListTransactions(ctx context.Context, filter models.TransactionFilter) ([]models.TransactionView, int, error) {
	conditions := []string{"wt.wallet_id = $1"}
	args := []any{filter.WalletID}

	if filter.Type != nil {
		args = append(args, string(*filter.Type))
		conditions = append(conditions, fmt.Sprintf("wt.transaction_type = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		conditions = append(conditions, fmt.Sprintf("wt.status = $%d", len(args)))
	}
	where := "WHERE " + strings.Join(conditions, " AND ")

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM commerce.wallet_transactions wt `+where, args...).Scan(&total); err != nil {
		return nil, 0, classify("count transactions", err)
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`
		SELECT wt.id, wt.wallet_id, wt.user_id, wt.transaction_type, wt.amount, wt.status,
			wt.balance_before, wt.balance_after, wt.sequence, wt.order_id, wt.order_item_id,
			wt.description, wt.reason, wt.created_by_user_id, wt.created_by_role,
			wt.created_at, wt.updated_at,
			NULLIF(TRIM(COALESCE(up.first_name, '') || ' ' || COALESCE(up.last_name, '')), '') AS created_by_name,
			o.business_id
		FROM commerce.wallet_transactions wt
		LEFT JOIN core.user_profiles up ON wt.created_by_user_id = up.id
		LEFT JOIN orders.orders o ON wt.order_id = o.id
		%s
		ORDER BY wt.created_at DESC, wt.sequence DESC
		LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, classify("list transactions", err)
	}
	defer rows.Close()

	views := []models.TransactionView{}
	for rows.Next() {
		var v models.TransactionView
		var orderID, orderItemID, description, reason, createdBy, createdByRole, createdByName, businessID sql.NullString
		if err := rows.Scan(
			&v.ID, &v.WalletID, &v.UserID, &v.Type, &v.Amount, &v.Status,
			&v.BalanceBefore, &v.BalanceAfter, &v.Sequence, &orderID, &orderItemID,
			&description, &reason, &createdBy, &createdByRole,
			&v.CreatedAt, &v.UpdatedAt, &createdByName, &businessID,
		); err != nil {
			return nil, 0, classify("scan transaction", err)
		}
		v.OrderID = stringPtr(orderID)
		v.OrderItemID = stringPtr(orderItemID)
		v.Description = stringPtr(description)
		v.Reason = stringPtr(reason)
		v.CreatedByUserID = stringPtr(createdBy)
		v.CreatedByRole = stringPtr(createdByRole)
		v.CreatedByName = stringPtr(createdByName)
		v.BusinessID = stringPtr(businessID)
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, classify("iterate transactions", err)
	}

	return views, total, nil
}

func (s *Postgres) SignedTotal(ctx context.Context, walletID string) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(CASE
			WHEN transaction_type IN ('credit', 'refund') THEN amount
			WHEN transaction_type IN ('debit', 'payment') THEN -amount
			ELSE balance_after - balance_before END), 0)
		FROM commerce.wallet_transactions
		WHERE wallet_id = $1 AND status = 'completed'`, walletID).Scan(&total)
	if err != nil {
		return decimal.Zero, classify("sum transactions", err)
	}
	return total, nil
}

type pgTx struct {
	tx *sql.Tx
}

func (t *pgTx) LockWallet(ctx context.Context, walletID string) (*models.Wallet, error) {
	w, err := scanWallet(t.tx.QueryRowContext(ctx, `
		SELECT `+walletColumns+`
		FROM commerce.user_wallets
		WHERE id = $1
		FOR UPDATE`, walletID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("wallet %s not found", walletID)
	}
	if err != nil {
		return nil, classify("lock wallet", err)
	}
	return w, nil
}

func (t *pgTx) UpdateBalance(ctx context.Context, walletID string, balance decimal.Decimal) (*models.Wallet, error) {
	w, err := scanWallet(t.tx.QueryRowContext(ctx, `
		UPDATE commerce.user_wallets
		SET balance = $2, version = version + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING `+walletColumns, walletID, balance))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("wallet %s not found", walletID)
	}
	if err != nil {
		return nil, classify("update balance", err)
	}
	return w, nil
}

// InsertTransaction stamps rows with clock_timestamp() so that creation time
// follows lock order rather than transaction start time.
func (t *pgTx) InsertTransaction(ctx context.Context, txn *models.Transaction) (*models.Transaction, error) {
	out := *txn
	if out.ID == "" {
		out.ID = uuid.NewString()
	}

	err := t.tx.QueryRowContext(ctx, `
		INSERT INTO commerce.wallet_transactions (
			id, wallet_id, user_id, transaction_type, amount, status,
			balance_before, balance_after, sequence, order_id, order_item_id,
			description, reason, created_by_user_id, created_by_role,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, clock_timestamp(), clock_timestamp())
		RETURNING created_at, updated_at`,
		out.ID, out.WalletID, out.UserID, string(out.Type), out.Amount, string(out.Status),
		out.BalanceBefore, out.BalanceAfter, out.Sequence, nullString(out.OrderID), nullString(out.OrderItemID),
		nullString(out.Description), nullString(out.Reason), nullString(out.CreatedByUserID), nullString(out.CreatedByRole),
	).Scan(&out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return nil, classify("insert transaction", err)
	}
	return &out, nil
}

// PostgresDirectory reads user profiles from the core schema.
type PostgresDirectory struct {
	db *sql.DB
}

func NewPostgresDirectory(db *sql.DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

func (d *PostgresDirectory) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	var p models.UserProfile
	err := d.db.QueryRowContext(ctx, `
		SELECT id, COALESCE(first_name, ''), COALESCE(last_name, ''), COALESCE(role::text, '')
		FROM core.user_profiles
		WHERE id = $1`, userID).Scan(&p.ID, &p.FirstName, &p.LastName, &p.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("user %s not found", userID)
	}
	if err != nil {
		return nil, classify("get user profile", err)
	}
	return &p, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
