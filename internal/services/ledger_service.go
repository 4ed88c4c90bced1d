package services

import (
	"context"
	"time"

	"github.com/commerceplatform/wallet/internal/apperr"
	"github.com/commerceplatform/wallet/internal/models"
	"github.com/commerceplatform/wallet/internal/store"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const publishTimeout = 2 * time.Second

// PostingRequest describes a single balance mutation. Amount is always
// positive; the direction comes from the operation.
type PostingRequest struct {
	UserID      string          `json:"user_id" validate:"required,uuid"`
	Amount      decimal.Decimal `json:"amount"`
	Reason      *string         `json:"reason,omitempty" validate:"omitempty,max=500"`
	Description *string         `json:"description,omitempty" validate:"omitempty,max=1000"`
	OrderID     *string         `json:"order_id,omitempty" validate:"omitempty,uuid"`
	OrderItemID *string         `json:"order_item_id,omitempty" validate:"omitempty,uuid"`
	ActorUserID *string         `json:"actor_user_id,omitempty" validate:"omitempty,uuid"`
	ActorRole   *string         `json:"actor_role,omitempty" validate:"omitempty,max=32"`
}

// AdjustmentRequest corrects a balance by a signed delta.
type AdjustmentRequest struct {
	UserID      string          `json:"user_id" validate:"required,uuid"`
	Delta       decimal.Decimal `json:"delta"`
	Reason      *string         `json:"reason" validate:"required,min=1,max=500"`
	ActorUserID *string         `json:"actor_user_id,omitempty" validate:"omitempty,uuid"`
	ActorRole   *string         `json:"actor_role,omitempty" validate:"omitempty,max=32"`
}

type ReconciliationReport struct {
	WalletID    string          `json:"wallet_id"`
	UserID      string          `json:"user_id"`
	Balance     decimal.Decimal `json:"balance"`
	LedgerTotal decimal.Decimal `json:"ledger_total"`
	Difference  decimal.Decimal `json:"difference"`
	Balanced    bool            `json:"balanced"`
}

// LedgerService posts credits and debits. Each posting locks the wallet row,
// checks it, writes the new balance and appends the ledger row in a single
// store transaction, so postings on one wallet are linearizable.
type LedgerService struct {
	store     store.Store
	accounts  *AccountService
	events    EventPublisher
	audit     *AuditLogger
	validator *ValidationHelper
	timeout   time.Duration
	logger    *zap.Logger
}

func NewLedgerService(st store.Store, accounts *AccountService, events EventPublisher, audit *AuditLogger, timeout time.Duration, logger *zap.Logger) *LedgerService {
	if events == nil {
		events = NoopEventPublisher{}
	}
	return &LedgerService{
		store:     st,
		accounts:  accounts,
		events:    events,
		audit:     audit,
		validator: NewValidationHelper(),
		timeout:   timeout,
		logger:    logger.Named("ledger"),
	}
}

func (s *LedgerService) Credit(ctx context.Context, req PostingRequest) (*models.Transaction, error) {
	return s.postAmount(ctx, models.TransactionTypeCredit, req)
}

func (s *LedgerService) Debit(ctx context.Context, req PostingRequest) (*models.Transaction, error) {
	return s.postAmount(ctx, models.TransactionTypeDebit, req)
}

// Refund returns funds to the wallet, usually against an order.
func (s *LedgerService) Refund(ctx context.Context, req PostingRequest) (*models.Transaction, error) {
	return s.postAmount(ctx, models.TransactionTypeRefund, req)
}

// Pay spends wallet funds on an order. An order id is required.
func (s *LedgerService) Pay(ctx context.Context, req PostingRequest) (*models.Transaction, error) {
	if req.OrderID == nil {
		return nil, apperr.Validation("payment requires an order id")
	}
	return s.postAmount(ctx, models.TransactionTypePayment, req)
}

// Adjust applies an administrative correction. Negative deltas are subject
// to the same sufficiency check as debits.
func (s *LedgerService) Adjust(ctx context.Context, req AdjustmentRequest) (*models.Transaction, error) {
	if err := s.validator.ValidateStruct(&req); err != nil {
		return nil, err
	}
	if err := ValidateAmount(req.Delta.Abs()); err != nil {
		return nil, err
	}
	return s.post(ctx, models.TransactionTypeAdjustment, req.Delta, PostingRequest{
		UserID:      req.UserID,
		Amount:      req.Delta.Abs(),
		Reason:      req.Reason,
		ActorUserID: req.ActorUserID,
		ActorRole:   req.ActorRole,
	})
}

func (s *LedgerService) postAmount(ctx context.Context, typ models.TransactionType, req PostingRequest) (*models.Transaction, error) {
	if err := s.validator.ValidateStruct(&req); err != nil {
		return nil, err
	}
	if err := ValidateAmount(req.Amount); err != nil {
		return nil, err
	}
	delta := req.Amount
	if typ.Direction() < 0 {
		delta = delta.Neg()
	}
	return s.post(ctx, typ, delta, req)
}

func (s *LedgerService) post(ctx context.Context, typ models.TransactionType, delta decimal.Decimal, req PostingRequest) (*models.Transaction, error) {
	ctx, cancel := s.operationContext(ctx)
	defer cancel()

	wallet, err := s.accounts.GetOrCreateWallet(ctx, req.UserID)
	if err != nil {
		s.audit.LogRejected(typ, req.UserID, req.Amount, err)
		return nil, err
	}

	var posted *models.Transaction
	err = s.store.WithinTx(ctx, func(tx store.Tx) error {
		w, err := tx.LockWallet(ctx, wallet.ID)
		if err != nil {
			return err
		}
		if w.IsBlocked {
			return apperr.WalletBlocked("wallet is blocked")
		}
		if !w.IsActive {
			return apperr.WalletBlocked("wallet is inactive")
		}

		after := w.Balance.Add(delta)
		if after.IsNegative() {
			return apperr.InsufficientFunds(w.Balance, delta.Neg())
		}
		if after.GreaterThan(MaxAmount) {
			return apperr.Validation("resulting balance exceeds the maximum of %s", MaxAmount.StringFixed(2))
		}

		updated, err := tx.UpdateBalance(ctx, w.ID, after)
		if err != nil {
			return err
		}

		posted, err = tx.InsertTransaction(ctx, &models.Transaction{
			WalletID:        w.ID,
			UserID:          w.UserID,
			Type:            typ,
			Amount:          req.Amount,
			Status:          models.TransactionStatusCompleted,
			BalanceBefore:   w.Balance,
			BalanceAfter:    after,
			Sequence:        updated.Version,
			OrderID:         req.OrderID,
			OrderItemID:     req.OrderItemID,
			Description:     req.Description,
			Reason:          req.Reason,
			CreatedByUserID: req.ActorUserID,
			CreatedByRole:   req.ActorRole,
		})
		return err
	})
	if err != nil {
		s.audit.LogRejected(typ, req.UserID, req.Amount, err)
		return nil, err
	}

	s.audit.LogPosting(posted)
	s.publish(ctx, posted)
	return posted, nil
}

// publish runs after commit. A failure is logged and never affects the posting.
func (s *LedgerService) publish(ctx context.Context, txn *models.Transaction) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := s.events.Publish(ctx, NewWalletEvent(txn)); err != nil {
		s.logger.Warn("failed to publish wallet event",
			zap.String("transaction_id", txn.ID),
			zap.String("wallet_id", txn.WalletID),
			zap.Error(err),
		)
	}
}

// Reconcile compares the stored balance against the sum of the ledger while
// holding the wallet lock, so no posting can land in between.
func (s *LedgerService) Reconcile(ctx context.Context, userID string) (*ReconciliationReport, error) {
	ctx, cancel := s.operationContext(ctx)
	defer cancel()

	if err := s.accounts.EnsureUser(ctx, userID); err != nil {
		return nil, err
	}
	wallet, err := s.accounts.GetOrCreateWallet(ctx, userID)
	if err != nil {
		return nil, err
	}

	var report *ReconciliationReport
	err = s.store.WithinTx(ctx, func(tx store.Tx) error {
		w, err := tx.LockWallet(ctx, wallet.ID)
		if err != nil {
			return err
		}
		total, err := s.store.SignedTotal(ctx, w.ID)
		if err != nil {
			return err
		}
		report = &ReconciliationReport{
			WalletID:    w.ID,
			UserID:      w.UserID,
			Balance:     w.Balance,
			LedgerTotal: total,
			Difference:  w.Balance.Sub(total),
			Balanced:    w.Balance.Equal(total),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !report.Balanced {
		s.logger.Error("wallet out of balance",
			zap.String("wallet_id", report.WalletID),
			zap.String("balance", report.Balance.StringFixed(2)),
			zap.String("ledger_total", report.LedgerTotal.StringFixed(2)),
		)
	}
	return report, nil
}

func (s *LedgerService) operationContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}
