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

// AccountService provisions wallets and answers balance questions. Balance
// reads are advisory; the authoritative check runs inside each posting.
type AccountService struct {
	store     store.Store
	directory store.Directory
	logger    *zap.Logger
}

func NewAccountService(st store.Store, directory store.Directory, logger *zap.Logger) *AccountService {
	return &AccountService{
		store:     st,
		directory: directory,
		logger:    logger.Named("accounts"),
	}
}

type BalanceSummary struct {
	WalletID          string          `json:"wallet_id"`
	UserID            string          `json:"user_id"`
	Balance           decimal.Decimal `json:"balance"`
	IsActive          bool            `json:"is_active"`
	IsBlocked         bool            `json:"is_blocked"`
	LastTransactionAt *time.Time      `json:"last_transaction_at"`
}

type WalletUsage struct {
	CanUse         bool            `json:"can_use"`
	Balance        decimal.Decimal `json:"balance"`
	RequiredAmount decimal.Decimal `json:"required_amount"`
}

// GetOrCreateWallet returns the user's wallet, creating an empty one on first
// access. Concurrent first accesses converge on a single row.
func (s *AccountService) GetOrCreateWallet(ctx context.Context, userID string) (*models.Wallet, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}

	w, err := s.store.GetWalletByUserID(ctx, userID)
	if err == nil {
		return w, nil
	}
	if !apperr.Is(err, apperr.KindNotFound) {
		return nil, err
	}

	w, err = s.store.CreateWallet(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("wallet provisioned", zap.String("user_id", userID), zap.String("wallet_id", w.ID))
	return w, nil
}

func (s *AccountService) GetBalance(ctx context.Context, userID string) (decimal.Decimal, error) {
	w, err := s.GetOrCreateWallet(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return w.Balance, nil
}

func (s *AccountService) CanAfford(ctx context.Context, userID string, amount decimal.Decimal) (bool, error) {
	usage, err := s.CanUseWallet(ctx, userID, amount)
	if err != nil {
		return false, err
	}
	return usage.CanUse, nil
}

// CanUseWallet reports whether a debit of amount would currently succeed.
func (s *AccountService) CanUseWallet(ctx context.Context, userID string, amount decimal.Decimal) (*WalletUsage, error) {
	if err := ValidateAmount(amount); err != nil {
		return nil, err
	}
	w, err := s.GetOrCreateWallet(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &WalletUsage{
		CanUse:         w.CanDebit(amount),
		Balance:        w.Balance,
		RequiredAmount: amount,
	}, nil
}

func (s *AccountService) BalanceSummary(ctx context.Context, userID string) (*BalanceSummary, error) {
	w, err := s.GetOrCreateWallet(ctx, userID)
	if err != nil {
		return nil, err
	}

	summary := &BalanceSummary{
		WalletID:  w.ID,
		UserID:    w.UserID,
		Balance:   w.Balance,
		IsActive:  w.IsActive,
		IsBlocked: w.IsBlocked,
	}

	latest, _, err := s.store.ListTransactions(ctx, models.TransactionFilter{WalletID: w.ID, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(latest) > 0 {
		at := latest[0].CreatedAt
		summary.LastTransactionAt = &at
	}
	return summary, nil
}

// AdminBalanceSummary is BalanceSummary for a user named by an administrator.
// Users unknown to the directory are reported as not found.
func (s *AccountService) AdminBalanceSummary(ctx context.Context, userID string) (*BalanceSummary, error) {
	if err := s.EnsureUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.BalanceSummary(ctx, userID)
}

func (s *AccountService) SetBlocked(ctx context.Context, userID string, blocked bool) (*models.Wallet, error) {
	return s.setFlags(ctx, userID, models.WalletFlags{Blocked: &blocked})
}

func (s *AccountService) SetActive(ctx context.Context, userID string, active bool) (*models.Wallet, error) {
	return s.setFlags(ctx, userID, models.WalletFlags{Active: &active})
}

func (s *AccountService) setFlags(ctx context.Context, userID string, flags models.WalletFlags) (*models.Wallet, error) {
	if err := s.EnsureUser(ctx, userID); err != nil {
		return nil, err
	}
	if _, err := s.GetOrCreateWallet(ctx, userID); err != nil {
		return nil, err
	}

	w, err := s.store.SetWalletFlags(ctx, userID, flags)
	if err != nil {
		return nil, err
	}
	s.logger.Info("wallet flags updated",
		zap.String("user_id", userID),
		zap.Bool("is_active", w.IsActive),
		zap.Bool("is_blocked", w.IsBlocked),
	)
	return w, nil
}

// EnsureUser checks that userID is a well-formed id known to the directory.
func (s *AccountService) EnsureUser(ctx context.Context, userID string) error {
	if err := validateUserID(userID); err != nil {
		return err
	}
	_, err := s.directory.GetProfile(ctx, userID)
	return err
}
