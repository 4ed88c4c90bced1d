package services

import (
	"context"
	"math"

	"github.com/commerceplatform/wallet/internal/apperr"
	"github.com/commerceplatform/wallet/internal/models"
	"github.com/commerceplatform/wallet/internal/store"
	"go.uber.org/zap"
)

type HistoryQuery struct {
	UserID string
	Page   int
	Limit  int
	Type   string
	Status string
}

type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

type HistoryPage struct {
	Data       []models.TransactionView `json:"data"`
	Pagination Pagination               `json:"pagination"`
}

// HistoryService lists a wallet's ledger, most recent first. It never writes
// beyond provisioning an empty wallet on first access.
type HistoryService struct {
	store        store.Store
	accounts     *AccountService
	defaultLimit int
	maxLimit     int
	logger       *zap.Logger
}

func NewHistoryService(st store.Store, accounts *AccountService, defaultLimit, maxLimit int, logger *zap.Logger) *HistoryService {
	return &HistoryService{
		store:        st,
		accounts:     accounts,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
		logger:       logger.Named("history"),
	}
}

// List treats a zero Page or Limit as unset. Negative values and unknown
// type or status filters are validation errors; limits above the maximum
// are capped.
func (s *HistoryService) List(ctx context.Context, q HistoryQuery) (*HistoryPage, error) {
	filter, page, limit, err := s.filter(q)
	if err != nil {
		return nil, err
	}

	w, err := s.accounts.GetOrCreateWallet(ctx, q.UserID)
	if err != nil {
		return nil, err
	}
	filter.WalletID = w.ID

	rows, total, err := s.store.ListTransactions(ctx, filter)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("history listed",
		zap.String("wallet_id", w.ID),
		zap.Int("page", page),
		zap.Int("returned", len(rows)),
		zap.Int("total", total),
	)

	return &HistoryPage{
		Data: rows,
		Pagination: Pagination{
			Total:      total,
			Page:       page,
			Limit:      limit,
			TotalPages: (total + limit - 1) / limit,
		},
	}, nil
}

// AdminList is List for a user named by an administrator.
func (s *HistoryService) AdminList(ctx context.Context, q HistoryQuery) (*HistoryPage, error) {
	if err := s.accounts.EnsureUser(ctx, q.UserID); err != nil {
		return nil, err
	}
	return s.List(ctx, q)
}

func (s *HistoryService) filter(q HistoryQuery) (models.TransactionFilter, int, int, error) {
	var filter models.TransactionFilter

	page, limit := q.Page, q.Limit
	if page == 0 {
		page = 1
	}
	if limit == 0 {
		limit = s.defaultLimit
	}
	if page < 1 {
		return filter, 0, 0, apperr.Validation("page must be at least 1")
	}
	if limit < 1 {
		return filter, 0, 0, apperr.Validation("limit must be at least 1")
	}
	limit = min(limit, s.maxLimit)

	if q.Type != "" {
		typ := models.TransactionType(q.Type)
		if !typ.Valid() {
			return filter, 0, 0, apperr.Validation("unknown transaction type %q", q.Type)
		}
		filter.Type = &typ
	}
	if q.Status != "" {
		status := models.TransactionStatus(q.Status)
		if !status.Valid() {
			return filter, 0, 0, apperr.Validation("unknown transaction status %q", q.Status)
		}
		filter.Status = &status
	}

	filter.Limit = limit
	filter.Offset = math.MaxInt
	if page-1 <= math.MaxInt/limit {
		filter.Offset = (page - 1) * limit
	}
	return filter, page, limit, nil
}
