package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/commerceplatform/wallet/internal/apperr"
	"github.com/commerceplatform/wallet/internal/middleware"
	"github.com/commerceplatform/wallet/internal/models"
	"github.com/commerceplatform/wallet/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type WalletHandler struct {
	accounts *services.AccountService
	ledger   *services.LedgerService
	history  *services.HistoryService
	roles    *middleware.RoleResolver
	logger   *zap.Logger
}

func NewWalletHandler(accounts *services.AccountService, ledger *services.LedgerService, history *services.HistoryService, roles *middleware.RoleResolver, logger *zap.Logger) *WalletHandler {
	return &WalletHandler{
		accounts: accounts,
		ledger:   ledger,
		history:  history,
		roles:    roles,
		logger:   logger.Named("http"),
	}
}

// Routes mounts the wallet API. Callers must already be authenticated.
func (h *WalletHandler) Routes(r chi.Router) {
	r.Get("/balance", h.GetBalance)
	r.Post("/credit", h.Credit)
	r.Post("/debit", h.Debit)
	r.Get("/can-use", h.CanUse)
	r.Get("/transactions", h.ListTransactions)

	r.Route("/users/{userId}", func(r chi.Router) {
		r.Use(middleware.RequireRole(h.roles, models.RoleAdmin, models.RoleSuperAdmin))

		r.Get("/balance", h.AdminGetBalance)
		r.Get("/transactions", h.AdminListTransactions)
		r.Post("/credit", h.AdminCredit)
		r.Post("/adjust", h.AdminAdjust)
		r.Put("/block", h.AdminBlock)
		r.Put("/unblock", h.AdminUnblock)
		r.Get("/reconcile", h.AdminReconcile)
	})
}

// PostingBody is the request body of credit and debit endpoints.
type PostingBody struct {
	Amount      decimal.Decimal `json:"amount" swaggertype:"string" example:"100.00"`
	Reason      *string         `json:"reason,omitempty"`
	Description *string         `json:"description,omitempty"`
	OrderID     *string         `json:"order_id,omitempty"`
	OrderItemID *string         `json:"order_item_id,omitempty"`
}

func (b PostingBody) request(userID, actorID, actorRole string) services.PostingRequest {
	return services.PostingRequest{
		UserID:      userID,
		Amount:      b.Amount,
		Reason:      b.Reason,
		Description: b.Description,
		OrderID:     b.OrderID,
		OrderItemID: b.OrderItemID,
		ActorUserID: &actorID,
		ActorRole:   &actorRole,
	}
}

func (h *WalletHandler) callerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
	}
	return userID, ok
}

// GetBalance returns the caller's wallet balance
// @Summary Get wallet balance
// @Description Returns the caller's balance, creating an empty wallet on first access
// @Tags Wallet
// @Produce json
// @Security BearerAuth
// @Success 200 {object} BalanceResponse
// @Failure 401 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /wallet/balance [get]
func (h *WalletHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.callerID(w, r)
	if !ok {
		return
	}

	summary, err := h.accounts.BalanceSummary(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newBalanceResponse(summary))
}

// Credit adds funds to the caller's wallet
// @Summary Credit wallet
// @Description Credits the caller's wallet, for example with a credit note
// @Tags Wallet
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body PostingBody true "Credit request"
// @Success 201 {object} TransactionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /wallet/credit [post]
func (h *WalletHandler) Credit(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.callerID(w, r)
	if !ok {
		return
	}

	var body PostingBody
	if !decodeJSON(w, r, &body) {
		return
	}

	role := h.roles.Resolve(r.Context(), userID, models.RoleAdmin)
	txn, err := h.ledger.Credit(r.Context(), body.request(userID, userID, role))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, newTransactionResponse(txn))
}

// Debit spends funds from the caller's wallet
// @Summary Debit wallet
// @Description Debits the caller's wallet. Fails with 422 when the balance does not cover the amount
// @Tags Wallet
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body PostingBody true "Debit request"
// @Success 201 {object} TransactionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /wallet/debit [post]
func (h *WalletHandler) Debit(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.callerID(w, r)
	if !ok {
		return
	}

	var body PostingBody
	if !decodeJSON(w, r, &body) {
		return
	}

	role := h.roles.Resolve(r.Context(), userID, models.RoleClient)
	txn, err := h.ledger.Debit(r.Context(), body.request(userID, userID, role))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, newTransactionResponse(txn))
}

// CanUse checks whether the wallet covers an amount
// @Summary Check wallet sufficiency
// @Description Advisory check; the debit itself re-checks the balance
// @Tags Wallet
// @Produce json
// @Security BearerAuth
// @Param amount query string true "Amount to check"
// @Success 200 {object} CanUseResponse
// @Failure 400 {object} ErrorResponse
// @Router /wallet/can-use [get]
func (h *WalletHandler) CanUse(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.callerID(w, r)
	if !ok {
		return
	}

	amount, err := decimal.NewFromString(r.URL.Query().Get("amount"))
	if err != nil {
		writeError(w, h.logger, apperr.Validation("amount must be a decimal number"))
		return
	}

	usage, err := h.accounts.CanUseWallet(r.Context(), userID, amount)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, CanUseResponse{
		CanUse:         usage.CanUse,
		Balance:        usage.Balance.StringFixed(2),
		RequiredAmount: usage.RequiredAmount.StringFixed(2),
		Sufficient:     usage.CanUse,
	})
}

// ListTransactions returns the caller's transaction history
// @Summary List wallet transactions
// @Description Most recent first, paginated
// @Tags Wallet
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size, capped at the configured maximum" default(20)
// @Param type query string false "Transaction type" Enums(credit, debit, refund, payment, adjustment)
// @Param status query string false "Transaction status" Enums(pending, completed, failed, cancelled)
// @Success 200 {object} HistoryResponse
// @Failure 400 {object} ErrorResponse
// @Router /wallet/transactions [get]
func (h *WalletHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	h.listTransactions(w, r, userID, h.history.List)
}

func (h *WalletHandler) listTransactions(w http.ResponseWriter, r *http.Request, userID string,
	list func(ctx context.Context, q services.HistoryQuery) (*services.HistoryPage, error)) {
	q, err := historyQuery(r, userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	page, err := list(r.Context(), q)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newHistoryResponse(page))
}

func historyQuery(r *http.Request, userID string) (services.HistoryQuery, error) {
	values := r.URL.Query()
	q := services.HistoryQuery{
		UserID: userID,
		Type:   values.Get("type"),
		Status: values.Get("status"),
	}

	var err error
	if raw := values.Get("page"); raw != "" {
		if q.Page, err = strconv.Atoi(raw); err != nil || q.Page < 1 {
			return q, apperr.Validation("page must be a positive integer")
		}
	}
	if raw := values.Get("limit"); raw != "" {
		if q.Limit, err = strconv.Atoi(raw); err != nil || q.Limit < 1 {
			return q, apperr.Validation("limit must be a positive integer")
		}
	}
	return q, nil
}
