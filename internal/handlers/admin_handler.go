package handlers

import (
	"net/http"

	"github.com/commerceplatform/wallet/internal/models"
	"github.com/commerceplatform/wallet/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// AdjustBody is the request body of the admin adjustment endpoint.
type AdjustBody struct {
	Delta  decimal.Decimal `json:"delta" swaggertype:"string" example:"-5.00"`
	Reason *string         `json:"reason"`
}

// AdminGetBalance returns any user's wallet balance
// @Summary Get a user's wallet balance
// @Tags Wallet Admin
// @Produce json
// @Security BearerAuth
// @Param userId path string true "User ID"
// @Success 200 {object} BalanceResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /wallet/users/{userId}/balance [get]
func (h *WalletHandler) AdminGetBalance(w http.ResponseWriter, r *http.Request) {
	summary, err := h.accounts.AdminBalanceSummary(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newBalanceResponse(summary))
}

// AdminListTransactions returns any user's transaction history
// @Summary List a user's wallet transactions
// @Tags Wallet Admin
// @Produce json
// @Security BearerAuth
// @Param userId path string true "User ID"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(20)
// @Param type query string false "Transaction type"
// @Param status query string false "Transaction status"
// @Success 200 {object} HistoryResponse
// @Failure 404 {object} ErrorResponse
// @Router /wallet/users/{userId}/transactions [get]
func (h *WalletHandler) AdminListTransactions(w http.ResponseWriter, r *http.Request) {
	h.listTransactions(w, r, chi.URLParam(r, "userId"), h.history.AdminList)
}

// AdminCredit credits a user's wallet on behalf of an administrator
// @Summary Credit a user's wallet
// @Tags Wallet Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param userId path string true "User ID"
// @Param request body PostingBody true "Credit request"
// @Success 201 {object} TransactionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /wallet/users/{userId}/credit [post]
func (h *WalletHandler) AdminCredit(w http.ResponseWriter, r *http.Request) {
	adminID, ok := h.callerID(w, r)
	if !ok {
		return
	}

	var body PostingBody
	if !decodeJSON(w, r, &body) {
		return
	}

	target := chi.URLParam(r, "userId")
	if err := h.accounts.EnsureUser(r.Context(), target); err != nil {
		writeError(w, h.logger, err)
		return
	}

	role := h.roles.Resolve(r.Context(), adminID, models.RoleAdmin)
	txn, err := h.ledger.Credit(r.Context(), body.request(target, adminID, role))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, newTransactionResponse(txn))
}

// AdminAdjust applies a signed correction to a user's wallet
// @Summary Adjust a user's wallet
// @Description Positive deltas add funds, negative deltas remove them. A reason is required
// @Tags Wallet Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param userId path string true "User ID"
// @Param request body AdjustBody true "Adjustment request"
// @Success 201 {object} TransactionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /wallet/users/{userId}/adjust [post]
func (h *WalletHandler) AdminAdjust(w http.ResponseWriter, r *http.Request) {
	adminID, ok := h.callerID(w, r)
	if !ok {
		return
	}

	var body AdjustBody
	if !decodeJSON(w, r, &body) {
		return
	}

	target := chi.URLParam(r, "userId")
	if err := h.accounts.EnsureUser(r.Context(), target); err != nil {
		writeError(w, h.logger, err)
		return
	}

	role := h.roles.Resolve(r.Context(), adminID, models.RoleAdmin)
	txn, err := h.ledger.Adjust(r.Context(), services.AdjustmentRequest{
		UserID:      target,
		Delta:       body.Delta,
		Reason:      body.Reason,
		ActorUserID: &adminID,
		ActorRole:   &role,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, newTransactionResponse(txn))
}

// AdminBlock blocks a user's wallet
// @Summary Block a wallet
// @Tags Wallet Admin
// @Produce json
// @Security BearerAuth
// @Param userId path string true "User ID"
// @Success 200 {object} WalletStatusResponse
// @Failure 404 {object} ErrorResponse
// @Router /wallet/users/{userId}/block [put]
func (h *WalletHandler) AdminBlock(w http.ResponseWriter, r *http.Request) {
	h.setBlocked(w, r, true)
}

// AdminUnblock unblocks a user's wallet
// @Summary Unblock a wallet
// @Tags Wallet Admin
// @Produce json
// @Security BearerAuth
// @Param userId path string true "User ID"
// @Success 200 {object} WalletStatusResponse
// @Failure 404 {object} ErrorResponse
// @Router /wallet/users/{userId}/unblock [put]
func (h *WalletHandler) AdminUnblock(w http.ResponseWriter, r *http.Request) {
	h.setBlocked(w, r, false)
}

func (h *WalletHandler) setBlocked(w http.ResponseWriter, r *http.Request, blocked bool) {
	wallet, err := h.accounts.SetBlocked(r.Context(), chi.URLParam(r, "userId"), blocked)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, WalletStatusResponse{
		WalletID:  wallet.ID,
		UserID:    wallet.UserID,
		IsActive:  wallet.IsActive,
		IsBlocked: wallet.IsBlocked,
	})
}

// AdminReconcile compares a wallet's balance against its ledger
// @Summary Reconcile a wallet
// @Tags Wallet Admin
// @Produce json
// @Security BearerAuth
// @Param userId path string true "User ID"
// @Success 200 {object} ReconciliationResponse
// @Failure 404 {object} ErrorResponse
// @Router /wallet/users/{userId}/reconcile [get]
func (h *WalletHandler) AdminReconcile(w http.ResponseWriter, r *http.Request) {
	report, err := h.ledger.Reconcile(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ReconciliationResponse{
		WalletID:    report.WalletID,
		UserID:      report.UserID,
		Balance:     report.Balance.StringFixed(2),
		LedgerTotal: report.LedgerTotal.StringFixed(2),
		Difference:  report.Difference.StringFixed(2),
		Balanced:    report.Balanced,
	})
}
