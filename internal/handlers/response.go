package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/commerceplatform/wallet/internal/apperr"
	"github.com/commerceplatform/wallet/internal/models"
	"github.com/commerceplatform/wallet/internal/services"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const maxBodyBytes = 1_048_576

// ErrorResponse represents error response structure
type ErrorResponse struct {
	Error     string            `json:"error"`
	Code      string            `json:"code,omitempty"`
	Details   map[string]string `json:"details,omitempty"`
	Available string            `json:"available,omitempty"`
	Requested string            `json:"requested,omitempty"`
	Shortfall string            `json:"shortfall,omitempty"`
}

type TransactionResponse struct {
	ID              string    `json:"id"`
	WalletID        string    `json:"wallet_id"`
	UserID          string    `json:"user_id"`
	TransactionType string    `json:"transaction_type"`
	Amount          string    `json:"amount"`
	Status          string    `json:"status"`
	BalanceBefore   string    `json:"balance_before"`
	BalanceAfter    string    `json:"balance_after"`
	Sequence        int64     `json:"sequence"`
	OrderID         *string   `json:"order_id,omitempty"`
	OrderItemID     *string   `json:"order_item_id,omitempty"`
	Description     *string   `json:"description,omitempty"`
	Reason          *string   `json:"reason,omitempty"`
	CreatedByUserID *string   `json:"created_by_user_id,omitempty"`
	CreatedByRole   *string   `json:"created_by_role,omitempty"`
	CreatedByName   *string   `json:"created_by_name,omitempty"`
	BusinessID      *string   `json:"business_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func newTransactionResponse(t *models.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:              t.ID,
		WalletID:        t.WalletID,
		UserID:          t.UserID,
		TransactionType: string(t.Type),
		Amount:          t.Amount.StringFixed(2),
		Status:          string(t.Status),
		BalanceBefore:   t.BalanceBefore.StringFixed(2),
		BalanceAfter:    t.BalanceAfter.StringFixed(2),
		Sequence:        t.Sequence,
		OrderID:         t.OrderID,
		OrderItemID:     t.OrderItemID,
		Description:     t.Description,
		Reason:          t.Reason,
		CreatedByUserID: t.CreatedByUserID,
		CreatedByRole:   t.CreatedByRole,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

type BalanceResponse struct {
	WalletID          string     `json:"wallet_id"`
	UserID            string     `json:"user_id"`
	Balance           string     `json:"balance"`
	IsActive          bool       `json:"is_active"`
	IsBlocked         bool       `json:"is_blocked"`
	LastTransactionAt *time.Time `json:"last_transaction_at"`
}

func newBalanceResponse(s *services.BalanceSummary) BalanceResponse {
	return BalanceResponse{
		WalletID:          s.WalletID,
		UserID:            s.UserID,
		Balance:           s.Balance.StringFixed(2),
		IsActive:          s.IsActive,
		IsBlocked:         s.IsBlocked,
		LastTransactionAt: s.LastTransactionAt,
	}
}

type CanUseResponse struct {
	CanUse         bool   `json:"can_use"`
	Balance        string `json:"balance"`
	RequiredAmount string `json:"required_amount"`
	Sufficient     bool   `json:"sufficient"`
}

type HistoryResponse struct {
	Data       []TransactionResponse `json:"data"`
	Pagination services.Pagination   `json:"pagination"`
}

func newHistoryResponse(page *services.HistoryPage) HistoryResponse {
	data := make([]TransactionResponse, 0, len(page.Data))
	for i := range page.Data {
		v := &page.Data[i]
		resp := newTransactionResponse(&v.Transaction)
		resp.CreatedByName = v.CreatedByName
		resp.BusinessID = v.BusinessID
		data = append(data, resp)
	}
	return HistoryResponse{Data: data, Pagination: page.Pagination}
}

type WalletStatusResponse struct {
	WalletID  string `json:"wallet_id"`
	UserID    string `json:"user_id"`
	IsActive  bool   `json:"is_active"`
	IsBlocked bool   `json:"is_blocked"`
}

type ReconciliationResponse struct {
	WalletID    string `json:"wallet_id"`
	UserID      string `json:"user_id"`
	Balance     string `json:"balance"`
	LedgerTotal string `json:"ledger_total"`
	Difference  string `json:"difference"`
	Balanced    bool   `json:"balanced"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// SendErrorResponse sends a JSON error response
func SendErrorResponse(w http.ResponseWriter, message string, statusCode int, validationErr error) {
	errorResp := ErrorResponse{Error: message}
	var fieldErrs validator.ValidationErrors
	if errors.As(validationErr, &fieldErrs) {
		errorResp.Details = make(map[string]string)
		for _, err := range fieldErrs {
			errorResp.Details[err.Field()] = fmt.Sprintf("Field Validation Failed on '%s' tag", err.Tag())
		}
	}
	writeJSON(w, statusCode, errorResp)
}

// writeError maps an error kind to its HTTP status. Only the classified
// message reaches the client; causes are logged.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	kind := apperr.KindOf(err)

	var ife *apperr.InsufficientFundsError
	if errors.As(err, &ife) {
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:     ife.Error(),
			Code:      kind.String(),
			Available: ife.Available.StringFixed(2),
			Requested: ife.Requested.StringFixed(2),
			Shortfall: ife.Shortfall().StringFixed(2),
		})
		return
	}

	message := "internal server error"
	var ae *apperr.Error
	if errors.As(err, &ae) && kind != apperr.KindInternal {
		message = ae.Message
	}

	resp := ErrorResponse{Error: message, Code: kind.String()}
	status := http.StatusInternalServerError
	switch kind {
	case apperr.KindValidation:
		status = http.StatusBadRequest
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			resp.Details = make(map[string]string)
			for _, fe := range fieldErrs {
				resp.Details[fe.Field()] = fmt.Sprintf("Field Validation Failed on '%s' tag", fe.Tag())
			}
		}
	case apperr.KindWalletBlocked:
		status = http.StatusForbidden
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindUnavailable:
		status = http.StatusServiceUnavailable
		message = "service temporarily unavailable"
		resp.Error = message
		w.Header().Set("Retry-After", "1")
		logger.Warn("storage unavailable", zap.Error(err))
	default:
		logger.Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, resp)
}

// decodeJSON reads exactly one JSON object with no unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return false
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return false
	}
	return true
}
