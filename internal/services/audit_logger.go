package services

import (
	"time"

	"github.com/commerceplatform/wallet/internal/apperr"
	"github.com/commerceplatform/wallet/internal/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type AuditEvent struct {
	Timestamp     time.Time       `json:"timestamp"`
	EventType     string          `json:"event_type"`
	TransactionID string          `json:"transaction_id,omitempty"`
	WalletID      string          `json:"wallet_id,omitempty"`
	UserID        string          `json:"user_id"`
	Amount        decimal.Decimal `json:"amount"`
	Status        string          `json:"status"`
	Details       any             `json:"details,omitempty"`
}

// AuditLogger records every posting attempt on a dedicated logger.
type AuditLogger struct {
	logger *zap.Logger
}

func NewAuditLogger(logger *zap.Logger) *AuditLogger {
	return &AuditLogger{logger: logger.Named("audit")}
}

func (a *AuditLogger) LogPosting(txn *models.Transaction) {
	details := map[string]string{
		"transaction_type": string(txn.Type),
		"balance_before":   txn.BalanceBefore.StringFixed(2),
		"balance_after":    txn.BalanceAfter.StringFixed(2),
	}
	if txn.CreatedByUserID != nil {
		details["actor_user_id"] = *txn.CreatedByUserID
	}
	if txn.CreatedByRole != nil {
		details["actor_role"] = *txn.CreatedByRole
	}
	a.log(AuditEvent{
		Timestamp:     time.Now(),
		EventType:     "POSTING",
		TransactionID: txn.ID,
		WalletID:      txn.WalletID,
		UserID:        txn.UserID,
		Amount:        txn.Amount,
		Status:        string(txn.Status),
		Details:       details,
	})
}

// LogRejected records a posting refused for a business reason or a failure.
// Business rejections log at info, everything else at error.
func (a *AuditLogger) LogRejected(typ models.TransactionType, userID string, amount decimal.Decimal, err error) {
	event := AuditEvent{
		Timestamp: time.Now(),
		EventType: "REJECTED",
		UserID:    userID,
		Amount:    amount,
		Status:    apperr.KindOf(err).String(),
		Details: map[string]string{
			"transaction_type": string(typ),
			"error":            err.Error(),
		},
	}
	switch apperr.KindOf(err) {
	case apperr.KindInsufficientFunds, apperr.KindWalletBlocked, apperr.KindValidation:
		a.log(event)
	default:
		event.EventType = "ERROR"
		a.logger.Error("AUDIT", zap.Any("event", event))
	}
}

func (a *AuditLogger) log(event AuditEvent) {
	a.logger.Info("AUDIT", zap.Any("event", event))
}
