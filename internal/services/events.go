package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/commerceplatform/wallet/internal/models"
	"github.com/go-redis/redis/v8"
)

// WalletEvent is emitted once per committed posting.
type WalletEvent struct {
	EventType       string                 `json:"event_type"`
	TransactionID   string                 `json:"transaction_id"`
	WalletID        string                 `json:"wallet_id"`
	UserID          string                 `json:"user_id"`
	TransactionType models.TransactionType `json:"transaction_type"`
	Amount          string                 `json:"amount"`
	BalanceAfter    string                 `json:"balance_after"`
	Sequence        int64                  `json:"sequence"`
	OrderID         *string                `json:"order_id,omitempty"`
	OccurredAt      time.Time              `json:"occurred_at"`
}

func NewWalletEvent(txn *models.Transaction) WalletEvent {
	return WalletEvent{
		EventType:       "wallet." + string(txn.Type),
		TransactionID:   txn.ID,
		WalletID:        txn.WalletID,
		UserID:          txn.UserID,
		TransactionType: txn.Type,
		Amount:          txn.Amount.StringFixed(2),
		BalanceAfter:    txn.BalanceAfter.StringFixed(2),
		Sequence:        txn.Sequence,
		OrderID:         txn.OrderID,
		OccurredAt:      txn.CreatedAt,
	}
}

type EventPublisher interface {
	Publish(ctx context.Context, event WalletEvent) error
}

// RedisEventPublisher appends events to a Redis list consumed by downstream
// workers such as notifications.
type RedisEventPublisher struct {
	client redis.Cmdable
	key    string
}

func NewRedisEventPublisher(client redis.Cmdable, key string) *RedisEventPublisher {
	return &RedisEventPublisher{client: client, key: key}
}

func (p *RedisEventPublisher) Publish(ctx context.Context, event WalletEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal wallet event: %w", err)
	}
	return p.client.RPush(ctx, p.key, data).Err()
}

type NoopEventPublisher struct{}

func (NoopEventPublisher) Publish(context.Context, WalletEvent) error { return nil }
