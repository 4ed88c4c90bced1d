package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/commerceplatform/wallet/internal/apperr"
	"github.com/commerceplatform/wallet/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Memory is an in-process Store. Each wallet has its own lock, held by a
// transaction from LockWallet until commit or rollback, so postings on one
// wallet serialize while different wallets never contend. Writes are staged
// and applied only at commit.
type Memory struct {
	mu       sync.Mutex
	wallets  map[string]models.Wallet
	byUser   map[string]string
	locks    map[string]chan struct{}
	ledger   map[string][]models.Transaction
	profiles map[string]models.UserProfile
	orders   map[string]string

	now func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		wallets:  make(map[string]models.Wallet),
		byUser:   make(map[string]string),
		locks:    make(map[string]chan struct{}),
		ledger:   make(map[string][]models.Transaction),
		profiles: make(map[string]models.UserProfile),
		orders:   make(map[string]string),
		now:      time.Now,
	}
}

// PutProfile registers a user in the directory view of the store.
func (m *Memory) PutProfile(p models.UserProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.ID] = p
}

// PutOrder links an order to the business it belongs to.
func (m *Memory) PutOrder(orderID, businessID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[orderID] = businessID
}

func (m *Memory) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return nil, apperr.NotFound("user %s not found", userID)
	}
	return &p, nil
}

func (m *Memory) GetWalletByUserID(ctx context.Context, userID string) (*models.Wallet, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.Unavailable("get wallet", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byUser[userID]
	if !ok {
		return nil, apperr.NotFound("wallet for user %s not found", userID)
	}
	w := m.wallets[id]
	return &w, nil
}

func (m *Memory) CreateWallet(ctx context.Context, userID string) (*models.Wallet, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.Unavailable("create wallet", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.byUser[userID]; ok {
		w := m.wallets[id]
		return &w, nil
	}

	now := m.now()
	w := models.Wallet{
		ID:        uuid.NewString(),
		UserID:    userID,
		Balance:   decimal.Zero,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.wallets[w.ID] = w
	m.byUser[userID] = w.ID
	m.locks[w.ID] = make(chan struct{}, 1)
	return &w, nil
}

func (m *Memory) SetWalletFlags(ctx context.Context, userID string, flags models.WalletFlags) (*models.Wallet, error) {
	m.mu.Lock()
	id, ok := m.byUser[userID]
	lock := m.locks[id]
	m.mu.Unlock()
	if !ok {
		return nil, apperr.NotFound("wallet for user %s not found", userID)
	}

	select {
	case lock <- struct{}{}:
	case <-ctx.Done():
		return nil, apperr.Unavailable("update wallet flags", ctx.Err())
	}
	defer func() { <-lock }()

	m.mu.Lock()
	defer m.mu.Unlock()
	w := m.wallets[id]
	if flags.Active != nil {
		w.IsActive = *flags.Active
	}
	if flags.Blocked != nil {
		w.IsBlocked = *flags.Blocked
	}
	w.UpdatedAt = m.now()
	m.wallets[id] = w
	return &w, nil
}

func (m *Memory) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return apperr.Unavailable("begin transaction", err)
	}

	tx := &memTx{
		store:   m,
		held:    make(map[string]chan struct{}),
		wallets: make(map[string]models.Wallet),
		ledger:  make(map[string][]models.Transaction),
	}
	defer tx.release()

	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return apperr.Unavailable("commit transaction", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for id, w := range tx.wallets {
		m.wallets[id] = w
	}
	for id, rows := range tx.ledger {
		m.ledger[id] = append(m.ledger[id], rows...)
	}
	return nil
}

func (m *Memory) ListTransactions(ctx context.Context, filter models.TransactionFilter) ([]models.TransactionView, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, apperr.Unavailable("list transactions", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	matched := []models.Transaction{}
	for _, t := range m.ledger[filter.WalletID] {
		if filter.Type != nil && t.Type != *filter.Type {
			continue
		}
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		matched = append(matched, t)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].Sequence > matched[j].Sequence
	})

	total := len(matched)
	start := min(max(filter.Offset, 0), total)
	end := total
	if filter.Limit > 0 {
		end = min(start+filter.Limit, total)
	}

	views := make([]models.TransactionView, 0, end-start)
	for _, t := range matched[start:end] {
		v := models.TransactionView{Transaction: t}
		if t.CreatedByUserID != nil {
			if p, ok := m.profiles[*t.CreatedByUserID]; ok {
				if name := p.DisplayName(); name != "" {
					v.CreatedByName = &name
				}
			}
		}
		if t.OrderID != nil {
			if business, ok := m.orders[*t.OrderID]; ok {
				v.BusinessID = &business
			}
		}
		views = append(views, v)
	}
	return views, total, nil
}

func (m *Memory) SignedTotal(ctx context.Context, walletID string) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := decimal.Zero
	for _, t := range m.ledger[walletID] {
		if t.Status == models.TransactionStatusCompleted {
			total = total.Add(t.SignedAmount())
		}
	}
	return total, nil
}

// Transactions returns the wallet's ledger in posting order.
func (m *Memory) Transactions(walletID string) []models.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Transaction(nil), m.ledger[walletID]...)
}

type memTx struct {
	store   *Memory
	held    map[string]chan struct{}
	wallets map[string]models.Wallet
	ledger  map[string][]models.Transaction
}

func (t *memTx) release() {
	for _, lock := range t.held {
		<-lock
	}
}

func (t *memTx) LockWallet(ctx context.Context, walletID string) (*models.Wallet, error) {
	if _, ok := t.held[walletID]; !ok {
		t.store.mu.Lock()
		lock, exists := t.store.locks[walletID]
		t.store.mu.Unlock()
		if !exists {
			return nil, apperr.NotFound("wallet %s not found", walletID)
		}

		select {
		case lock <- struct{}{}:
			t.held[walletID] = lock
		case <-ctx.Done():
			return nil, apperr.Unavailable("lock wallet", ctx.Err())
		}
	}
	w := t.current(walletID)
	return &w, nil
}

func (t *memTx) current(walletID string) models.Wallet {
	if w, ok := t.wallets[walletID]; ok {
		return w
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	return t.store.wallets[walletID]
}

func (t *memTx) UpdateBalance(ctx context.Context, walletID string, balance decimal.Decimal) (*models.Wallet, error) {
	if _, ok := t.held[walletID]; !ok {
		return nil, apperr.Internal("update balance", errNotLocked)
	}
	if balance.IsNegative() {
		return nil, apperr.Internal("update balance", errNegativeBalance)
	}
	w := t.current(walletID)
	w.Balance = balance
	w.Version++
	w.UpdatedAt = t.store.now()
	t.wallets[walletID] = w
	return &w, nil
}

func (t *memTx) InsertTransaction(ctx context.Context, txn *models.Transaction) (*models.Transaction, error) {
	if _, ok := t.held[txn.WalletID]; !ok {
		return nil, apperr.Internal("insert transaction", errNotLocked)
	}
	out := *txn
	if out.ID == "" {
		out.ID = uuid.NewString()
	}
	out.CreatedAt = t.store.now()
	out.UpdatedAt = out.CreatedAt
	t.ledger[out.WalletID] = append(t.ledger[out.WalletID], out)
	return &out, nil
}
