package services

import (
	"context"
	"errors"
	"math/rand"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/commerceplatform/wallet/internal/apperr"
	"github.com/commerceplatform/wallet/internal/models"
	"github.com/commerceplatform/wallet/internal/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	store    *store.Memory
	accounts *AccountService
	ledger   *LedgerService
	history  *HistoryService
}

func newFixture(t *testing.T, events EventPublisher) *fixture {
	t.Helper()
	st := store.NewMemory()
	logger := zap.NewNop()
	accounts := NewAccountService(st, st, logger)
	return &fixture{
		store:    st,
		accounts: accounts,
		ledger:   NewLedgerService(st, accounts, events, NewAuditLogger(logger), 5*time.Second, logger),
		history:  NewHistoryService(st, accounts, 20, 100, logger),
	}
}

func amt(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func (f *fixture) walletOf(t *testing.T, userID string) *models.Wallet {
	t.Helper()
	w, err := f.accounts.GetOrCreateWallet(context.Background(), userID)
	require.NoError(t, err)
	return w
}

func TestLedgerService_CreditDebitScenario(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	user := uuid.NewString()

	balance, err := f.accounts.GetBalance(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, "0.00", balance.StringFixed(2))

	reason := "credit note"
	credit, err := f.ledger.Credit(ctx, PostingRequest{UserID: user, Amount: amt("100.00"), Reason: &reason})
	require.NoError(t, err)
	assert.Equal(t, models.TransactionTypeCredit, credit.Type)
	assert.Equal(t, models.TransactionStatusCompleted, credit.Status)
	assert.Equal(t, "100.00", credit.Amount.StringFixed(2))
	assert.Equal(t, "0.00", credit.BalanceBefore.StringFixed(2))
	assert.Equal(t, "100.00", credit.BalanceAfter.StringFixed(2))
	assert.Equal(t, "credit note", *credit.Reason)

	debit, err := f.ledger.Debit(ctx, PostingRequest{UserID: user, Amount: amt("30.00")})
	require.NoError(t, err)
	assert.Equal(t, models.TransactionTypeDebit, debit.Type)
	assert.Equal(t, "100.00", debit.BalanceBefore.StringFixed(2))
	assert.Equal(t, "70.00", debit.BalanceAfter.StringFixed(2))

	_, err = f.ledger.Debit(ctx, PostingRequest{UserID: user, Amount: amt("100.00")})
	require.Error(t, err)
	var ife *apperr.InsufficientFundsError
	require.True(t, errors.As(err, &ife))
	assert.Equal(t, "70.00", ife.Available.StringFixed(2))
	assert.Equal(t, "100.00", ife.Requested.StringFixed(2))
	assert.Contains(t, err.Error(), "available 70.00, requested 100.00")

	balance, err = f.accounts.GetBalance(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, "70.00", balance.StringFixed(2))

	page, err := f.history.List(ctx, HistoryQuery{UserID: user, Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Pagination.Total)
	require.Len(t, page.Data, 2)
	assert.Equal(t, debit.ID, page.Data[0].ID)
	assert.Equal(t, credit.ID, page.Data[1].ID)
}

func TestLedgerService_FailedDebitHasNoEffect(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	user := uuid.NewString()

	_, err := f.ledger.Credit(ctx, PostingRequest{UserID: user, Amount: amt("10.00")})
	require.NoError(t, err)
	w := f.walletOf(t, user)
	before := len(f.store.Transactions(w.ID))

	_, err = f.ledger.Debit(ctx, PostingRequest{UserID: user, Amount: amt("10.01")})
	assert.True(t, apperr.Is(err, apperr.KindInsufficientFunds))

	after := f.walletOf(t, user)
	assert.Equal(t, before, len(f.store.Transactions(w.ID)))
	assert.True(t, after.Balance.Equal(w.Balance))
	assert.Equal(t, w.Version, after.Version)
}

func TestLedgerService_ConcurrentDebits(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	user := uuid.NewString()

	_, err := f.ledger.Credit(ctx, PostingRequest{UserID: user, Amount: amt("100.00")})
	require.NoError(t, err)

	const workers = 5
	results := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.ledger.Debit(ctx, PostingRequest{UserID: user, Amount: amt("60.00")})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, insufficient int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case apperr.Is(err, apperr.KindInsufficientFunds):
			insufficient++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 4, insufficient)

	balance, err := f.accounts.GetBalance(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, "40.00", balance.StringFixed(2))
}

// assertLedgerConsistent checks that the balance is the signed sum of the
// ledger and that every row continues from the previous one.
func assertLedgerConsistent(t *testing.T, f *fixture, userID string) {
	t.Helper()
	w := f.walletOf(t, userID)
	rows := f.store.Transactions(w.ID)

	total, err := f.store.SignedTotal(context.Background(), w.ID)
	require.NoError(t, err)
	assert.True(t, total.Equal(w.Balance), "ledger total %s, balance %s", total, w.Balance)
	assert.False(t, w.Balance.IsNegative())
	assert.EqualValues(t, len(rows), w.Version)

	prev := decimal.Zero
	for i, row := range rows {
		assert.EqualValues(t, i+1, row.Sequence)
		assert.True(t, row.BalanceBefore.Equal(prev), "row %d starts at %s, previous ended at %s", i, row.BalanceBefore, prev)
		assert.True(t, row.BalanceAfter.Sub(row.BalanceBefore).Equal(row.SignedAmount()))
		assert.False(t, row.BalanceAfter.IsNegative())
		prev = row.BalanceAfter
	}
}

func randomAmount(rng *rand.Rand) decimal.Decimal {
	return decimal.New(int64(rng.Intn(20000)+1), -2)
}

func TestLedgerService_RandomSequencesStayConsistent(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 5; run++ {
		user := uuid.NewString()
		for i := 0; i < 200; i++ {
			req := PostingRequest{UserID: user, Amount: randomAmount(rng)}
			var err error
			if rng.Intn(2) == 0 {
				_, err = f.ledger.Credit(ctx, req)
			} else {
				_, err = f.ledger.Debit(ctx, req)
			}
			if err != nil {
				require.True(t, apperr.Is(err, apperr.KindInsufficientFunds), "unexpected error: %v", err)
			}

			balance, err := f.accounts.GetBalance(ctx, user)
			require.NoError(t, err)
			require.False(t, balance.IsNegative())
		}
		assertLedgerConsistent(t, f, user)
	}
}

func TestLedgerService_ConcurrentMixedPostingsStayConsistent(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	user := uuid.NewString()
	f.walletOf(t, user)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for i := 0; i < 50; i++ {
				req := PostingRequest{UserID: user, Amount: randomAmount(rng)}
				var err error
				if rng.Intn(3) == 0 {
					_, err = f.ledger.Credit(ctx, req)
				} else {
					_, err = f.ledger.Debit(ctx, req)
				}
				if err != nil && !apperr.Is(err, apperr.KindInsufficientFunds) {
					t.Errorf("unexpected error: %v", err)
				}
			}
		}(int64(g))
	}
	wg.Wait()

	assertLedgerConsistent(t, f, user)
}

func TestLedgerService_RoundTrip(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	user := uuid.NewString()
	start := f.walletOf(t, user).Balance

	_, err := f.ledger.Credit(ctx, PostingRequest{UserID: user, Amount: amt("42.17")})
	require.NoError(t, err)
	_, err = f.ledger.Debit(ctx, PostingRequest{UserID: user, Amount: amt("42.17")})
	require.NoError(t, err)

	w := f.walletOf(t, user)
	assert.True(t, w.Balance.Equal(start))
	rows := f.store.Transactions(w.ID)
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Equal(t, "42.17", row.Amount.StringFixed(2))
	}
}

func TestLedgerService_BlockedAndInactiveWallets(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	user := uuid.NewString()
	f.store.PutProfile(models.UserProfile{ID: user, FirstName: "Jane", Role: models.RoleClient})

	_, err := f.ledger.Credit(ctx, PostingRequest{UserID: user, Amount: amt("50.00")})
	require.NoError(t, err)

	_, err = f.accounts.SetBlocked(ctx, user, true)
	require.NoError(t, err)

	_, err = f.ledger.Credit(ctx, PostingRequest{UserID: user, Amount: amt("1.00")})
	assert.True(t, apperr.Is(err, apperr.KindWalletBlocked))
	_, err = f.ledger.Debit(ctx, PostingRequest{UserID: user, Amount: amt("1.00")})
	assert.True(t, apperr.Is(err, apperr.KindWalletBlocked))

	usage, err := f.accounts.CanUseWallet(ctx, user, amt("1.00"))
	require.NoError(t, err)
	assert.False(t, usage.CanUse)

	_, err = f.accounts.SetBlocked(ctx, user, false)
	require.NoError(t, err)
	_, err = f.accounts.SetActive(ctx, user, false)
	require.NoError(t, err)

	_, err = f.ledger.Debit(ctx, PostingRequest{UserID: user, Amount: amt("1.00")})
	require.True(t, apperr.Is(err, apperr.KindWalletBlocked))
	assert.Contains(t, err.Error(), "inactive")

	_, err = f.accounts.SetActive(ctx, user, true)
	require.NoError(t, err)
	_, err = f.ledger.Debit(ctx, PostingRequest{UserID: user, Amount: amt("1.00")})
	assert.NoError(t, err)

	assert.Equal(t, "49.00", f.walletOf(t, user).Balance.StringFixed(2))
	assertLedgerConsistent(t, f, user)
}

func TestLedgerService_ValidationNeverTouchesStorage(t *testing.T) {
	ms := &MockStore{}
	logger := zap.NewNop()
	accounts := NewAccountService(ms, &MockDirectory{}, logger)
	ledger := NewLedgerService(ms, accounts, nil, NewAuditLogger(logger), time.Second, logger)
	ctx := context.Background()
	user := uuid.NewString()
	long := strings.Repeat("x", 1001)
	notUUID := "order-7"

	tests := []struct {
		name string
		req  PostingRequest
	}{
		{"zero amount", PostingRequest{UserID: user, Amount: decimal.Zero}},
		{"negative amount", PostingRequest{UserID: user, Amount: amt("-5")}},
		{"three decimals", PostingRequest{UserID: user, Amount: amt("1.005")}},
		{"too large", PostingRequest{UserID: user, Amount: amt("1000000000000")}},
		{"bad user id", PostingRequest{UserID: "user-1", Amount: amt("5")}},
		{"long description", PostingRequest{UserID: user, Amount: amt("5"), Description: &long}},
		{"bad order id", PostingRequest{UserID: user, Amount: amt("5"), OrderID: &notUUID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ledger.Credit(ctx, tt.req)
			assert.True(t, apperr.Is(err, apperr.KindValidation), "got %v", err)
			_, err = ledger.Debit(ctx, tt.req)
			assert.True(t, apperr.Is(err, apperr.KindValidation), "got %v", err)
		})
	}

	_, err := ledger.Pay(ctx, PostingRequest{UserID: user, Amount: amt("5")})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	_, err = ledger.Adjust(ctx, AdjustmentRequest{UserID: user, Delta: amt("5")})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	ms.AssertExpectations(t)
	ms.AssertNotCalled(t, "GetWalletByUserID", mock.Anything, mock.Anything)
	ms.AssertNotCalled(t, "WithinTx", mock.Anything, mock.Anything)
}

func TestLedgerService_UnavailableStorage(t *testing.T) {
	ms := &MockStore{}
	logger := zap.NewNop()
	accounts := NewAccountService(ms, &MockDirectory{}, logger)
	ledger := NewLedgerService(ms, accounts, nil, NewAuditLogger(logger), time.Second, logger)
	user := uuid.NewString()

	ms.On("GetWalletByUserID", mock.Anything, user).
		Return(nil, apperr.Unavailable("get wallet", errors.New("connection refused")))

	_, err := ledger.Debit(context.Background(), PostingRequest{UserID: user, Amount: amt("5")})
	assert.True(t, apperr.IsRetryable(err))
	ms.AssertExpectations(t)
}

func TestLedgerService_CancelledContextHasNoEffect(t *testing.T) {
	f := newFixture(t, nil)
	user := uuid.NewString()
	w := f.walletOf(t, user)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.ledger.Credit(ctx, PostingRequest{UserID: user, Amount: amt("5")})
	assert.True(t, apperr.IsRetryable(err))
	assert.Empty(t, f.store.Transactions(w.ID))
	assert.True(t, f.walletOf(t, user).Balance.IsZero())
}

func TestLedgerService_PublishesEventsAfterCommit(t *testing.T) {
	publisher := &MockPublisher{}
	f := newFixture(t, publisher)
	user := uuid.NewString()

	publisher.On("Publish", mock.Anything, mock.MatchedBy(func(e WalletEvent) bool {
		return e.EventType == "wallet.credit" && e.UserID == user && e.Sequence == 1
	})).Return(errors.New("redis unavailable")).Once()

	txn, err := f.ledger.Credit(context.Background(), PostingRequest{UserID: user, Amount: amt("12.50")})
	require.NoError(t, err)
	assert.Equal(t, "12.50", txn.BalanceAfter.StringFixed(2))
	publisher.AssertExpectations(t)

	_, err = f.ledger.Debit(context.Background(), PostingRequest{UserID: user, Amount: amt("20.00")})
	assert.True(t, apperr.Is(err, apperr.KindInsufficientFunds))
	publisher.AssertNumberOfCalls(t, "Publish", 1)
}

func TestLedgerService_RefundPayAdjust(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	user := uuid.NewString()
	admin := uuid.NewString()
	adminRole := models.RoleAdmin
	order := uuid.NewString()
	f.store.PutProfile(models.UserProfile{ID: user, FirstName: "Jane", LastName: "Doe", Role: models.RoleClient})

	refund, err := f.ledger.Refund(ctx, PostingRequest{UserID: user, Amount: amt("80.00"), OrderID: &order})
	require.NoError(t, err)
	assert.Equal(t, models.TransactionTypeRefund, refund.Type)
	assert.Equal(t, "80.00", refund.BalanceAfter.StringFixed(2))

	payment, err := f.ledger.Pay(ctx, PostingRequest{UserID: user, Amount: amt("25.00"), OrderID: &order})
	require.NoError(t, err)
	assert.Equal(t, models.TransactionTypePayment, payment.Type)
	assert.Equal(t, "55.00", payment.BalanceAfter.StringFixed(2))

	reason := "manual correction"
	up, err := f.ledger.Adjust(ctx, AdjustmentRequest{
		UserID: user, Delta: amt("5.00"), Reason: &reason, ActorUserID: &admin, ActorRole: &adminRole,
	})
	require.NoError(t, err)
	assert.Equal(t, models.TransactionTypeAdjustment, up.Type)
	assert.Equal(t, "5.00", up.Amount.StringFixed(2))
	assert.Equal(t, "5.00", up.SignedAmount().StringFixed(2))
	assert.Equal(t, admin, *up.CreatedByUserID)

	down, err := f.ledger.Adjust(ctx, AdjustmentRequest{UserID: user, Delta: amt("-10.00"), Reason: &reason})
	require.NoError(t, err)
	assert.Equal(t, "10.00", down.Amount.StringFixed(2))
	assert.Equal(t, "-10.00", down.SignedAmount().StringFixed(2))
	assert.Equal(t, "50.00", down.BalanceAfter.StringFixed(2))

	_, err = f.ledger.Adjust(ctx, AdjustmentRequest{UserID: user, Delta: amt("-50.01"), Reason: &reason})
	assert.True(t, apperr.Is(err, apperr.KindInsufficientFunds))

	report, err := f.ledger.Reconcile(ctx, user)
	require.NoError(t, err)
	assert.True(t, report.Balanced)
	assert.Equal(t, "50.00", report.Balance.StringFixed(2))
	assert.True(t, report.Difference.IsZero())

	assertLedgerConsistent(t, f, user)
}

func TestLedgerService_ReconcileUnknownUser(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.ledger.Reconcile(context.Background(), uuid.NewString())
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

type stubTx struct {
	wallet *models.Wallet
}

func (s *stubTx) LockWallet(ctx context.Context, walletID string) (*models.Wallet, error) {
	return s.wallet, nil
}

func (s *stubTx) UpdateBalance(ctx context.Context, walletID string, balance decimal.Decimal) (*models.Wallet, error) {
	return nil, errors.New("unexpected write")
}

func (s *stubTx) InsertTransaction(ctx context.Context, txn *models.Transaction) (*models.Transaction, error) {
	return nil, errors.New("unexpected write")
}

func TestLedgerService_ReconcileDetectsDrift(t *testing.T) {
	ms := &MockStore{}
	dir := &MockDirectory{}
	logger := zap.NewNop()
	accounts := NewAccountService(ms, dir, logger)
	ledger := NewLedgerService(ms, accounts, nil, NewAuditLogger(logger), time.Second, logger)
	user := uuid.NewString()
	wallet := &models.Wallet{ID: uuid.NewString(), UserID: user, Balance: amt("50.00"), IsActive: true}

	dir.On("GetProfile", mock.Anything, user).Return(&models.UserProfile{ID: user}, nil)
	ms.On("GetWalletByUserID", mock.Anything, user).Return(wallet, nil)
	ms.On("SignedTotal", mock.Anything, wallet.ID).Return(amt("40.00"), nil)
	ms.On("WithinTx", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			fn := args.Get(1).(func(store.Tx) error)
			require.NoError(t, fn(&stubTx{wallet: wallet}))
		}).
		Return(nil)

	report, err := ledger.Reconcile(context.Background(), user)
	require.NoError(t, err)
	assert.False(t, report.Balanced)
	assert.Equal(t, "10.00", report.Difference.StringFixed(2))
	ms.AssertExpectations(t)
	dir.AssertExpectations(t)
}

func TestLedgerService_DebitRollsBackOnPostgres(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	st := store.NewPostgres(db)
	logger := zap.NewNop()
	accounts := NewAccountService(st, store.NewPostgresDirectory(db), logger)
	ledger := NewLedgerService(st, accounts, nil, NewAuditLogger(logger), time.Second, logger)

	user := uuid.NewString()
	walletID := uuid.NewString()
	cols := []string{"id", "user_id", "balance", "is_active", "is_blocked", "version", "created_at", "updated_at"}
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = $1")).
		WithArgs(user).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(walletID, user, "10.00", true, false, 3, now, now))
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1 FOR UPDATE")).
		WithArgs(walletID).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(walletID, user, "10.00", true, false, 3, now, now))
	mock.ExpectRollback()

	_, err = ledger.Debit(context.Background(), PostingRequest{UserID: user, Amount: amt("30.00")})

	var ife *apperr.InsufficientFundsError
	require.True(t, errors.As(err, &ife))
	assert.Equal(t, "10.00", ife.Available.StringFixed(2))
	assert.NoError(t, mock.ExpectationsWereMet())
}
