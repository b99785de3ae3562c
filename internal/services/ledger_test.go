package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/sbilibin2017/bank-ledger/internal/metrics"
	"github.com/sbilibin2017/bank-ledger/internal/models"
	"github.com/sbilibin2017/bank-ledger/internal/repositories"
	"github.com/sbilibin2017/bank-ledger/internal/services"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	firstAccount  int64 = 100000011
	secondAccount int64 = 100000012
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// newMemoryLedger returns a ledger over a fresh memory store with two empty
// accounts, 100000011 and 100000012.
func newMemoryLedger(t *testing.T, opts ...repositories.MemoryOption) (*services.LedgerService, *repositories.MemoryStore) {
	t.Helper()
	store := repositories.NewMemoryStore(opts...)
	ctx := context.Background()
	for _, want := range []int64{firstAccount, secondAccount} {
		got, err := store.Accounts().Open(ctx, 1)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	return services.NewLedgerService(store, store.Accounts(), store.Transactions(), nil), store
}

// decEq matches decimals by value regardless of their exponent.
type decEq string

func (d decEq) Matches(x interface{}) bool {
	v, ok := x.(decimal.Decimal)
	return ok && v.Equal(dec(string(d)))
}

func (d decEq) String() string { return "is decimal " + string(d) }

func assertBalance(t *testing.T, svc *services.LedgerService, accountNo int64, want string) {
	t.Helper()
	got, err := svc.CheckBalance(context.Background(), accountNo)
	require.NoError(t, err)
	assert.True(t, got.Equal(dec(want)), "account %d: want %s, got %s", accountNo, want, got)
}

func historyLen(t *testing.T, svc *services.LedgerService, accountNo int64) int {
	t.Helper()
	recs, err := svc.TransactionHistory(context.Background(), accountNo)
	require.NoError(t, err)
	return len(recs)
}

func TestLedgerService_ExampleScenario(t *testing.T) {
	svc, _ := newMemoryLedger(t)
	ctx := context.Background()

	assertBalance(t, svc, firstAccount, "0.00")

	rec, err := svc.Deposit(ctx, firstAccount, dec("500.00"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.TxnNo)
	assert.Equal(t, models.TransactionDeposit, rec.Type)
	assert.True(t, rec.Amount.Equal(dec("500.00")))
	assertBalance(t, svc, firstAccount, "500.00")

	rec, err = svc.Withdraw(ctx, firstAccount, dec("200.00"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), rec.TxnNo)
	assert.Equal(t, models.TransactionWithdraw, rec.Type)
	assertBalance(t, svc, firstAccount, "300.00")

	res, err := svc.Transfer(ctx, firstAccount, secondAccount, dec("100.00"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Debit.TxnNo)
	assert.Equal(t, models.TransactionTransfer, res.Debit.Type)
	assert.Equal(t, secondAccount, res.Credit.AccountNo)
	assert.Equal(t, int64(1), res.Credit.TxnNo)
	assert.Equal(t, models.TransactionDeposit, res.Credit.Type)
	assertBalance(t, svc, firstAccount, "200.00")
	assertBalance(t, svc, secondAccount, "100.00")

	history, err := svc.TransactionHistory(ctx, firstAccount)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, []int64{3, 2, 1}, []int64{history[0].TxnNo, history[1].TxnNo, history[2].TxnNo})

	history, err = svc.TransactionHistory(ctx, secondAccount)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.TransactionDeposit, history[0].Type)
}

func TestLedgerService_TransferConservesTotal(t *testing.T) {
	tests := []struct {
		name     string
		initial  string
		amount   string
		from, to int64
		wantErr  error
	}{
		{name: "partial", initial: "100.00", amount: "30.25", from: firstAccount, to: secondAccount},
		{name: "whole balance", initial: "100.00", amount: "100.00", from: firstAccount, to: secondAccount},
		{name: "descending account order", initial: "50.00", amount: "0.01", from: secondAccount, to: firstAccount},
		{name: "insufficient", initial: "10.00", amount: "10.01", from: firstAccount, to: secondAccount, wantErr: services.ErrInsufficientBalance},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newMemoryLedger(t)
			ctx := context.Background()

			_, err := svc.Deposit(ctx, tt.from, dec(tt.initial))
			require.NoError(t, err)

			_, err = svc.Transfer(ctx, tt.from, tt.to, dec(tt.amount))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assertBalance(t, svc, tt.from, tt.initial)
				assertBalance(t, svc, tt.to, "0")
				assert.Equal(t, 1, historyLen(t, svc, tt.from))
				assert.Equal(t, 0, historyLen(t, svc, tt.to))
				return
			}
			require.NoError(t, err)

			from, _ := svc.CheckBalance(ctx, tt.from)
			to, _ := svc.CheckBalance(ctx, tt.to)
			assert.True(t, from.Add(to).Equal(dec(tt.initial)))
			assert.True(t, to.Equal(dec(tt.amount)))
		})
	}
}

func TestLedgerService_DepositWithdrawRoundTrip(t *testing.T) {
	svc, _ := newMemoryLedger(t)
	ctx := context.Background()

	_, err := svc.Deposit(ctx, firstAccount, dec("42.42"))
	require.NoError(t, err)

	for _, amount := range []string{"0.01", "17.50", "1000000.99"} {
		_, err := svc.Deposit(ctx, firstAccount, dec(amount))
		require.NoError(t, err)
		_, err = svc.Withdraw(ctx, firstAccount, dec(amount))
		require.NoError(t, err)
		assertBalance(t, svc, firstAccount, "42.42")
	}
	assert.Equal(t, 7, historyLen(t, svc, firstAccount))
}

func TestLedgerService_WithdrawBoundary(t *testing.T) {
	svc, _ := newMemoryLedger(t)
	ctx := context.Background()

	_, err := svc.Deposit(ctx, firstAccount, dec("25.00"))
	require.NoError(t, err)

	_, err = svc.Withdraw(ctx, firstAccount, dec("25.01"))
	assert.ErrorIs(t, err, services.ErrInsufficientBalance)
	assertBalance(t, svc, firstAccount, "25.00")
	assert.Equal(t, 1, historyLen(t, svc, firstAccount))

	_, err = svc.Withdraw(ctx, firstAccount, dec("25.00"))
	require.NoError(t, err)
	assertBalance(t, svc, firstAccount, "0")
	assert.Equal(t, 2, historyLen(t, svc, firstAccount))
}

func TestLedgerService_InvalidAmounts(t *testing.T) {
	amounts := []string{"0", "0.00", "-1", "-0.01", "0.001", "10.999", "1000000000000000000", "1e19"}

	for _, amount := range amounts {
		t.Run(amount, func(t *testing.T) {
			svc, _ := newMemoryLedger(t)
			ctx := context.Background()

			_, err := svc.Deposit(ctx, firstAccount, dec(amount))
			assert.ErrorIs(t, err, services.ErrInvalidAmount)

			_, err = svc.Withdraw(ctx, firstAccount, dec(amount))
			assert.ErrorIs(t, err, services.ErrInvalidAmount)

			_, err = svc.Transfer(ctx, firstAccount, secondAccount, dec(amount))
			assert.ErrorIs(t, err, services.ErrInvalidAmount)

			assertBalance(t, svc, firstAccount, "0")
			assertBalance(t, svc, secondAccount, "0")
			assert.Equal(t, 0, historyLen(t, svc, firstAccount))
			assert.Equal(t, 0, historyLen(t, svc, secondAccount))
		})
	}
}

func TestLedgerService_BalanceUpperBound(t *testing.T) {
	svc, _ := newMemoryLedger(t)
	ctx := context.Background()
	const top = "999999999999999999.99"

	_, err := svc.Deposit(ctx, firstAccount, dec(top))
	require.NoError(t, err)
	_, err = svc.Deposit(ctx, secondAccount, dec("0.01"))
	require.NoError(t, err)

	_, err = svc.Deposit(ctx, firstAccount, dec("0.01"))
	assert.ErrorIs(t, err, services.ErrInvalidAmount)

	_, err = svc.Transfer(ctx, secondAccount, firstAccount, dec("0.01"))
	assert.ErrorIs(t, err, services.ErrInvalidAmount)

	assertBalance(t, svc, firstAccount, top)
	assertBalance(t, svc, secondAccount, "0.01")
	assert.Equal(t, 1, historyLen(t, svc, firstAccount))
	assert.Equal(t, 1, historyLen(t, svc, secondAccount))
}

func TestLedgerService_TransferToSameAccount(t *testing.T) {
	svc, _ := newMemoryLedger(t)
	ctx := context.Background()

	// rejected even though the balance could never cover it
	_, err := svc.Transfer(ctx, firstAccount, firstAccount, dec("5.00"))
	assert.ErrorIs(t, err, services.ErrSameAccount)

	_, err = svc.Deposit(ctx, firstAccount, dec("5.00"))
	require.NoError(t, err)
	_, err = svc.Transfer(ctx, firstAccount, firstAccount, dec("5.00"))
	assert.ErrorIs(t, err, services.ErrSameAccount)

	assertBalance(t, svc, firstAccount, "5.00")
	assert.Equal(t, 1, historyLen(t, svc, firstAccount))
}

func TestLedgerService_UnknownAccount(t *testing.T) {
	svc, _ := newMemoryLedger(t)
	ctx := context.Background()
	const missing int64 = 999999999

	_, err := svc.Deposit(ctx, missing, dec("1.00"))
	assert.ErrorIs(t, err, services.ErrAccountNotFound)

	_, err = svc.Withdraw(ctx, missing, dec("1.00"))
	assert.ErrorIs(t, err, services.ErrAccountNotFound)

	_, err = svc.Deposit(ctx, firstAccount, dec("1.00"))
	require.NoError(t, err)
	_, err = svc.Transfer(ctx, firstAccount, missing, dec("1.00"))
	assert.ErrorIs(t, err, services.ErrAccountNotFound)
	assertBalance(t, svc, firstAccount, "1.00")

	_, err = svc.CheckBalance(ctx, missing)
	assert.ErrorIs(t, err, services.ErrAccountNotFound)

	_, err = svc.TransactionHistory(ctx, missing)
	assert.ErrorIs(t, err, services.ErrAccountNotFound)
}

func TestLedgerService_ConcurrentDeposits(t *testing.T) {
	svc, _ := newMemoryLedger(t)
	ctx := context.Background()
	const n = 64

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Deposit(ctx, firstAccount, dec("2.50"))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assertBalance(t, svc, firstAccount, "160.00")

	history, err := svc.TransactionHistory(ctx, firstAccount)
	require.NoError(t, err)
	require.Len(t, history, n)
	seen := make(map[int64]bool, n)
	for _, rec := range history {
		seen[rec.TxnNo] = true
	}
	for i := int64(1); i <= n; i++ {
		assert.True(t, seen[i], "missing txn_no %d", i)
	}
}

func TestLedgerService_ConcurrentOppositeTransfers(t *testing.T) {
	svc, _ := newMemoryLedger(t)
	ctx := context.Background()

	_, err := svc.Deposit(ctx, firstAccount, dec("100.00"))
	require.NoError(t, err)
	_, err = svc.Deposit(ctx, secondAccount, dec("100.00"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = svc.Transfer(ctx, firstAccount, secondAccount, dec("3.00"))
		}()
		go func() {
			defer wg.Done()
			_, _ = svc.Transfer(ctx, secondAccount, firstAccount, dec("2.00"))
		}()
	}
	wg.Wait()

	a, _ := svc.CheckBalance(ctx, firstAccount)
	b, _ := svc.CheckBalance(ctx, secondAccount)
	assert.True(t, a.Add(b).Equal(dec("200.00")))
	assert.False(t, a.IsNegative())
	assert.False(t, b.IsNegative())
}

func TestLedgerService_HistoryTieBreak(t *testing.T) {
	frozen := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc, _ := newMemoryLedger(t, repositories.WithClock(func() time.Time { return frozen }))
	ctx := context.Background()

	for _, amount := range []string{"1.00", "2.00", "3.00"} {
		_, err := svc.Deposit(ctx, firstAccount, dec(amount))
		require.NoError(t, err)
	}
	_, err := svc.Withdraw(ctx, firstAccount, dec("0.50"))
	require.NoError(t, err)

	history, err := svc.TransactionHistory(ctx, firstAccount)
	require.NoError(t, err)
	require.Len(t, history, 4)
	for i, rec := range history {
		assert.Equal(t, int64(4-i), rec.TxnNo)
		assert.True(t, rec.CreatedAt.Equal(frozen))
	}
}

func TestLedgerService_HistoryNewestFirst(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		now = now.Add(time.Second)
		return now
	}
	svc, _ := newMemoryLedger(t, repositories.WithClock(clock))
	ctx := context.Background()

	_, err := svc.Deposit(ctx, firstAccount, dec("10.00"))
	require.NoError(t, err)
	_, err = svc.Transfer(ctx, firstAccount, secondAccount, dec("4.00"))
	require.NoError(t, err)
	_, err = svc.Withdraw(ctx, firstAccount, dec("1.00"))
	require.NoError(t, err)

	history, err := svc.TransactionHistory(ctx, firstAccount)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, models.TransactionWithdraw, history[0].Type)
	assert.Equal(t, models.TransactionTransfer, history[1].Type)
	assert.Equal(t, models.TransactionDeposit, history[2].Type)
	assert.True(t, history[0].CreatedAt.After(history[1].CreatedAt))
	assert.True(t, history[1].CreatedAt.After(history[2].CreatedAt))
}

// failingRecords fails every append after the balance write already happened.
type failingRecords struct {
	services.TransactionStore
	err error
}

func (f failingRecords) Append(context.Context, int64, models.TransactionType, decimal.Decimal) (*models.TransactionRecord, error) {
	return nil, f.err
}

func TestLedgerService_FailedAppendRollsBack(t *testing.T) {
	store := repositories.NewMemoryStore()
	ctx := context.Background()
	for range 2 {
		_, err := store.Accounts().Open(ctx, 1)
		require.NoError(t, err)
	}
	good := services.NewLedgerService(store, store.Accounts(), store.Transactions(), nil)
	_, err := good.Deposit(ctx, firstAccount, dec("10.00"))
	require.NoError(t, err)

	diskFull := errors.New("disk full")
	bad := services.NewLedgerService(store, store.Accounts(), failingRecords{store.Transactions(), diskFull}, nil)

	_, err = bad.Deposit(ctx, firstAccount, dec("5.00"))
	assert.ErrorIs(t, err, services.ErrStore)
	assert.ErrorIs(t, err, diskFull)

	_, err = bad.Withdraw(ctx, firstAccount, dec("5.00"))
	assert.ErrorIs(t, err, services.ErrStore)

	_, err = bad.Transfer(ctx, firstAccount, secondAccount, dec("5.00"))
	assert.ErrorIs(t, err, services.ErrStore)

	assertBalance(t, good, firstAccount, "10.00")
	assertBalance(t, good, secondAccount, "0")
	assert.Equal(t, 1, historyLen(t, good, firstAccount))
	assert.Equal(t, 0, historyLen(t, good, secondAccount))
}

func TestLedgerService_StoreErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		storeErr error
		want     error
	}{
		{name: "deadline", storeErr: context.DeadlineExceeded, want: services.ErrStoreUnavailable},
		{name: "canceled", storeErr: context.Canceled, want: services.ErrStoreUnavailable},
		{name: "other", storeErr: errors.New("constraint violated"), want: services.ErrStore},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			tx := services.NewMockTransactor(ctrl)
			balances := services.NewMockBalanceStore(ctrl)
			records := services.NewMockTransactionStore(ctrl)
			svc := services.NewLedgerService(tx, balances, records, nil)

			tx.EXPECT().WithinTx(gomock.Any(), gomock.Any()).Return(tt.storeErr)
			_, err := svc.Deposit(context.Background(), firstAccount, dec("1.00"))
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, tt.storeErr)

			balances.EXPECT().GetBalance(gomock.Any(), firstAccount).Return(decimal.Zero, tt.storeErr)
			_, err = svc.CheckBalance(context.Background(), firstAccount)
			assert.ErrorIs(t, err, tt.want)

			balances.EXPECT().Exists(gomock.Any(), firstAccount).Return(true, nil)
			records.EXPECT().ListByAccount(gomock.Any(), firstAccount).Return(nil, tt.storeErr)
			_, err = svc.TransactionHistory(context.Background(), firstAccount)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLedgerService_TransferLocksAscending(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	tx := services.NewMockTransactor(ctrl)
	balances := services.NewMockBalanceStore(ctrl)
	records := services.NewMockTransactionStore(ctrl)
	svc := services.NewLedgerService(tx, balances, records, nil)

	tx.EXPECT().WithinTx(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fn func(context.Context) error) error { return fn(ctx) })

	gomock.InOrder(
		balances.EXPECT().GetBalance(gomock.Any(), firstAccount).Return(dec("0"), nil),
		balances.EXPECT().GetBalance(gomock.Any(), secondAccount).Return(dec("20.00"), nil),
	)
	balances.EXPECT().SetBalance(gomock.Any(), secondAccount, decEq("12.50")).Return(nil)
	balances.EXPECT().SetBalance(gomock.Any(), firstAccount, decEq("7.50")).Return(nil)
	records.EXPECT().Append(gomock.Any(), secondAccount, models.TransactionTransfer, decEq("7.50")).
		Return(&models.TransactionRecord{AccountNo: secondAccount, TxnNo: 4, Type: models.TransactionTransfer}, nil)
	records.EXPECT().Append(gomock.Any(), firstAccount, models.TransactionDeposit, decEq("7.50")).
		Return(&models.TransactionRecord{AccountNo: firstAccount, TxnNo: 1, Type: models.TransactionDeposit}, nil)

	res, err := svc.Transfer(context.Background(), secondAccount, firstAccount, dec("7.50"))
	require.NoError(t, err)
	assert.Equal(t, int64(4), res.Debit.TxnNo)
	assert.Equal(t, int64(1), res.Credit.TxnNo)
}

func TestLedgerService_PublishesEvents(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := repositories.NewMemoryStore()
	ctx := context.Background()
	for range 2 {
		_, err := store.Accounts().Open(ctx, 1)
		require.NoError(t, err)
	}

	writer := services.NewMockKafkaWriter(ctrl)
	svc := services.NewLedgerService(store, store.Accounts(), store.Transactions(), writer)

	var published []kafka.Message
	writer.EXPECT().WriteMessages(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, msgs ...kafka.Message) error {
			published = append(published, msgs...)
			return nil
		})
	_, err := svc.Deposit(ctx, firstAccount, dec("9.00"))
	require.NoError(t, err)

	writer.EXPECT().WriteMessages(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, msgs ...kafka.Message) error {
			published = append(published, msgs...)
			return nil
		})
	_, err = svc.Transfer(ctx, firstAccount, secondAccount, dec("4.00"))
	require.NoError(t, err)

	require.Len(t, published, 3)
	assert.Equal(t, "100000011", string(published[0].Key))
	assert.Equal(t, "100000011", string(published[1].Key))
	assert.Equal(t, "100000012", string(published[2].Key))

	var event models.TransactionEvent
	require.NoError(t, json.Unmarshal(published[1].Value, &event))
	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, models.TransactionTransfer, event.Type)
	assert.Equal(t, int64(2), event.TxnNo)
	assert.True(t, event.Amount.Equal(dec("4.00")))
}

func TestLedgerService_PublishFailureDoesNotFailOperation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := repositories.NewMemoryStore()
	ctx := context.Background()
	_, err := store.Accounts().Open(ctx, 1)
	require.NoError(t, err)

	writer := services.NewMockKafkaWriter(ctrl)
	svc := services.NewLedgerService(store, store.Accounts(), store.Transactions(), writer)

	writer.EXPECT().WriteMessages(gomock.Any(), gomock.Any()).Return(errors.New("broker down"))

	rec, err := svc.Deposit(ctx, firstAccount, dec("3.00"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.TxnNo)
	assertBalance(t, svc, firstAccount, "3.00")
}

func TestLedgerService_Metrics(t *testing.T) {
	svc, _ := newMemoryLedger(t)
	ctx := context.Background()

	okBefore := metrics.OperationCount("withdraw", "ok")
	insufficientBefore := metrics.OperationCount("withdraw", "insufficient_balance")

	_, err := svc.Deposit(ctx, firstAccount, dec("1.00"))
	require.NoError(t, err)
	_, err = svc.Withdraw(ctx, firstAccount, dec("1.00"))
	require.NoError(t, err)
	_, err = svc.Withdraw(ctx, firstAccount, dec("1.00"))
	require.ErrorIs(t, err, services.ErrInsufficientBalance)

	assert.Equal(t, okBefore+1, metrics.OperationCount("withdraw", "ok"))
	assert.Equal(t, insufficientBefore+1, metrics.OperationCount("withdraw", "insufficient_balance"))
}
