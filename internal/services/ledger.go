package services

//go:generate mockgen -source=ledger.go -destination=ledger_mock.go -package=services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sbilibin2017/bank-ledger/internal/logger"
	"github.com/sbilibin2017/bank-ledger/internal/metrics"
	"github.com/sbilibin2017/bank-ledger/internal/models"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

// Transactor runs fn as one atomic unit: everything fn does through the
// context-bound store commits together or not at all.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// BalanceStore reads and writes account balances. Inside an atomic unit
// GetBalance keeps the account locked until the unit ends. Missing accounts
// are reported as sql.ErrNoRows.
type BalanceStore interface {
	GetBalance(ctx context.Context, accountNo int64) (decimal.Decimal, error)
	SetBalance(ctx context.Context, accountNo int64, balance decimal.Decimal) error
	Exists(ctx context.Context, accountNo int64) (bool, error)
}

// TransactionStore appends and lists immutable ledger records.
type TransactionStore interface {
	Append(ctx context.Context, accountNo int64, txnType models.TransactionType, amount decimal.Decimal) (*models.TransactionRecord, error)
	ListByAccount(ctx context.Context, accountNo int64) ([]models.TransactionRecord, error)
}

// KafkaWriter defines a Kafka writer abstraction.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// LedgerService moves money between accounts and keeps the transaction log.
type LedgerService struct {
	tx          Transactor
	balances    BalanceStore
	records     TransactionStore
	kafkaWriter KafkaWriter
}

// NewLedgerService creates a new LedgerService. kafkaWriter may be nil.
func NewLedgerService(
	tx Transactor,
	balances BalanceStore,
	records TransactionStore,
	kafkaWriter KafkaWriter,
) *LedgerService {
	return &LedgerService{
		tx:          tx,
		balances:    balances,
		records:     records,
		kafkaWriter: kafkaWriter,
	}
}

// Deposit credits amount to the account and records a Deposit entry.
func (s *LedgerService) Deposit(ctx context.Context, accountNo int64, amount decimal.Decimal) (rec *models.TransactionRecord, err error) {
	defer observe("deposit", time.Now(), &err)

	if err := validateAmount(amount); err != nil {
		logger.Log.Warnw("rejected deposit", "account_no", accountNo, "amount", amount, "error", err)
		return nil, err
	}

	err = s.atomically(ctx, func(ctx context.Context) error {
		balance, err := s.lockBalance(ctx, accountNo)
		if err != nil {
			return err
		}
		credited, err := creditBalance(balance, amount)
		if err != nil {
			return err
		}
		if err := s.balances.SetBalance(ctx, accountNo, credited); err != nil {
			return err
		}
		rec, err = s.records.Append(ctx, accountNo, models.TransactionDeposit, amount)
		return err
	})
	if err != nil {
		logger.Log.Errorw("failed to deposit", "account_no", accountNo, "amount", amount, "error", err)
		return nil, err
	}

	s.publishTransactions(ctx, *rec)
	return rec, nil
}

// Withdraw debits amount from the account and records a Withdraw entry.
func (s *LedgerService) Withdraw(ctx context.Context, accountNo int64, amount decimal.Decimal) (rec *models.TransactionRecord, err error) {
	defer observe("withdraw", time.Now(), &err)

	if err := validateAmount(amount); err != nil {
		logger.Log.Warnw("rejected withdrawal", "account_no", accountNo, "amount", amount, "error", err)
		return nil, err
	}

	err = s.atomically(ctx, func(ctx context.Context) error {
		balance, err := s.lockBalance(ctx, accountNo)
		if err != nil {
			return err
		}
		if balance.LessThan(amount) {
			return ErrInsufficientBalance
		}
		if err := s.balances.SetBalance(ctx, accountNo, balance.Sub(amount)); err != nil {
			return err
		}
		rec, err = s.records.Append(ctx, accountNo, models.TransactionWithdraw, amount)
		return err
	})
	if err != nil {
		logger.Log.Errorw("failed to withdraw", "account_no", accountNo, "amount", amount, "error", err)
		return nil, err
	}

	s.publishTransactions(ctx, *rec)
	return rec, nil
}

// Transfer moves amount from one account to another. The source gets a
// Transfer entry and the destination a Deposit entry. Both accounts are locked
// in ascending account number order so opposite transfers cannot deadlock.
func (s *LedgerService) Transfer(ctx context.Context, fromAccountNo, toAccountNo int64, amount decimal.Decimal) (res *models.TransferResult, err error) {
	defer observe("transfer", time.Now(), &err)

	if err := validateAmount(amount); err != nil {
		logger.Log.Warnw("rejected transfer", "from", fromAccountNo, "to", toAccountNo, "amount", amount, "error", err)
		return nil, err
	}
	if fromAccountNo == toAccountNo {
		logger.Log.Warnw("rejected transfer", "from", fromAccountNo, "to", toAccountNo, "error", ErrSameAccount)
		return nil, ErrSameAccount
	}

	err = s.atomically(ctx, func(ctx context.Context) error {
		balances := make(map[int64]decimal.Decimal, 2)
		for _, accountNo := range lockOrder(fromAccountNo, toAccountNo) {
			balance, err := s.lockBalance(ctx, accountNo)
			if err != nil {
				return err
			}
			balances[accountNo] = balance
		}

		if balances[fromAccountNo].LessThan(amount) {
			return ErrInsufficientBalance
		}
		credited, err := creditBalance(balances[toAccountNo], amount)
		if err != nil {
			return err
		}
		if err := s.balances.SetBalance(ctx, fromAccountNo, balances[fromAccountNo].Sub(amount)); err != nil {
			return err
		}
		if err := s.balances.SetBalance(ctx, toAccountNo, credited); err != nil {
			return err
		}

		debit, err := s.records.Append(ctx, fromAccountNo, models.TransactionTransfer, amount)
		if err != nil {
			return err
		}
		credit, err := s.records.Append(ctx, toAccountNo, models.TransactionDeposit, amount)
		if err != nil {
			return err
		}
		res = &models.TransferResult{Debit: *debit, Credit: *credit}
		return nil
	})
	if err != nil {
		logger.Log.Errorw("failed to transfer", "from", fromAccountNo, "to", toAccountNo, "amount", amount, "error", err)
		return nil, err
	}

	s.publishTransactions(ctx, res.Debit, res.Credit)
	return res, nil
}

// CheckBalance returns the committed balance of the account.
func (s *LedgerService) CheckBalance(ctx context.Context, accountNo int64) (balance decimal.Decimal, err error) {
	defer observe("balance", time.Now(), &err)

	balance, err = s.balances.GetBalance(ctx, accountNo)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, ErrAccountNotFound
	}
	if err != nil {
		err = classifyStoreError(err)
		logger.Log.Errorw("failed to get balance", "account_no", accountNo, "error", err)
		return decimal.Zero, err
	}
	return balance, nil
}

// TransactionHistory returns every record of the account, newest first, with
// the sequence number breaking timestamp ties.
func (s *LedgerService) TransactionHistory(ctx context.Context, accountNo int64) (records []models.TransactionRecord, err error) {
	defer observe("history", time.Now(), &err)

	exists, err := s.balances.Exists(ctx, accountNo)
	if err != nil {
		err = classifyStoreError(err)
		logger.Log.Errorw("failed to check account", "account_no", accountNo, "error", err)
		return nil, err
	}
	if !exists {
		return nil, ErrAccountNotFound
	}

	records, err = s.records.ListByAccount(ctx, accountNo)
	if err != nil {
		err = classifyStoreError(err)
		logger.Log.Errorw("failed to list transactions", "account_no", accountNo, "error", err)
		return nil, err
	}
	return records, nil
}

// atomically runs fn as one unit and classifies whatever error aborted it.
// Failed units are never retried.
func (s *LedgerService) atomically(ctx context.Context, fn func(ctx context.Context) error) error {
	return classifyStoreError(s.tx.WithinTx(ctx, fn))
}

// lockBalance reads the balance inside the current unit, locking the account.
func (s *LedgerService) lockBalance(ctx context.Context, accountNo int64) (decimal.Decimal, error) {
	balance, err := s.balances.GetBalance(ctx, accountNo)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, ErrAccountNotFound
	}
	return balance, err
}

// publishTransactions publishes committed records to Kafka. Failures are
// logged and never change the outcome of the operation.
func (s *LedgerService) publishTransactions(ctx context.Context, records ...models.TransactionRecord) {
	if s.kafkaWriter == nil {
		logger.Log.Warnw("Kafka writer not configured, skipping publishing", "records", len(records))
		return
	}

	msgs := make([]kafka.Message, 0, len(records))
	for _, rec := range records {
		event := models.TransactionEvent{
			EventID:   uuid.NewString(),
			AccountNo: rec.AccountNo,
			TxnNo:     rec.TxnNo,
			Type:      rec.Type,
			Amount:    rec.Amount,
			CreatedAt: rec.CreatedAt,
		}
		data, err := json.Marshal(event)
		if err != nil {
			logger.Log.Errorw("Failed to marshal transaction event", "account_no", rec.AccountNo, "txn_no", rec.TxnNo, "error", err)
			continue
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(strconv.FormatInt(rec.AccountNo, 10)),
			Value: data,
		})
	}
	if len(msgs) == 0 {
		return
	}

	if err := s.kafkaWriter.WriteMessages(ctx, msgs...); err != nil {
		logger.Log.Errorw("Failed to publish transaction events", "count", len(msgs), "error", err)
		return
	}
	logger.Log.Infow("Transaction events published", "count", len(msgs))
}

// maxAmount bounds amounts and balances to what a NUMERIC(20,2) column holds.
var maxAmount = decimal.New(1, 18)

// validateAmount accepts positive amounts below maxAmount with at most two
// decimal places.
func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() || !amount.Equal(amount.Truncate(2)) || !amount.LessThan(maxAmount) {
		return ErrInvalidAmount
	}
	return nil
}

// creditBalance adds amount to balance, rejecting results the store cannot hold.
func creditBalance(balance, amount decimal.Decimal) (decimal.Decimal, error) {
	credited := balance.Add(amount)
	if !credited.LessThan(maxAmount) {
		return decimal.Zero, ErrInvalidAmount
	}
	return credited, nil
}

// lockOrder returns the two account numbers in the order their locks must be taken.
func lockOrder(a, b int64) [2]int64 {
	if a > b {
		return [2]int64{b, a}
	}
	return [2]int64{a, b}
}

func observe(operation string, start time.Time, err *error) {
	metrics.ObserveOperation(operation, resultLabel(*err), time.Since(start))
}
