package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/bank-ledger/internal/models"
	"github.com/shopspring/decimal"
)

// TransactionRepository appends and lists ledger records. Records are never
// updated or deleted.
type TransactionRepository struct {
	db       *sqlx.DB
	txGetter func(ctx context.Context) *sqlx.Tx
}

func NewTransactionRepository(db *sqlx.DB, txGetter func(ctx context.Context) *sqlx.Tx) *TransactionRepository {
	return &TransactionRepository{db: db, txGetter: txGetter}
}

// NextSequenceNumber returns the number the next appended record of the account will get.
func (r *TransactionRepository) NextSequenceNumber(ctx context.Context, accountNo int64) (int64, error) {
	const query = `SELECT last_txn_no + 1 FROM accounts WHERE account_no = $1`
	ex, _ := executor(ctx, r.db, r.txGetter)

	var next int64
	err := sqlx.GetContext(ctx, ex, &next, query, accountNo)
	logQuery(query, []any{accountNo}, next, err)

	return next, err
}

// Append stores a new record. The sequence number comes from an atomic
// increment of the account's counter, so concurrent writers never collide.
// The timestamp is read when the row is inserted, after the account lock is
// held, so per-account timestamps never run backwards against txn_no.
// sql.ErrNoRows is returned when the account does not exist.
func (r *TransactionRepository) Append(ctx context.Context, accountNo int64, txnType models.TransactionType, amount decimal.Decimal) (*models.TransactionRecord, error) {
	const query = `
		WITH seq AS (
			UPDATE accounts SET last_txn_no = last_txn_no + 1
			WHERE account_no = $1
			RETURNING last_txn_no
		)
		INSERT INTO transactions (account_no, txn_no, txn_type, amount, created_at)
		SELECT $1::BIGINT, last_txn_no, $2::VARCHAR, $3::NUMERIC, clock_timestamp() FROM seq
		RETURNING account_no, txn_no, txn_type, amount, created_at
	`
	ex, _ := executor(ctx, r.db, r.txGetter)

	var rec models.TransactionRecord
	err := sqlx.GetContext(ctx, ex, &rec, query, accountNo, string(txnType), amount)
	logQuery(query, []any{accountNo, txnType, amount}, rec.TxnNo, err)

	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListByAccount returns every record of the account, newest first.
func (r *TransactionRepository) ListByAccount(ctx context.Context, accountNo int64) ([]models.TransactionRecord, error) {
	const query = `
		SELECT account_no, txn_no, txn_type, amount, created_at
		FROM transactions
		WHERE account_no = $1
		ORDER BY created_at DESC, txn_no DESC
	`
	ex, _ := executor(ctx, r.db, r.txGetter)

	records := []models.TransactionRecord{}
	err := sqlx.SelectContext(ctx, ex, &records, query, accountNo)
	logQuery(query, []any{accountNo}, len(records), err)

	return records, err
}
