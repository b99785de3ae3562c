package repositories

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/bank-ledger/internal/models"
	"github.com/shopspring/decimal"
)

// AccountRepository stores account rows. Missing accounts are reported as sql.ErrNoRows.
type AccountRepository struct {
	db       *sqlx.DB
	txGetter func(ctx context.Context) *sqlx.Tx
}

func NewAccountRepository(db *sqlx.DB, txGetter func(ctx context.Context) *sqlx.Tx) *AccountRepository {
	return &AccountRepository{db: db, txGetter: txGetter}
}

// Open creates a zero-balance account for the customer and returns its number.
func (r *AccountRepository) Open(ctx context.Context, customerID int64) (int64, error) {
	const query = `
		INSERT INTO accounts (customer_id, balance, last_txn_no, created_at)
		VALUES ($1, 0, 0, NOW())
		RETURNING account_no
	`
	ex, _ := executor(ctx, r.db, r.txGetter)

	var accountNo int64
	err := sqlx.GetContext(ctx, ex, &accountNo, query, customerID)
	logQuery(query, []any{customerID}, accountNo, err)

	return accountNo, err
}

// GetBalance returns the committed balance. Inside a transaction the row stays
// locked until the transaction ends.
func (r *AccountRepository) GetBalance(ctx context.Context, accountNo int64) (decimal.Decimal, error) {
	query := `SELECT balance FROM accounts WHERE account_no = $1`
	ex, inTx := executor(ctx, r.db, r.txGetter)
	if inTx {
		query += ` FOR UPDATE`
	}

	var balance decimal.Decimal
	err := sqlx.GetContext(ctx, ex, &balance, query, accountNo)
	logQuery(query, []any{accountNo}, balance, err)

	return balance, err
}

// SetBalance overwrites the balance of an existing account.
func (r *AccountRepository) SetBalance(ctx context.Context, accountNo int64, balance decimal.Decimal) error {
	const query = `UPDATE accounts SET balance = $1 WHERE account_no = $2`
	ex, _ := executor(ctx, r.db, r.txGetter)

	res, err := ex.ExecContext(ctx, query, balance, accountNo)
	var rowsAffected int64
	if res != nil {
		rowsAffected, _ = res.RowsAffected()
	}
	logQuery(query, []any{balance, accountNo}, rowsAffected, err)

	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Exists reports whether the account is present.
func (r *AccountRepository) Exists(ctx context.Context, accountNo int64) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM accounts WHERE account_no = $1)`
	ex, _ := executor(ctx, r.db, r.txGetter)

	var exists bool
	err := sqlx.GetContext(ctx, ex, &exists, query, accountNo)
	logQuery(query, []any{accountNo}, exists, err)

	return exists, err
}

// ListByCustomer returns the customer's accounts in ascending account number
// order. Inside a transaction every returned row is locked in that order.
func (r *AccountRepository) ListByCustomer(ctx context.Context, customerID int64) ([]models.AccountDB, error) {
	query := `
		SELECT account_no, balance, customer_id, last_txn_no, created_at
		FROM accounts
		WHERE customer_id = $1
		ORDER BY account_no
	`
	ex, inTx := executor(ctx, r.db, r.txGetter)
	if inTx {
		query += ` FOR UPDATE`
	}

	var accounts []models.AccountDB
	err := sqlx.SelectContext(ctx, ex, &accounts, query, customerID)
	logQuery(query, []any{customerID}, len(accounts), err)

	return accounts, err
}

// IsOwnedBy reports whether accountNo belongs to customerID.
func (r *AccountRepository) IsOwnedBy(ctx context.Context, accountNo, customerID int64) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM accounts WHERE account_no = $1 AND customer_id = $2)`
	ex, _ := executor(ctx, r.db, r.txGetter)

	var owned bool
	err := sqlx.GetContext(ctx, ex, &owned, query, accountNo, customerID)
	logQuery(query, []any{accountNo, customerID}, owned, err)

	return owned, err
}

// DeleteByCustomer removes every account of the customer and returns how many were removed.
func (r *AccountRepository) DeleteByCustomer(ctx context.Context, customerID int64) (int64, error) {
	const query = `DELETE FROM accounts WHERE customer_id = $1`
	ex, _ := executor(ctx, r.db, r.txGetter)

	res, err := ex.ExecContext(ctx, query, customerID)
	var rowsAffected int64
	if res != nil {
		rowsAffected, _ = res.RowsAffected()
	}
	logQuery(query, []any{customerID}, rowsAffected, err)

	return rowsAffected, err
}
