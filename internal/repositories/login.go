package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/bank-ledger/internal/models"
)

type LoginRepository struct {
	db       *sqlx.DB
	txGetter func(ctx context.Context) *sqlx.Tx
}

func NewLoginRepository(db *sqlx.DB, txGetter func(ctx context.Context) *sqlx.Tx) *LoginRepository {
	return &LoginRepository{db: db, txGetter: txGetter}
}

func (r *LoginRepository) Create(ctx context.Context, customerID int64, username, passwordHash string) error {
	const query = `
		INSERT INTO logins (username, password_hash, customer_id)
		VALUES ($1, $2, $3)
	`
	ex, _ := executor(ctx, r.db, r.txGetter)

	res, err := ex.ExecContext(ctx, query, username, passwordHash, customerID)
	var rowsAffected int64
	if res != nil {
		rowsAffected, _ = res.RowsAffected()
	}
	// never log the hash
	logQuery(query, []any{username, "***", customerID}, rowsAffected, err)

	return err
}

// GetByUsername returns nil without error when no login matches.
func (r *LoginRepository) GetByUsername(ctx context.Context, username string) (*models.LoginDB, error) {
	const query = `
		SELECT login_id, username, password_hash, customer_id
		FROM logins
		WHERE username = $1
	`
	ex, _ := executor(ctx, r.db, r.txGetter)

	var l models.LoginDB
	err := sqlx.GetContext(ctx, ex, &l, query, username)
	logQuery(query, []any{username}, l.LoginID, err)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *LoginRepository) DeleteByCustomer(ctx context.Context, customerID int64) error {
	const query = `DELETE FROM logins WHERE customer_id = $1`
	ex, _ := executor(ctx, r.db, r.txGetter)

	res, err := ex.ExecContext(ctx, query, customerID)
	var rowsAffected int64
	if res != nil {
		rowsAffected, _ = res.RowsAffected()
	}
	logQuery(query, []any{customerID}, rowsAffected, err)

	return err
}
