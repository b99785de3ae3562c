package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/bank-ledger/internal/models"
)

type CustomerRepository struct {
	db       *sqlx.DB
	txGetter func(ctx context.Context) *sqlx.Tx
}

func NewCustomerRepository(db *sqlx.DB, txGetter func(ctx context.Context) *sqlx.Tx) *CustomerRepository {
	return &CustomerRepository{db: db, txGetter: txGetter}
}

// Create inserts a customer and returns the allocated id.
func (r *CustomerRepository) Create(ctx context.Context, c models.NewCustomer) (int64, error) {
	const query = `
		INSERT INTO customers (name, email, phone, address, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING customer_id
	`
	args := []any{c.Name, c.Email, c.Phone, c.Address}
	ex, _ := executor(ctx, r.db, r.txGetter)

	var id int64
	err := sqlx.GetContext(ctx, ex, &id, query, args...)
	logQuery(query, args, id, err)

	return id, err
}

// GetByID returns nil without error when the customer does not exist.
func (r *CustomerRepository) GetByID(ctx context.Context, customerID int64) (*models.CustomerDB, error) {
	const query = `
		SELECT customer_id, name, email, phone, address, created_at
		FROM customers
		WHERE customer_id = $1
	`
	ex, _ := executor(ctx, r.db, r.txGetter)

	var c models.CustomerDB
	err := sqlx.GetContext(ctx, ex, &c, query, customerID)
	logQuery(query, []any{customerID}, c.CustomerID, err)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Delete removes the customer row and reports whether it existed.
func (r *CustomerRepository) Delete(ctx context.Context, customerID int64) (bool, error) {
	const query = `DELETE FROM customers WHERE customer_id = $1`
	ex, _ := executor(ctx, r.db, r.txGetter)

	res, err := ex.ExecContext(ctx, query, customerID)
	var rowsAffected int64
	if res != nil {
		rowsAffected, _ = res.RowsAffected()
	}
	logQuery(query, []any{customerID}, rowsAffected, err)

	return rowsAffected > 0, err
}
