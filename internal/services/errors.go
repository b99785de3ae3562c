package services

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Ledger error kinds. Validation kinds are returned before any mutation is attempted.
var (
	// ErrInvalidAmount is returned for amounts that are not positive, carry more
	// than two decimal places or would push a balance past 10^18.
	ErrInvalidAmount = errors.New("amount must be positive with at most two decimal places")
	// ErrAccountNotFound is returned when a referenced account does not exist.
	ErrAccountNotFound = errors.New("account not found")
	// ErrInsufficientBalance is returned when a withdrawal or transfer exceeds the available funds.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrSameAccount is returned when a transfer names the same account twice.
	ErrSameAccount = errors.New("cannot transfer to the same account")
	// ErrStoreUnavailable wraps timeouts and lost connections. The caller may retry.
	ErrStoreUnavailable = errors.New("ledger store unavailable")
	// ErrStore wraps any other storage failure.
	ErrStore = errors.New("ledger store error")
)

var domainErrors = []error{
	ErrInvalidAmount,
	ErrAccountNotFound,
	ErrInsufficientBalance,
	ErrSameAccount,
	ErrCustomerNotFound,
	ErrNonZeroBalance,
	ErrInvalidCredentials,
	ErrUsernameTaken,
}

// classifyStoreError leaves domain errors untouched and wraps everything else
// with ErrStoreUnavailable or ErrStore, keeping the original in the chain.
func classifyStoreError(err error) error {
	if err == nil {
		return nil
	}
	for _, known := range domainErrors {
		if errors.Is(err, known) {
			return err
		}
	}
	if isUnavailable(err) {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%w: %w", ErrStore, err)
}

// isUniqueViolation reports a Postgres unique constraint failure.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isUnavailable(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		pgconn.Timeout(err)
}

// resultLabel names the outcome of an operation for metrics.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, ErrAccountNotFound):
		return "account_not_found"
	case errors.Is(err, ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, ErrSameAccount):
		return "same_account"
	case errors.Is(err, ErrNonZeroBalance):
		return "non_zero_balance"
	case errors.Is(err, ErrCustomerNotFound):
		return "customer_not_found"
	case errors.Is(err, ErrUsernameTaken):
		return "username_taken"
	case errors.Is(err, ErrStoreUnavailable):
		return "store_unavailable"
	default:
		return "store_error"
	}
}
