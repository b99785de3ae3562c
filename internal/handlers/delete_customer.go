package handlers

//go:generate mockgen -source=delete_customer.go -destination=delete_customer_mock.go -package=handlers

import (
	"context"
	"net/http"

	"github.com/sbilibin2017/bank-ledger/internal/middlewares"
)

// CustomerDeleter removes a customer with their accounts and logins.
type CustomerDeleter interface {
	DeleteCustomer(ctx context.Context, customerID int64) error
}

// NewDeleteCustomerHandler returns an HTTP handler that closes the caller's profile.
// @Summary Delete customer
// @Description Remove the caller with all accounts and logins. Every account must be empty.
// @Tags customers
// @Success 204 "Customer deleted"
// @Failure 401 {object} handlers.ErrorResponse "Unauthorized"
// @Failure 404 {object} handlers.ErrorResponse "Customer not found"
// @Failure 409 {object} handlers.ErrorResponse "Accounts still hold money"
// @Router /customers/me [delete]
// @Security BearerAuth
func NewDeleteCustomerHandler(svc CustomerDeleter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		customerID, ok := middlewares.CustomerIDFromContext(ctx)
		if !ok {
			writeErrorMessage(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		if err := svc.DeleteCustomer(ctx, customerID); err != nil {
			writeError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
