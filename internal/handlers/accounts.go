package handlers

//go:generate mockgen -source=accounts.go -destination=accounts_mock.go -package=handlers

import (
	"context"
	"net/http"

	"github.com/sbilibin2017/bank-ledger/internal/middlewares"
	"github.com/sbilibin2017/bank-ledger/internal/models"
)

// AccountLister lists the accounts of a customer.
type AccountLister interface {
	ListAccounts(ctx context.Context, customerID int64) ([]models.AccountDB, error)
}

// AccountsResponse lists the caller's accounts
// swagger:model AccountsResponse
type AccountsResponse struct {
	Accounts []models.AccountDB `json:"accounts"`
}

// NewAccountsHandler returns an HTTP handler listing the caller's accounts.
// @Summary List accounts
// @Description Accounts of the authenticated customer in ascending account number order
// @Tags accounts
// @Produce json
// @Success 200 {object} handlers.AccountsResponse
// @Failure 401 {object} handlers.ErrorResponse "Unauthorized"
// @Router /accounts [get]
// @Security BearerAuth
func NewAccountsHandler(svc AccountLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		customerID, ok := middlewares.CustomerIDFromContext(ctx)
		if !ok {
			writeErrorMessage(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		accounts, err := svc.ListAccounts(ctx, customerID)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, AccountsResponse{Accounts: accounts})
	}
}
