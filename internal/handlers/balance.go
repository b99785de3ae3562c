package handlers

//go:generate mockgen -source=balance.go -destination=balance_mock.go -package=handlers

import (
	"context"
	"net/http"

	"github.com/sbilibin2017/bank-ledger/internal/middlewares"
	"github.com/shopspring/decimal"
)

// BalanceReader reads the committed balance of an account.
type BalanceReader interface {
	CheckBalance(ctx context.Context, accountNo int64) (decimal.Decimal, error)
}

// BalanceResponse represents the balance of one account
// swagger:model BalanceResponse
type BalanceResponse struct {
	AccountNo int64 `json:"account_no"`

	// Balance with two decimal places
	// default: 100.00
	Balance string `json:"balance"`
}

// NewBalanceHandler returns an HTTP handler for reading an account balance.
// @Summary Get balance
// @Description Committed balance of an account owned by the caller
// @Tags accounts
// @Produce json
// @Param accountNo path int true "Account number"
// @Success 200 {object} handlers.BalanceResponse
// @Failure 403 {object} handlers.ErrorResponse "Account does not belong to the customer"
// @Failure 404 {object} handlers.ErrorResponse "Account not found"
// @Router /accounts/{accountNo}/balance [get]
// @Security BearerAuth
func NewBalanceHandler(svc BalanceReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		accountNo, ok := middlewares.AccountNoFromContext(ctx)
		if !ok {
			writeErrorMessage(w, http.StatusBadRequest, "invalid account number")
			return
		}

		balance, err := svc.CheckBalance(ctx, accountNo)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, BalanceResponse{AccountNo: accountNo, Balance: balance.StringFixed(2)})
	}
}
