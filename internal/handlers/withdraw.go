package handlers

//go:generate mockgen -source=withdraw.go -destination=withdraw_mock.go -package=handlers

import (
	"context"
	"net/http"

	"github.com/sbilibin2017/bank-ledger/internal/logger"
	"github.com/sbilibin2017/bank-ledger/internal/middlewares"
	"github.com/sbilibin2017/bank-ledger/internal/models"
	"github.com/shopspring/decimal"
)

// Withdrawer defines the interface that the service must implement.
type Withdrawer interface {
	Withdraw(ctx context.Context, accountNo int64, amount decimal.Decimal) (*models.TransactionRecord, error)
}

// NewWithdrawHandler returns an HTTP handler for withdrawing funds.
// @Summary Withdraw funds
// @Description Debit an account owned by the caller and record a Withdraw entry
// @Tags accounts
// @Accept json
// @Produce json
// @Param accountNo path int true "Account number"
// @Param request body handlers.AmountRequest true "Withdraw Request"
// @Success 200 {object} handlers.TransactionResponse "Withdrawal successful"
// @Failure 400 {object} handlers.ErrorResponse "Invalid amount"
// @Failure 403 {object} handlers.ErrorResponse "Account does not belong to the customer"
// @Failure 422 {object} handlers.ErrorResponse "Insufficient balance"
// @Router /accounts/{accountNo}/withdraw [post]
// @Security BearerAuth
func NewWithdrawHandler(svc Withdrawer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		accountNo, ok := middlewares.AccountNoFromContext(ctx)
		if !ok {
			writeErrorMessage(w, http.StatusBadRequest, "invalid account number")
			return
		}

		var req AmountRequest
		if err := decodeRequest(r, &req); err != nil {
			logger.Log.Warnw("failed to decode withdraw request", "error", err)
			writeErrorMessage(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		rec, err := svc.Withdraw(ctx, accountNo, req.Amount)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, TransactionResponse{
			Message:     "Withdrawal successful",
			Transaction: *rec,
		})
	}
}
