package handlers

//go:generate mockgen -source=deposit.go -destination=deposit_mock.go -package=handlers

import (
	"context"
	"net/http"

	"github.com/sbilibin2017/bank-ledger/internal/logger"
	"github.com/sbilibin2017/bank-ledger/internal/middlewares"
	"github.com/sbilibin2017/bank-ledger/internal/models"
	"github.com/shopspring/decimal"
)

// Depositor defines the interface that the service must implement.
type Depositor interface {
	Deposit(ctx context.Context, accountNo int64, amount decimal.Decimal) (*models.TransactionRecord, error)
}

// AmountRequest represents the JSON body for deposits and withdrawals
// swagger:model AmountRequest
type AmountRequest struct {
	// Positive amount with at most two decimal places
	// required: true
	// default: 100.00
	Amount decimal.Decimal `json:"amount" swaggertype:"string"`
}

// TransactionResponse reports the record written by a deposit or withdrawal
// swagger:model TransactionResponse
type TransactionResponse struct {
	// Success message
	// default: Account topped up successfully
	Message string `json:"message"`

	Transaction models.TransactionRecord `json:"transaction"`
}

// NewDepositHandler returns an HTTP handler for depositing funds.
// @Summary Deposit funds
// @Description Credit an account owned by the caller and record a Deposit entry
// @Tags accounts
// @Accept json
// @Produce json
// @Param accountNo path int true "Account number"
// @Param request body handlers.AmountRequest true "Deposit Request"
// @Success 200 {object} handlers.TransactionResponse "Account topped up successfully"
// @Failure 400 {object} handlers.ErrorResponse "Invalid amount"
// @Failure 401 {object} handlers.ErrorResponse "Unauthorized"
// @Failure 403 {object} handlers.ErrorResponse "Account does not belong to the customer"
// @Router /accounts/{accountNo}/deposit [post]
// @Security BearerAuth
func NewDepositHandler(svc Depositor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		accountNo, ok := middlewares.AccountNoFromContext(ctx)
		if !ok {
			writeErrorMessage(w, http.StatusBadRequest, "invalid account number")
			return
		}

		var req AmountRequest
		if err := decodeRequest(r, &req); err != nil {
			logger.Log.Warnw("failed to decode deposit request", "error", err)
			writeErrorMessage(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		rec, err := svc.Deposit(ctx, accountNo, req.Amount)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, TransactionResponse{
			Message:     "Account topped up successfully",
			Transaction: *rec,
		})
	}
}
