package handlers

//go:generate mockgen -source=transfer.go -destination=transfer_mock.go -package=handlers

import (
	"context"
	"net/http"

	"github.com/sbilibin2017/bank-ledger/internal/logger"
	"github.com/sbilibin2017/bank-ledger/internal/middlewares"
	"github.com/sbilibin2017/bank-ledger/internal/models"
	"github.com/shopspring/decimal"
)

// Transferer defines the interface that the service must implement.
type Transferer interface {
	Transfer(ctx context.Context, fromAccountNo, toAccountNo int64, amount decimal.Decimal) (*models.TransferResult, error)
}

// TransferRequest represents the JSON body for a transfer
// swagger:model TransferRequest
type TransferRequest struct {
	// Destination account, any customer
	// required: true
	// default: 100000012
	ToAccount int64 `json:"to_account" validate:"required,gt=0"`

	// Positive amount with at most two decimal places
	// required: true
	// default: 100.00
	Amount decimal.Decimal `json:"amount" swaggertype:"string"`
}

// TransferResponse reports both records written by the transfer
// swagger:model TransferResponse
type TransferResponse struct {
	// Success message
	// default: Transfer successful
	Message string `json:"message"`

	Debit  models.TransactionRecord `json:"debit"`
	Credit models.TransactionRecord `json:"credit"`
}

// NewTransferHandler returns an HTTP handler for moving funds between accounts.
// @Summary Transfer funds
// @Description Move funds from an account owned by the caller to any other account
// @Tags accounts
// @Accept json
// @Produce json
// @Param accountNo path int true "Source account number"
// @Param request body handlers.TransferRequest true "Transfer Request"
// @Success 200 {object} handlers.TransferResponse "Transfer successful"
// @Failure 400 {object} handlers.ErrorResponse "Invalid amount or same account"
// @Failure 403 {object} handlers.ErrorResponse "Account does not belong to the customer"
// @Failure 404 {object} handlers.ErrorResponse "Account not found"
// @Failure 422 {object} handlers.ErrorResponse "Insufficient balance"
// @Router /accounts/{accountNo}/transfer [post]
// @Security BearerAuth
func NewTransferHandler(svc Transferer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		accountNo, ok := middlewares.AccountNoFromContext(ctx)
		if !ok {
			writeErrorMessage(w, http.StatusBadRequest, "invalid account number")
			return
		}

		var req TransferRequest
		if err := decodeRequest(r, &req); err != nil {
			logger.Log.Warnw("failed to decode transfer request", "error", err)
			writeErrorMessage(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		res, err := svc.Transfer(ctx, accountNo, req.ToAccount, req.Amount)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, TransferResponse{
			Message: "Transfer successful",
			Debit:   res.Debit,
			Credit:  res.Credit,
		})
	}
}
