package handlers

//go:generate mockgen -source=history.go -destination=history_mock.go -package=handlers

import (
	"context"
	"net/http"

	"github.com/sbilibin2017/bank-ledger/internal/middlewares"
	"github.com/sbilibin2017/bank-ledger/internal/models"
)

// HistoryReader lists the records of an account.
type HistoryReader interface {
	TransactionHistory(ctx context.Context, accountNo int64) ([]models.TransactionRecord, error)
}

// HistoryResponse lists records newest first
// swagger:model HistoryResponse
type HistoryResponse struct {
	AccountNo    int64                      `json:"account_no"`
	Transactions []models.TransactionRecord `json:"transactions"`
}

// NewHistoryHandler returns an HTTP handler for the transaction history of an account.
// @Summary Transaction history
// @Description Records of an account owned by the caller, newest first
// @Tags accounts
// @Produce json
// @Param accountNo path int true "Account number"
// @Success 200 {object} handlers.HistoryResponse
// @Failure 403 {object} handlers.ErrorResponse "Account does not belong to the customer"
// @Failure 404 {object} handlers.ErrorResponse "Account not found"
// @Router /accounts/{accountNo}/transactions [get]
// @Security BearerAuth
func NewHistoryHandler(svc HistoryReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		accountNo, ok := middlewares.AccountNoFromContext(ctx)
		if !ok {
			writeErrorMessage(w, http.StatusBadRequest, "invalid account number")
			return
		}

		records, err := svc.TransactionHistory(ctx, accountNo)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, HistoryResponse{AccountNo: accountNo, Transactions: records})
	}
}
