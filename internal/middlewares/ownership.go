package middlewares

//go:generate mockgen -source=ownership.go -destination=ownership_mock.go -package=middlewares

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sbilibin2017/bank-ledger/internal/logger"
	"github.com/sbilibin2017/bank-ledger/internal/services"
)

// AccountOwnerChecker reports whether a customer owns an account.
type AccountOwnerChecker interface {
	OwnsAccount(ctx context.Context, accountNo, customerID int64) (bool, error)
}

// AccountOwnershipMiddleware only lets a request through when the {accountNo}
// route parameter names an account of the authenticated customer. Unknown
// accounts are answered like foreign ones.
func AccountOwnershipMiddleware(checker AccountOwnerChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			customerID, ok := CustomerIDFromContext(ctx)
			if !ok {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			accountNo, err := strconv.ParseInt(chi.URLParam(r, "accountNo"), 10, 64)
			if err != nil || accountNo <= 0 {
				http.Error(w, "invalid account number", http.StatusBadRequest)
				return
			}

			owned, err := checker.OwnsAccount(ctx, accountNo, customerID)
			if err != nil {
				if errors.Is(err, services.ErrStoreUnavailable) {
					w.WriteHeader(http.StatusServiceUnavailable)
					return
				}
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			if !owned {
				logger.Log.Warnw("account access denied", "account_no", accountNo, "customer_id", customerID)
				http.Error(w, "account does not belong to the customer", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAccountNo(ctx, accountNo)))
		})
	}
}
