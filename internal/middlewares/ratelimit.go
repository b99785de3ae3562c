package middlewares

import (
	"net/http"
	"strconv"

	"github.com/sbilibin2017/bank-ledger/internal/logger"
	"github.com/ulule/limiter/v3"
)

// RateLimitMiddleware throttles requests per client IP.
func RateLimitMiddleware(l *limiter.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := l.GetIPKey(r)

			lctx, err := l.Get(r.Context(), ip)
			if err != nil {
				logger.Log.Errorw("failed to get rate limit context", "ip", ip, "error", err)
				http.Error(w, "internal server error during rate limit check", http.StatusInternalServerError)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))

			if lctx.Reached {
				logger.Log.Warnw("rate limit exceeded", "ip", ip, "limit", lctx.Limit)
				http.Error(w, "too many requests, try again later", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
