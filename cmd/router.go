package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/ulule/limiter/v3"

	"github.com/sbilibin2017/bank-ledger/internal/handlers"
	"github.com/sbilibin2017/bank-ledger/internal/middlewares"
	"github.com/sbilibin2017/bank-ledger/internal/services"
)

type routerDeps struct {
	ledger       *services.LedgerService
	directory    *services.DirectoryService
	tokens       middlewares.Tokener
	loginLimiter *limiter.Limiter
	swaggerURL   string
}

func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middlewares.LoggingMiddleware)
	r.Use(middlewares.MetricsMiddleware)

	// Public routes
	r.Post("/signup", handlers.NewSignUpHandler(d.directory))
	r.With(middlewares.RateLimitMiddleware(d.loginLimiter)).
		Post("/login", handlers.NewLoginHandler(d.directory))

	// Protected routes with JWT middleware
	r.Group(func(r chi.Router) {
		r.Use(middlewares.AuthMiddleware(d.tokens))

		r.Get("/accounts", handlers.NewAccountsHandler(d.directory))
		r.Route("/accounts/{accountNo}", func(r chi.Router) {
			r.Use(middlewares.AccountOwnershipMiddleware(d.directory))
			r.Get("/balance", handlers.NewBalanceHandler(d.ledger))
			r.Post("/deposit", handlers.NewDepositHandler(d.ledger))
			r.Post("/withdraw", handlers.NewWithdrawHandler(d.ledger))
			r.Post("/transfer", handlers.NewTransferHandler(d.ledger))
			r.Get("/transactions", handlers.NewHistoryHandler(d.ledger))
		})
		r.Delete("/customers/me", handlers.NewDeleteCustomerHandler(d.directory))
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL(d.swaggerURL)))

	return r
}
