package middlewares

import "context"

type ctxKey int

const (
	requestIDKey ctxKey = iota
	customerIDKey
	accountNoKey
)

// WithCustomerID stores the authenticated customer in ctx.
func WithCustomerID(ctx context.Context, customerID int64) context.Context {
	return context.WithValue(ctx, customerIDKey, customerID)
}

// CustomerIDFromContext returns the authenticated customer, if any.
func CustomerIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(customerIDKey).(int64)
	return id, ok
}

// WithAccountNo stores the account addressed by the request in ctx.
func WithAccountNo(ctx context.Context, accountNo int64) context.Context {
	return context.WithValue(ctx, accountNoKey, accountNo)
}

// AccountNoFromContext returns the account checked by AccountOwnershipMiddleware.
func AccountNoFromContext(ctx context.Context) (int64, bool) {
	no, ok := ctx.Value(accountNoKey).(int64)
	return no, ok
}

// RequestIDFromContext returns the id assigned by LoggingMiddleware.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
