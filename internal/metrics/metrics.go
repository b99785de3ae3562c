// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ledgerOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_operations_total",
		Help: "Ledger operations by outcome",
	}, []string{"operation", "result"})

	ledgerLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledger_operation_duration_seconds",
		Help:    "Ledger operation latency",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"operation"})

	httpReqTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "route", "status"})

	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledger_http_request_duration_seconds",
		Help:    "Request latency",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"method", "route"})
)

// ObserveOperation records one ledger operation and its result label.
func ObserveOperation(operation, result string, elapsed time.Duration) {
	ledgerOps.WithLabelValues(operation, result).Inc()
	ledgerLatency.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// ObserveRequest records one served HTTP request.
func ObserveRequest(method, route, status string, elapsed time.Duration) {
	httpReqTotal.WithLabelValues(method, route, status).Inc()
	httpLatency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// OperationCount returns the current value of the operation counter. Used by tests.
func OperationCount(operation, result string) float64 {
	return counterValue(ledgerOps.WithLabelValues(operation, result))
}

// RequestCount returns the current value of the request counter. Used by tests.
func RequestCount(method, route, status string) float64 {
	return counterValue(httpReqTotal.WithLabelValues(method, route, status))
}
