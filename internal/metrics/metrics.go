// internal/metrics/metrics.go
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/exploreiib/pharma-net/internal/ledger"
	"github.com/exploreiib/pharma-net/internal/services"
)

const (
	OutcomeOK           = "ok"
	OutcomeNotFound     = "not_found"
	OutcomeUnauthorized = "unauthorized"
	OutcomeValidation   = "validation"
	OutcomeConflict     = "conflict"
	OutcomeCanceled     = "canceled"
	OutcomeError        = "error"
)

// OperationMetrics records contract operations run through the gateway.
type OperationMetrics struct {
	gatherer prometheus.Gatherer
	total    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// New registers the operation metrics on a fresh registry.
func New() *OperationMetrics {
	registry := prometheus.NewRegistry()
	return NewWithRegistry(registry, registry)
}

func NewWithRegistry(registerer prometheus.Registerer, gatherer prometheus.Gatherer) *OperationMetrics {
	m := &OperationMetrics{
		gatherer: gatherer,
		total: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pharmanet",
			Name:      "operations_total",
			Help:      "Contract operations by outcome.",
		}, []string{"operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pharmanet",
			Name:      "operation_duration_seconds",
			Help:      "Contract operation latency including commit.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	registerer.MustRegister(m.total, m.duration)
	return m
}

// Observe records one finished operation.
func (m *OperationMetrics) Observe(operation string, err error, elapsed time.Duration) {
	m.total.WithLabelValues(operation, Classify(err)).Inc()
	m.duration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

func (m *OperationMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Classify maps an operation error to its outcome label.
func Classify(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, services.ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, services.ErrUnauthorized):
		return OutcomeUnauthorized
	case errors.Is(err, services.ErrValidation):
		return OutcomeValidation
	case errors.Is(err, services.ErrConflict), errors.Is(err, ledger.ErrConflict):
		return OutcomeConflict
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCanceled
	default:
		return OutcomeError
	}
}
