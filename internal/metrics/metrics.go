// Package metrics holds the Prometheus collectors for house operations.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "houseledger"

// Operation outcomes.
const (
	OutcomeOK           = "ok"
	OutcomeNotFound     = "not_found"
	OutcomeInsufficient = "insufficient_units"
	OutcomeInvalid      = "invalid"
	OutcomeError        = "error"
)

// Metrics is a private registry plus the collectors registered on it.
type Metrics struct {
	registry   *prometheus.Registry
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	houses     prometheus.Gauge
	changes    prometheus.Counter
}

// New creates collectors on a fresh registry, including the Go and process
// collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "House operations by name and outcome.",
		}, []string{"operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "House operation latency.",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 4, 8),
		}, []string{"operation"}),
		houses: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "houses",
			Help:      "Houses currently in the table.",
		}),
		changes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "change_records_total",
			Help:      "Change records appended to the ledger.",
		}),
	}
	m.registry.MustRegister(
		m.operations,
		m.duration,
		m.houses,
		m.changes,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Observe records one finished operation.
func (m *Metrics) Observe(operation, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, outcome).Inc()
	m.duration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// SetHouses sets the table size gauge.
func (m *Metrics) SetHouses(n int) {
	if m == nil {
		return
	}
	m.houses.Set(float64(n))
}

// ChangeAppended counts one ledger entry.
func (m *Metrics) ChangeAppended() {
	if m == nil {
		return
	}
	m.changes.Inc()
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
