// Package metrics exposes Prometheus instrumentation for indicator requests.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of the indicator service.
type Metrics struct {
	ComputeDur    *prometheus.HistogramVec // labels: kind
	ComputeErrors *prometheus.CounterVec   // labels: kind

	gatherer prometheus.Gatherer
}

// NewMetrics registers all collectors on reg. A nil reg means a fresh registry.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		ComputeDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "indicator_compute_duration_seconds",
			Help:    "Indicator compute latency including price lookups",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"kind"}),
		ComputeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "indicator_compute_errors_total",
			Help: "Indicator computations that returned an error",
		}, []string{"kind"}),
		gatherer: reg,
	}
	reg.MustRegister(m.ComputeDur, m.ComputeErrors)
	return m
}

// ObserveCompute records one computation of kind.
func (m *Metrics) ObserveCompute(kind string, d time.Duration, err error) {
	m.ComputeDur.WithLabelValues(kind).Observe(d.Seconds())
	if err != nil {
		m.ComputeErrors.WithLabelValues(kind).Inc()
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
