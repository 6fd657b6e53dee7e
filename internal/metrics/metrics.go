// Package metrics provides the Prometheus collectors for the emission core.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "carbontracker"

// Metrics groups the service collectors. A nil *Metrics is a valid no-op.
type Metrics struct {
	activitiesRecorded *prometheus.CounterVec
	recomputeTotal     *prometheus.CounterVec
	recomputeDuration  prometheus.Histogram
	catalogFactors     *prometheus.GaugeVec
}

// New creates the collectors and registers them on registerer.
func New(registerer prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		activitiesRecorded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "activities_recorded_total",
				Help:      "Total number of child activities recorded",
			},
			[]string{"category"},
		),
		recomputeTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "recompute_total",
				Help:      "Total number of log total recomputations",
			},
			[]string{"status"}, // success, not_found, error
		),
		recomputeDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "recompute_duration_seconds",
				Help:      "Time taken to recompute a log total, lock wait included",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~2s
			},
		),
		catalogFactors: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "catalog_factors",
				Help:      "Number of emission factors loaded per table",
			},
			[]string{"table"},
		),
	}

	for _, c := range []prometheus.Collector{m.activitiesRecorded, m.recomputeTotal, m.recomputeDuration, m.catalogFactors} {
		if err := registerer.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ActivityRecorded counts one stored child activity.
func (m *Metrics) ActivityRecorded(category string) {
	if m == nil {
		return
	}
	m.activitiesRecorded.WithLabelValues(category).Inc()
}

// RecomputeObserved records the outcome and latency of one recomputation.
// notFound classifies errors matching the caller's not-found sentinel.
func (m *Metrics) RecomputeObserved(d time.Duration, err error, notFound error) {
	if m == nil {
		return
	}
	status := "success"
	switch {
	case err == nil:
	case notFound != nil && errors.Is(err, notFound):
		status = "not_found"
	default:
		status = "error"
	}
	m.recomputeTotal.WithLabelValues(status).Inc()
	m.recomputeDuration.Observe(d.Seconds())
}

// SetCatalogSizes publishes the factor count per table.
func (m *Metrics) SetCatalogSizes(sizes map[string]int) {
	if m == nil {
		return
	}
	for table, n := range sizes {
		m.catalogFactors.WithLabelValues(table).Set(float64(n))
	}
}
