package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errMissing = errors.New("missing")

func TestMetricsRecord(t *testing.T) {
	registry := prometheus.NewRegistry()
	m, err := New(registry)
	require.NoError(t, err)

	m.ActivityRecorded("vehicle trip")
	m.ActivityRecorded("vehicle trip")
	m.RecomputeObserved(time.Millisecond, nil, errMissing)
	m.RecomputeObserved(time.Millisecond, errMissing, errMissing)
	m.RecomputeObserved(time.Millisecond, errors.New("db down"), errMissing)
	m.SetCatalogSizes(map[string]int{"vehicle": 11})

	assert.InDelta(t, 2, testutil.ToFloat64(m.activitiesRecorded.WithLabelValues("vehicle trip")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.recomputeTotal.WithLabelValues("success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.recomputeTotal.WithLabelValues("not_found")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.recomputeTotal.WithLabelValues("error")), 0)
	assert.InDelta(t, 11, testutil.ToFloat64(m.catalogFactors.WithLabelValues("vehicle")), 0)
}

func TestMetricsDuplicateRegistration(t *testing.T) {
	registry := prometheus.NewRegistry()
	_, err := New(registry)
	require.NoError(t, err)

	_, err = New(registry)
	assert.Error(t, err)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ActivityRecorded("fuel combustion")
		m.RecomputeObserved(time.Second, nil, nil)
		m.SetCatalogSizes(map[string]int{"fuel": 1})
	})
}
