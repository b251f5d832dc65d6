package speccache

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecordLookupOutcomes(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	metrics, err := NewMetrics(reg)
	require.NoError(t, err)

	gen := &scriptedGenerator{}
	cache, counter := newTestCache(t, gen, WithMetrics(metrics))

	for range 3 {
		_, err := cache.RenderedDocument(context.Background(), "v1", nil)
		require.NoError(t, err)
	}

	gen.failing.Store(true)
	counter.Bump()
	_, err = cache.RenderedDocument(context.Background(), "v1", nil)
	require.Error(t, err)
	_, err = cache.RenderedDocument(context.Background(), "v1", nil)
	require.Error(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.lookups.WithLabelValues("v1", outcomeHit)))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.lookups.WithLabelValues("v1", outcomeMiss)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.lookups.WithLabelValues("v1", outcomeFailureReplay)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.generations.WithLabelValues("v1", resultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.generations.WithLabelValues("v1", resultFailure)))
}

func TestNewMetricsRejectsDuplicateRegistration(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	_, err := NewMetrics(reg)
	require.NoError(t, err)

	_, err = NewMetrics(reg)
	assert.Error(t, err)
}

func TestNilMetricsAreInert(t *testing.T) {
	t.Parallel()

	var m *Metrics
	assert.NotPanics(t, func() {
		m.lookup("v1", outcomeHit)
		m.generation("v1", resultSuccess, 0)
	})
}
