package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"

	"github.com/shopops/revsync/internal/infrastructure/telemetry"
)

func TestNewSyncMetrics_NilMeter(t *testing.T) {
	_, err := telemetry.NewSyncMetrics(nil)
	assert.ErrorIs(t, err, telemetry.ErrMeterNil)
}

func TestSyncMetrics_Noop(t *testing.T) {
	m, err := telemetry.NewSyncMetrics(noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		m.RecordRun(context.Background(), "SUCCESS", 3*time.Second, 12)
		m.RecordRowWrite(context.Background(), "created")
		m.RecordLookupFallback(context.Background())
	})
}

func TestSyncMetrics_Recorded(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	m, err := telemetry.NewSyncMetrics(provider.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordRowWrite(ctx, "created")
	m.RecordRowWrite(ctx, "updated")
	m.RecordRowWrite(ctx, "updated")
	m.RecordLookupFallback(ctx)
	m.RecordRun(ctx, "SUCCESS", 2*time.Second, 3)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	byName := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, metric := range sm.Metrics {
			byName[metric.Name] = metric
		}
	}

	writes, ok := byName["revsync_pivot_row_writes_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	counts := map[string]int64{}
	for _, dp := range writes.DataPoints {
		action, _ := dp.Attributes.Value(telemetry.AttrRowAction)
		counts[action.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{"created": 1, "updated": 2}, counts)

	fallbacks, ok := byName["revsync_pivot_lookup_fallbacks_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, fallbacks.DataPoints, 1)
	assert.Equal(t, int64(1), fallbacks.DataPoints[0].Value)

	skus, ok := byName["revsync_last_run_skus"].Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, skus.DataPoints, 1)
	assert.Equal(t, int64(3), skus.DataPoints[0].Value)

	duration, ok := byName["revsync_run_duration_seconds"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, duration.DataPoints, 1)
	assert.Equal(t, uint64(1), duration.DataPoints[0].Count)
	assert.InDelta(t, 2.0, duration.DataPoints[0].Sum, 1e-9)
}

func TestMeterProvider_Disabled(t *testing.T) {
	mp, err := telemetry.NewMeterProvider(context.Background(), telemetry.MetricsConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, mp.IsEnabled())
	assert.NotNil(t, mp.Meter("test"))
	assert.NoError(t, mp.Shutdown(context.Background()))
}

func TestHistogram_CustomBoundaries(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	h, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:       "test_histogram",
		Unit:       "s",
		Boundaries: telemetry.SyncDurationBuckets,
	})
	require.NoError(t, err)
	assert.NotPanics(t, func() {
		h.RecordDuration(context.Background(), 1500*time.Millisecond)
	})
}
