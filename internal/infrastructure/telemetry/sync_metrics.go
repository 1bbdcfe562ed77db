package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when a metrics component is built without a meter
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// SyncMetrics records daily sync runs and pivot row writes.
type SyncMetrics struct {
	runsTotal       *Counter
	runDuration     *Histogram
	lastRunSkus     *Gauge
	rowWritesTotal  *Counter
	lookupFallbacks *Counter
}

// NewSyncMetrics creates the sync instruments on meter.
func NewSyncMetrics(meter metric.Meter) (*SyncMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	var (
		m   SyncMetrics
		err error
	)
	if m.runsTotal, err = NewCounter(meter, "revsync_runs_total", "Daily sync runs by final status", "{run}"); err != nil {
		return nil, err
	}
	if m.runDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "revsync_run_duration_seconds",
		Description: "Wall time of a daily sync run",
		Unit:        "s",
		Boundaries:  SyncDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if m.lastRunSkus, err = NewGauge(meter, "revsync_last_run_skus", "SKU aggregates produced by the latest run", "{sku}"); err != nil {
		return nil, err
	}
	if m.rowWritesTotal, err = NewCounter(meter, "revsync_pivot_row_writes_total", "Pivot rows written by action", "{row}"); err != nil {
		return nil, err
	}
	if m.lookupFallbacks, err = NewCounter(meter, "revsync_pivot_lookup_fallbacks_total", "Row searches that failed and were treated as not found", "{lookup}"); err != nil {
		return nil, err
	}
	return &m, nil
}

// RecordRun records a finished run
func (m *SyncMetrics) RecordRun(ctx context.Context, status string, duration time.Duration, skuCount int) {
	m.runsTotal.Inc(ctx, AttrSyncStatus.String(status))
	m.runDuration.RecordDuration(ctx, duration, AttrSyncStatus.String(status))
	m.lastRunSkus.Record(ctx, int64(skuCount))
}

// RecordRowWrite records a created or updated pivot row
func (m *SyncMetrics) RecordRowWrite(ctx context.Context, action string) {
	m.rowWritesTotal.Inc(ctx, AttrRowAction.String(action))
}

// RecordLookupFallback records a failed row search
func (m *SyncMetrics) RecordLookupFallback(ctx context.Context) {
	m.lookupFallbacks.Inc(ctx)
}
