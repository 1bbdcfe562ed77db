package revenue

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/shopops/revsync/internal/domain/integration"
)

// RowAction describes how a pivot row was written
type RowAction string

const (
	RowActionCreated RowAction = "created"
	RowActionUpdated RowAction = "updated"
)

// PivotSyncResult is the outcome of writing one SKU aggregate
type PivotSyncResult struct {
	Sku    string
	Column string
	Action RowAction
	Handle integration.PivotRecordHandle
	// LookupFallback is set when the row search failed at the transport
	// level and the row was created without a match.
	LookupFallback bool
}

// PivotSyncEngine writes SKU aggregates into the pivot table.
// A write touches only the key column and the aggregate's day column.
type PivotSyncEngine struct {
	table    integration.PivotTable
	defaults integration.PivotTarget
	scheme   integration.ColumnScheme
	logger   *zap.Logger
}

// NewPivotSyncEngine creates a new PivotSyncEngine.
// defaults holds the configured target; per-call overrides are merged on top.
func NewPivotSyncEngine(table integration.PivotTable, defaults integration.PivotTarget, scheme integration.ColumnScheme, logger *zap.Logger) (*PivotSyncEngine, error) {
	if scheme == "" {
		scheme = integration.ColumnSchemeDay
	}
	if !scheme.IsValid() {
		return nil, fmt.Errorf("%w: %q", integration.ErrPivotUnknownColumnScheme, scheme)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PivotSyncEngine{
		table:    table,
		defaults: defaults,
		scheme:   scheme,
		logger:   logger.Named("pivot"),
	}, nil
}

// ResolveTarget merges override onto the configured defaults and checks the
// result names a table. It never touches the network.
func (e *PivotSyncEngine) ResolveTarget(override integration.PivotTarget) (integration.PivotTarget, error) {
	target := e.defaults.Merge(override)
	if err := target.Validate(); err != nil {
		return integration.PivotTarget{}, err
	}
	return target, nil
}

// Scheme returns the column naming scheme in use
func (e *PivotSyncEngine) Scheme() integration.ColumnScheme {
	return e.scheme
}

// Sync upserts one aggregate using the configured target merged with override
func (e *PivotSyncEngine) Sync(ctx context.Context, agg integration.SkuDailyAggregate, override integration.PivotTarget) (*PivotSyncResult, error) {
	target, err := e.ResolveTarget(override)
	if err != nil {
		return nil, err
	}
	return e.syncTo(ctx, target, agg)
}

// syncTo upserts one aggregate into an already resolved target
func (e *PivotSyncEngine) syncTo(ctx context.Context, target integration.PivotTarget, agg integration.SkuDailyAggregate) (*PivotSyncResult, error) {
	sku := strings.TrimSpace(agg.Sku)
	if sku == "" {
		return nil, integration.ErrPivotEmptySku
	}

	column, err := e.scheme.ColumnFor(agg.Date)
	if err != nil {
		return nil, err
	}

	handle, found, fallback, err := e.resolveRow(ctx, target, sku)
	if err != nil {
		return nil, err
	}

	fields := integration.PivotFields{
		target.KeyField: sku,
		column:          agg.RevenueFloat(),
	}

	result := &PivotSyncResult{Sku: sku, Column: column, LookupFallback: fallback}
	if found {
		if err := e.table.UpdateRecord(ctx, target, handle, fields); err != nil {
			return nil, fmt.Errorf("revenue: update row for %s: %w", sku, err)
		}
		result.Action = RowActionUpdated
		result.Handle = handle
	} else {
		created, err := e.table.CreateRecord(ctx, target, fields)
		if err != nil {
			return nil, fmt.Errorf("revenue: create row for %s: %w", sku, err)
		}
		result.Action = RowActionCreated
		result.Handle = created
	}

	e.logger.Debug("Pivot row written",
		zap.String("sku", sku),
		zap.String("column", column),
		zap.String("action", string(result.Action)),
		zap.String("revenue", agg.Revenue.String()),
	)
	return result, nil
}

// resolveRow finds the row keyed by sku. A transport failure during the
// search is reported as not found so the caller creates the row. Any other
// search error is returned.
func (e *PivotSyncEngine) resolveRow(ctx context.Context, target integration.PivotTarget, sku string) (handle integration.PivotRecordHandle, found, fallback bool, err error) {
	handles, err := e.table.SearchRecords(ctx, target, sku)
	if err != nil {
		if integration.IsTransportFailure(err) {
			e.logger.Warn("Row search failed, treating as not found",
				zap.String("sku", sku),
				zap.Error(err),
			)
			return "", false, true, nil
		}
		return "", false, false, fmt.Errorf("revenue: search row for %s: %w", sku, err)
	}

	switch len(handles) {
	case 0:
		return "", false, false, nil
	case 1:
		return handles[0], true, false, nil
	default:
		e.logger.Warn("Multiple rows match SKU, updating the first",
			zap.String("sku", sku),
			zap.Int("matches", len(handles)),
		)
		return handles[0], true, false, nil
	}
}

// ListColumns returns the column names of the resolved target's first row
func (e *PivotSyncEngine) ListColumns(ctx context.Context, override integration.PivotTarget) ([]string, error) {
	target, err := e.ResolveTarget(override)
	if err != nil {
		return nil, err
	}
	fields, err := e.table.ListFields(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("revenue: list columns: %w", err)
	}
	return fields, nil
}
