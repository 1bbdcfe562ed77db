// Package revenue implements the daily revenue sync: reading one day of
// marketplace orders, folding them into per-SKU totals and writing each
// total into its day column of the remote pivot table.
package revenue

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrSyncAlreadyInProgress is returned when another run holds the lock for the same date and table
	ErrSyncAlreadyInProgress = errors.New("revenue: sync already in progress for this date")
	// ErrInvalidSyncDate is returned for dates that are not YYYY-MM-DD
	ErrInvalidSyncDate = errors.New("revenue: invalid sync date, expected YYYY-MM-DD")
)

// RunLock serializes runs that target the same date and table
type RunLock interface {
	// TryAcquire takes the lock if it is free. It returns false if another holder has it.
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Release frees the lock
	Release(ctx context.Context, key string) error
}

// Notifier delivers a human-readable run summary
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// SyncRecorder receives run and row metrics
type SyncRecorder interface {
	// RecordRun records a finished run
	RecordRun(ctx context.Context, status string, duration time.Duration, skuCount int)
	// RecordRowWrite records a created or updated pivot row
	RecordRowWrite(ctx context.Context, action string)
	// RecordLookupFallback records a row search that failed and was treated as not found
	RecordLookupFallback(ctx context.Context)
}
