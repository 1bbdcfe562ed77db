package revenue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shopops/revsync/internal/domain/integration"
	"github.com/shopops/revsync/internal/infrastructure/telemetry"
)

// Trigger names recorded on sync runs
const (
	TriggerCLI       = "cli"
	TriggerHTTP      = "http"
	TriggerScheduler = "scheduler"
)

const (
	defaultLockTTL     = 30 * time.Minute
	defaultRecentLimit = 20
	maxRecentLimit     = 200
	lockKeyPrefix      = "revsync:lock:daily"
)

// SyncRequest describes one daily sync
type SyncRequest struct {
	// Date is the calendar day to sync. Zero means yesterday in the marketplace time zone.
	Date time.Time
	// Trigger names who started the run
	Trigger string
	// Target overrides the configured pivot table. Blank fields keep the defaults.
	Target integration.PivotTarget
}

// SyncReport summarizes a finished or failed run
type SyncReport struct {
	RunID       uuid.UUID
	Date        time.Time
	Column      string
	Status      integration.SyncStatus
	OrderCount  int
	SkuCount    int
	SyncedCount int
	CreatedRows int
	UpdatedRows int
	Duration    time.Duration
	Error       string
}

// DailySyncService orchestrates aggregation and pivot writes for one day
type DailySyncService struct {
	aggregator *Aggregator
	engine     *PivotSyncEngine
	lock       RunLock
	history    integration.SyncRunRepository
	notifier   Notifier
	recorder   SyncRecorder
	location   *time.Location
	lockTTL    time.Duration
	now        func() time.Time
	logger     *zap.Logger
}

// DailySyncOption configures a DailySyncService
type DailySyncOption func(*DailySyncService)

// WithRunLock sets the lock used to serialize runs
func WithRunLock(lock RunLock) DailySyncOption {
	return func(s *DailySyncService) { s.lock = lock }
}

// WithHistory sets the run history repository
func WithHistory(repo integration.SyncRunRepository) DailySyncOption {
	return func(s *DailySyncService) { s.history = repo }
}

// WithNotifier sets the run summary notifier
func WithNotifier(n Notifier) DailySyncOption {
	return func(s *DailySyncService) { s.notifier = n }
}

// WithRecorder sets the metrics recorder
func WithRecorder(r SyncRecorder) DailySyncOption {
	return func(s *DailySyncService) { s.recorder = r }
}

// WithLocation sets the marketplace time zone used to resolve dates
func WithLocation(loc *time.Location) DailySyncOption {
	return func(s *DailySyncService) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithLockTTL sets how long a run lock is held before it expires on its own
func WithLockTTL(ttl time.Duration) DailySyncOption {
	return func(s *DailySyncService) {
		if ttl > 0 {
			s.lockTTL = ttl
		}
	}
}

// NewDailySyncService creates a new DailySyncService
func NewDailySyncService(aggregator *Aggregator, engine *PivotSyncEngine, logger *zap.Logger, opts ...DailySyncOption) *DailySyncService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &DailySyncService{
		aggregator: aggregator,
		engine:     engine,
		location:   time.UTC,
		lockTTL:    defaultLockTTL,
		now:        time.Now,
		logger:     logger.Named("daily_sync"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Location returns the time zone dates are resolved in
func (s *DailySyncService) Location() *time.Location {
	return s.location
}

// ---------------------------------------------------------------------------
// Daily sync
// ---------------------------------------------------------------------------

// RunDailySync aggregates one day of orders and writes every SKU total into
// the pivot table. On failure the returned report carries the partial counts.
func (s *DailySyncService) RunDailySync(ctx context.Context, req SyncRequest) (*SyncReport, error) {
	date := req.Date
	if date.IsZero() {
		date = Yesterday(s.now(), s.location)
	} else {
		date = startOfDay(date, s.location)
	}
	trigger := req.Trigger
	if trigger == "" {
		trigger = TriggerCLI
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "revenue", "run_daily_sync")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrSyncDate, date.Format(time.DateOnly),
		telemetry.SpanAttrTrigger, trigger,
	)

	// Configuration errors surface before any remote call
	target, err := s.engine.ResolveTarget(req.Target)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	column, err := s.engine.Scheme().ColumnFor(date)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if s.lock != nil {
		key := lockKey(date, target)
		acquired, err := s.lock.TryAcquire(ctx, key, s.lockTTL)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("revenue: acquire run lock: %w", err)
		}
		if !acquired {
			telemetry.RecordError(span, ErrSyncAlreadyInProgress)
			return nil, ErrSyncAlreadyInProgress
		}
		defer func() {
			if err := s.lock.Release(context.WithoutCancel(ctx), key); err != nil {
				s.logger.Warn("Failed to release run lock", zap.String("key", key), zap.Error(err))
			}
		}()
	}

	run := integration.NewSyncRun(date, trigger)
	s.saveRun(ctx, run)

	s.logger.Info("Daily sync started",
		zap.String("run_id", run.ID.String()),
		zap.String("date", date.Format(time.DateOnly)),
		zap.String("column", column),
		zap.String("table_id", target.TableID),
		zap.String("trigger", trigger),
	)

	runErr := s.execute(ctx, run, target)
	if runErr != nil {
		run.Fail(runErr)
		telemetry.RecordError(span, runErr)
		s.logger.Error("Daily sync failed",
			zap.String("run_id", run.ID.String()),
			zap.Int("synced", run.SyncedCount),
			zap.Int("skus", run.SkuCount),
			zap.Error(runErr),
		)
	} else {
		run.Succeed()
		telemetry.SetOK(span)
		s.logger.Info("Daily sync completed",
			zap.String("run_id", run.ID.String()),
			zap.Int("orders", run.OrderCount),
			zap.Int("skus", run.SkuCount),
			zap.Int("created", run.CreatedRows),
			zap.Int("updated", run.UpdatedRows),
			zap.Duration("duration", run.Duration()),
		)
	}

	finishCtx := context.WithoutCancel(ctx)
	s.saveRun(finishCtx, run)
	if s.recorder != nil {
		s.recorder.RecordRun(finishCtx, run.Status.String(), run.Duration(), run.SkuCount)
	}
	s.notify(finishCtx, run, column)

	report := newSyncReport(run, column)
	if runErr != nil {
		return report, runErr
	}
	return report, nil
}

// execute runs aggregation then writes each aggregate in order, stopping at
// the first failure. Counters on run reflect the progress made.
func (s *DailySyncService) execute(ctx context.Context, run *integration.SyncRun, target integration.PivotTarget) error {
	result, err := s.aggregator.Aggregate(ctx, run.TargetDate)
	if err != nil {
		return err
	}
	run.OrderCount = result.OrderCount
	run.SkuCount = len(result.Aggregates)

	for _, agg := range result.Aggregates {
		if err := ctx.Err(); err != nil {
			return err
		}
		res, err := s.engine.syncTo(ctx, target, agg)
		if err != nil {
			return err
		}
		run.SyncedCount++
		switch res.Action {
		case RowActionCreated:
			run.CreatedRows++
		case RowActionUpdated:
			run.UpdatedRows++
		}
		if s.recorder != nil {
			s.recorder.RecordRowWrite(ctx, string(res.Action))
			if res.LookupFallback {
				s.recorder.RecordLookupFallback(ctx)
			}
		}
	}
	return nil
}

func (s *DailySyncService) saveRun(ctx context.Context, run *integration.SyncRun) {
	if s.history == nil {
		return
	}
	if err := s.history.Save(ctx, run); err != nil {
		s.logger.Warn("Failed to save sync run", zap.String("run_id", run.ID.String()), zap.Error(err))
	}
}

func (s *DailySyncService) notify(ctx context.Context, run *integration.SyncRun, column string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, SummaryText(run, column)); err != nil {
		s.logger.Warn("Failed to send sync notification", zap.String("run_id", run.ID.String()), zap.Error(err))
	}
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

// ListTableColumns returns the column names of the target pivot table
func (s *DailySyncService) ListTableColumns(ctx context.Context, override integration.PivotTarget) ([]string, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "revenue", "list_table_columns")
	defer span.End()

	columns, err := s.engine.ListColumns(ctx, override)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return columns, nil
}

// RecentRuns returns the latest sync runs, newest first
func (s *DailySyncService) RecentRuns(ctx context.Context, limit int) ([]integration.SyncRun, error) {
	if s.history == nil {
		return []integration.SyncRun{}, nil
	}
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}
	return s.history.FindRecent(ctx, limit)
}

// GetRun returns one sync run by id
func (s *DailySyncService) GetRun(ctx context.Context, id uuid.UUID) (*integration.SyncRun, error) {
	if s.history == nil {
		return nil, integration.ErrSyncRunNotFound
	}
	return s.history.FindByID(ctx, id)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// Yesterday returns the start of the day before now in loc
func Yesterday(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return startOfDay(now.In(loc), loc).AddDate(0, 0, -1)
}

// ParseSyncDate parses a YYYY-MM-DD date in loc. An empty string yields
// yesterday relative to now.
func ParseSyncDate(raw string, now time.Time, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Yesterday(now, loc), nil
	}
	date, err := time.ParseInLocation(time.DateOnly, raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidSyncDate, raw)
	}
	return date, nil
}

// SummaryText renders the notification text for a finished run
func SummaryText(run *integration.SyncRun, column string) string {
	date := run.TargetDate.Format(time.DateOnly)
	if run.Status == integration.SyncStatusFailed {
		return fmt.Sprintf("Revenue sync %s (%s) failed after %d/%d SKUs: %s",
			date, column, run.SyncedCount, run.SkuCount, run.ErrorMessage)
	}
	return fmt.Sprintf("Revenue sync %s (%s) completed: %d orders, %d SKUs (%d created, %d updated)",
		date, column, run.OrderCount, run.SkuCount, run.CreatedRows, run.UpdatedRows)
}

// IsRetryable reports whether a failed run may succeed if started again
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrSyncAlreadyInProgress) ||
		errors.Is(err, integration.ErrPivotTargetNotConfigured) ||
		errors.Is(err, integration.ErrPlatformNotConfigured) ||
		errors.Is(err, integration.ErrPlatformAuthFailed) ||
		errors.Is(err, context.Canceled) {
		return false
	}
	return true
}

func newSyncReport(run *integration.SyncRun, column string) *SyncReport {
	return &SyncReport{
		RunID:       run.ID,
		Date:        run.TargetDate,
		Column:      column,
		Status:      run.Status,
		OrderCount:  run.OrderCount,
		SkuCount:    run.SkuCount,
		SyncedCount: run.SyncedCount,
		CreatedRows: run.CreatedRows,
		UpdatedRows: run.UpdatedRows,
		Duration:    run.Duration(),
		Error:       run.ErrorMessage,
	}
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func lockKey(date time.Time, target integration.PivotTarget) string {
	return fmt.Sprintf("%s:%s:%s:%s", lockKeyPrefix, target.AppToken, target.TableID, date.Format(time.DateOnly))
}
