// Package scheduler runs the daily revenue sync at a fixed local time.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/shopops/revsync/internal/application/revenue"
)

// DailySyncRunner runs one daily sync
type DailySyncRunner interface {
	RunDailySync(ctx context.Context, req revenue.SyncRequest) (*revenue.SyncReport, error)
}

// DailyTriggerConfig holds configuration for the daily trigger
type DailyTriggerConfig struct {
	// DailyHour and DailyMinute are the local run time in 24h format
	DailyHour   int
	DailyMinute int

	// CheckInterval is how often to check if it's time to run
	CheckInterval time.Duration

	// RetryAttempts is the number of retries after a failed run
	RetryAttempts int
	// RetryDelay is the first retry delay; later delays grow exponentially
	RetryDelay time.Duration

	// Location is the marketplace timezone the run time is expressed in
	Location *time.Location
}

// DefaultDailyTriggerConfig returns default daily trigger configuration
func DefaultDailyTriggerConfig() DailyTriggerConfig {
	return DailyTriggerConfig{
		DailyHour:     6,
		DailyMinute:   0,
		CheckInterval: time.Minute,
		RetryAttempts: 3,
		RetryDelay:    5 * time.Minute,
		Location:      time.UTC,
	}
}

// Validate checks the trigger configuration
func (c DailyTriggerConfig) Validate() error {
	if c.DailyHour < 0 || c.DailyHour > 23 || c.DailyMinute < 0 || c.DailyMinute > 59 {
		return ErrInvalidConfig
	}
	if c.CheckInterval <= 0 || c.RetryAttempts < 0 {
		return ErrInvalidConfig
	}
	return nil
}

// DailyTrigger syncs yesterday's revenue once per day after the configured
// time has passed.
type DailyTrigger struct {
	config DailyTriggerConfig
	runner DailySyncRunner
	logger *zap.Logger
	now    func() time.Time

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning   bool
	lastRunDate string // Track which date we last ran for
}

// NewDailyTrigger creates a new daily trigger
func NewDailyTrigger(config DailyTriggerConfig, runner DailySyncRunner, logger *zap.Logger) (*DailyTrigger, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DailyTrigger{
		config: config,
		runner: runner,
		logger: logger.Named("scheduler"),
		now:    time.Now,
	}, nil
}

// Start starts the trigger loop
func (d *DailyTrigger) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.isRunning {
		d.mu.Unlock()
		return nil
	}
	d.isRunning = true
	d.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	d.wg.Add(1)
	go d.runLoop(ctx)

	d.logger.Info("Daily sync trigger started",
		zap.Int("daily_hour", d.config.DailyHour),
		zap.Int("daily_minute", d.config.DailyMinute),
		zap.String("timezone", d.config.Location.String()),
		zap.Duration("check_interval", d.config.CheckInterval),
	)

	return nil
}

// Stop stops the trigger and waits for an in-flight run to return
func (d *DailyTrigger) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.isRunning {
		d.mu.Unlock()
		return nil
	}
	d.isRunning = false
	d.mu.Unlock()

	if d.cancel != nil {
		d.cancel()
	}

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info("Daily sync trigger stopped")
		return nil
	case <-ctx.Done():
		d.logger.Warn("Daily sync trigger stop timed out")
		return ctx.Err()
	}
}

// IsRunning reports whether the trigger loop is active
func (d *DailyTrigger) IsRunning() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.isRunning
}

// runLoop checks periodically if it's time to run the daily sync
func (d *DailyTrigger) runLoop(ctx context.Context) {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.checkAndTrigger(ctx)
		}
	}
}

// checkAndTrigger runs the sync when today's run time has passed and
// today has not been handled yet. It returns true if a run was started.
func (d *DailyTrigger) checkAndTrigger(ctx context.Context) bool {
	now := d.now().In(d.config.Location)
	currentDate := now.Format(time.DateOnly)

	runAt := time.Date(now.Year(), now.Month(), now.Day(), d.config.DailyHour, d.config.DailyMinute, 0, 0, d.config.Location)
	if now.Before(runAt) {
		return false
	}

	d.mu.Lock()
	if d.lastRunDate == currentDate {
		d.mu.Unlock()
		return false
	}
	d.lastRunDate = currentDate
	d.mu.Unlock()

	date := revenue.Yesterday(now, d.config.Location)
	d.logger.Info("Triggering daily revenue sync", zap.String("date", date.Format(time.DateOnly)))

	if _, err := d.RunWithRetry(ctx, date); err != nil {
		d.logger.Error("Daily revenue sync failed",
			zap.String("date", date.Format(time.DateOnly)),
			zap.Error(err),
		)
	}
	return true
}

// RunWithRetry runs the sync for date, retrying retryable failures with
// exponential backoff. A concurrent run or a configuration error stops
// retrying immediately.
func (d *DailyTrigger) RunWithRetry(ctx context.Context, date time.Time) (*revenue.SyncReport, error) {
	var (
		report  *revenue.SyncReport
		attempt int
	)

	operation := func() error {
		attempt++
		r, err := d.runner.RunDailySync(ctx, revenue.SyncRequest{
			Date:    date,
			Trigger: revenue.TriggerScheduler,
		})
		report = r
		if err == nil {
			return nil
		}
		if !revenue.IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, next time.Duration) {
		d.logger.Warn("Daily revenue sync attempt failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("retry_in", next),
			zap.Error(err),
		)
	}

	err := backoff.RetryNotify(operation, d.newBackOff(ctx), notify)
	if err != nil {
		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			err = permanent.Err
		}
		return report, err
	}

	d.logger.Info("Daily revenue sync completed",
		zap.String("date", date.Format(time.DateOnly)),
		zap.Int("attempts", attempt),
	)
	return report, nil
}

func (d *DailyTrigger) newBackOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = d.config.RetryDelay
	exp.MaxInterval = 8 * d.config.RetryDelay
	exp.MaxElapsedTime = 0
	exp.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(d.config.RetryAttempts)), ctx)
}
