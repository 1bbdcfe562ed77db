package integration

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Sync Run Types
// ---------------------------------------------------------------------------

var (
	ErrSyncRunNotFound = errors.New("integration: sync run not found")
)

// SyncStatus represents the status of a daily sync run
type SyncStatus string

const (
	// SyncStatusRunning indicates the run is in progress
	SyncStatusRunning SyncStatus = "RUNNING"
	// SyncStatusSuccess indicates every SKU was written
	SyncStatusSuccess SyncStatus = "SUCCESS"
	// SyncStatusFailed indicates the run stopped on a fatal error
	SyncStatusFailed SyncStatus = "FAILED"
)

// IsValid returns true if the status is valid
func (s SyncStatus) IsValid() bool {
	switch s {
	case SyncStatusRunning, SyncStatusSuccess, SyncStatusFailed:
		return true
	default:
		return false
	}
}

// String returns the string representation of SyncStatus
func (s SyncStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the run has finished
func (s SyncStatus) IsTerminal() bool {
	return s == SyncStatusSuccess || s == SyncStatusFailed
}

// SyncRun records one execution of the daily sync
type SyncRun struct {
	// ID is the unique identifier of the run
	ID uuid.UUID
	// TargetDate is the calendar day being synchronized
	TargetDate time.Time
	// Trigger describes who started the run ("cli", "http", "scheduler")
	Trigger string
	// Status is the run status
	Status SyncStatus
	// OrderCount is the number of unique orders read
	OrderCount int
	// SkuCount is the number of SKU aggregates produced
	SkuCount int
	// SyncedCount is the number of SKUs written before completion or failure
	SyncedCount int
	// CreatedRows is the number of rows appended to the pivot table
	CreatedRows int
	// UpdatedRows is the number of existing rows updated
	UpdatedRows int
	// ErrorMessage contains the fatal error, if any
	ErrorMessage string
	// StartedAt is when the run started
	StartedAt time.Time
	// CompletedAt is when the run finished
	CompletedAt *time.Time
}

// NewSyncRun starts a new run for the target date
func NewSyncRun(targetDate time.Time, trigger string) *SyncRun {
	return &SyncRun{
		ID:         uuid.New(),
		TargetDate: targetDate,
		Trigger:    trigger,
		Status:     SyncStatusRunning,
		StartedAt:  time.Now(),
	}
}

// Succeed marks the run as successful
func (r *SyncRun) Succeed() {
	r.finish(SyncStatusSuccess, "")
}

// Fail marks the run as failed with the given error
func (r *SyncRun) Fail(err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	r.finish(SyncStatusFailed, msg)
}

func (r *SyncRun) finish(status SyncStatus, msg string) {
	now := time.Now()
	r.Status = status
	r.ErrorMessage = msg
	r.CompletedAt = &now
}

// Duration returns how long the run took, or zero while running
func (r *SyncRun) Duration() time.Duration {
	if r.CompletedAt == nil {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// SyncRunRepository persists sync run history
type SyncRunRepository interface {
	// Save inserts or updates a run
	Save(ctx context.Context, run *SyncRun) error
	// FindByID returns a run by id
	FindByID(ctx context.Context, id uuid.UUID) (*SyncRun, error)
	// FindRecent returns the latest runs, newest first
	FindRecent(ctx context.Context, limit int) ([]SyncRun, error)
}
