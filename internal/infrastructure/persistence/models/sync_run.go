package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/shopops/revsync/internal/domain/integration"
)

// SyncRunModel is the persistence model for the SyncRun domain entity.
type SyncRunModel struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	TargetDate   string     `gorm:"type:varchar(10);not null;index"`
	Trigger      string     `gorm:"type:varchar(20);not null"`
	Status       string     `gorm:"type:varchar(20);not null;index"`
	OrderCount   int        `gorm:"not null;default:0"`
	SkuCount     int        `gorm:"not null;default:0"`
	SyncedCount  int        `gorm:"not null;default:0"`
	CreatedRows  int        `gorm:"not null;default:0"`
	UpdatedRows  int        `gorm:"not null;default:0"`
	ErrorMessage string     `gorm:"type:text"`
	StartedAt    time.Time  `gorm:"not null;index"`
	CompletedAt  *time.Time
	UpdatedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SyncRunModel) TableName() string {
	return "sync_runs"
}

// targetDateLayout stores the calendar day without a zone so the row reads
// back as the same day regardless of the database session timezone.
const targetDateLayout = "2006-01-02"

// ToDomain converts the persistence model to a domain SyncRun entity.
// The target date is returned at midnight in loc.
func (m *SyncRunModel) ToDomain(loc *time.Location) *integration.SyncRun {
	if loc == nil {
		loc = time.UTC
	}
	target, _ := time.ParseInLocation(targetDateLayout, m.TargetDate, loc)
	return &integration.SyncRun{
		ID:           m.ID,
		TargetDate:   target,
		Trigger:      m.Trigger,
		Status:       integration.SyncStatus(m.Status),
		OrderCount:   m.OrderCount,
		SkuCount:     m.SkuCount,
		SyncedCount:  m.SyncedCount,
		CreatedRows:  m.CreatedRows,
		UpdatedRows:  m.UpdatedRows,
		ErrorMessage: m.ErrorMessage,
		StartedAt:    m.StartedAt,
		CompletedAt:  m.CompletedAt,
	}
}

// FromDomain populates the persistence model from a domain SyncRun entity.
func (m *SyncRunModel) FromDomain(r *integration.SyncRun) {
	m.ID = r.ID
	m.TargetDate = r.TargetDate.Format(targetDateLayout)
	m.Trigger = r.Trigger
	m.Status = r.Status.String()
	m.OrderCount = r.OrderCount
	m.SkuCount = r.SkuCount
	m.SyncedCount = r.SyncedCount
	m.CreatedRows = r.CreatedRows
	m.UpdatedRows = r.UpdatedRows
	m.ErrorMessage = r.ErrorMessage
	m.StartedAt = r.StartedAt
	m.CompletedAt = r.CompletedAt
}

// SyncRunModelFromDomain creates a new persistence model from a domain SyncRun.
func SyncRunModelFromDomain(r *integration.SyncRun) *SyncRunModel {
	m := &SyncRunModel{}
	m.FromDomain(r)
	return m
}
