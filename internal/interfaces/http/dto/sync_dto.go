package dto

import (
	"time"

	"github.com/shopops/revsync/internal/application/revenue"
	"github.com/shopops/revsync/internal/domain/integration"
)

// DailySyncRequest triggers a daily sync
type DailySyncRequest struct {
	// Date is YYYY-MM-DD in the marketplace time zone; empty means yesterday
	Date     string `json:"date" binding:"omitempty,datetime=2006-01-02"`
	AppToken string `json:"app_token" binding:"omitempty,max=64"`
	TableID  string `json:"table_id" binding:"omitempty,max=64"`
}

// SyncReportResponse is the result of a daily sync
type SyncReportResponse struct {
	RunID       string  `json:"run_id"`
	Date        string  `json:"date"`
	Column      string  `json:"column"`
	Status      string  `json:"status"`
	OrderCount  int     `json:"order_count"`
	SkuCount    int     `json:"sku_count"`
	SyncedCount int     `json:"synced_count"`
	CreatedRows int     `json:"created_rows"`
	UpdatedRows int     `json:"updated_rows"`
	DurationSec float64 `json:"duration_seconds"`
	Error       string  `json:"error,omitempty"`
}

// ToSyncReportResponse converts a sync report
func ToSyncReportResponse(r *revenue.SyncReport) SyncReportResponse {
	return SyncReportResponse{
		RunID:       r.RunID.String(),
		Date:        r.Date.Format(time.DateOnly),
		Column:      r.Column,
		Status:      r.Status.String(),
		OrderCount:  r.OrderCount,
		SkuCount:    r.SkuCount,
		SyncedCount: r.SyncedCount,
		CreatedRows: r.CreatedRows,
		UpdatedRows: r.UpdatedRows,
		DurationSec: r.Duration.Seconds(),
		Error:       r.Error,
	}
}

// SyncRunsQuery lists recent runs
type SyncRunsQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=200"`
}

// SyncRunResponse is one entry of run history
type SyncRunResponse struct {
	ID           string     `json:"id"`
	Date         string     `json:"date"`
	Trigger      string     `json:"trigger"`
	Status       string     `json:"status"`
	OrderCount   int        `json:"order_count"`
	SkuCount     int        `json:"sku_count"`
	SyncedCount  int        `json:"synced_count"`
	CreatedRows  int        `json:"created_rows"`
	UpdatedRows  int        `json:"updated_rows"`
	ErrorMessage string     `json:"error_message,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// ToSyncRunResponse converts a domain sync run
func ToSyncRunResponse(r *integration.SyncRun) SyncRunResponse {
	return SyncRunResponse{
		ID:           r.ID.String(),
		Date:         r.TargetDate.Format(time.DateOnly),
		Trigger:      r.Trigger,
		Status:       r.Status.String(),
		OrderCount:   r.OrderCount,
		SkuCount:     r.SkuCount,
		SyncedCount:  r.SyncedCount,
		CreatedRows:  r.CreatedRows,
		UpdatedRows:  r.UpdatedRows,
		ErrorMessage: r.ErrorMessage,
		StartedAt:    r.StartedAt,
		CompletedAt:  r.CompletedAt,
	}
}

// ToSyncRunResponses converts a list of runs
func ToSyncRunResponses(runs []integration.SyncRun) []SyncRunResponse {
	out := make([]SyncRunResponse, len(runs))
	for i := range runs {
		out[i] = ToSyncRunResponse(&runs[i])
	}
	return out
}

// TableColumnsQuery overrides the base of the inspected table
type TableColumnsQuery struct {
	AppToken string `form:"app_token" binding:"omitempty,max=64"`
}

// TableColumnsResponse lists the columns of a pivot table
type TableColumnsResponse struct {
	TableID string   `json:"table_id"`
	Columns []string `json:"columns"`
}
