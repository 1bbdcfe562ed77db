package integration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// Pivot Errors
// ---------------------------------------------------------------------------

var (
	ErrPivotTargetNotConfigured = errors.New("integration: pivot table app token or table id not configured")
	ErrPivotEmptySku            = errors.New("integration: aggregate has an empty sku")
	ErrPivotInvalidDay          = errors.New("integration: day of month must be between 1 and 31")
	ErrPivotUnknownColumnScheme = errors.New("integration: unknown pivot column scheme")
)

// DefaultKeyField is the key column of the pivot table when none is configured
const DefaultKeyField = "商品名"

// ---------------------------------------------------------------------------
// Day columns
// ---------------------------------------------------------------------------

// ColumnScheme selects how a date maps to a pivot column label
type ColumnScheme string

const (
	// ColumnSchemeDay labels columns by day of month only ("15日").
	// Syncs for the same day of different months share a column.
	ColumnSchemeDay ColumnScheme = "day"
	// ColumnSchemeMonthDay labels columns by month and day ("3月15日")
	ColumnSchemeMonthDay ColumnScheme = "month_day"
)

// IsValid returns true if the scheme is known
func (s ColumnScheme) IsValid() bool {
	switch s {
	case ColumnSchemeDay, ColumnSchemeMonthDay:
		return true
	default:
		return false
	}
}

// String returns the string representation of ColumnScheme
func (s ColumnScheme) String() string {
	return string(s)
}

// ColumnFor returns the column label for the given date
func (s ColumnScheme) ColumnFor(date time.Time) (string, error) {
	switch s {
	case ColumnSchemeDay, "":
		return DayColumn(date.Day())
	case ColumnSchemeMonthDay:
		day, err := DayColumn(date.Day())
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d月%s", int(date.Month()), day), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrPivotUnknownColumnScheme, string(s))
	}
}

// DayColumn returns the label of the day-of-month column ("1日".."31日")
func DayColumn(day int) (string, error) {
	if day < 1 || day > 31 {
		return "", fmt.Errorf("%w: got %d", ErrPivotInvalidDay, day)
	}
	return fmt.Sprintf("%d日", day), nil
}

// ---------------------------------------------------------------------------
// Pivot target
// ---------------------------------------------------------------------------

// PivotTarget identifies the remote table a sync writes to
type PivotTarget struct {
	// AppToken identifies the Bitable app (base)
	AppToken string
	// TableID identifies the table within the app
	TableID string
	// KeyField is the column holding the SKU
	KeyField string
}

// Merge returns t with every non-empty field of override applied on top.
// Explicit arguments take precedence over configured defaults.
func (t PivotTarget) Merge(override PivotTarget) PivotTarget {
	merged := t
	if v := strings.TrimSpace(override.AppToken); v != "" {
		merged.AppToken = v
	}
	if v := strings.TrimSpace(override.TableID); v != "" {
		merged.TableID = v
	}
	if v := strings.TrimSpace(override.KeyField); v != "" {
		merged.KeyField = v
	}
	if merged.KeyField == "" {
		merged.KeyField = DefaultKeyField
	}
	return merged
}

// Validate checks that the target names a table
func (t PivotTarget) Validate() error {
	if t.AppToken == "" || t.TableID == "" {
		return ErrPivotTargetNotConfigured
	}
	return nil
}

// ---------------------------------------------------------------------------
// PivotTable port
// ---------------------------------------------------------------------------

// PivotRecordHandle is the opaque remote id of a pivot row.
// Handles are looked up on every sync and never cached.
type PivotRecordHandle string

// PivotFields is the partial set of columns written to a row
type PivotFields map[string]any

// PivotTable is the port for the remote SKU x day table.
//
// Errors wrapping ErrPlatformUnavailable or ErrPlatformRateLimited are
// transport failures; any other error, including *RemoteError, is a hard failure.
type PivotTable interface {
	// SearchRecords returns the handles of rows whose key column equals keyValue
	SearchRecords(ctx context.Context, target PivotTarget, keyValue string) ([]PivotRecordHandle, error)

	// CreateRecord appends a row carrying fields
	CreateRecord(ctx context.Context, target PivotTarget, fields PivotFields) (PivotRecordHandle, error)

	// UpdateRecord overwrites only the given fields of an existing row
	UpdateRecord(ctx context.Context, target PivotTarget, handle PivotRecordHandle, fields PivotFields) error

	// ListFields returns the column names of the first row, or nothing for an empty table
	ListFields(ctx context.Context, target PivotTarget) ([]string, error)
}

// IsTransportFailure reports whether err is a transport-level failure
// (network error, timeout, throttling or a 5xx) rather than a semantic one.
func IsTransportFailure(err error) bool {
	return errors.Is(err, ErrPlatformUnavailable) || errors.Is(err, ErrPlatformRateLimited)
}
