package integration

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Marketplace Errors
// ---------------------------------------------------------------------------

var (
	// Platform errors
	ErrPlatformNotConfigured   = errors.New("integration: platform not configured")
	ErrPlatformUnavailable     = errors.New("integration: platform temporarily unavailable")
	ErrPlatformRequestFailed   = errors.New("integration: platform request failed")
	ErrPlatformInvalidResponse = errors.New("integration: invalid platform response")
	ErrPlatformAuthFailed      = errors.New("integration: platform authentication failed")
	ErrPlatformRateLimited     = errors.New("integration: platform rate limited")
	ErrRemoteAPIError          = errors.New("integration: remote api returned an error")

	// Order search errors
	ErrOrderSearchInvalidRange = errors.New("integration: order search end date is before start date")
	ErrOrderSearchInvalidPage  = errors.New("integration: invalid order search page")
	ErrOrderBatchTooLarge      = errors.New("integration: order detail batch exceeds maximum size")

	// ErrNotImplemented is returned by marketplace features that exist in the
	// remote API surface but are not supported by revsync.
	ErrNotImplemented = errors.New("integration: not implemented")
)

// RemoteError carries a semantic error reported inside a well-formed
// response envelope. It always matches ErrRemoteAPIError with errors.Is.
type RemoteError struct {
	// Service names the remote system ("rakuten", "lark")
	Service string
	// Code is the remote error code, as reported by the service
	Code string
	// Message is the remote error message
	Message string
}

// Error implements error
func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: remote error %s: %s", e.Service, e.Code, e.Message)
}

// Unwrap lets errors.Is match ErrRemoteAPIError
func (e *RemoteError) Unwrap() error {
	return ErrRemoteAPIError
}

// ---------------------------------------------------------------------------
// PlatformCode
// ---------------------------------------------------------------------------

// PlatformCode represents the marketplace an order source talks to
type PlatformCode string

const (
	// PlatformCodeRakuten represents Rakuten Ichiba (RMS)
	PlatformCodeRakuten PlatformCode = "RAKUTEN"
)

// IsValid returns true if the platform code is valid
func (c PlatformCode) IsValid() bool {
	return c == PlatformCodeRakuten
}

// String returns the string representation of PlatformCode
func (c PlatformCode) String() string {
	return string(c)
}

// DisplayName returns a human-readable name for the platform
func (c PlatformCode) DisplayName() string {
	switch c {
	case PlatformCodeRakuten:
		return "楽天市場"
	default:
		return string(c)
	}
}

// ---------------------------------------------------------------------------
// Order search
// ---------------------------------------------------------------------------

const (
	// MaxOrderDetailsBatch is the largest number of order identifiers a
	// single detail fetch accepts.
	MaxOrderDetailsBatch = 100
	// DefaultSearchPageSize is the number of identifiers requested per search page.
	DefaultSearchPageSize = 1000
	// MaxSearchPageSize is the largest page the marketplace serves.
	MaxSearchPageSize = 1000
)

// OrderSearchRequest describes one page of an order identifier search.
// StartDate and EndDate are calendar days and both are inclusive.
type OrderSearchRequest struct {
	StartDate time.Time
	EndDate   time.Time
	Page      int
	PageSize  int
}

// NewDailySearchRequest returns a request covering a single calendar day
func NewDailySearchRequest(date time.Time, page int) *OrderSearchRequest {
	return &OrderSearchRequest{
		StartDate: date,
		EndDate:   date,
		Page:      page,
		PageSize:  DefaultSearchPageSize,
	}
}

// Validate validates the search request and fills defaults
func (r *OrderSearchRequest) Validate() error {
	if r.StartDate.IsZero() || r.EndDate.IsZero() {
		return fmt.Errorf("%w: start and end dates are required", ErrOrderSearchInvalidRange)
	}
	if truncateToDay(r.EndDate).Before(truncateToDay(r.StartDate)) {
		return ErrOrderSearchInvalidRange
	}
	if r.Page < 0 {
		return ErrOrderSearchInvalidPage
	}
	if r.Page == 0 {
		r.Page = 1
	}
	if r.PageSize <= 0 {
		r.PageSize = DefaultSearchPageSize
	}
	if r.PageSize > MaxSearchPageSize {
		r.PageSize = MaxSearchPageSize
	}
	return nil
}

// OrderSearchPage is one page of order identifiers
type OrderSearchPage struct {
	// OrderIDs are the order identifiers on this page
	OrderIDs []string
	// TotalRecords is the total number of matching orders
	TotalRecords int
	// TotalPages is the number of pages the marketplace reports
	TotalPages int
	// Page is the 1-based index of this page
	Page int
}

// HasMore returns true if another page should be requested.
// An empty page always ends the sweep, whatever TotalPages says.
func (p *OrderSearchPage) HasMore() bool {
	return len(p.OrderIDs) > 0 && p.Page < p.TotalPages
}

// ---------------------------------------------------------------------------
// Orders and line items
// ---------------------------------------------------------------------------

// PlatformOrder represents an order read from the marketplace
type PlatformOrder struct {
	// OrderID is the marketplace order number
	OrderID string
	// OrderedAt is when the buyer placed the order
	OrderedAt time.Time
	// Status is the marketplace order progress code, kept for logging
	Status string
	// Packages are the shipping units of the order
	Packages []OrderPackage
}

// LineItems returns every line item of every package, in order
func (o PlatformOrder) LineItems() []LineItem {
	var items []LineItem
	for _, pkg := range o.Packages {
		items = append(items, pkg.Items...)
	}
	return items
}

// OrderPackage is a shipping unit of an order
type OrderPackage struct {
	PackageID string
	Items     []LineItem
}

// LineItem is one purchased item of an order
type LineItem struct {
	// ManageNumber is the merchant-managed product number (preferred SKU key)
	ManageNumber string
	// ItemNumber is the merchant item number (fallback SKU key)
	ItemNumber string
	// ItemName is the product title
	ItemName string
	// UnitPrice is the price of one unit
	UnitPrice decimal.Decimal
	// Quantity is the number of units
	Quantity int
}

// SkuIdentifier resolves the SKU of the line item: manage number first,
// then item number, then UnknownSku. Blank values count as missing.
func (li LineItem) SkuIdentifier() string {
	if v := strings.TrimSpace(li.ManageNumber); v != "" {
		return v
	}
	if v := strings.TrimSpace(li.ItemNumber); v != "" {
		return v
	}
	return UnknownSku
}

// Subtotal returns unit price x quantity
func (li LineItem) Subtotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// ---------------------------------------------------------------------------
// OrderSource port
// ---------------------------------------------------------------------------

// OrderSource is the port for reading marketplace orders.
// Implementations never retry and never split detail batches.
type OrderSource interface {
	// PlatformCode returns the marketplace this source reads from
	PlatformCode() PlatformCode

	// SearchOrders returns one page of order identifiers ordered within the request's date range
	SearchOrders(ctx context.Context, req *OrderSearchRequest) (*OrderSearchPage, error)

	// GetOrderDetails returns the orders for at most MaxOrderDetailsBatch identifiers
	GetOrderDetails(ctx context.Context, orderIDs []string) ([]PlatformOrder, error)
}

// StatusError maps a non-2xx HTTP status to the matching platform sentinel.
// It returns nil for 2xx statuses.
func StatusError(statusCode int) error {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return nil
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return fmt.Errorf("%w: HTTP %d", ErrPlatformAuthFailed, statusCode)
	case statusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: HTTP %d", ErrPlatformRateLimited, statusCode)
	case statusCode >= 500:
		return fmt.Errorf("%w: HTTP %d", ErrPlatformUnavailable, statusCode)
	default:
		return fmt.Errorf("%w: HTTP %d", ErrPlatformRequestFailed, statusCode)
	}
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
