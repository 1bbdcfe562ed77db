package ecommerce

import (
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// Common Rakuten API Types
// ---------------------------------------------------------------------------

// Rakuten message types reported in MessageModelList
const (
	RakutenMessageTypeError   = "ERROR"
	RakutenMessageTypeWarning = "WARNING"
	RakutenMessageTypeInfo    = "INFO"
)

// rakutenDateTimeLayout is the datetime format of RMS requests and responses
const rakutenDateTimeLayout = "2006-01-02T15:04:05-0700"

// RakutenMessage is a single entry of MessageModelList
type RakutenMessage struct {
	MessageType string `json:"messageType"`
	MessageCode string `json:"messageCode"`
	Message     string `json:"message"`
	OrderNumber string `json:"orderNumber,omitempty"`
}

// IsError returns true if the message reports a failure
func (m RakutenMessage) IsError() bool {
	return strings.EqualFold(m.MessageType, RakutenMessageTypeError)
}

// RakutenResponse is embedded in every RMS order response
type RakutenResponse struct {
	MessageModelList []RakutenMessage `json:"MessageModelList,omitempty"`
}

// FirstError returns the first ERROR message, if any
func (r *RakutenResponse) FirstError() (RakutenMessage, bool) {
	for _, m := range r.MessageModelList {
		if m.IsError() {
			return m, true
		}
	}
	return RakutenMessage{}, false
}

// ---------------------------------------------------------------------------
// searchOrder
// ---------------------------------------------------------------------------

// Rakuten searchOrder date types
const (
	// RakutenDateTypeOrder filters by order datetime
	RakutenDateTypeOrder = 1
)

// RakutenSearchOrderRequest is the body of searchOrder
type RakutenSearchOrderRequest struct {
	DateType               int                      `json:"dateType"`
	StartDatetime          string                   `json:"startDatetime"`
	EndDatetime            string                   `json:"endDatetime"`
	PaginationRequestModel RakutenPaginationRequest `json:"PaginationRequestModel"`
}

// RakutenPaginationRequest selects a page of searchOrder results
type RakutenPaginationRequest struct {
	RequestRecordsAmount int `json:"requestRecordsAmount"`
	RequestPage          int `json:"requestPage"`
}

// RakutenSearchOrderResponse is the response of searchOrder
type RakutenSearchOrderResponse struct {
	RakutenResponse
	OrderNumberList         []string                   `json:"orderNumberList"`
	PaginationResponseModel *RakutenPaginationResponse `json:"PaginationResponseModel,omitempty"`
}

// RakutenPaginationResponse describes the searchOrder result set
type RakutenPaginationResponse struct {
	TotalRecordsAmount int `json:"totalRecordsAmount"`
	TotalPages         int `json:"totalPages"`
	RequestPage        int `json:"requestPage"`
}

// ---------------------------------------------------------------------------
// getOrder
// ---------------------------------------------------------------------------

// RakutenGetOrderRequest is the body of getOrder
type RakutenGetOrderRequest struct {
	OrderNumberList []string `json:"orderNumberList"`
	Version         int      `json:"version"`
}

// RakutenGetOrderResponse is the response of getOrder
type RakutenGetOrderResponse struct {
	RakutenResponse
	OrderModelList []RakutenOrder `json:"OrderModelList"`
}

// RakutenOrder is a single order of OrderModelList
type RakutenOrder struct {
	OrderNumber      string           `json:"orderNumber"`
	OrderProgress    int              `json:"orderProgress"`
	OrderDatetime    string           `json:"orderDatetime"`
	TotalPrice       int64            `json:"totalPrice"`
	PackageModelList []RakutenPackage `json:"PackageModelList"`
}

// OrderedAt parses the order datetime, returning zero time when absent
func (o RakutenOrder) OrderedAt() time.Time {
	if o.OrderDatetime == "" {
		return time.Time{}
	}
	t, err := time.Parse(rakutenDateTimeLayout, o.OrderDatetime)
	if err != nil {
		return time.Time{}
	}
	return t
}

// RakutenPackage is a shipping unit (basket) of an order
type RakutenPackage struct {
	BasketID      int64         `json:"basketId"`
	ItemModelList []RakutenItem `json:"ItemModelList"`
}

// RakutenItem is a purchased item of a package
type RakutenItem struct {
	ItemDetailID int64  `json:"itemDetailId"`
	ItemName     string `json:"itemName"`
	ItemID       int64  `json:"itemId"`
	ItemNumber   string `json:"itemNumber"`
	ManageNumber string `json:"manageNumber"`
	// Price is the unit price in yen
	Price int64 `json:"price"`
	// Units is the purchased quantity
	Units int `json:"units"`
}
