package bitable

import (
	"strconv"

	"github.com/shopops/revsync/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// Common Lark API Types
// ---------------------------------------------------------------------------

// Response is the envelope of every Lark open API response
type Response struct {
	// Code is the error code (0 for success)
	Code int `json:"code"`
	// Msg is the error message
	Msg string `json:"msg"`
}

// IsSuccess returns true if the response indicates success
func (r *Response) IsSuccess() bool {
	return r.Code == 0
}

// remoteError converts a failed envelope to a RemoteError
func (r *Response) remoteError() error {
	return &integration.RemoteError{
		Service: "lark",
		Code:    strconv.Itoa(r.Code),
		Message: r.Msg,
	}
}

// envelope is implemented by every typed response
type envelope interface {
	envelopeResponse() *Response
}

func (r *Response) envelopeResponse() *Response {
	return r
}

// Lark codes that mean the tenant access token must be refreshed
const (
	codeTokenInvalid = 99991663
	codeTokenExpired = 99991677
)

// ---------------------------------------------------------------------------
// Auth
// ---------------------------------------------------------------------------

// TenantTokenRequest is the body of tenant_access_token/internal
type TenantTokenRequest struct {
	AppID     string `json:"app_id"`
	AppSecret string `json:"app_secret"`
}

// TenantTokenResponse is the response of tenant_access_token/internal
type TenantTokenResponse struct {
	Response
	TenantAccessToken string `json:"tenant_access_token"`
	// Expire is the token lifetime in seconds
	Expire int `json:"expire"`
}

// ---------------------------------------------------------------------------
// Bitable records
// ---------------------------------------------------------------------------

// Record is a single Bitable row
type Record struct {
	RecordID string         `json:"record_id"`
	Fields   map[string]any `json:"fields"`
}

// FilterCondition is one condition of a record search filter
type FilterCondition struct {
	FieldName string   `json:"field_name"`
	Operator  string   `json:"operator"`
	Value     []string `json:"value"`
}

// Filter is a record search filter
type Filter struct {
	Conjunction string            `json:"conjunction"`
	Conditions  []FilterCondition `json:"conditions"`
}

// SearchRecordsRequest is the body of records/search
type SearchRecordsRequest struct {
	Filter          Filter `json:"filter"`
	AutomaticFields bool   `json:"automatic_fields"`
}

// RecordPage is the data of list and search responses
type RecordPage struct {
	Items     []Record `json:"items"`
	HasMore   bool     `json:"has_more"`
	PageToken string   `json:"page_token,omitempty"`
	Total     int      `json:"total"`
}

// RecordPageResponse is the response of records and records/search
type RecordPageResponse struct {
	Response
	Data *RecordPage `json:"data,omitempty"`
}

// WriteRecordRequest is the body of record create and update
type WriteRecordRequest struct {
	Fields map[string]any `json:"fields"`
}

// RecordResponse is the response of record create and update
type RecordResponse struct {
	Response
	Data *struct {
		Record Record `json:"record"`
	} `json:"data,omitempty"`
}

// ---------------------------------------------------------------------------
// IM
// ---------------------------------------------------------------------------

// SendMessageRequest is the body of im/v1/messages.
// Content is a JSON-encoded string, as the IM API requires.
type SendMessageRequest struct {
	ReceiveID string `json:"receive_id"`
	MsgType   string `json:"msg_type"`
	Content   string `json:"content"`
}

// TextContent is the content of a text message
type TextContent struct {
	Text string `json:"text"`
}
