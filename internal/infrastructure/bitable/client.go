package bitable

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"

	"go.uber.org/zap"

	"github.com/shopops/revsync/internal/domain/integration"
)

// Client implements PivotTable on Lark Bitable
type Client struct {
	transport *transport
	tokens    *TokenProvider
	logger    *zap.Logger
}

// NewClient creates a Bitable client
func NewClient(cfg *Config, logger *zap.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	t := newTransport(cfg)
	return &Client{
		transport: t,
		tokens:    newTokenProvider(cfg, t),
		logger:    logger.Named("bitable"),
	}, nil
}

// Tokens returns the token provider shared with other Lark components
func (c *Client) Tokens() *TokenProvider {
	return c.tokens
}

// ---------------------------------------------------------------------------
// Record Operations
// ---------------------------------------------------------------------------

// SearchRecords returns the ids of rows whose key column is exactly keyValue
func (c *Client) SearchRecords(ctx context.Context, target integration.PivotTarget, keyValue string) ([]integration.PivotRecordHandle, error) {
	req := SearchRecordsRequest{
		Filter: Filter{
			Conjunction: "and",
			Conditions: []FilterCondition{
				{FieldName: target.KeyField, Operator: "is", Value: []string{keyValue}},
			},
		},
	}

	var resp RecordPageResponse
	if err := c.call(ctx, http.MethodPost, recordsPath(target)+"/search", nil, req, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return nil, nil
	}

	handles := make([]integration.PivotRecordHandle, 0, len(resp.Data.Items))
	for _, item := range resp.Data.Items {
		if item.RecordID != "" {
			handles = append(handles, integration.PivotRecordHandle(item.RecordID))
		}
	}
	return handles, nil
}

// CreateRecord appends a row
func (c *Client) CreateRecord(ctx context.Context, target integration.PivotTarget, fields integration.PivotFields) (integration.PivotRecordHandle, error) {
	var resp RecordResponse
	if err := c.call(ctx, http.MethodPost, recordsPath(target), nil, WriteRecordRequest{Fields: fields}, &resp); err != nil {
		return "", err
	}
	if resp.Data == nil || resp.Data.Record.RecordID == "" {
		return "", fmt.Errorf("%w: bitable: create response has no record", integration.ErrPlatformInvalidResponse)
	}
	return integration.PivotRecordHandle(resp.Data.Record.RecordID), nil
}

// UpdateRecord overwrites only the given fields of a row
func (c *Client) UpdateRecord(ctx context.Context, target integration.PivotTarget, handle integration.PivotRecordHandle, fields integration.PivotFields) error {
	path := recordsPath(target) + "/" + url.PathEscape(string(handle))
	var resp RecordResponse
	return c.call(ctx, http.MethodPut, path, nil, WriteRecordRequest{Fields: fields}, &resp)
}

// ListFields infers the table's columns from the first row.
// Lark omits empty cells, so only columns populated in that row are returned.
func (c *Client) ListFields(ctx context.Context, target integration.PivotTarget) ([]string, error) {
	query := url.Values{}
	query.Set("page_size", "1")

	var resp RecordPageResponse
	if err := c.call(ctx, http.MethodGet, recordsPath(target), query, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil || len(resp.Data.Items) == 0 {
		return []string{}, nil
	}

	names := make([]string, 0, len(resp.Data.Items[0].Fields))
	for name := range resp.Data.Items[0].Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// ---------------------------------------------------------------------------
// Helper Methods
// ---------------------------------------------------------------------------

// call performs an authorized request, dropping the cached token when Lark rejects it
func (c *Client) call(ctx context.Context, method, path string, query url.Values, payload any, out envelope) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	err = c.transport.do(ctx, method, path, query, token, payload, out)
	if isTokenRejected(err) {
		c.logger.Warn("tenant access token rejected, dropping cached token", zap.Error(err))
		c.tokens.Invalidate()
	}
	return err
}

func isTokenRejected(err error) bool {
	var remote *integration.RemoteError
	if !errors.As(err, &remote) {
		return false
	}
	return remote.Code == fmt.Sprint(codeTokenInvalid) || remote.Code == fmt.Sprint(codeTokenExpired)
}

func recordsPath(target integration.PivotTarget) string {
	return fmt.Sprintf("/bitable/v1/apps/%s/tables/%s/records",
		url.PathEscape(target.AppToken), url.PathEscape(target.TableID))
}

// Ensure Client implements PivotTable
var _ integration.PivotTable = (*Client)(nil)
