package ecommerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/shopops/revsync/internal/domain/integration"
)

const (
	// maxRakutenResponseSize limits the response body size to prevent memory exhaustion
	maxRakutenResponseSize = 10 * 1024 * 1024 // 10MB max response

	rakutenSearchOrderPath = "/order/searchOrder/"
	rakutenGetOrderPath    = "/order/getOrder/"
)

// RakutenAdapter implements OrderSource for the Rakuten RMS order API
type RakutenAdapter struct {
	config     *RakutenConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	location   *time.Location
	logger     *zap.Logger
}

// NewRakutenAdapter creates a new Rakuten adapter with the given configuration
func NewRakutenAdapter(config *RakutenConfig, logger *zap.Logger) (*RakutenAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &RakutenAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
		limiter:  rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1),
		location: config.Location(),
		logger:   logger.Named("rakuten"),
	}, nil
}

// PlatformCode returns the platform code this adapter handles
func (a *RakutenAdapter) PlatformCode() integration.PlatformCode {
	return integration.PlatformCodeRakuten
}

// Location returns the marketplace timezone
func (a *RakutenAdapter) Location() *time.Location {
	return a.location
}

// ---------------------------------------------------------------------------
// Order Operations
// ---------------------------------------------------------------------------

// SearchOrders returns one page of order numbers placed within the request's days
func (a *RakutenAdapter) SearchOrders(ctx context.Context, req *integration.OrderSearchRequest) (*integration.OrderSearchPage, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	start, end := a.dayBounds(req.StartDate, req.EndDate)
	body := RakutenSearchOrderRequest{
		DateType:      RakutenDateTypeOrder,
		StartDatetime: start.Format(rakutenDateTimeLayout),
		EndDatetime:   end.Format(rakutenDateTimeLayout),
		PaginationRequestModel: RakutenPaginationRequest{
			RequestRecordsAmount: req.PageSize,
			RequestPage:          req.Page,
		},
	}

	respBody, err := a.doRequest(ctx, rakutenSearchOrderPath, body)
	if err != nil {
		return nil, err
	}

	var resp RakutenSearchOrderResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("%w: rakuten: failed to parse searchOrder response: %v", integration.ErrPlatformInvalidResponse, err)
	}
	if err := a.checkMessages(&resp.RakutenResponse); err != nil {
		return nil, err
	}

	page := &integration.OrderSearchPage{
		OrderIDs: resp.OrderNumberList,
		Page:     req.Page,
	}
	if p := resp.PaginationResponseModel; p != nil {
		page.TotalRecords = p.TotalRecordsAmount
		page.TotalPages = p.TotalPages
		if p.RequestPage > 0 {
			page.Page = p.RequestPage
		}
	}

	a.logger.Debug("searchOrder page received",
		zap.Int("page", page.Page),
		zap.Int("total_pages", page.TotalPages),
		zap.Int("total_records", page.TotalRecords),
		zap.Int("order_count", len(page.OrderIDs)),
	)

	return page, nil
}

// GetOrderDetails fetches at most MaxOrderDetailsBatch orders in a single call
func (a *RakutenAdapter) GetOrderDetails(ctx context.Context, orderIDs []string) ([]integration.PlatformOrder, error) {
	if len(orderIDs) == 0 {
		return []integration.PlatformOrder{}, nil
	}
	if len(orderIDs) > integration.MaxOrderDetailsBatch {
		return nil, fmt.Errorf("%w: %d > %d", integration.ErrOrderBatchTooLarge, len(orderIDs), integration.MaxOrderDetailsBatch)
	}

	body := RakutenGetOrderRequest{
		OrderNumberList: orderIDs,
		Version:         a.config.DetailVersion,
	}

	respBody, err := a.doRequest(ctx, rakutenGetOrderPath, body)
	if err != nil {
		return nil, err
	}

	var resp RakutenGetOrderResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("%w: rakuten: failed to parse getOrder response: %v", integration.ErrPlatformInvalidResponse, err)
	}
	if err := a.checkMessages(&resp.RakutenResponse); err != nil {
		return nil, err
	}

	orders := make([]integration.PlatformOrder, 0, len(resp.OrderModelList))
	for i := range resp.OrderModelList {
		orders = append(orders, convertRakutenOrder(&resp.OrderModelList[i]))
	}
	return orders, nil
}

// ---------------------------------------------------------------------------
// Helper Methods
// ---------------------------------------------------------------------------

// dayBounds returns 00:00:00 of the first day and 23:59:59 of the last day
// in the marketplace timezone.
func (a *RakutenAdapter) dayBounds(startDate, endDate time.Time) (time.Time, time.Time) {
	sy, sm, sd := startDate.Date()
	ey, em, ed := endDate.Date()
	start := time.Date(sy, sm, sd, 0, 0, 0, 0, a.location)
	end := time.Date(ey, em, ed, 23, 59, 59, 0, a.location)
	return start, end
}

// checkMessages logs informational messages and turns ERROR entries into a RemoteError
func (a *RakutenAdapter) checkMessages(resp *RakutenResponse) error {
	for _, m := range resp.MessageModelList {
		if m.IsError() {
			continue
		}
		a.logger.Info("rakuten message",
			zap.String("type", m.MessageType),
			zap.String("code", m.MessageCode),
			zap.String("message", m.Message),
		)
	}
	if m, ok := resp.FirstError(); ok {
		return &integration.RemoteError{
			Service: "rakuten",
			Code:    m.MessageCode,
			Message: m.Message,
		}
	}
	return nil
}

// doRequest POSTs a JSON body and returns the raw response body
func (a *RakutenAdapter) doRequest(ctx context.Context, path string, payload any) ([]byte, error) {
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("rakuten: failed to marshal request: %w", err)
	}

	if err := a.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrPlatformUnavailable, err)
	}

	url := a.config.APIBaseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("rakuten: failed to create request: %w", err)
	}

	req.Header.Set("Authorization", a.config.AuthorizationHeader())
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrPlatformUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRakutenResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: rakuten: failed to read response: %v", integration.ErrPlatformUnavailable, err)
	}

	if statusErr := integration.StatusError(resp.StatusCode); statusErr != nil {
		var envelope RakutenResponse
		if json.Unmarshal(body, &envelope) == nil {
			if m, ok := envelope.FirstError(); ok {
				return nil, fmt.Errorf("%w: %s %s", statusErr, m.MessageCode, m.Message)
			}
		}
		return nil, statusErr
	}

	return body, nil
}

// convertRakutenOrder converts a Rakuten order to PlatformOrder
func convertRakutenOrder(order *RakutenOrder) integration.PlatformOrder {
	platformOrder := integration.PlatformOrder{
		OrderID:   order.OrderNumber,
		OrderedAt: order.OrderedAt(),
		Status:    strconv.Itoa(order.OrderProgress),
		Packages:  make([]integration.OrderPackage, 0, len(order.PackageModelList)),
	}

	for _, pkg := range order.PackageModelList {
		orderPackage := integration.OrderPackage{
			PackageID: strconv.FormatInt(pkg.BasketID, 10),
			Items:     make([]integration.LineItem, 0, len(pkg.ItemModelList)),
		}
		for _, item := range pkg.ItemModelList {
			orderPackage.Items = append(orderPackage.Items, integration.LineItem{
				ManageNumber: item.ManageNumber,
				ItemNumber:   item.ItemNumber,
				ItemName:     item.ItemName,
				UnitPrice:    decimal.NewFromInt(item.Price),
				Quantity:     item.Units,
			})
		}
		platformOrder.Packages = append(platformOrder.Packages, orderPackage)
	}

	return platformOrder
}

// Ensure RakutenAdapter implements OrderSource
var _ integration.OrderSource = (*RakutenAdapter)(nil)
