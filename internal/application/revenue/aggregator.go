package revenue

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/shopops/revsync/internal/domain/integration"
)

// AggregatorConfig controls pagination, batching and SKU keying
type AggregatorConfig struct {
	// PageSize is the number of order ids requested per search page
	PageSize int
	// DetailBatchSize is the number of ids per detail fetch (at most 100)
	DetailBatchSize int
	// SortSkus orders results lexicographically instead of first-encountered
	SortSkus bool
	// NormalizeWidth folds full-width SKU characters to half-width
	NormalizeWidth bool
}

// DefaultAggregatorConfig returns the default aggregator configuration
func DefaultAggregatorConfig() AggregatorConfig {
	return AggregatorConfig{
		PageSize:        integration.DefaultSearchPageSize,
		DetailBatchSize: integration.MaxOrderDetailsBatch,
	}
}

// AggregationResult is the outcome of one aggregation sweep
type AggregationResult struct {
	// Date is the aggregated calendar day
	Date time.Time
	// Aggregates are the per-SKU totals
	Aggregates []integration.SkuDailyAggregate
	// OrderCount is the number of unique orders folded
	OrderCount int
	// PageCount is the number of search pages requested
	PageCount int
	// LineItemCount is the number of line items folded
	LineItemCount int
}

// Aggregator produces per-SKU daily aggregates from an order source
type Aggregator struct {
	source integration.OrderSource
	config AggregatorConfig
	logger *zap.Logger
}

// NewAggregator creates a new Aggregator
func NewAggregator(source integration.OrderSource, config AggregatorConfig, logger *zap.Logger) *Aggregator {
	if config.PageSize <= 0 || config.PageSize > integration.MaxSearchPageSize {
		config.PageSize = integration.DefaultSearchPageSize
	}
	if config.DetailBatchSize <= 0 || config.DetailBatchSize > integration.MaxOrderDetailsBatch {
		config.DetailBatchSize = integration.MaxOrderDetailsBatch
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		source: source,
		config: config,
		logger: logger.Named("aggregator"),
	}
}

// Aggregate sweeps every search page for the date, fetches order details in
// batches and folds all line items into per-SKU totals.
func (a *Aggregator) Aggregate(ctx context.Context, date time.Time) (*AggregationResult, error) {
	orderIDs, pages, err := a.collectOrderIDs(ctx, date)
	if err != nil {
		return nil, err
	}

	var normalize integration.SkuNormalizer
	if a.config.NormalizeWidth {
		normalize = integration.FoldSkuWidth
	}
	acc := integration.NewSkuAccumulator(date, normalize)

	folded := make(map[string]struct{}, len(orderIDs))
	for start := 0; start < len(orderIDs); start += a.config.DetailBatchSize {
		end := min(start+a.config.DetailBatchSize, len(orderIDs))
		batch := orderIDs[start:end]

		orders, err := a.source.GetOrderDetails(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("revenue: order details batch %d-%d: %w", start, end, err)
		}
		for _, order := range orders {
			if _, dup := folded[order.OrderID]; dup {
				continue
			}
			folded[order.OrderID] = struct{}{}
			acc.AddOrder(order)
		}
	}

	results := acc.Results()
	if a.config.SortSkus {
		integration.SortAggregatesBySku(results)
	}

	a.logger.Info("Aggregation completed",
		zap.String("date", date.Format(time.DateOnly)),
		zap.Int("pages", pages),
		zap.Int("orders", len(folded)),
		zap.Int("line_items", acc.ItemCount()),
		zap.Int("skus", len(results)),
	)

	return &AggregationResult{
		Date:          date,
		Aggregates:    results,
		OrderCount:    len(folded),
		PageCount:     pages,
		LineItemCount: acc.ItemCount(),
	}, nil
}

// collectOrderIDs walks the search pages from 1 until the reported page count
// is reached or a page comes back empty. Duplicate ids are dropped.
func (a *Aggregator) collectOrderIDs(ctx context.Context, date time.Time) ([]string, int, error) {
	seen := make(map[string]struct{})
	var orderIDs []string
	pages := 0

	for page := 1; ; page++ {
		req := integration.NewDailySearchRequest(date, page)
		req.PageSize = a.config.PageSize
		resp, err := a.source.SearchOrders(ctx, req)
		if err != nil {
			return nil, pages, fmt.Errorf("revenue: search page %d: %w", page, err)
		}
		pages++
		if resp.Page == 0 {
			resp.Page = page
		}

		for _, id := range resp.OrderIDs {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			orderIDs = append(orderIDs, id)
		}

		a.logger.Debug("Search page fetched",
			zap.Int("page", page),
			zap.Int("total_pages", resp.TotalPages),
			zap.Int("ids", len(resp.OrderIDs)),
		)

		if !resp.HasMore() {
			break
		}
	}

	return orderIDs, pages, nil
}
