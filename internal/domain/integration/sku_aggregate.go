package integration

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/width"
)

// UnknownSku buckets line items that carry neither a manage number nor an item number
const UnknownSku = "UNKNOWN"

// SkuDailyAggregate is the revenue of one SKU on one calendar day
type SkuDailyAggregate struct {
	// Sku is the resolved SKU identifier
	Sku string
	// Date is the calendar day the orders were placed on
	Date time.Time
	// Revenue is the sum of unit price x quantity over all line items
	Revenue decimal.Decimal
	// OrderCount is the sum of quantities over all line items
	OrderCount int
}

// RevenueFloat returns the revenue as a float64 for remote tables that
// only accept JSON numbers.
func (a SkuDailyAggregate) RevenueFloat() float64 {
	return a.Revenue.InexactFloat64()
}

// SkuNormalizer maps a resolved SKU to the key used for grouping
type SkuNormalizer func(sku string) string

// FoldSkuWidth folds full-width ASCII variants to their narrow form so
// "ＰＤ５０" and "PD50" land on the same row.
func FoldSkuWidth(sku string) string {
	return width.Fold.String(sku)
}

// SkuAccumulator folds line items into per-SKU aggregates for one date.
// Results keep the order in which SKUs were first seen.
type SkuAccumulator struct {
	date      time.Time
	normalize SkuNormalizer
	order     []string
	index     map[string]*SkuDailyAggregate
	itemCount int
}

// NewSkuAccumulator creates an empty accumulator. normalize may be nil.
func NewSkuAccumulator(date time.Time, normalize SkuNormalizer) *SkuAccumulator {
	return &SkuAccumulator{
		date:      date,
		normalize: normalize,
		index:     make(map[string]*SkuDailyAggregate),
	}
}

// Add folds a single line item
func (a *SkuAccumulator) Add(item LineItem) {
	sku := item.SkuIdentifier()
	if a.normalize != nil && sku != UnknownSku {
		sku = strings.TrimSpace(a.normalize(sku))
		if sku == "" {
			sku = UnknownSku
		}
	}

	agg, ok := a.index[sku]
	if !ok {
		agg = &SkuDailyAggregate{
			Sku:     sku,
			Date:    a.date,
			Revenue: decimal.Zero,
		}
		a.index[sku] = agg
		a.order = append(a.order, sku)
	}
	agg.Revenue = agg.Revenue.Add(item.Subtotal())
	agg.OrderCount += item.Quantity
	a.itemCount++
}

// AddOrder folds every line item of every package of the order
func (a *SkuAccumulator) AddOrder(order PlatformOrder) {
	for _, item := range order.LineItems() {
		a.Add(item)
	}
}

// Len returns the number of distinct SKUs seen so far
func (a *SkuAccumulator) Len() int {
	return len(a.order)
}

// ItemCount returns the number of line items folded so far
func (a *SkuAccumulator) ItemCount() int {
	return a.itemCount
}

// Results returns the aggregates in first-encountered order
func (a *SkuAccumulator) Results() []SkuDailyAggregate {
	results := make([]SkuDailyAggregate, 0, len(a.order))
	for _, sku := range a.order {
		results = append(results, *a.index[sku])
	}
	return results
}

// SortAggregatesBySku orders aggregates lexicographically by SKU
func SortAggregatesBySku(aggregates []SkuDailyAggregate) {
	sort.SliceStable(aggregates, func(i, j int) bool {
		return aggregates[i].Sku < aggregates[j].Sku
	})
}
