package revenue

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/shopops/revsync/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// Fake order source
// ---------------------------------------------------------------------------

// fakeOrderSource serves a fixed set of orders split into search pages
type fakeOrderSource struct {
	mu          sync.Mutex
	pages       [][]string
	orders      map[string]integration.PlatformOrder
	searchCalls int
	searchReqs  []integration.OrderSearchRequest
	omitPage    bool
	detailCalls [][]string
	searchErr   error
	detailErr   error
}

func newFakeOrderSource(orders ...integration.PlatformOrder) *fakeOrderSource {
	src := &fakeOrderSource{orders: make(map[string]integration.PlatformOrder)}
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		src.orders[o.OrderID] = o
		ids = append(ids, o.OrderID)
	}
	src.pages = [][]string{ids}
	return src
}

func (f *fakeOrderSource) withPages(pages ...[]string) *fakeOrderSource {
	f.pages = pages
	return f
}

func (f *fakeOrderSource) PlatformCode() integration.PlatformCode {
	return integration.PlatformCodeRakuten
}

func (f *fakeOrderSource) SearchOrders(_ context.Context, req *integration.OrderSearchRequest) (*integration.OrderSearchPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchCalls++
	f.searchReqs = append(f.searchReqs, *req)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	page := &integration.OrderSearchPage{Page: req.Page, TotalPages: len(f.pages)}
	if req.Page >= 1 && req.Page <= len(f.pages) {
		page.OrderIDs = append([]string(nil), f.pages[req.Page-1]...)
	}
	for _, p := range f.pages {
		page.TotalRecords += len(p)
	}
	if f.omitPage {
		page.Page = 0
	}
	return page, nil
}

func (f *fakeOrderSource) GetOrderDetails(_ context.Context, ids []string) ([]integration.PlatformOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detailCalls = append(f.detailCalls, append([]string(nil), ids...))
	if f.detailErr != nil {
		return nil, f.detailErr
	}
	if len(ids) > integration.MaxOrderDetailsBatch {
		return nil, integration.ErrOrderBatchTooLarge
	}
	out := make([]integration.PlatformOrder, 0, len(ids))
	for _, id := range ids {
		if o, ok := f.orders[id]; ok {
			out = append(out, o)
		}
	}
	return out, nil
}

var _ integration.OrderSource = (*fakeOrderSource)(nil)

func order(id string, items ...integration.LineItem) integration.PlatformOrder {
	return integration.PlatformOrder{
		OrderID:   id,
		OrderedAt: time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC),
		Packages:  []integration.OrderPackage{{PackageID: "1", Items: items}},
	}
}

func item(sku string, price int64, qty int) integration.LineItem {
	return integration.LineItem{
		ManageNumber: sku,
		ItemNumber:   sku,
		UnitPrice:    decimal.NewFromInt(price),
		Quantity:     qty,
	}
}

// ---------------------------------------------------------------------------
// Fake pivot table
// ---------------------------------------------------------------------------

type fakeRow struct {
	handle integration.PivotRecordHandle
	fields integration.PivotFields
}

// fakePivotTable keeps rows in memory and applies writes column by column
type fakePivotTable struct {
	mu          sync.Mutex
	rows        []*fakeRow
	nextID      int
	searchErr   error
	createErr   error
	updateErr   error
	failOnSku   string
	searches    int
	creates     int
	updates     int
	listFields  []string
	lastTargets []integration.PivotTarget
}

func newFakePivotTable() *fakePivotTable {
	return &fakePivotTable{}
}

func (f *fakePivotTable) seed(fields integration.PivotFields) integration.PivotRecordHandle {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.insert(fields)
}

func (f *fakePivotTable) insert(fields integration.PivotFields) integration.PivotRecordHandle {
	f.nextID++
	handle := integration.PivotRecordHandle(fmt.Sprintf("rec%03d", f.nextID))
	copied := make(integration.PivotFields, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	f.rows = append(f.rows, &fakeRow{handle: handle, fields: copied})
	return handle
}

func (f *fakePivotTable) SearchRecords(_ context.Context, target integration.PivotTarget, key string) ([]integration.PivotRecordHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches++
	f.lastTargets = append(f.lastTargets, target)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	var handles []integration.PivotRecordHandle
	for _, row := range f.rows {
		if row.fields[target.KeyField] == key {
			handles = append(handles, row.handle)
		}
	}
	return handles, nil
}

func (f *fakePivotTable) CreateRecord(_ context.Context, target integration.PivotTarget, fields integration.PivotFields) (integration.PivotRecordHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.createErr != nil {
		return "", f.createErr
	}
	if f.failOnSku != "" && fields[target.KeyField] == f.failOnSku {
		return "", integration.ErrPlatformRequestFailed
	}
	return f.insert(fields), nil
}

func (f *fakePivotTable) UpdateRecord(_ context.Context, target integration.PivotTarget, handle integration.PivotRecordHandle, fields integration.PivotFields) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	if f.updateErr != nil {
		return f.updateErr
	}
	if f.failOnSku != "" && fields[target.KeyField] == f.failOnSku {
		return integration.ErrPlatformRequestFailed
	}
	for _, row := range f.rows {
		if row.handle == handle {
			for k, v := range fields {
				row.fields[k] = v
			}
			return nil
		}
	}
	return fmt.Errorf("record %s not found", handle)
}

func (f *fakePivotTable) ListFields(_ context.Context, target integration.PivotTarget) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastTargets = append(f.lastTargets, target)
	if f.listFields != nil {
		return f.listFields, nil
	}
	if len(f.rows) == 0 {
		return []string{}, nil
	}
	names := make([]string, 0, len(f.rows[0].fields))
	for k := range f.rows[0].fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names, nil
}

// rowFor returns the fields of the first row keyed by sku
func (f *fakePivotTable) rowFor(sku string) integration.PivotFields {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.fields[integration.DefaultKeyField] == sku {
			return row.fields
		}
	}
	return nil
}

func (f *fakePivotTable) rowCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

var _ integration.PivotTable = (*fakePivotTable)(nil)

// ---------------------------------------------------------------------------
// Mocks
// ---------------------------------------------------------------------------

type MockRunLock struct {
	mock.Mock
}

func (m *MockRunLock) TryAcquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockRunLock) Release(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

type MockSyncRunRepository struct {
	mock.Mock
}

func (m *MockSyncRunRepository) Save(ctx context.Context, run *integration.SyncRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockSyncRunRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.SyncRun, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.SyncRun), args.Error(1)
}

func (m *MockSyncRunRepository) FindRecent(ctx context.Context, limit int) ([]integration.SyncRun, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.SyncRun), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, text string) error {
	args := m.Called(ctx, text)
	return args.Error(0)
}

type MockSyncRecorder struct {
	mock.Mock
}

func (m *MockSyncRecorder) RecordRun(ctx context.Context, status string, duration time.Duration, skuCount int) {
	m.Called(ctx, status, duration, skuCount)
}

func (m *MockSyncRecorder) RecordRowWrite(ctx context.Context, action string) {
	m.Called(ctx, action)
}

func (m *MockSyncRecorder) RecordLookupFallback(ctx context.Context) {
	m.Called(ctx)
}
