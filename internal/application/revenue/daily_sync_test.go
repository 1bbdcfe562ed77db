package revenue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shopops/revsync/internal/domain/integration"
)

var tokyo = mustLoadLocation("Asia/Tokyo")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

func newTestService(t *testing.T, src integration.OrderSource, table integration.PivotTable, opts ...DailySyncOption) *DailySyncService {
	t.Helper()
	engine := newTestEngine(t, table, integration.ColumnSchemeDay)
	aggregator := NewAggregator(src, DefaultAggregatorConfig(), nil)
	opts = append([]DailySyncOption{WithLocation(tokyo)}, opts...)
	return NewDailySyncService(aggregator, engine, nil, opts...)
}

func TestDailySyncService_EndToEnd(t *testing.T) {
	src := newFakeOrderSource(
		order("O1", item("PD50", 9900, 5)),
		order("O2", item("PD50", 9900, 1)),
	)
	table := newFakePivotTable()
	svc := newTestService(t, src, table)

	date := time.Date(2024, 3, 15, 0, 0, 0, 0, tokyo)
	report, err := svc.RunDailySync(context.Background(), SyncRequest{Date: date})
	require.NoError(t, err)

	assert.Equal(t, integration.SyncStatusSuccess, report.Status)
	assert.Equal(t, "15日", report.Column)
	assert.Equal(t, 2, report.OrderCount)
	assert.Equal(t, 1, report.SkuCount)
	assert.Equal(t, 1, report.SyncedCount)
	assert.Equal(t, 1, report.CreatedRows)
	assert.Empty(t, report.Error)

	assert.Equal(t, integration.PivotFields{"商品名": "PD50", "15日": float64(59400)}, table.rowFor("PD50"))
}

func TestDailySyncService_RerunIsIdempotent(t *testing.T) {
	src := newFakeOrderSource(order("O1", item("PD50", 9900, 5)), order("O2", item("AX10", 500, 2)))
	table := newFakePivotTable()
	svc := newTestService(t, src, table)
	date := time.Date(2024, 3, 15, 0, 0, 0, 0, tokyo)

	_, err := svc.RunDailySync(context.Background(), SyncRequest{Date: date})
	require.NoError(t, err)
	snapshot := map[string]any{}
	for k, v := range table.rowFor("PD50") {
		snapshot[k] = v
	}

	report, err := svc.RunDailySync(context.Background(), SyncRequest{Date: date})
	require.NoError(t, err)

	assert.Equal(t, 0, report.CreatedRows)
	assert.Equal(t, 2, report.UpdatedRows)
	assert.Equal(t, 2, table.rowCount())
	assert.Equal(t, integration.PivotFields(snapshot), table.rowFor("PD50"))
}

func TestDailySyncService_ColumnIsolation(t *testing.T) {
	table := newFakePivotTable()
	table.seed(integration.PivotFields{"商品名": "A", "3日": float64(300), "7日": float64(700)})

	src := newFakeOrderSource(order("O1", item("A", 500, 1)))
	svc := newTestService(t, src, table)

	_, err := svc.RunDailySync(context.Background(), SyncRequest{Date: time.Date(2024, 3, 5, 0, 0, 0, 0, tokyo)})
	require.NoError(t, err)

	row := table.rowFor("A")
	assert.Equal(t, float64(300), row["3日"])
	assert.Equal(t, float64(500), row["5日"])
	assert.Equal(t, float64(700), row["7日"])
	assert.Len(t, row, 4)
	assert.Equal(t, 1, table.rowCount())
}

func TestDailySyncService_ZeroOrders(t *testing.T) {
	src := newFakeOrderSource()
	src.pages = [][]string{}
	table := newFakePivotTable()
	svc := newTestService(t, src, table)

	report, err := svc.RunDailySync(context.Background(), SyncRequest{Date: time.Date(2024, 3, 15, 0, 0, 0, 0, tokyo)})
	require.NoError(t, err)

	assert.Equal(t, integration.SyncStatusSuccess, report.Status)
	assert.Equal(t, 0, report.SkuCount)
	assert.Equal(t, 0, report.CreatedRows)
	assert.Equal(t, 0, report.UpdatedRows)
	assert.Equal(t, 0, table.searches)
	assert.Equal(t, 0, table.creates)
	assert.Equal(t, 0, table.updates)
	assert.Equal(t, 0, table.rowCount())
}

func TestDailySyncService_DefaultsToYesterday(t *testing.T) {
	src := newFakeOrderSource(order("O1", item("PD50", 100, 1)))
	table := newFakePivotTable()
	svc := newTestService(t, src, table)
	// 2024-03-16 00:30 in Tokyo is still the 15th in UTC
	svc.now = func() time.Time { return time.Date(2024, 3, 15, 15, 30, 0, 0, time.UTC) }

	report, err := svc.RunDailySync(context.Background(), SyncRequest{})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, tokyo), report.Date)
	assert.Equal(t, "15日", report.Column)
}

func TestDailySyncService_PartialFailure(t *testing.T) {
	src := newFakeOrderSource(
		order("O1", item("A", 100, 1)),
		order("O2", item("B", 200, 1)),
		order("O3", item("C", 300, 1)),
	)
	table := newFakePivotTable()
	table.failOnSku = "B"
	svc := newTestService(t, src, table)

	report, err := svc.RunDailySync(context.Background(), SyncRequest{Date: time.Date(2024, 3, 15, 0, 0, 0, 0, tokyo)})
	require.Error(t, err)
	assert.ErrorIs(t, err, integration.ErrPlatformRequestFailed)

	require.NotNil(t, report)
	assert.Equal(t, integration.SyncStatusFailed, report.Status)
	assert.Equal(t, 3, report.SkuCount)
	assert.Equal(t, 1, report.SyncedCount)
	assert.NotEmpty(t, report.Error)
	assert.Nil(t, table.rowFor("C"))
}

func TestDailySyncService_ConfigErrorBeforeNetwork(t *testing.T) {
	src := newFakeOrderSource(order("O1", item("A", 100, 1)))
	table := newFakePivotTable()
	engine, err := NewPivotSyncEngine(table, integration.PivotTarget{}, integration.ColumnSchemeDay, nil)
	require.NoError(t, err)
	svc := NewDailySyncService(NewAggregator(src, DefaultAggregatorConfig(), nil), engine, nil)

	report, err := svc.RunDailySync(context.Background(), SyncRequest{Date: syncDate})
	assert.ErrorIs(t, err, integration.ErrPivotTargetNotConfigured)
	assert.Nil(t, report)
	assert.Equal(t, 0, src.searchCalls)
}

func TestDailySyncService_RunLock(t *testing.T) {
	date := time.Date(2024, 3, 15, 0, 0, 0, 0, tokyo)
	wantKey := "revsync:lock:daily:bascnApp:tblRevenue:2024-03-15"

	t.Run("held lock rejects run", func(t *testing.T) {
		lock := new(MockRunLock)
		lock.On("TryAcquire", mock.Anything, wantKey, 10*time.Minute).Return(false, nil)

		src := newFakeOrderSource(order("O1", item("A", 100, 1)))
		svc := newTestService(t, src, newFakePivotTable(), WithRunLock(lock), WithLockTTL(10*time.Minute))

		_, err := svc.RunDailySync(context.Background(), SyncRequest{Date: date})
		assert.ErrorIs(t, err, ErrSyncAlreadyInProgress)
		assert.Equal(t, 0, src.searchCalls)
		lock.AssertExpectations(t)
		lock.AssertNotCalled(t, "Release", mock.Anything, mock.Anything)
	})

	t.Run("lock released after run", func(t *testing.T) {
		lock := new(MockRunLock)
		lock.On("TryAcquire", mock.Anything, wantKey, defaultLockTTL).Return(true, nil)
		lock.On("Release", mock.Anything, wantKey).Return(nil)

		src := newFakeOrderSource(order("O1", item("A", 100, 1)))
		svc := newTestService(t, src, newFakePivotTable(), WithRunLock(lock))

		_, err := svc.RunDailySync(context.Background(), SyncRequest{Date: date})
		require.NoError(t, err)
		lock.AssertExpectations(t)
	})

	t.Run("lock backend failure", func(t *testing.T) {
		lock := new(MockRunLock)
		lock.On("TryAcquire", mock.Anything, wantKey, defaultLockTTL).Return(false, errors.New("redis down"))

		svc := newTestService(t, newFakeOrderSource(), newFakePivotTable(), WithRunLock(lock))
		_, err := svc.RunDailySync(context.Background(), SyncRequest{Date: date})
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrSyncAlreadyInProgress)
	})
}

func TestDailySyncService_HistoryNotifyAndMetrics(t *testing.T) {
	src := newFakeOrderSource(order("O1", item("PD50", 9900, 5)), order("O2", item("AX10", 500, 1)))
	table := newFakePivotTable()
	table.seed(integration.PivotFields{"商品名": "AX10"})

	history := new(MockSyncRunRepository)
	var statuses []integration.SyncStatus
	history.On("Save", mock.Anything, mock.AnythingOfType("*integration.SyncRun")).
		Run(func(args mock.Arguments) {
			statuses = append(statuses, args.Get(1).(*integration.SyncRun).Status)
		}).
		Return(nil)

	notifier := new(MockNotifier)
	notifier.On("Notify", mock.Anything, mock.MatchedBy(func(text string) bool {
		return assert.Contains(t, text, "2024-03-15") && assert.Contains(t, text, "1 created, 1 updated")
	})).Return(nil)

	recorder := new(MockSyncRecorder)
	recorder.On("RecordRowWrite", mock.Anything, "created").Once()
	recorder.On("RecordRowWrite", mock.Anything, "updated").Once()
	recorder.On("RecordRun", mock.Anything, "SUCCESS", mock.AnythingOfType("time.Duration"), 2).Once()

	svc := newTestService(t, src, table,
		WithHistory(history), WithNotifier(notifier), WithRecorder(recorder))

	report, err := svc.RunDailySync(context.Background(), SyncRequest{
		Date:    time.Date(2024, 3, 15, 0, 0, 0, 0, tokyo),
		Trigger: TriggerHTTP,
	})
	require.NoError(t, err)

	assert.Equal(t, []integration.SyncStatus{integration.SyncStatusRunning, integration.SyncStatusSuccess}, statuses)
	assert.NotEqual(t, report.RunID.String(), "00000000-0000-0000-0000-000000000000")
	history.AssertExpectations(t)
	notifier.AssertExpectations(t)
	recorder.AssertExpectations(t)
}

func TestDailySyncService_SideEffectFailuresAreLogged(t *testing.T) {
	src := newFakeOrderSource(order("O1", item("PD50", 100, 1)))

	history := new(MockSyncRunRepository)
	history.On("Save", mock.Anything, mock.Anything).Return(errors.New("disk full"))
	notifier := new(MockNotifier)
	notifier.On("Notify", mock.Anything, mock.Anything).Return(integration.ErrPlatformUnavailable)

	svc := newTestService(t, src, newFakePivotTable(), WithHistory(history), WithNotifier(notifier))
	report, err := svc.RunDailySync(context.Background(), SyncRequest{Date: syncDate})
	require.NoError(t, err)
	assert.Equal(t, integration.SyncStatusSuccess, report.Status)
}

func TestDailySyncService_FallbackMetric(t *testing.T) {
	src := newFakeOrderSource(order("O1", item("PD50", 100, 1)))
	table := newFakePivotTable()
	table.searchErr = integration.ErrPlatformRateLimited

	recorder := new(MockSyncRecorder)
	recorder.On("RecordRowWrite", mock.Anything, "created").Once()
	recorder.On("RecordLookupFallback", mock.Anything).Once()
	recorder.On("RecordRun", mock.Anything, "SUCCESS", mock.Anything, 1).Once()

	svc := newTestService(t, src, table, WithRecorder(recorder))
	_, err := svc.RunDailySync(context.Background(), SyncRequest{Date: syncDate})
	require.NoError(t, err)
	recorder.AssertExpectations(t)
}

func TestDailySyncService_RecentRuns(t *testing.T) {
	t.Run("without history", func(t *testing.T) {
		svc := newTestService(t, newFakeOrderSource(), newFakePivotTable())
		runs, err := svc.RecentRuns(context.Background(), 10)
		require.NoError(t, err)
		assert.Empty(t, runs)
	})

	t.Run("limit is clamped", func(t *testing.T) {
		history := new(MockSyncRunRepository)
		history.On("FindRecent", mock.Anything, maxRecentLimit).Return([]integration.SyncRun{}, nil).Once()
		history.On("FindRecent", mock.Anything, defaultRecentLimit).Return([]integration.SyncRun{}, nil).Once()

		svc := newTestService(t, newFakeOrderSource(), newFakePivotTable(), WithHistory(history))
		_, err := svc.RecentRuns(context.Background(), 10_000)
		require.NoError(t, err)
		_, err = svc.RecentRuns(context.Background(), 0)
		require.NoError(t, err)
		history.AssertExpectations(t)
	})
}

func TestYesterday(t *testing.T) {
	now := time.Date(2024, 3, 1, 1, 0, 0, 0, tokyo)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, tokyo), Yesterday(now, tokyo))
}

func TestParseSyncDate(t *testing.T) {
	now := time.Date(2024, 3, 16, 12, 0, 0, 0, tokyo)

	tests := []struct {
		name    string
		raw     string
		want    time.Time
		wantErr bool
	}{
		{name: "empty is yesterday", raw: "", want: time.Date(2024, 3, 15, 0, 0, 0, 0, tokyo)},
		{name: "explicit date", raw: "2024-01-31", want: time.Date(2024, 1, 31, 0, 0, 0, 0, tokyo)},
		{name: "trimmed", raw: " 2024-01-31 ", want: time.Date(2024, 1, 31, 0, 0, 0, 0, tokyo)},
		{name: "wrong format", raw: "2024/01/31", wantErr: true},
		{name: "impossible date", raw: "2024-02-30", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSyncDate(tt.raw, now, tokyo)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSyncDate)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got))
		})
	}
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(ErrSyncAlreadyInProgress))
	assert.False(t, IsRetryable(integration.ErrPivotTargetNotConfigured))
	assert.False(t, IsRetryable(integration.ErrPlatformAuthFailed))
	assert.True(t, IsRetryable(integration.ErrPlatformUnavailable))
	assert.True(t, IsRetryable(&integration.RemoteError{Service: "lark", Code: "1", Message: "x"}))
}
