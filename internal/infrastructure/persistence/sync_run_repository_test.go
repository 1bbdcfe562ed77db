package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/shopops/revsync/internal/domain/integration"
	"github.com/shopops/revsync/internal/infrastructure/persistence/models"
)

func setupSyncRunTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.SyncRunModel{})
	require.NoError(t, err)

	return db
}

func tokyo(t *testing.T) *time.Location {
	loc, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	return loc
}

func TestSyncRunRepository_Save(t *testing.T) {
	db := setupSyncRunTestDB(t)
	loc := tokyo(t)
	repo := NewGormSyncRunRepository(db, loc)
	ctx := context.Background()

	date := time.Date(2024, 3, 15, 0, 0, 0, 0, loc)

	t.Run("inserts running run then updates it on completion", func(t *testing.T) {
		run := integration.NewSyncRun(date, "cli")
		require.NoError(t, repo.Save(ctx, run))

		found, err := repo.FindByID(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, integration.SyncStatusRunning, found.Status)
		assert.Nil(t, found.CompletedAt)
		assert.True(t, date.Equal(found.TargetDate))

		run.OrderCount = 2
		run.SkuCount = 1
		run.SyncedCount = 1
		run.CreatedRows = 1
		run.Succeed()
		require.NoError(t, repo.Save(ctx, run))

		found, err = repo.FindByID(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, integration.SyncStatusSuccess, found.Status)
		assert.Equal(t, 2, found.OrderCount)
		assert.Equal(t, 1, found.SkuCount)
		assert.Equal(t, 1, found.CreatedRows)
		require.NotNil(t, found.CompletedAt)

		var count int64
		require.NoError(t, db.Model(&models.SyncRunModel{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("keeps failure message", func(t *testing.T) {
		run := integration.NewSyncRun(date, "scheduler")
		run.SyncedCount = 3
		run.Fail(errors.New("bitable: remote API error: code=1254045"))
		require.NoError(t, repo.Save(ctx, run))

		found, err := repo.FindByID(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, integration.SyncStatusFailed, found.Status)
		assert.Equal(t, 3, found.SyncedCount)
		assert.Contains(t, found.ErrorMessage, "1254045")
	})

	t.Run("rejects nil run", func(t *testing.T) {
		assert.Error(t, repo.Save(ctx, nil))
	})
}

func TestSyncRunRepository_FindByID_NotFound(t *testing.T) {
	repo := NewGormSyncRunRepository(setupSyncRunTestDB(t), nil)

	_, err := repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, integration.ErrSyncRunNotFound)
}

func TestSyncRunRepository_FindRecent(t *testing.T) {
	db := setupSyncRunTestDB(t)
	loc := tokyo(t)
	repo := NewGormSyncRunRepository(db, loc)
	ctx := context.Background()

	base := time.Date(2024, 3, 20, 9, 0, 0, 0, loc)
	var ids []uuid.UUID
	for i := range 5 {
		run := integration.NewSyncRun(time.Date(2024, 3, 10+i, 0, 0, 0, 0, loc), "scheduler")
		run.StartedAt = base.Add(time.Duration(i) * time.Hour)
		run.Succeed()
		require.NoError(t, repo.Save(ctx, run))
		ids = append(ids, run.ID)
	}

	tests := []struct {
		name    string
		limit   int
		wantIDs []uuid.UUID
	}{
		{name: "newest first", limit: 3, wantIDs: []uuid.UUID{ids[4], ids[3], ids[2]}},
		{name: "limit above total", limit: 50, wantIDs: []uuid.UUID{ids[4], ids[3], ids[2], ids[1], ids[0]}},
		{name: "zero limit", limit: 0, wantIDs: []uuid.UUID{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs, err := repo.FindRecent(ctx, tt.limit)
			require.NoError(t, err)

			got := make([]uuid.UUID, len(runs))
			for i, r := range runs {
				got[i] = r.ID
			}
			assert.Equal(t, tt.wantIDs, got)
		})
	}

	t.Run("target date survives round trip as calendar day", func(t *testing.T) {
		runs, err := repo.FindRecent(ctx, 1)
		require.NoError(t, err)
		require.Len(t, runs, 1)
		assert.Equal(t, "2024-03-14", runs[0].TargetDate.Format("2006-01-02"))
		assert.Equal(t, loc, runs[0].TargetDate.Location())
	})
}
