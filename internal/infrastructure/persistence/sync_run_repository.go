package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shopops/revsync/internal/domain/integration"
	"github.com/shopops/revsync/internal/infrastructure/persistence/models"
)

// GormSyncRunRepository implements integration.SyncRunRepository using GORM
type GormSyncRunRepository struct {
	db  *gorm.DB
	loc *time.Location
}

var _ integration.SyncRunRepository = (*GormSyncRunRepository)(nil)

// NewGormSyncRunRepository creates a new GormSyncRunRepository. Target
// dates are read back at midnight in loc.
func NewGormSyncRunRepository(db *gorm.DB, loc *time.Location) *GormSyncRunRepository {
	if loc == nil {
		loc = time.UTC
	}
	return &GormSyncRunRepository{db: db, loc: loc}
}

// Save inserts the run, or updates every column when it already exists
func (r *GormSyncRunRepository) Save(ctx context.Context, run *integration.SyncRun) error {
	if run == nil {
		return errors.New("persistence: nil sync run")
	}
	model := models.SyncRunModelFromDomain(run)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(model).Error
	if err != nil {
		return fmt.Errorf("persistence: save sync run %s: %w", run.ID, err)
	}
	return nil
}

// FindByID finds a run by ID
func (r *GormSyncRunRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.SyncRun, error) {
	var model models.SyncRunModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrSyncRunNotFound
		}
		return nil, err
	}
	return model.ToDomain(r.loc), nil
}

// FindRecent returns the latest runs by start time, newest first
func (r *GormSyncRunRepository) FindRecent(ctx context.Context, limit int) ([]integration.SyncRun, error) {
	if limit <= 0 {
		return []integration.SyncRun{}, nil
	}

	var runModels []models.SyncRunModel
	if err := r.db.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Find(&runModels).Error; err != nil {
		return nil, err
	}

	runs := make([]integration.SyncRun, len(runModels))
	for i := range runModels {
		runs[i] = *runModels[i].ToDomain(r.loc)
	}
	return runs, nil
}
