package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"feedback-hub/backend/internal/models"

	"gorm.io/gorm"
)

// RunRepository persists pipeline run state, keyed by run handle.
type RunRepository interface {
	Create(ctx context.Context, run *models.PipelineRun) error
	Get(ctx context.Context, id string) (*models.PipelineRun, error)
	Save(ctx context.Context, run *models.PipelineRun) error
	// SetStatusIf moves a run to status "to" only when its current status is
	// "from". It reports whether the row changed.
	SetStatusIf(ctx context.Context, id string, from, to models.RunStatus) (bool, error)
	// ListByStatus returns runs in any of the given states, oldest first.
	ListByStatus(ctx context.Context, statuses ...models.RunStatus) ([]models.PipelineRun, error)
}

type GormRunRepository struct {
	db *gorm.DB
}

func NewGormRunRepository(db *gorm.DB) *GormRunRepository {
	return &GormRunRepository{db: db}
}

func (r *GormRunRepository) Create(ctx context.Context, run *models.PipelineRun) error {
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("create run %s: %w", run.ID, ErrDuplicateID)
		}
		return fmt.Errorf("create run %s: %w", run.ID, err)
	}
	return nil
}

func (r *GormRunRepository) Get(ctx context.Context, id string) (*models.PipelineRun, error) {
	var run models.PipelineRun
	err := r.db.WithContext(ctx).First(&run, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	return &run, nil
}

func (r *GormRunRepository) Save(ctx context.Context, run *models.PipelineRun) error {
	if err := r.db.WithContext(ctx).Save(run).Error; err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}
	return nil
}

func (r *GormRunRepository) SetStatusIf(ctx context.Context, id string, from, to models.RunStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.PipelineRun{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return false, fmt.Errorf("update run %s: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *GormRunRepository) ListByStatus(ctx context.Context, statuses ...models.RunStatus) ([]models.PipelineRun, error) {
	runs := []models.PipelineRun{}
	if len(statuses) == 0 {
		return runs, nil
	}
	err := r.db.WithContext(ctx).
		Where("status IN ?", statuses).
		Order("created_at ASC, id ASC").
		Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}
