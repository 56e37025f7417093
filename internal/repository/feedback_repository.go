package repository

import (
	"context"
	"fmt"

	"feedback-hub/backend/internal/models"

	"gorm.io/gorm"
)

// FeedbackRepository stores enriched feedback records. Records are never
// updated or deleted.
type FeedbackRepository interface {
	Insert(ctx context.Context, record *models.FeedbackRecord) error
	// List returns records newest first. An empty product matches all.
	List(ctx context.Context, product string) ([]models.FeedbackRecord, error)
	Count(ctx context.Context) (int64, error)
}

type GormFeedbackRepository struct {
	db *gorm.DB
}

func NewGormFeedbackRepository(db *gorm.DB) *GormFeedbackRepository {
	return &GormFeedbackRepository{db: db}
}

func (r *GormFeedbackRepository) Insert(ctx context.Context, record *models.FeedbackRecord) error {
	err := r.db.WithContext(ctx).Create(record).Error
	if err == nil {
		return nil
	}
	if isDuplicateKey(err) {
		return fmt.Errorf("insert feedback %s: %w", record.ID, ErrDuplicateID)
	}
	return fmt.Errorf("insert feedback %s: %w", record.ID, err)
}

func (r *GormFeedbackRepository) List(ctx context.Context, product string) ([]models.FeedbackRecord, error) {
	var records []models.FeedbackRecord
	q := r.db.WithContext(ctx).Order("created_at DESC, id DESC")
	if product != "" {
		q = q.Where("product = ?", product)
	}
	if err := q.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	return records, nil
}

func (r *GormFeedbackRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.FeedbackRecord{}).Count(&n).Error
	return n, err
}
