package repository

import (
	"feedback-hub/backend/internal/models"

	"gorm.io/gorm"
)

// AutoMigrate creates or updates the tables owned by this package.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.FeedbackRecord{}, &models.PipelineRun{})
}
