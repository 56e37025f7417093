package models

import (
	"time"
)

// UnknownValue replaces a missing source or product.
const UnknownValue = "unknown"

// FeedbackSubmission is the raw intake payload.
type FeedbackSubmission struct {
	Message string `json:"message"`
	Source  string `json:"source,omitempty"`
	Product string `json:"product,omitempty"`
}

// ValidatedSubmission is a submission that passed validation. Source and
// Product are never empty; Message is kept verbatim.
type ValidatedSubmission struct {
	Message string `json:"message"`
	Source  string `json:"source"`
	Product string `json:"product"`
}

// FeedbackRecord is an enriched, persisted feedback item. Records are
// written once and never updated.
type FeedbackRecord struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	Message   string    `json:"message" gorm:"type:text;not null"`
	Source    string    `json:"source" gorm:"not null"`
	Product   string    `json:"product" gorm:"not null;index"`
	Summary   string    `json:"summary" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"not null;index"`
}

// TableName pins the table name.
func (FeedbackRecord) TableName() string {
	return "feedback"
}

func (r FeedbackRecord) GetProduct() string   { return r.Product }
func (r FeedbackRecord) GetSource() string    { return r.Source }
func (r FeedbackRecord) GetSentiment() string { return "" }
func (r FeedbackRecord) GetUrgency() string   { return "" }
func (r FeedbackRecord) GetTheme() string     { return "" }
