// Package events publishes domain events about stored feedback. Publishing
// is best-effort: a failure is logged and never affects the pipeline run.
package events

import (
	"context"
	"time"

	"feedback-hub/backend/pkg/logger"
)

// TypeFeedbackCreated is emitted after a record is persisted.
const TypeFeedbackCreated = "feedback.created"

// publishTimeout bounds a single async publish.
const publishTimeout = 5 * time.Second

// FeedbackCreated describes a newly stored feedback record.
type FeedbackCreated struct {
	Type      string    `json:"type"`
	RecordID  string    `json:"record_id"`
	RunID     string    `json:"run_id"`
	Product   string    `json:"product"`
	Source    string    `json:"source"`
	Summary   string    `json:"summary"`
	CreatedAt time.Time `json:"created_at"`
}

// Publisher sends events to a broker.
type Publisher interface {
	Publish(ctx context.Context, event FeedbackCreated) error
	Close() error
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, FeedbackCreated) error { return nil }
func (NopPublisher) Close() error                                   { return nil }

// PublishAsync publishes in a goroutine detached from the caller's context
// so a finished or cancelled run does not abort the write.
func PublishAsync(p Publisher, log *logger.Logger, event FeedbackCreated) {
	if p == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := p.Publish(ctx, event); err != nil {
			log.Warn("event publish failed",
				"type", event.Type,
				"record_id", event.RecordID,
				"error", err.Error(),
			)
		}
	}()
}
