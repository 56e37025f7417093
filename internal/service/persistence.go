package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"feedback-hub/backend/internal/models"
	"feedback-hub/backend/internal/repository"

	"github.com/google/uuid"
)

// monotonicClock hands out timestamps that never go backwards within the
// process, at the microsecond precision the stores keep.
type monotonicClock struct {
	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

func (c *monotonicClock) Next() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.now().UTC().Truncate(time.Microsecond)
	if t.Before(c.last) {
		t = c.last
	}
	c.last = t
	return t
}

// Persister writes enriched feedback records.
type Persister struct {
	repo  repository.FeedbackRepository
	clock *monotonicClock
	newID func() string
}

func NewPersister(repo repository.FeedbackRepository) *Persister {
	return &Persister{
		repo:  repo,
		clock: &monotonicClock{now: time.Now},
		newID: func() string { return uuid.New().String() },
	}
}

// Persist stores a record with a fresh id and timestamp in a single insert.
// A duplicate id is retried once with another id before giving up with a
// retryable *PersistenceError.
func (p *Persister) Persist(ctx context.Context, sub models.ValidatedSubmission, summary string) (*models.FeedbackRecord, error) {
	if summary == "" {
		return nil, &PersistenceError{Err: errors.New("refusing to store an empty summary")}
	}

	record := &models.FeedbackRecord{
		Message: sub.Message,
		Source:  sub.Source,
		Product: sub.Product,
		Summary: summary,
	}

	var err error
	for attempt := 0; attempt < 2; attempt++ {
		record.ID = p.newID()
		record.CreatedAt = p.clock.Next()

		err = p.repo.Insert(ctx, record)
		if err == nil {
			return record, nil
		}
		if !errors.Is(err, repository.ErrDuplicateID) {
			return nil, &PersistenceError{Err: err, Retryable: true}
		}
	}

	return nil, &PersistenceError{Err: err, Retryable: true}
}
