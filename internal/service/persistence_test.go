package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedback-hub/backend/internal/models"
	"feedback-hub/backend/internal/repository"
)

var validSub = models.ValidatedSubmission{Message: "Argo routing down", Source: "GitHub", Product: "Argo Smart Routing"}

func TestPersistStoresRecord(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewGormFeedbackRepository(newTestDB(t))
	p := NewPersister(repo)

	rec, err := p.Persist(ctx, validSub, "Routing outage.")
	require.NoError(t, err)
	assert.Len(t, rec.ID, 36)

	stored, err := repo.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, rec.ID, stored[0].ID)
	assert.Equal(t, "Routing outage.", stored[0].Summary)
	assert.Equal(t, "Argo routing down", stored[0].Message)
}

func TestPersistTimestampsNeverGoBackwards(t *testing.T) {
	clock := &monotonicClock{}
	now := time.Date(2025, 11, 18, 15, 0, 0, 0, time.UTC)
	clock.now = func() time.Time { return now }

	first := clock.Next()
	now = now.Add(-time.Minute)
	second := clock.Next()
	now = now.Add(2 * time.Minute)
	third := clock.Next()

	assert.False(t, second.Before(first))
	assert.True(t, third.After(second))
}

func TestPersistRetriesDuplicateIDOnce(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewGormFeedbackRepository(newTestDB(t))
	p := NewPersister(repo)

	ids := []string{"fixed", "fixed", "fresh"}
	p.newID = func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}

	_, err := p.Persist(ctx, validSub, "first")
	require.NoError(t, err)

	rec, err := p.Persist(ctx, validSub, "second")
	require.NoError(t, err)
	assert.Equal(t, "fresh", rec.ID)
}

func TestPersistDuplicateTwiceIsRetryable(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewGormFeedbackRepository(newTestDB(t))
	p := NewPersister(repo)
	p.newID = func() string { return "always-same" }

	_, err := p.Persist(ctx, validSub, "first")
	require.NoError(t, err)

	_, err = p.Persist(ctx, validSub, "second")
	var perr *PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.True(t, perr.Retryable)
	assert.ErrorIs(t, err, repository.ErrDuplicateID)
}

type failingRepo struct{ err error }

func (f failingRepo) Insert(context.Context, *models.FeedbackRecord) error { return f.err }
func (f failingRepo) List(context.Context, string) ([]models.FeedbackRecord, error) {
	return nil, f.err
}
func (f failingRepo) Count(context.Context) (int64, error) { return 0, f.err }

func TestPersistStoreFailure(t *testing.T) {
	p := NewPersister(failingRepo{err: fmt.Errorf("connection reset")})

	_, err := p.Persist(context.Background(), validSub, "summary")
	var perr *PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.Contains(t, perr.Error(), "connection reset")
}

func TestPersistRejectsEmptySummary(t *testing.T) {
	p := NewPersister(failingRepo{})
	_, err := p.Persist(context.Background(), validSub, "")
	var perr *PersistenceError
	assert.True(t, errors.As(err, &perr))
}
