package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedback-hub/backend/internal/models"
	"feedback-hub/backend/internal/repository"
	"feedback-hub/backend/pkg/cache"
)

func TestSeedDashboardAll(t *testing.T) {
	q := NewQueryService(NewSeedSource(models.SeedItems()), nil)

	d, err := q.Dashboard(context.Background(), "all")
	require.NoError(t, err)

	assert.Len(t, d.Items, 8)
	assert.Equal(t, 8, d.Aggregates.Total)
	assert.Equal(t, 7, d.Aggregates.Negative)
	assert.Equal(t, 3, d.Aggregates.Critical)
	assert.Equal(t, 2, d.Aggregates.BySource["GitHub"])
	assert.Equal(t, 2, d.Aggregates.BySource["Support Tickets"])
	assert.Equal(t, 3, d.Aggregates.ByTheme["outage_impact"])
	assert.Equal(t, 0, d.Aggregates.BySentiment["positive"])

	// newest first
	first := d.Items[0].(models.DashboardItem)
	assert.Equal(t, "6", first.ID)
}

func TestSeedDashboardFilter(t *testing.T) {
	q := NewQueryService(NewSeedSource(models.SeedItems()), nil)
	ctx := context.Background()

	argo, err := q.List(ctx, "Argo Smart Routing")
	require.NoError(t, err)
	assert.Len(t, argo, 6)

	workers, err := q.List(ctx, "Workers")
	require.NoError(t, err)
	require.Len(t, workers, 1)
	assert.Equal(t, "Workers", workers[0].GetProduct())

	none, err := q.List(ctx, "argo smart routing")
	require.NoError(t, err)
	assert.Empty(t, none)

	empty, err := q.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, empty, 8)
}

func TestAggregateDimensionsSumToTotal(t *testing.T) {
	items := []models.Item{
		models.FeedbackRecord{Product: "Workers", Source: "GitHub"},
		models.DashboardItem{Product: "Workers", Source: "Email", Sentiment: "negative", Urgency: "critical", Theme: "outage_impact"},
	}

	agg := Aggregate(items)
	for name, dim := range map[string]map[string]int{
		"source": agg.BySource, "sentiment": agg.BySentiment, "urgency": agg.ByUrgency, "theme": agg.ByTheme,
	} {
		sum := 0
		for _, n := range dim {
			sum += n
		}
		assert.Equal(t, agg.Total, sum, name)
	}
	assert.Equal(t, 1, agg.BySentiment[models.Unclassified])
	assert.Equal(t, 1, agg.ByUrgency[models.Unclassified])
	assert.Equal(t, 1, agg.Negative)
	assert.Equal(t, 1, agg.Critical)
}

func TestAggregateEmpty(t *testing.T) {
	agg := Aggregate(nil)
	assert.Zero(t, agg.Total)
	assert.Equal(t, map[string]int{"negative": 0, "neutral": 0, "positive": 0}, agg.BySentiment)
	assert.Equal(t, map[string]int{"critical": 0, "high": 0, "medium": 0, "low": 0}, agg.ByUrgency)
	assert.Empty(t, agg.BySource)
}

func TestStoreSourceWithCache(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewGormFeedbackRepository(newTestDB(t))
	c := cache.New(cache.Options{TTL: time.Minute})
	defer c.Close()
	q := NewQueryService(NewStoreSource(repo), c)

	insert := func(id string, at time.Time) {
		require.NoError(t, repo.Insert(ctx, &models.FeedbackRecord{
			ID: id, Message: "m", Source: "GitHub", Product: "Workers", Summary: "s", CreatedAt: at,
		}))
	}
	base := time.Date(2025, 11, 18, 14, 0, 0, 0, time.UTC)
	insert("older", base)
	insert("newer", base.Add(time.Minute))

	items, err := q.List(ctx, "all")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "newer", items[0].(models.FeedbackRecord).ID)

	// mutating a result never leaks into later reads
	items[0] = models.DashboardItem{ID: "tampered"}

	insert("newest", base.Add(2*time.Minute))
	cached, err := q.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, cached, 2)
	assert.Equal(t, "newer", cached[0].(models.FeedbackRecord).ID)

	q.Invalidate()
	fresh, err := q.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, fresh, 3)
}
