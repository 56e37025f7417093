package service

import (
	"context"
	"sort"

	"feedback-hub/backend/internal/models"
	"feedback-hub/backend/internal/repository"
	"feedback-hub/backend/pkg/cache"
)

// FilterAll selects every product.
const FilterAll = "all"

// Dashboard read sources.
const (
	SourceStore = "store"
	SourceSeed  = "seed"
)

// ItemSource supplies dashboard items, newest first. An empty product
// matches everything.
type ItemSource interface {
	Items(ctx context.Context, product string) ([]models.Item, error)
}

// StoreSource reads persisted feedback records.
type StoreSource struct {
	repo repository.FeedbackRepository
}

func NewStoreSource(repo repository.FeedbackRepository) *StoreSource {
	return &StoreSource{repo: repo}
}

func (s *StoreSource) Items(ctx context.Context, product string) ([]models.Item, error) {
	records, err := s.repo.List(ctx, product)
	if err != nil {
		return nil, err
	}
	items := make([]models.Item, len(records))
	for i, r := range records {
		items[i] = r
	}
	return items, nil
}

// SeedSource serves the fixed demo set. It never touches the store.
type SeedSource struct {
	items []models.DashboardItem
}

func NewSeedSource(items []models.DashboardItem) *SeedSource {
	sorted := make([]models.DashboardItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})
	return &SeedSource{items: sorted}
}

func (s *SeedSource) Items(ctx context.Context, product string) ([]models.Item, error) {
	items := make([]models.Item, 0, len(s.items))
	for _, it := range s.items {
		if product == "" || it.Product == product {
			items = append(items, it)
		}
	}
	return items, nil
}

// Aggregates are the dashboard counters over a list of items.
type Aggregates struct {
	Total       int            `json:"total"`
	Negative    int            `json:"negative"`
	Critical    int            `json:"critical"`
	BySource    map[string]int `json:"by_source"`
	BySentiment map[string]int `json:"by_sentiment"`
	ByUrgency   map[string]int `json:"by_urgency"`
	ByTheme     map[string]int `json:"by_theme"`
}

// Dashboard is a filtered list with its aggregates.
type Dashboard struct {
	Items      []models.Item `json:"items"`
	Aggregates Aggregates    `json:"aggregates"`
}

// QueryService answers dashboard reads. Results may be served from a short
// lived cache, so new records become visible eventually.
type QueryService struct {
	source ItemSource
	cache  *cache.Cache
}

// NewQueryService creates the read side. cache may be nil.
func NewQueryService(source ItemSource, c *cache.Cache) *QueryService {
	return &QueryService{source: source, cache: c}
}

// List returns items for product, or all items for "" and "all". Matching
// is exact and case-sensitive. The returned slice is the caller's to keep.
func (s *QueryService) List(ctx context.Context, product string) ([]models.Item, error) {
	if product == FilterAll {
		product = ""
	}

	key := "list:" + product
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			return cloneItems(v.([]models.Item)), nil
		}
	}

	items, err := s.source.Items(ctx, product)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(key, cloneItems(items))
	}
	return items, nil
}

// Dashboard lists items for product and aggregates them.
func (s *QueryService) Dashboard(ctx context.Context, product string) (Dashboard, error) {
	items, err := s.List(ctx, product)
	if err != nil {
		return Dashboard{}, err
	}
	return Dashboard{Items: items, Aggregates: Aggregate(items)}, nil
}

// Invalidate drops cached lists so the next read goes to the source.
func (s *QueryService) Invalidate() {
	if s.cache != nil {
		s.cache.Flush()
	}
}

// Aggregate counts items per source, sentiment, urgency and theme. Items
// without a value for a dimension are counted as "unclassified", so each
// dimension sums to Total. Known sentiments and urgencies are always present.
func Aggregate(items []models.Item) Aggregates {
	agg := Aggregates{
		BySource:    map[string]int{},
		BySentiment: map[string]int{},
		ByUrgency:   map[string]int{},
		ByTheme:     map[string]int{},
	}
	for _, s := range models.Sentiments {
		agg.BySentiment[s] = 0
	}
	for _, u := range models.Urgencies {
		agg.ByUrgency[u] = 0
	}

	for _, it := range items {
		agg.Total++
		agg.BySource[bucket(it.GetSource())]++
		agg.BySentiment[bucket(it.GetSentiment())]++
		agg.ByUrgency[bucket(it.GetUrgency())]++
		agg.ByTheme[bucket(it.GetTheme())]++

		if it.GetSentiment() == models.SentimentNegative {
			agg.Negative++
		}
		if it.GetUrgency() == models.UrgencyCritical {
			agg.Critical++
		}
	}
	return agg
}

func bucket(v string) string {
	if v == "" {
		return models.Unclassified
	}
	return v
}

func cloneItems(items []models.Item) []models.Item {
	out := make([]models.Item, len(items))
	copy(out, items)
	return out
}
