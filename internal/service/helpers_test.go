package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"feedback-hub/backend/ai"
	"feedback-hub/backend/internal/repository"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, repository.AutoMigrate(db))
	return db
}

// stubClient returns a canned result and records every request.
type stubClient struct {
	mu       sync.Mutex
	result   ai.RunResult
	err      error
	requests []ai.RunRequest
	models   []string
	block    bool
}

func (s *stubClient) Run(ctx context.Context, model string, req ai.RunRequest) (ai.RunResult, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.models = append(s.models, model)
	block, result, err := s.block, s.result, s.err
	s.mu.Unlock()

	if block {
		<-ctx.Done()
		return ai.RunResult{}, ctx.Err()
	}
	return result, err
}

func (s *stubClient) lastRequest() ai.RunRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[len(s.requests)-1]
}

func (s *stubClient) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}
