package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8081", cfg.Server.Port)
	assert.Equal(t, "@cf/meta/llama-3-8b-instruct", cfg.AI.Model)
	assert.Equal(t, 256, cfg.AI.MaxTokens)
	assert.Equal(t, "memory", cfg.Pipeline.QueueBackend)
	assert.Equal(t, "store", cfg.Dashboard.Source)
	assert.Equal(t, "feedback.created", cfg.Kafka.Topic)
	assert.Empty(t, cfg.Kafka.Brokers)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("AI_MODE", "MOCK")
	t.Setenv("PIPELINE_WORKERS", "8")
	t.Setenv("PIPELINE_RUN_TIMEOUT", "15s")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
	t.Setenv("RATE_LIMIT", "2.5")
	t.Setenv("DASHBOARD_SOURCE", "seed")

	cfg := Load()

	assert.Equal(t, "mock", cfg.AI.Mode)
	assert.Equal(t, 8, cfg.Pipeline.Workers)
	assert.Equal(t, 15*time.Second, cfg.Pipeline.RunTimeout)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.InDelta(t, 2.5, cfg.Security.RateLimit, 0.0001)
	assert.Equal(t, "seed", cfg.Dashboard.Source)
}

func TestNewDBWithInMemorySQLite(t *testing.T) {
	cfg := Load()
	cfg.Server.Env = "test"
	cfg.Database.Driver = "sqlite"
	cfg.Database.DSN = "file::memory:?cache=shared"

	db, err := NewDB(cfg)
	require.NoError(t, err)
	require.NoError(t, TestConnection(db))
}

func TestNewDBRejectsUnknownDriver(t *testing.T) {
	cfg := Load()
	cfg.Database.Driver = "oracle"

	_, err := NewDB(cfg)
	assert.Error(t, err)
}

func TestLoadOpenAIModeDefaults(t *testing.T) {
	t.Setenv("AI_MODE", "openai")

	cfg := Load()
	assert.Equal(t, "https://api.openai.com/v1", cfg.AI.BaseURL)
	assert.Equal(t, "gpt-4o-mini", cfg.AI.Model)
}
