package di

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"feedback-hub/backend/ai"
	"feedback-hub/backend/internal/events"
	"feedback-hub/backend/internal/models"
	"feedback-hub/backend/internal/queue"
	"feedback-hub/backend/internal/repository"
	"feedback-hub/backend/internal/service"
	"feedback-hub/backend/pkg/cache"
	"feedback-hub/backend/pkg/config"
	"feedback-hub/backend/pkg/health"
	"feedback-hub/backend/pkg/logger"
	"feedback-hub/backend/pkg/secrets"
	"feedback-hub/backend/shared/observability"
	sharedredis "feedback-hub/backend/shared/redis"

	"go.opentelemetry.io/otel"
	otelmetric "go.opentelemetry.io/otel/metric"
	"gorm.io/gorm"
)

// Container holds all the dependencies for the application
type Container struct {
	Config    *config.Config
	DB        *gorm.DB
	Logger    *logger.Logger
	Secrets   secrets.Manager
	Records   *repository.GormFeedbackRepository
	Runs      *repository.GormRunRepository
	Queue     queue.Queue
	Redis     *sharedredis.RedisClient
	Publisher events.Publisher
	AI        *ai.BreakerClient
	Metrics   *observability.PipelineMetrics
	Cache     *cache.Cache
	Pipeline  *service.Pipeline
	Query     *service.QueryService
	Chat      *service.ChatAdapter
	Health    *health.Checker
}

// Options carries collaborators created outside the container. Zero values
// fall back to the global meter provider and an environment-backed secrets
// manager.
type Options struct {
	MeterProvider otelmetric.MeterProvider
	Secrets       secrets.Manager
}

// New creates a new dependency injection container
func New(ctx context.Context, cfg *config.Config, db *gorm.DB, log *logger.Logger, opts Options) (*Container, error) {
	c := &Container{
		Config:  cfg,
		DB:      db,
		Logger:  log,
		Secrets: opts.Secrets,
		Records: repository.NewGormFeedbackRepository(db),
		Runs:    repository.NewGormRunRepository(db),
	}

	if c.Secrets == nil {
		sm, err := secrets.NewVaultManager(secrets.ConfigFromEnv(), log)
		if err != nil {
			return nil, fmt.Errorf("failed to create secrets manager: %w", err)
		}
		c.Secrets = sm
	}

	mp := opts.MeterProvider
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	metrics, err := observability.NewPipelineMetrics(mp)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline metrics: %w", err)
	}
	c.Metrics = metrics

	if err := c.initQueue(ctx); err != nil {
		return nil, err
	}
	if err := c.initPublisher(); err != nil {
		c.Close()
		return nil, err
	}
	c.initAI(ctx)
	c.initQuery()

	enricher := service.NewEnricher(c.AI, cfg.AI.Model, cfg.AI.MaxTokens)
	persister := service.NewPersister(c.Records)
	c.Pipeline = service.NewPipeline(c.Runs, c.Queue, enricher, persister, log, service.PipelineOptions{
		Workers:    cfg.Pipeline.Workers,
		RunTimeout: cfg.Pipeline.RunTimeout,
		Publisher:  c.Publisher,
		Metrics:    metrics,
		OnStored: func(*models.FeedbackRecord) {
			c.Query.Invalidate()
		},
	})
	c.Chat = service.NewChatAdapter(c.AI, cfg.AI.Model, cfg.AI.MaxTokens, metrics, log)

	c.initHealth()
	return c, nil
}

func (c *Container) initQueue(ctx context.Context) error {
	cfg := c.Config.Pipeline
	switch strings.ToLower(cfg.QueueBackend) {
	case "redis":
		c.Redis = sharedredis.NewRedisClient(sharedredis.Options{
			Addr:     c.Config.Redis.Addr,
			Password: c.Config.Redis.Password,
			DB:       c.Config.Redis.DB,
		})
		if err := c.Redis.Ping(ctx); err != nil {
			_ = c.Redis.Close()
			return fmt.Errorf("failed to reach redis at %s: %w", c.Config.Redis.Addr, err)
		}
		c.Queue = queue.NewRedisQueue(c.Redis.Client(), cfg.QueueKey, cfg.QueueSize)
		c.Logger.Info("Using redis run queue", "addr", c.Config.Redis.Addr, "key", cfg.QueueKey)
	case "", "memory":
		c.Queue = queue.NewMemoryQueue(cfg.QueueSize)
		c.Logger.Info("Using in-memory run queue", "size", cfg.QueueSize)
	default:
		return fmt.Errorf("unknown queue backend %q", cfg.QueueBackend)
	}
	return nil
}

func (c *Container) initPublisher() error {
	brokers := c.Config.Kafka.Brokers
	if len(brokers) == 0 {
		c.Publisher = events.NopPublisher{}
		return nil
	}

	pub, err := events.NewKafkaPublisher(brokers, c.Config.Kafka.Topic)
	if err != nil {
		return fmt.Errorf("failed to create kafka publisher: %w", err)
	}
	c.Publisher = pub
	c.Logger.Info("Publishing feedback events to kafka", "brokers", strings.Join(brokers, ","), "topic", c.Config.Kafka.Topic)
	return nil
}

func (c *Container) initAI(ctx context.Context) {
	cfg := c.Config.AI
	token := c.Secrets.GetSecretWithDefault(ctx, secrets.KeyAIAPIToken, "")
	if token == "" && !strings.EqualFold(cfg.Mode, ai.ModeMock) {
		c.Logger.Warn("No AI API token configured, model calls will be rejected upstream")
	}

	c.AI = ai.NewClient(ai.Options{
		Mode:      cfg.Mode,
		BaseURL:   cfg.BaseURL,
		AccountID: cfg.AccountID,
		APIToken:  token,
		Timeout:   cfg.Timeout,
	}, c.Logger)
}

func (c *Container) initQuery() {
	if c.Config.Cache.Enabled {
		c.Cache = cache.New(cache.Options{
			TTL:             c.Config.Cache.TTL,
			CleanupInterval: c.Config.Cache.PurgeWindow,
			MaxItems:        c.Config.Cache.MaxSize,
		})
	}

	var source service.ItemSource
	if strings.EqualFold(c.Config.Dashboard.Source, service.SourceSeed) {
		source = service.NewSeedSource(models.SeedItems())
		c.Logger.Info("Dashboard reads the demo seed set")
	} else {
		source = service.NewStoreSource(c.Records)
	}
	c.Query = service.NewQueryService(source, c.Cache)
}

func (c *Container) initHealth() {
	c.Health = health.NewChecker(c.Logger, 30*time.Second)
	c.Health.RegisterDatabaseCheck(func(ctx context.Context) error {
		sqlDB, err := c.DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})
	c.Health.RegisterQueueCheck(c.Queue.Len)
	c.Health.RegisterBreakerCheck(c.AI.Breaker())
}

// Close releases the queue, broker and cache. The database is owned by the caller.
func (c *Container) Close() error {
	var errs []error
	if c.Queue != nil {
		errs = append(errs, c.Queue.Close())
	}
	if c.Redis != nil {
		errs = append(errs, c.Redis.Close())
	}
	if c.Publisher != nil {
		errs = append(errs, c.Publisher.Close())
	}
	if c.Cache != nil {
		c.Cache.Close()
	}
	return errors.Join(errs...)
}
