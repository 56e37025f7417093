package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server struct {
		Port    string
		Env     string
		Timeout time.Duration
		BaseURL string
	}

	// Database configuration
	Database struct {
		Driver   string // postgres or sqlite
		DSN      string // overrides the discrete fields below when set
		Host     string
		Port     string
		User     string
		Password string
		Name     string
		SSLMode  string
		MaxConns int
		Timeout  time.Duration
	}

	// Text generation model
	AI struct {
		Mode      string // http, openai or mock
		BaseURL   string
		AccountID string
		Model     string
		MaxTokens int
		Timeout   time.Duration
	}

	// Intake pipeline
	Pipeline struct {
		Workers      int
		QueueBackend string // memory or redis
		QueueSize    int
		QueueKey     string
		RunTimeout   time.Duration
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	Kafka struct {
		Brokers []string
		Topic   string
	}

	// Security configuration
	Security struct {
		RateLimit      float64
		RateLimitBurst int
		AllowedOrigins []string
		MaxBodySize    int64
	}

	// Logging configuration
	Logging struct {
		Level  string
		Format string
	}

	// Cache settings
	Cache struct {
		Enabled     bool
		TTL         time.Duration
		MaxSize     int
		PurgeWindow time.Duration
	}

	// Dashboard read side
	Dashboard struct {
		Source string // store or seed
	}

	Observability struct {
		MetricsEnabled bool
		MetricsAddr    string
		TracingEnabled bool
		GRPCHealthPort string
		OpenAPIPath    string
	}
}

var (
	instance *Config
	once     sync.Once
)

// New creates a new Config instance with values from environment variables
// Uses singleton pattern to ensure only one instance exists
func New() *Config {
	once.Do(func() {
		// Load .env file if exists
		godotenv.Load()
		instance = Load()
	})

	return instance
}

// Get returns the singleton Config instance
func Get() *Config {
	if instance == nil {
		return New()
	}
	return instance
}

// Load reads a fresh Config from the environment without touching the
// singleton.
func Load() *Config {
	cfg := &Config{}

	cfg.Server.Port = getEnvString("PORT", "8081")
	cfg.Server.Env = getEnvString("APP_ENV", "development")
	cfg.Server.Timeout = getEnvDuration("SERVER_TIMEOUT", 30*time.Second)
	cfg.Server.BaseURL = getEnvString("BASE_URL", "http://localhost:"+cfg.Server.Port)

	cfg.Database.Driver = strings.ToLower(getEnvString("DB_DRIVER", "postgres"))
	cfg.Database.DSN = getEnvString("DB_DSN", "")
	cfg.Database.Host = getEnvString("DB_HOST", "localhost")
	cfg.Database.Port = getEnvString("DB_PORT", "5432")
	cfg.Database.User = getEnvString("DB_USER", "postgres")
	cfg.Database.Password = getEnvString("DB_PASSWORD", "postgres")
	cfg.Database.Name = getEnvString("DB_NAME", "feedback")
	cfg.Database.SSLMode = getEnvString("DB_SSL_MODE", "disable")
	cfg.Database.MaxConns = getEnvInt("DB_MAX_CONNS", 20)
	cfg.Database.Timeout = getEnvDuration("DB_TIMEOUT", 5*time.Second)

	cfg.AI.Mode = strings.ToLower(getEnvString("AI_MODE", "http"))
	if cfg.AI.Mode == "openai" {
		cfg.AI.BaseURL = getEnvString("AI_BASE_URL", "https://api.openai.com/v1")
		cfg.AI.Model = getEnvString("AI_MODEL", "gpt-4o-mini")
	} else {
		cfg.AI.BaseURL = getEnvString("AI_BASE_URL", "https://api.cloudflare.com/client/v4")
		cfg.AI.Model = getEnvString("AI_MODEL", "@cf/meta/llama-3-8b-instruct")
	}
	cfg.AI.AccountID = getEnvString("AI_ACCOUNT_ID", "")
	cfg.AI.MaxTokens = getEnvInt("AI_MAX_TOKENS", 256)
	cfg.AI.Timeout = getEnvDuration("AI_TIMEOUT", 30*time.Second)

	cfg.Pipeline.Workers = getEnvInt("PIPELINE_WORKERS", 4)
	cfg.Pipeline.QueueBackend = strings.ToLower(getEnvString("QUEUE_BACKEND", "memory"))
	cfg.Pipeline.QueueSize = getEnvInt("QUEUE_SIZE", 256)
	cfg.Pipeline.QueueKey = getEnvString("QUEUE_KEY", "feedback:runs")
	cfg.Pipeline.RunTimeout = getEnvDuration("PIPELINE_RUN_TIMEOUT", 60*time.Second)

	cfg.Redis.Addr = getEnvString("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnvString("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	cfg.Kafka.Brokers = getEnvStringSlice("KAFKA_BROKERS", nil)
	cfg.Kafka.Topic = getEnvString("KAFKA_TOPIC", "feedback.created")

	cfg.Security.RateLimit = getEnvFloat("RATE_LIMIT", 5)
	cfg.Security.RateLimitBurst = getEnvInt("RATE_LIMIT_BURST", 10)
	cfg.Security.AllowedOrigins = getEnvStringSlice("ALLOWED_ORIGINS", []string{"*"})
	cfg.Security.MaxBodySize = getEnvInt64("MAX_BODY_SIZE", 1<<20) // 1MB

	cfg.Logging.Level = getEnvString("LOG_LEVEL", "info")
	cfg.Logging.Format = getEnvString("LOG_FORMAT", "json")

	cfg.Cache.Enabled = getEnvBool("CACHE_ENABLED", true)
	cfg.Cache.TTL = getEnvDuration("CACHE_TTL", 5*time.Second)
	cfg.Cache.MaxSize = getEnvInt("CACHE_MAX_SIZE", 1000)
	cfg.Cache.PurgeWindow = getEnvDuration("CACHE_PURGE_WINDOW", time.Minute)

	cfg.Dashboard.Source = strings.ToLower(getEnvString("DASHBOARD_SOURCE", "store"))

	cfg.Observability.MetricsEnabled = getEnvBool("METRICS_ENABLED", true)
	cfg.Observability.MetricsAddr = getEnvString("METRICS_ADDR", ":2112")
	cfg.Observability.TracingEnabled = getEnvBool("TRACING_ENABLED", false)
	cfg.Observability.GRPCHealthPort = getEnvString("GRPC_HEALTH_PORT", "")
	cfg.Observability.OpenAPIPath = getEnvString("OPENAPI_SCHEMA_PATH", "")

	return cfg
}

// Helper functions to read environment variables with default values

func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return defaultValue
}
