package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"feedback-hub/backend/internal/repository"
	"feedback-hub/backend/pkg/config"
	"feedback-hub/backend/pkg/di"
	"feedback-hub/backend/pkg/logger"
)

type noSecrets struct{}

func (noSecrets) GetSecret(context.Context, string) (string, error) { return "", nil }
func (noSecrets) GetSecretWithDefault(_ context.Context, _, def string) string {
	return def
}

func newTestRouter(t *testing.T, configure ...func(*config.Config)) *Router {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, repository.AutoMigrate(db))

	cfg := &config.Config{}
	cfg.AI.Mode = "mock"
	cfg.Pipeline.QueueSize = 8
	cfg.Pipeline.RunTimeout = time.Second
	cfg.Security.RateLimit = 100
	cfg.Security.RateLimitBurst = 100
	cfg.Security.MaxBodySize = 1 << 20
	cfg.Security.AllowedOrigins = []string{"https://dash.example.com"}
	for _, fn := range configure {
		fn(cfg)
	}

	container, err := di.New(context.Background(), cfg, db, logger.Nop(), di.Options{
		MeterProvider: noop.NewMeterProvider(),
		Secrets:       noSecrets{},
	})
	require.NoError(t, err)
	t.Cleanup(func() { container.Close() })

	r := New(container)
	t.Cleanup(r.Stop)
	require.NoError(t, r.SetupRoutes())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go r.Hub.Run(ctx)
	return r
}

func serve(r *Router, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.Engine.ServeHTTP(rec, req)
	return rec
}

func TestSubmitThroughFullChain(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/feedback", strings.NewReader(`{"message":"Argo routing down"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := serve(r, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "pending", body["status"])
}

func TestSchemaViolationRejectedBeforeHandler(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":["not","a","string"]}`))
	req.Header.Set("Content-Type", "application/json")
	rec := serve(r, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_REQUEST")
}

func TestHealthAndStatus(t *testing.T) {
	r := newTestRouter(t)
	r.Container.Health.RunChecks(context.Background())

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"database"`)

	rec = serve(r, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"queued":0`)
	assert.Contains(t, rec.Body.String(), `"cache":{"enabled":false}`)
}

func TestStatusReportsCachedDashboardLists(t *testing.T) {
	r := newTestRouter(t, func(cfg *config.Config) {
		cfg.Cache.Enabled = true
		cfg.Cache.TTL = time.Minute
	})

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/api/feedback?product=Workers", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serve(r, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"cache":{"enabled":true,"entries":1}`)
}

func TestCORSPreflight(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/feedback", nil)
	req.Header.Set("Origin", "https://dash.example.com")
	rec := serve(r, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://dash.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/feedback", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = serve(r, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestOpenAPIDocumentServed(t *testing.T) {
	r := newTestRouter(t)

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/api/docs/openapi.yaml", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/feedback/runs/{run_id}/retry")
}
