package router

import (
	"net/http"
	"strings"
	"time"

	"feedback-hub/backend/internal/api"
	"feedback-hub/backend/internal/ws"
	"feedback-hub/backend/pkg/config"
	"feedback-hub/backend/pkg/di"
	"feedback-hub/backend/pkg/errors"
	"feedback-hub/backend/pkg/logger"
	"feedback-hub/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Track server start time for uptime calculations
var startTime = time.Now()

// Router is the main router for the application
type Router struct {
	Engine      *gin.Engine
	Container   *di.Container
	Logger      *logger.Logger
	Hub         *ws.Hub
	Config      *config.Config
	rateLimiter *middleware.RateLimiter
}

// New creates a new router with the given container. Middleware order:
// request id, tracing, logging, error rendering, recovery, CORS, body limit
// and rate limiting.
func New(container *di.Container) *Router {
	cfg := container.Config

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	engine.Use(middleware.RequestIDMiddleware())
	engine.Use(middleware.TracingMiddleware("feedback-hub/http"))
	engine.Use(logger.Middleware(container.Logger))
	engine.Use(errors.ErrorHandler())
	engine.Use(errors.RecoveryWithLogger())
	engine.Use(corsMiddleware(cfg.Security.AllowedOrigins))

	if cfg.Security.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.Security.MaxBodySize))
	}

	opts := middleware.DefaultRateLimiterOptions()
	if cfg.Security.RateLimit > 0 {
		opts.Limit = rate.Limit(cfg.Security.RateLimit)
	}
	if cfg.Security.RateLimitBurst > 0 {
		opts.Burst = cfg.Security.RateLimitBurst
	}
	rateLimiter := middleware.NewRateLimiter(container.Logger, opts)
	engine.Use(rateLimiter.Middleware())

	return &Router{
		Engine:      engine,
		Container:   container,
		Logger:      container.Logger,
		Hub:         ws.NewHub(container.Chat, container.Logger),
		Config:      cfg,
		rateLimiter: rateLimiter,
	}
}

// SetupRoutes registers all application routes. Schema validation is
// installed first so it covers every API route.
func (r *Router) SetupRoutes() error {
	if err := r.AddOpenAPIValidation(r.Config.Observability.OpenAPIPath); err != nil {
		return err
	}

	r.setupHealthRoutes()

	group := r.Engine.Group("/api")
	api.NewFeedbackHandler(r.Container.Pipeline, r.Container.Query).RegisterRoutes(group)
	api.NewChatHandler(r.Container.Chat).RegisterRoutes(group)

	r.Engine.GET("/ws/chat", func(c *gin.Context) {
		ws.ServeWs(r.Hub, c)
	})
	return nil
}

// Stop releases background resources owned by the router.
func (r *Router) Stop() {
	r.rateLimiter.Stop()
}

// corsMiddleware allows the configured origins, or any origin when the list
// is empty or contains "*".
func corsMiddleware(allowed []string) gin.HandlerFunc {
	allowAll := len(allowed) == 0
	origins := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			allowAll = true
		}
		origins[strings.TrimRight(o, "/")] = true
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		switch {
		case allowAll:
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "" && origins[origin]:
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Add("Vary", "Origin")
		}

		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept, Accept-Encoding, X-Request-ID, Origin, Upgrade, Connection, Cache-Control")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID, X-Trace-ID, X-RateLimit-Limit")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
