package api

import (
	"feedback-hub/backend/pkg/health"

	"github.com/gin-gonic/gin"
)

// HealthHandler exposes the health checker over HTTP.
type HealthHandler struct {
	checker *health.Checker
}

func NewHealthHandler(checker *health.Checker) *HealthHandler {
	return &HealthHandler{checker: checker}
}

// RegisterHealthRoutes registers /health and /api/health.
func (h *HealthHandler) RegisterHealthRoutes(engine *gin.Engine) {
	handler := gin.WrapF(h.checker.HTTPHandler())
	engine.GET("/health", handler)
	engine.GET("/api/health", handler)
}
