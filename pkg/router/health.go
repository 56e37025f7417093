package router

import (
	"net/http"
	"os"
	"runtime"
	"time"

	"feedback-hub/backend/internal/api"

	"github.com/gin-gonic/gin"
)

// setupHealthRoutes registers health check endpoints
func (r *Router) setupHealthRoutes() {
	api.NewHealthHandler(r.Container.Health).RegisterHealthRoutes(r.Engine)

	r.Engine.GET("/api/status", func(c *gin.Context) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		queued, err := r.Container.Queue.Len(c.Request.Context())
		if err != nil {
			r.Logger.Warn("queue length unavailable", "error", err.Error())
			queued = -1
		}

		cached := gin.H{"enabled": r.Container.Cache != nil}
		if r.Container.Cache != nil {
			cached["entries"] = r.Container.Cache.Count()
		}

		c.JSON(http.StatusOK, gin.H{
			"version":   os.Getenv("APP_VERSION"),
			"env":       r.Config.Server.Env,
			"uptime":    time.Since(startTime).Round(time.Second).String(),
			"timestamp": time.Now().Format(time.RFC3339),
			"pipeline": gin.H{
				"queued":  queued,
				"breaker": r.Container.AI.Breaker().GetMetrics(),
			},
			"cache": cached,
			"websocket": gin.H{
				"active_connections": r.Hub.ActiveConnections(),
			},
			"memory": gin.H{
				"alloc_mb":  memStats.Alloc / 1024 / 1024,
				"sys_mb":    memStats.Sys / 1024 / 1024,
				"gc_cycles": memStats.NumGC,
			},
		})
	})
}
