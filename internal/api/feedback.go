package api

import (
	"context"
	"errors"
	"io"
	"net/http"

	"feedback-hub/backend/internal/models"
	"feedback-hub/backend/internal/service"
	apperrors "feedback-hub/backend/pkg/errors"

	"github.com/gin-gonic/gin"
)

// Pipeline is the write side used by FeedbackHandler.
type Pipeline interface {
	Submit(ctx context.Context, sub models.FeedbackSubmission) (models.RunHandle, error)
	Run(ctx context.Context, runID string) (*models.PipelineRun, error)
	Retry(ctx context.Context, runID string) (models.RunHandle, error)
}

// Dashboards is the read side used by FeedbackHandler.
type Dashboards interface {
	Dashboard(ctx context.Context, product string) (service.Dashboard, error)
}

var (
	_ Pipeline   = (*service.Pipeline)(nil)
	_ Dashboards = (*service.QueryService)(nil)
)

// FeedbackHandler serves feedback intake, run status and the dashboard list.
type FeedbackHandler struct {
	pipeline Pipeline
	query    Dashboards
}

func NewFeedbackHandler(pipeline Pipeline, query Dashboards) *FeedbackHandler {
	return &FeedbackHandler{pipeline: pipeline, query: query}
}

// RegisterRoutes mounts the handler under group (normally /api).
func (h *FeedbackHandler) RegisterRoutes(group *gin.RouterGroup) {
	feedback := group.Group("/feedback")
	{
		feedback.POST("", h.Submit)
		feedback.GET("", h.List)
		feedback.GET("/runs/:run_id", h.GetRun)
		feedback.POST("/runs/:run_id/retry", h.RetryRun)
	}
}

// Submit accepts a submission and answers 202 with the run handle.
func (h *FeedbackHandler) Submit(c *gin.Context) {
	var sub models.FeedbackSubmission
	if err := bindOptionalJSON(c, &sub); err != nil {
		_ = c.Error(err)
		return
	}

	handle, err := h.pipeline.Submit(c.Request.Context(), sub)
	if err != nil {
		_ = c.Error(toAppError(err))
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"run_id":  handle.RunID,
		"status":  handle.Status,
	})
}

// List returns the filtered items with their aggregates.
func (h *FeedbackHandler) List(c *gin.Context) {
	dashboard, err := h.query.Dashboard(c.Request.Context(), c.Query("product"))
	if err != nil {
		_ = c.Error(toAppError(err))
		return
	}

	items := dashboard.Items
	if items == nil {
		items = []models.Item{}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"items":      items,
		"aggregates": dashboard.Aggregates,
	})
}

func (h *FeedbackHandler) GetRun(c *gin.Context) {
	run, err := h.pipeline.Run(c.Request.Context(), c.Param("run_id"))
	if err != nil {
		_ = c.Error(toAppError(err))
		return
	}
	c.JSON(http.StatusOK, run)
}

func (h *FeedbackHandler) RetryRun(c *gin.Context) {
	handle, err := h.pipeline.Retry(c.Request.Context(), c.Param("run_id"))
	if err != nil {
		_ = c.Error(toAppError(err))
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"run_id":  handle.RunID,
		"status":  handle.Status,
	})
}

// bindOptionalJSON decodes the body into dst. An empty body leaves dst zero
// so that field validation reports what is missing.
func bindOptionalJSON(c *gin.Context, dst any) error {
	err := c.ShouldBindJSON(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return apperrors.NewBadRequestError(apperrors.CodeInvalidRequest, "request body must be a JSON object").WithCause(err)
}
