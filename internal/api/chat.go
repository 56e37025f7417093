package api

import (
	"context"
	"net/http"

	"feedback-hub/backend/internal/models"
	"feedback-hub/backend/internal/service"

	"github.com/gin-gonic/gin"
)

// Asker answers a single chat question.
type Asker interface {
	Ask(ctx context.Context, question string) (string, error)
}

var _ Asker = (*service.ChatAdapter)(nil)

type ChatHandler struct {
	chat Asker
}

func NewChatHandler(chat Asker) *ChatHandler {
	return &ChatHandler{chat: chat}
}

func (h *ChatHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("/chat", h.Ask)
}

// Ask answers 200 with the model text, or with an apology when the model
// is unavailable. Only a blank question is an error.
func (h *ChatHandler) Ask(c *gin.Context) {
	var req models.ChatRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	answer, err := h.chat.Ask(c.Request.Context(), req.Message)
	if err != nil {
		_ = c.Error(toAppError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"response": answer,
	})
}
