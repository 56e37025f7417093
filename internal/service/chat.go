package service

import (
	"context"
	"errors"
	"strings"

	"feedback-hub/backend/ai"
	"feedback-hub/backend/internal/models"
	"feedback-hub/backend/pkg/logger"
	"feedback-hub/backend/shared/observability"
)

const (
	chatSystemPrompt = "You analyze outage feedback and answer user questions."
	chatFallback     = "Sorry, I couldn't analyze that right now: "
)

// ChatAdapter answers free-form questions about the feedback. It never
// fails because of the model: errors become a fallback answer.
type ChatAdapter struct {
	client    ai.Client
	model     string
	maxTokens int
	metrics   *observability.PipelineMetrics
	log       *logger.Logger
}

func NewChatAdapter(client ai.Client, model string, maxTokens int, metrics *observability.PipelineMetrics, log *logger.Logger) *ChatAdapter {
	if model == "" {
		model = ai.DefaultModel
	}
	return &ChatAdapter{
		client:    client,
		model:     model,
		maxTokens: maxTokens,
		metrics:   metrics,
		log:       log,
	}
}

// Ask answers a single question.
func (c *ChatAdapter) Ask(ctx context.Context, question string) (string, error) {
	return c.AskWithHistory(ctx, nil, question)
}

// AskWithHistory answers question with earlier turns of the same session
// placed between the system prompt and the new question. A blank question
// returns an *InvalidInputError.
func (c *ChatAdapter) AskWithHistory(ctx context.Context, history []models.ChatTurn, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", &InvalidInputError{Reason: "message required"}
	}

	messages := make([]ai.Message, 0, len(history)+2)
	messages = append(messages, ai.Message{Role: ai.RoleSystem, Content: chatSystemPrompt})
	for _, turn := range history {
		role := ai.RoleUser
		if turn.Role == models.ChatRoleAssistant {
			role = ai.RoleAssistant
		}
		messages = append(messages, ai.Message{Role: role, Content: turn.Content})
	}
	messages = append(messages, ai.Message{Role: ai.RoleUser, Content: question})

	result, err := c.client.Run(ctx, c.model, ai.RunRequest{
		Messages:  messages,
		MaxTokens: c.maxTokens,
	})
	if err != nil {
		return c.fallback(ctx, err), nil
	}

	answer := strings.TrimSpace(result.Text())
	if answer == "" {
		return c.fallback(ctx, errors.New("empty response")), nil
	}
	return answer, nil
}

func (c *ChatAdapter) fallback(ctx context.Context, err error) string {
	c.metrics.ChatFallback(ctx)
	logger.FromContext(ctx, c.log).Warn("chat answered with fallback", "error", err.Error())
	return chatFallback + err.Error()
}
