package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"feedback-hub/backend/ai"
)

const summarySystemPrompt = "You analyze customer feedback and summarize key issues."

// Enricher produces the AI summary stored with each record.
type Enricher struct {
	client    ai.Client
	model     string
	maxTokens int
}

func NewEnricher(client ai.Client, model string, maxTokens int) *Enricher {
	if model == "" {
		model = ai.DefaultModel
	}
	return &Enricher{client: client, model: model, maxTokens: maxTokens}
}

func summaryPrompt(product, source, message string) []ai.Message {
	return []ai.Message{
		{Role: ai.RoleSystem, Content: summarySystemPrompt},
		{Role: ai.RoleUser, Content: fmt.Sprintf(
			"Product: %s\nSource: %s\n\nFeedback:\n%s\n\nProvide a concise 2-3 sentence summary.",
			product, source, message,
		)},
	}
}

// Enrich asks the model for a summary of one feedback message. It fails
// with an *EnrichmentError when the model errors, times out or answers with
// nothing; no placeholder summary is ever produced.
func (e *Enricher) Enrich(ctx context.Context, product, source, message string) (string, error) {
	result, err := e.client.Run(ctx, e.model, ai.RunRequest{
		Messages:  summaryPrompt(product, source, message),
		MaxTokens: e.maxTokens,
	})
	if err != nil {
		reason := "model call failed"
		if errors.Is(err, context.DeadlineExceeded) {
			reason = "timeout"
		}
		return "", &EnrichmentError{Reason: reason, Err: err}
	}

	summary := strings.TrimSpace(result.Text())
	if summary == "" {
		return "", &EnrichmentError{Reason: "empty summary"}
	}
	return summary, nil
}
