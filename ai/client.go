// Package ai wraps the text-generation model used to summarize feedback and
// answer dashboard questions.
package ai

import "context"

// Message roles understood by the model.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// DefaultModel is the model id used when none is configured.
const DefaultModel = "@cf/meta/llama-3-8b-instruct"

// Message is a single prompt message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// RunRequest is the input of one model invocation.
type RunRequest struct {
	Messages  []Message `json:"messages"`
	MaxTokens int       `json:"max_tokens,omitempty"`
}

// Client runs a prompt against a model.
type Client interface {
	Run(ctx context.Context, model string, req RunRequest) (RunResult, error)
}

var (
	_ Client = (*HTTPClient)(nil)
	_ Client = (*OpenAIClient)(nil)
	_ Client = (*MockClient)(nil)
	_ Client = (*BreakerClient)(nil)
)
