package ai

import (
	"strings"
	"time"

	"feedback-hub/backend/pkg/logger"
	"feedback-hub/backend/pkg/resilience"
)

const (
	// ModeMock selects the local mock client.
	ModeMock = "mock"
	// ModeHTTP selects the Workers AI REST client.
	ModeHTTP = "http"
	// ModeOpenAI selects the OpenAI compatible chat completions client.
	ModeOpenAI = "openai"
)

// Options configures NewClient.
type Options struct {
	Mode      string
	BaseURL   string
	AccountID string
	APIToken  string
	Timeout   time.Duration
}

// NewClient builds the model client for the given mode, guarded by a
// circuit breaker.
func NewClient(opts Options, log *logger.Logger) *BreakerClient {
	var next Client
	switch strings.ToLower(opts.Mode) {
	case ModeMock:
		log.Info("AI mode is mock, using local mock client")
		next = NewMockClient()
	case ModeOpenAI:
		next = NewOpenAIClient(opts.BaseURL, opts.APIToken, opts.Timeout, log)
	default:
		next = NewHTTPClient(opts.BaseURL, opts.AccountID, opts.APIToken, opts.Timeout, log)
	}

	breaker := resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("ai"), log)
	return NewBreakerClient(next, breaker)
}
