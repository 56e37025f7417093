package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"feedback-hub/backend/pkg/logger"
)

// OpenAIClient calls an OpenAI compatible chat completions endpoint:
// POST {baseURL}/chat/completions
type OpenAIClient struct {
	client  *http.Client
	baseURL string
	apiKey  string
	log     *logger.Logger
}

func NewOpenAIClient(baseURL, apiKey string, timeout time.Duration, log *logger.Logger) *OpenAIClient {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OpenAIClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		log:     log,
	}
}

type openAIRequest struct {
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	MaxTokens int       `json:"max_tokens,omitempty"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Run sends the prompt and wraps the first choice as the response.
func (c *OpenAIClient) Run(ctx context.Context, model string, req RunRequest) (RunResult, error) {
	if len(req.Messages) == 0 {
		return RunResult{}, errors.New("ai: no messages to send")
	}

	body, err := json.Marshal(openAIRequest{Model: model, Messages: req.Messages, MaxTokens: req.MaxTokens})
	if err != nil {
		return RunResult{}, fmt.Errorf("ai: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return RunResult{}, fmt.Errorf("ai: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return RunResult{}, fmt.Errorf("ai: request failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return RunResult{}, fmt.Errorf("ai: read response: %w", err)
	}

	c.log.Debug("model call finished",
		"model", model,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	var out openAIResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return RunResult{}, fmt.Errorf("ai: status %d: %s", resp.StatusCode, truncate(string(payload), maxErrorBody))
		}
		return ParseResult(payload), nil
	}

	if out.Error != nil {
		return RunResult{}, fmt.Errorf("ai: status %d: %s", resp.StatusCode, out.Error.Message)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return RunResult{}, fmt.Errorf("ai: status %d: %s", resp.StatusCode, truncate(string(payload), maxErrorBody))
	}
	if len(out.Choices) == 0 {
		return RunResult{}, errors.New("ai: no choices in response")
	}

	return Wrapped(out.Choices[0].Message.Content), nil
}
