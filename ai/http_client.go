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

// maxErrorBody bounds how much of a failed response body ends up in an error.
const maxErrorBody = 512

// HTTPClient calls a Workers AI compatible REST endpoint:
// POST {baseURL}/accounts/{accountID}/ai/run/{model}
type HTTPClient struct {
	client    *http.Client
	baseURL   string
	accountID string
	apiToken  string
	log       *logger.Logger
}

// NewHTTPClient creates a client for the model REST API.
func NewHTTPClient(baseURL, accountID, apiToken string, timeout time.Duration, log *logger.Logger) *HTTPClient {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTTPClient{
		client:    &http.Client{Timeout: timeout},
		baseURL:   strings.TrimRight(baseURL, "/"),
		accountID: accountID,
		apiToken:  apiToken,
		log:       log,
	}
}

type envelope struct {
	Result  json.RawMessage `json:"result"`
	Success bool            `json:"success"`
	Errors  []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// Run sends the prompt and returns the normalized result.
func (c *HTTPClient) Run(ctx context.Context, model string, req RunRequest) (RunResult, error) {
	if len(req.Messages) == 0 {
		return RunResult{}, errors.New("ai: no messages to send")
	}

	body, err := json.Marshal(req)
	if err != nil {
		return RunResult{}, fmt.Errorf("ai: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/accounts/%s/ai/run/%s", c.baseURL, c.accountID, model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return RunResult{}, fmt.Errorf("ai: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiToken)
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

	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return RunResult{}, fmt.Errorf("ai: status %d: %s", resp.StatusCode, truncate(string(payload), maxErrorBody))
		}
		// Not an envelope; let the caller normalize whatever came back.
		return ParseResult(payload), nil
	}

	if resp.StatusCode >= http.StatusBadRequest || (!env.Success && len(env.Errors) > 0) {
		msgs := make([]string, 0, len(env.Errors))
		for _, e := range env.Errors {
			msgs = append(msgs, e.Message)
		}
		if len(msgs) == 0 {
			msgs = append(msgs, http.StatusText(resp.StatusCode))
		}
		return RunResult{}, fmt.Errorf("ai: status %d: %s", resp.StatusCode, strings.Join(msgs, "; "))
	}

	if env.Result == nil {
		return ParseResult(payload), nil
	}
	return ParseResult(env.Result), nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
