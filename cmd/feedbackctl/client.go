package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// apiError is the server's error envelope.
type apiError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

type runHandle struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"`
}

type runStatus struct {
	RunID       string `json:"run_id"`
	Status      string `json:"status"`
	FailedStage string `json:"failed_stage"`
	Reason      string `json:"reason"`
	RecordID    string `json:"record_id"`
	Attempts    int    `json:"attempts"`
}

func (r runStatus) terminal() bool {
	return r.Status == "completed" || r.Status == "failed"
}

type dashboard struct {
	Items      []map[string]any `json:"items"`
	Aggregates struct {
		Total       int            `json:"total"`
		Negative    int            `json:"negative"`
		Critical    int            `json:"critical"`
		BySource    map[string]int `json:"by_source"`
		BySentiment map[string]int `json:"by_sentiment"`
		ByUrgency   map[string]int `json:"by_urgency"`
		ByTheme     map[string]int `json:"by_theme"`
	} `json:"aggregates"`
}

// hubClient talks to the feedback hub HTTP API.
type hubClient struct {
	baseURL string
	http    *http.Client
}

func newHubClient(baseURL string, timeout time.Duration) *hubClient {
	return &hubClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *hubClient) Submit(ctx context.Context, message, source, product string) (runHandle, error) {
	var out runHandle
	err := c.do(ctx, http.MethodPost, "/api/feedback", map[string]string{
		"message": message,
		"source":  source,
		"product": product,
	}, &out)
	return out, err
}

func (c *hubClient) Run(ctx context.Context, runID string) (runStatus, error) {
	var out runStatus
	err := c.do(ctx, http.MethodGet, "/api/feedback/runs/"+url.PathEscape(runID), nil, &out)
	return out, err
}

func (c *hubClient) Retry(ctx context.Context, runID string) (runHandle, error) {
	var out runHandle
	err := c.do(ctx, http.MethodPost, "/api/feedback/runs/"+url.PathEscape(runID)+"/retry", nil, &out)
	return out, err
}

// Wait polls a run until it completes or fails.
func (c *hubClient) Wait(ctx context.Context, runID string, every time.Duration) (runStatus, error) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		run, err := c.Run(ctx, runID)
		if err != nil || run.terminal() {
			return run, err
		}
		select {
		case <-ctx.Done():
			return run, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *hubClient) List(ctx context.Context, product string) (dashboard, error) {
	var out dashboard
	path := "/api/feedback"
	if product != "" {
		path += "?product=" + url.QueryEscape(product)
	}
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (c *hubClient) Ask(ctx context.Context, question string) (string, error) {
	var out struct {
		Response string `json:"response"`
	}
	err := c.do(ctx, http.MethodPost, "/api/chat", map[string]string{"message": question}, &out)
	return out.Response, err
}

func (c *hubClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("error encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var envelope struct {
			Error apiError `json:"error"`
		}
		if err := json.Unmarshal(data, &envelope); err != nil || envelope.Error.Code == "" {
			return &apiError{Status: resp.StatusCode, Code: "HTTP_ERROR", Message: strings.TrimSpace(string(data))}
		}
		envelope.Error.Status = resp.StatusCode
		return &envelope.Error
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("error decoding response: %w", err)
	}
	return nil
}
