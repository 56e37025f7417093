package ai

import (
	"context"
	"fmt"
)

// MockClient answers every prompt locally without calling a model.
type MockClient struct{}

// NewMockClient creates a new mock client.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// Run echoes the last user message back as a wrapped response.
func (m *MockClient) Run(ctx context.Context, model string, req RunRequest) (RunResult, error) {
	if err := ctx.Err(); err != nil {
		return RunResult{}, err
	}

	var lastUser string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == RoleUser {
			lastUser = req.Messages[i].Content
			break
		}
	}

	if lastUser == "" {
		return Wrapped("[MOCK] Nothing to analyze."), nil
	}
	return Wrapped(fmt.Sprintf("[MOCK] Analysis of %q.", truncate(lastUser, 100))), nil
}
