package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedback-hub/backend/pkg/logger"
)

func TestOpenAIClientRun(t *testing.T) {
	var got openAIRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Checkout is failing in EU."}}]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient(srv.URL+"/v1/", "sk-test", time.Second, logger.Nop())
	res, err := c.Run(context.Background(), "gpt-4o-mini", RunRequest{
		Messages:  []Message{{Role: RoleSystem, Content: "s"}, {Role: RoleUser, Content: "u"}},
		MaxTokens: 128,
	})
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", got.Model)
	assert.Equal(t, 128, got.MaxTokens)
	assert.Len(t, got.Messages, 2)
	assert.Equal(t, "Checkout is failing in EU.", res.Text())
}

func TestOpenAIClientError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided"}}`))
	}))
	defer srv.Close()

	_, err := NewOpenAIClient(srv.URL, "bad", time.Second, logger.Nop()).Run(context.Background(), "m",
		RunRequest{Messages: []Message{{Role: RoleUser, Content: "u"}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Incorrect API key provided")
}

func TestOpenAIClientNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := NewOpenAIClient(srv.URL, "", time.Second, logger.Nop()).Run(context.Background(), "m",
		RunRequest{Messages: []Message{{Role: RoleUser, Content: "u"}}})
	assert.ErrorContains(t, err, "no choices")
}
