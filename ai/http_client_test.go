package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedback-hub/backend/pkg/logger"
	"feedback-hub/backend/pkg/resilience"
)

func TestHTTPClientRun(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody RunRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"result":{"response":"Two regions affected."},"success":true,"errors":[]}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "acct", "token-1", time.Second, logger.Nop())
	res, err := c.Run(context.Background(), DefaultModel, RunRequest{
		Messages:  []Message{{Role: RoleUser, Content: "hi"}},
		MaxTokens: 256,
	})
	require.NoError(t, err)

	assert.Equal(t, "/accounts/acct/ai/run/@cf/meta/llama-3-8b-instruct", gotPath)
	assert.Equal(t, "Bearer token-1", gotAuth)
	assert.Equal(t, 256, gotBody.MaxTokens)
	assert.Equal(t, ResultWrapped, res.Kind)
	assert.Equal(t, "Two regions affected.", res.Text())
}

func TestHTTPClientErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"result":null,"success":false,"errors":[{"code":5006,"message":"model not found"}]}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "acct", "", time.Second, logger.Nop())
	_, err := c.Run(context.Background(), "missing", RunRequest{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not found")
}

func TestHTTPClientRawPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`"bare string answer"`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "acct", "", time.Second, logger.Nop())
	res, err := c.Run(context.Background(), "m", RunRequest{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	require.NoError(t, err)
	assert.Equal(t, ResultRaw, res.Kind)
	assert.Equal(t, "bare string answer", res.Text())
}

func TestHTTPClientRequiresMessages(t *testing.T) {
	c := NewHTTPClient("http://127.0.0.1:1", "acct", "", time.Second, logger.Nop())
	_, err := c.Run(context.Background(), "m", RunRequest{})
	assert.Error(t, err)
}

func TestMockClientEchoesLastUserMessage(t *testing.T) {
	res, err := NewMockClient().Run(context.Background(), "m", RunRequest{Messages: []Message{
		{Role: RoleSystem, Content: "sys"},
		{Role: RoleUser, Content: "Argo routing down"},
	}})
	require.NoError(t, err)
	assert.Contains(t, res.Text(), "Argo routing down")
}

type failingClient struct{ calls int }

func (f *failingClient) Run(context.Context, string, RunRequest) (RunResult, error) {
	f.calls++
	return RunResult{}, errors.New("upstream 500")
}

func TestBreakerClientOpens(t *testing.T) {
	inner := &failingClient{}
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Name:             "ai",
		FailureThreshold: 2,
		SuccessThreshold: 1,
		RetryTimeout:     time.Minute,
	}, logger.Nop())
	c := NewBreakerClient(inner, cb)

	req := RunRequest{Messages: []Message{{Role: RoleUser, Content: "hi"}}}
	for i := 0; i < 2; i++ {
		_, err := c.Run(context.Background(), "m", req)
		require.Error(t, err)
	}
	_, err := c.Run(context.Background(), "m", req)
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, 2, inner.calls)
	assert.Equal(t, resilience.StateOpen, c.Breaker().GetState())
}

func TestBreakerClientIgnoresCallerCancellation(t *testing.T) {
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Name:             "ai",
		FailureThreshold: 5,
		SuccessThreshold: 1,
		RetryTimeout:     30 * time.Second,
	}, logger.Nop())
	c := NewBreakerClient(&contextClient{}, cb)
	req := RunRequest{Messages: []Message{{Role: RoleUser, Content: "hi"}}}

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	for i := 0; i < 5; i++ {
		_, err := c.Run(cancelled, "m", req)
		assert.ErrorIs(t, err, context.Canceled)
	}

	// cancelled while the model call is in flight
	inFlight, cancelInFlight := context.WithCancel(context.Background())
	slow := NewBreakerClient(&contextClient{onCall: cancelInFlight}, cb)
	_, err := slow.Run(inFlight, "m", req)
	assert.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, resilience.StateClosed, cb.GetState())
	assert.Zero(t, cb.GetMetrics().TotalFailures)

	res, err := c.Run(context.Background(), "m", req)
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Text())
}

// contextClient answers "ok" unless its ctx is done.
type contextClient struct{ onCall func() }

func (c *contextClient) Run(ctx context.Context, _ string, _ RunRequest) (RunResult, error) {
	if c.onCall != nil {
		c.onCall()
	}
	if err := ctx.Err(); err != nil {
		return RunResult{}, err
	}
	return Wrapped("ok"), nil
}

func TestNewClientMockMode(t *testing.T) {
	c := NewClient(Options{Mode: "MOCK"}, logger.Nop())
	res, err := c.Run(context.Background(), "m", RunRequest{Messages: []Message{{Role: RoleUser, Content: "x"}}})
	require.NoError(t, err)
	assert.Equal(t, ResultWrapped, res.Kind)
}
