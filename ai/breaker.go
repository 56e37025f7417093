package ai

import (
	"context"

	"feedback-hub/backend/pkg/resilience"
)

// BreakerClient guards another client with a circuit breaker so a failing
// model stops being called for a while.
type BreakerClient struct {
	next    Client
	breaker *resilience.CircuitBreaker
}

// NewBreakerClient wraps next with breaker.
func NewBreakerClient(next Client, breaker *resilience.CircuitBreaker) *BreakerClient {
	return &BreakerClient{next: next, breaker: breaker}
}

// Run forwards the call unless the breaker is open. A call the caller
// cancelled does not count against the model.
func (b *BreakerClient) Run(ctx context.Context, model string, req RunRequest) (RunResult, error) {
	var result RunResult
	err := b.breaker.ExecuteContext(ctx, func(ctx context.Context) error {
		r, err := b.next.Run(ctx, model, req)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	return result, err
}

// Breaker exposes the underlying breaker for health reporting.
func (b *BreakerClient) Breaker() *resilience.CircuitBreaker {
	return b.breaker
}
