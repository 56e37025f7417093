// Package queue carries pipeline jobs from the submit path to the workers.
package queue

import (
	"context"
	"errors"
)

var (
	// ErrQueueFull is returned when a bounded queue cannot take more jobs.
	ErrQueueFull = errors.New("queue full")
	// ErrClosed is returned once the queue has been closed.
	ErrClosed = errors.New("queue closed")
)

// Job asks a worker to execute one pipeline run.
type Job struct {
	RunID string `json:"run_id"`
}

// Queue is an at-least-once job queue.
type Queue interface {
	// Enqueue adds a job without blocking.
	Enqueue(ctx context.Context, job Job) error
	// Dequeue blocks until a job is available, ctx is done or the queue is closed.
	Dequeue(ctx context.Context) (Job, error)
	// Len reports the number of waiting jobs.
	Len(ctx context.Context) (int64, error)
	Close() error
}

var (
	_ Queue = (*MemoryQueue)(nil)
	_ Queue = (*RedisQueue)(nil)
)
