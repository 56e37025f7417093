package service

import (
	"context"
	"errors"
	"time"

	"feedback-hub/backend/internal/queue"
)

// dequeueBackoff is the pause after a queue error before polling again.
const dequeueBackoff = time.Second

// Start requeues unfinished runs and launches the worker pool. Workers stop
// when ctx is cancelled or Stop is called; runs already in progress are
// allowed to finish.
func (p *Pipeline) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}

	if n, err := p.Recover(ctx); err != nil {
		p.log.LogError(err, "failed to requeue unfinished runs")
	} else if n > 0 {
		p.log.Info("requeued unfinished runs", "runs", n)
	}

	ctx, p.cancel = context.WithCancel(ctx)
	p.running = true

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.work(ctx, i)
	}
	p.log.Info("pipeline workers started", "workers", p.workers)
}

// Stop signals the workers and waits for in-flight runs.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.cancel()
	p.running = false
	p.mu.Unlock()

	p.wg.Wait()
	p.log.Info("pipeline workers stopped")
}

func (p *Pipeline) work(ctx context.Context, id int) {
	defer p.wg.Done()
	log := p.log.With("worker", id)

	for {
		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, queue.ErrClosed) {
				return
			}
			log.LogError(err, "dequeue failed")
			select {
			case <-ctx.Done():
				return
			case <-time.After(dequeueBackoff):
			}
			continue
		}

		// A run in progress is not cut short by shutdown; the run timeout bounds it.
		if err := p.Execute(context.WithoutCancel(ctx), job.RunID); err != nil && errors.Is(err, ErrRunNotFound) {
			log.Warn("dropping job for unknown run", "run_id", job.RunID)
		}
	}
}
