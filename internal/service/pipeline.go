package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"feedback-hub/backend/internal/events"
	"feedback-hub/backend/internal/models"
	"feedback-hub/backend/internal/queue"
	"feedback-hub/backend/internal/repository"
	"feedback-hub/backend/pkg/logger"
	"feedback-hub/backend/shared/observability"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// PipelineOptions configures a Pipeline. Zero values fall back to defaults.
type PipelineOptions struct {
	Workers    int
	RunTimeout time.Duration
	Publisher  events.Publisher
	Metrics    *observability.PipelineMetrics
	// OnStored is called after a record is persisted.
	OnStored func(record *models.FeedbackRecord)
}

// Pipeline runs feedback intake: validate, enrich, persist. Submissions are
// accepted synchronously and executed by a pool of workers fed from a queue.
type Pipeline struct {
	runs      repository.RunRepository
	queue     queue.Queue
	enricher  *Enricher
	persister *Persister
	publisher events.Publisher
	metrics   *observability.PipelineMetrics
	onStored  func(record *models.FeedbackRecord)
	log       *logger.Logger
	tracer    trace.Tracer

	workers    int
	runTimeout time.Duration
	newRunID   func() string
	now        func() time.Time

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

func NewPipeline(
	runs repository.RunRepository,
	q queue.Queue,
	enricher *Enricher,
	persister *Persister,
	log *logger.Logger,
	opts PipelineOptions,
) *Pipeline {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.RunTimeout <= 0 {
		opts.RunTimeout = 60 * time.Second
	}
	if opts.Publisher == nil {
		opts.Publisher = events.NopPublisher{}
	}

	return &Pipeline{
		runs:       runs,
		queue:      q,
		enricher:   enricher,
		persister:  persister,
		publisher:  opts.Publisher,
		metrics:    opts.Metrics,
		onStored:   opts.OnStored,
		log:        log,
		tracer:     otel.Tracer("feedback-hub/pipeline"),
		workers:    opts.Workers,
		runTimeout: opts.RunTimeout,
		newRunID:   func() string { return "run_" + uuid.New().String()[:8] },
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Submit validates the submission, records a pending run and queues it.
// Invalid input returns a *ValidationError and creates nothing.
func (p *Pipeline) Submit(ctx context.Context, sub models.FeedbackSubmission) (models.RunHandle, error) {
	valid, err := Validate(sub)
	if err != nil {
		return models.RunHandle{}, err
	}

	now := p.now()
	run := &models.PipelineRun{
		ID:        p.newRunID(),
		Status:    models.RunPending,
		Message:   valid.Message,
		Source:    valid.Source,
		Product:   valid.Product,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := p.runs.Create(ctx, run); err != nil {
		return models.RunHandle{}, fmt.Errorf("create run: %w", err)
	}

	if err := p.queue.Enqueue(ctx, queue.Job{RunID: run.ID}); err != nil {
		p.markUnqueued(ctx, run, err)
		return models.RunHandle{}, fmt.Errorf("enqueue run %s: %w", run.ID, err)
	}

	p.metrics.Submitted(ctx, valid.Product)
	logger.FromContext(ctx, p.log).Info("feedback accepted",
		"run_id", run.ID,
		"product", valid.Product,
		"source", valid.Source,
	)

	return models.RunHandle{RunID: run.ID, Status: run.Status}, nil
}

// markUnqueued fails a run the queue refused. No stage ran, so Stage stays
// empty; a pending row nobody will pick up is not left behind.
func (p *Pipeline) markUnqueued(ctx context.Context, run *models.PipelineRun, cause error) {
	run.Status = models.RunFailed
	run.Stage = ""
	run.Reason = "not queued: " + cause.Error()
	run.UpdatedAt = p.now()
	if err := p.runs.Save(context.WithoutCancel(ctx), run); err != nil {
		p.log.LogError(err, "failed to mark unqueued run", "run_id", run.ID)
	}
}

// unfinished are the states of a run that has not reached completed or failed.
var unfinished = []models.RunStatus{
	models.RunPending,
	models.RunValidating,
	models.RunEnriching,
	models.RunPersisting,
}

// Recover queues every unfinished run again, typically after a restart lost
// the queue contents. Runs left mid-stage are moved back to pending first.
// Runs the queue refuses are marked failed so they can be retried. It returns
// the number of runs queued.
func (p *Pipeline) Recover(ctx context.Context) (int, error) {
	runs, err := p.runs.ListByStatus(ctx, unfinished...)
	if err != nil {
		return 0, fmt.Errorf("list unfinished runs: %w", err)
	}

	queued := 0
	for i := range runs {
		run := &runs[i]
		if run.Status != models.RunPending {
			changed, err := p.runs.SetStatusIf(ctx, run.ID, run.Status, models.RunPending)
			if err != nil {
				return queued, err
			}
			if !changed {
				continue
			}
			run.Status = models.RunPending
		}

		if err := p.queue.Enqueue(ctx, queue.Job{RunID: run.ID}); err != nil {
			p.log.Warn("could not requeue run", "run_id", run.ID, "error", err)
			p.markUnqueued(ctx, run, err)
			continue
		}
		queued++
	}
	return queued, nil
}

// Run returns the current state of a run.
func (p *Pipeline) Run(ctx context.Context, runID string) (*models.PipelineRun, error) {
	run, err := p.runs.Get(ctx, runID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrRunNotFound
	}
	return run, err
}

// Retry queues a failed run again. Runs in any other state return
// ErrRunNotRetryable.
func (p *Pipeline) Retry(ctx context.Context, runID string) (models.RunHandle, error) {
	run, err := p.Run(ctx, runID)
	if err != nil {
		return models.RunHandle{}, err
	}
	if run.Status != models.RunFailed {
		return models.RunHandle{}, ErrRunNotRetryable
	}

	changed, err := p.runs.SetStatusIf(ctx, runID, models.RunFailed, models.RunPending)
	if err != nil {
		return models.RunHandle{}, err
	}
	if !changed {
		// someone else retried it first
		return models.RunHandle{}, ErrRunNotRetryable
	}

	if err := p.queue.Enqueue(ctx, queue.Job{RunID: runID}); err != nil {
		if _, restoreErr := p.runs.SetStatusIf(context.WithoutCancel(ctx), runID, models.RunPending, models.RunFailed); restoreErr != nil {
			p.log.LogError(restoreErr, "failed to restore run after enqueue error", "run_id", runID)
		}
		return models.RunHandle{}, fmt.Errorf("enqueue run %s: %w", runID, err)
	}

	p.log.Info("run queued for retry", "run_id", runID, "attempts", run.Attempts)
	return models.RunHandle{RunID: runID, Status: models.RunPending}, nil
}

// Execute runs every stage of one run in order. A completed run, or one
// another worker is already executing, is left alone; pending and failed runs
// are claimed and start again from validation. The returned error is the
// stage failure recorded on the run.
func (p *Pipeline) Execute(ctx context.Context, runID string) error {
	run, err := p.Run(ctx, runID)
	if err != nil {
		return err
	}
	switch run.Status {
	case models.RunCompleted:
		return nil
	case models.RunValidating, models.RunEnriching, models.RunPersisting:
		// another worker holds it
		p.log.Debug("skipping run in progress", "run_id", run.ID, "status", string(run.Status))
		return nil
	}

	claimed, err := p.runs.SetStatusIf(ctx, run.ID, run.Status, models.RunValidating)
	if err != nil {
		return err
	}
	if !claimed {
		p.log.Debug("run claimed elsewhere", "run_id", run.ID)
		return nil
	}

	// State writes must land even after the run deadline has passed.
	saveCtx := context.WithoutCancel(ctx)

	ctx, cancel := context.WithTimeout(ctx, p.runTimeout)
	defer cancel()

	ctx, span := p.tracer.Start(ctx, "pipeline.run", trace.WithAttributes(
		attribute.String("run_id", run.ID),
		attribute.String("product", run.Product),
	))
	defer span.End()

	log := p.log.WithRunID(run.ID)

	run.Attempts++
	run.Stage = ""
	run.Reason = ""
	run.RecordID = ""

	var valid models.ValidatedSubmission
	err = p.stage(ctx, saveCtx, run, models.RunValidating, func(ctx context.Context) error {
		var err error
		valid, err = Validate(run.Submission())
		return err
	})
	if err != nil {
		return p.fail(saveCtx, span, log, run, models.RunValidating, err)
	}

	var summary string
	err = p.stage(ctx, saveCtx, run, models.RunEnriching, func(ctx context.Context) error {
		var err error
		summary, err = p.enricher.Enrich(ctx, valid.Product, valid.Source, valid.Message)
		return err
	})
	if err != nil {
		return p.fail(saveCtx, span, log, run, models.RunEnriching, err)
	}

	var record *models.FeedbackRecord
	err = p.stage(ctx, saveCtx, run, models.RunPersisting, func(ctx context.Context) error {
		var err error
		record, err = p.persister.Persist(ctx, valid, summary)
		return err
	})
	if err != nil {
		return p.fail(saveCtx, span, log, run, models.RunPersisting, err)
	}

	run.Status = models.RunCompleted
	run.RecordID = record.ID
	run.UpdatedAt = p.now()
	if err := p.runs.Save(saveCtx, run); err != nil {
		// The record exists; only the run bookkeeping is stale.
		log.LogError(err, "failed to mark run completed", "record_id", record.ID)
	}

	p.metrics.RunFinished(saveCtx, string(models.RunCompleted), "")
	span.SetStatus(codes.Ok, "")
	log.Info("run completed", "record_id", record.ID, "attempts", run.Attempts)

	if p.onStored != nil {
		p.onStored(record)
	}
	events.PublishAsync(p.publisher, p.log, events.FeedbackCreated{
		Type:      events.TypeFeedbackCreated,
		RecordID:  record.ID,
		RunID:     run.ID,
		Product:   record.Product,
		Source:    record.Source,
		Summary:   record.Summary,
		CreatedAt: record.CreatedAt,
	})

	return nil
}

// stage records the transition into status, then runs fn. A deadline hit
// while fn runs is reported as the failure of this stage.
func (p *Pipeline) stage(ctx, saveCtx context.Context, run *models.PipelineRun, status models.RunStatus, fn func(context.Context) error) error {
	run.Status = status
	run.UpdatedAt = p.now()
	if err := p.runs.Save(saveCtx, run); err != nil {
		return fmt.Errorf("record stage %s: %w", status, err)
	}

	ctx, span := p.tracer.Start(ctx, "pipeline."+string(status))
	defer span.End()

	start := time.Now()
	err := ctx.Err()
	if err == nil {
		err = fn(ctx)
	}
	p.metrics.StageObserved(ctx, string(status), time.Since(start), err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (p *Pipeline) fail(saveCtx context.Context, span trace.Span, log *logger.Logger, run *models.PipelineRun, stage models.RunStatus, err error) error {
	run.Status = models.RunFailed
	run.Stage = stage
	run.Reason = err.Error()
	run.UpdatedAt = p.now()
	if saveErr := p.runs.Save(saveCtx, run); saveErr != nil {
		log.LogError(saveErr, "failed to record run failure", "stage", string(stage))
	}

	p.metrics.RunFinished(saveCtx, string(models.RunFailed), string(stage))
	span.SetStatus(codes.Error, err.Error())

	var perr *PersistenceError
	retryable := errors.As(err, &perr) && perr.Retryable
	log.Warn("run failed",
		"stage", string(stage),
		"reason", run.Reason,
		"retryable", retryable,
		"attempts", run.Attempts,
	)
	return err
}
