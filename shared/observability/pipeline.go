package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
)

const instrumentationName = "feedback-hub/pipeline"

// PipelineMetrics records intake pipeline instruments. A nil receiver is a
// no-op.
type PipelineMetrics struct {
	submitted     otelmetric.Int64Counter
	runs          otelmetric.Int64Counter
	stageDuration otelmetric.Float64Histogram
	chatFallbacks otelmetric.Int64Counter
}

// NewPipelineMetrics creates the instruments on mp.
func NewPipelineMetrics(mp otelmetric.MeterProvider) (*PipelineMetrics, error) {
	meter := mp.Meter(instrumentationName)

	submitted, err := meter.Int64Counter("feedback_submissions_total",
		otelmetric.WithDescription("Accepted feedback submissions"))
	if err != nil {
		return nil, err
	}
	runs, err := meter.Int64Counter("feedback_pipeline_runs_total",
		otelmetric.WithDescription("Finished pipeline runs by status and failed stage"))
	if err != nil {
		return nil, err
	}
	stageDuration, err := meter.Float64Histogram("feedback_pipeline_stage_duration_seconds",
		otelmetric.WithDescription("Duration of each pipeline stage"),
		otelmetric.WithUnit("s"))
	if err != nil {
		return nil, err
	}
	chatFallbacks, err := meter.Int64Counter("feedback_chat_fallbacks_total",
		otelmetric.WithDescription("Chat answers replaced by the fallback text"))
	if err != nil {
		return nil, err
	}

	return &PipelineMetrics{
		submitted:     submitted,
		runs:          runs,
		stageDuration: stageDuration,
		chatFallbacks: chatFallbacks,
	}, nil
}

func (m *PipelineMetrics) Submitted(ctx context.Context, product string) {
	if m == nil {
		return
	}
	m.submitted.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("product", product)))
}

func (m *PipelineMetrics) RunFinished(ctx context.Context, status, failedStage string) {
	if m == nil {
		return
	}
	m.runs.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("status", status),
		attribute.String("stage", failedStage),
	))
}

func (m *PipelineMetrics) StageObserved(ctx context.Context, stage string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.stageDuration.Record(ctx, d.Seconds(), otelmetric.WithAttributes(
		attribute.String("stage", stage),
		attribute.Bool("error", err != nil),
	))
}

func (m *PipelineMetrics) ChatFallback(ctx context.Context) {
	if m == nil {
		return
	}
	m.chatFallbacks.Add(ctx, 1)
}
