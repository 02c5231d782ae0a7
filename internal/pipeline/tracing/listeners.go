package tracing

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/marina21-cs/weteweta.github.io/internal/pipeline"
)

// TracingListener opens one span per pipeline execution and one child span
// per step. Spans are keyed by execution ID so the listener stays safe even
// if executions overlap.
type TracingListener struct {
	tracer trace.Tracer

	mu    sync.Mutex
	spans map[string]spanEntry
}

type spanEntry struct {
	ctx  context.Context
	span trace.Span
}

// NewTracingListener creates a new TracingListener on the given provider.
func NewTracingListener(provider trace.TracerProvider) *TracingListener {
	return &TracingListener{
		tracer: provider.Tracer("weteweta/pipeline"),
		spans:  make(map[string]spanEntry),
	}
}

func (l *TracingListener) BeforePipeline(ctx context.Context, execution *pipeline.PipelineExecution) {
	spanCtx, span := l.tracer.Start(ctx, "pipeline "+execution.PipelineName,
		trace.WithAttributes(
			attribute.String("pipeline.name", execution.PipelineName),
			attribute.String("pipeline.execution_id", execution.ID),
		))
	l.store(execution.ID, spanEntry{ctx: spanCtx, span: span})
}

func (l *TracingListener) AfterPipeline(ctx context.Context, execution *pipeline.PipelineExecution) {
	entry, ok := l.take(execution.ID)
	if !ok {
		return
	}
	entry.span.SetAttributes(
		attribute.String("pipeline.status", execution.Status.String()),
		attribute.String("pipeline.exit_status", execution.ExitStatus.String()),
	)
	for _, err := range execution.Failures {
		entry.span.RecordError(err)
	}
	if execution.Status == pipeline.StatusFailed {
		entry.span.SetStatus(codes.Error, "pipeline failed")
	} else {
		entry.span.SetStatus(codes.Ok, "")
	}
	entry.span.End()
}

func (l *TracingListener) BeforeStep(ctx context.Context, stepExecution *pipeline.StepExecution) {
	parentCtx := ctx
	if entry, ok := l.peek(stepExecution.PipelineExecution.ID); ok {
		parentCtx = entry.ctx
	}
	spanCtx, span := l.tracer.Start(parentCtx, "step "+stepExecution.StepName,
		trace.WithAttributes(
			attribute.String("step.name", stepExecution.StepName),
			attribute.String("step.execution_id", stepExecution.ID),
		))
	l.store(stepExecution.ID, spanEntry{ctx: spanCtx, span: span})
}

func (l *TracingListener) AfterStep(ctx context.Context, stepExecution *pipeline.StepExecution) {
	entry, ok := l.take(stepExecution.ID)
	if !ok {
		return
	}
	entry.span.SetAttributes(
		attribute.String("step.status", stepExecution.Status.String()),
		attribute.String("step.exit_status", stepExecution.ExitStatus.String()),
		attribute.Int("step.read_count", stepExecution.ReadCount),
		attribute.Int("step.write_count", stepExecution.WriteCount),
		attribute.Int("step.skip_count", stepExecution.SkipCount),
	)
	for _, err := range stepExecution.Failures {
		entry.span.RecordError(err)
	}
	if stepExecution.Status == pipeline.StatusFailed {
		entry.span.SetStatus(codes.Error, "step failed")
	} else {
		entry.span.SetStatus(codes.Ok, "")
	}
	entry.span.End()
}

func (l *TracingListener) store(key string, entry spanEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.spans[key] = entry
}

func (l *TracingListener) peek(key string) (spanEntry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.spans[key]
	return entry, ok
}

func (l *TracingListener) take(key string) (spanEntry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.spans[key]
	if ok {
		delete(l.spans, key)
	}
	return entry, ok
}

var _ pipeline.ExecutionListener = (*TracingListener)(nil)
var _ pipeline.StepListener = (*TracingListener)(nil)
