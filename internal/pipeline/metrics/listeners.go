package metrics

import (
	"context"

	"github.com/marina21-cs/weteweta.github.io/internal/pipeline"
)

// MetricsExecutionListener forwards pipeline lifecycle events to a Recorder.
type MetricsExecutionListener struct {
	recorder Recorder
}

// NewMetricsExecutionListener creates a new MetricsExecutionListener.
func NewMetricsExecutionListener(recorder Recorder) *MetricsExecutionListener {
	return &MetricsExecutionListener{recorder: recorder}
}

func (l *MetricsExecutionListener) BeforePipeline(ctx context.Context, execution *pipeline.PipelineExecution) {
	l.recorder.RecordPipelineStart(ctx, execution)
}

func (l *MetricsExecutionListener) AfterPipeline(ctx context.Context, execution *pipeline.PipelineExecution) {
	l.recorder.RecordPipelineEnd(ctx, execution)
}

var _ pipeline.ExecutionListener = (*MetricsExecutionListener)(nil)

// MetricsStepListener forwards step lifecycle events to a Recorder.
type MetricsStepListener struct {
	recorder Recorder
}

// NewMetricsStepListener creates a new MetricsStepListener.
func NewMetricsStepListener(recorder Recorder) *MetricsStepListener {
	return &MetricsStepListener{recorder: recorder}
}

func (l *MetricsStepListener) BeforeStep(ctx context.Context, stepExecution *pipeline.StepExecution) {
	l.recorder.RecordStepStart(ctx, stepExecution)
}

func (l *MetricsStepListener) AfterStep(ctx context.Context, stepExecution *pipeline.StepExecution) {
	l.recorder.RecordStepEnd(ctx, stepExecution)
}

var _ pipeline.StepListener = (*MetricsStepListener)(nil)
