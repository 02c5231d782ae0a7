package pipeline

import (
	"context"

	"github.com/marina21-cs/weteweta.github.io/internal/support/logger"
)

// ExecutionListener is an interface for handling pipeline execution events.
type ExecutionListener interface {
	// BeforePipeline is called just before the pipeline execution starts.
	BeforePipeline(ctx context.Context, execution *PipelineExecution)
	// AfterPipeline is called after the pipeline execution finishes,
	// regardless of outcome.
	AfterPipeline(ctx context.Context, execution *PipelineExecution)
}

// StepListener is an interface for handling step execution events.
type StepListener interface {
	// BeforeStep is called just before a step execution starts.
	BeforeStep(ctx context.Context, stepExecution *StepExecution)
	// AfterStep is called after a step execution finishes, regardless of
	// outcome.
	AfterStep(ctx context.Context, stepExecution *StepExecution)
}

// LoggingListener logs pipeline and step lifecycle events.
type LoggingListener struct{}

// NewLoggingListener creates a new LoggingListener.
func NewLoggingListener() *LoggingListener {
	return &LoggingListener{}
}

func (l *LoggingListener) BeforePipeline(ctx context.Context, execution *PipelineExecution) {
	logger.Infof("Pipeline '%s' starting (ID: %s)", execution.PipelineName, execution.ID)
}

func (l *LoggingListener) AfterPipeline(ctx context.Context, execution *PipelineExecution) {
	logger.Infof("Pipeline '%s' finished: Status=%s, ExitStatus=%s, Duration=%s, Failures=%d",
		execution.PipelineName, execution.Status, execution.ExitStatus, execution.Duration(), len(execution.Failures))
}

func (l *LoggingListener) BeforeStep(ctx context.Context, stepExecution *StepExecution) {
	logger.Infof("Step '%s' starting (ID: %s)", stepExecution.StepName, stepExecution.ID)
}

func (l *LoggingListener) AfterStep(ctx context.Context, stepExecution *StepExecution) {
	logger.Infof("Step '%s' finished: Status=%s, ExitStatus=%s, Read=%d, Write=%d, Skip=%d, Duration=%s",
		stepExecution.StepName, stepExecution.Status, stepExecution.ExitStatus,
		stepExecution.ReadCount, stepExecution.WriteCount, stepExecution.SkipCount, stepExecution.Duration())
}

var _ ExecutionListener = (*LoggingListener)(nil)
var _ StepListener = (*LoggingListener)(nil)
