package pipeline

import (
	"context"

	"github.com/hashicorp/go-multierror"

	"github.com/marina21-cs/weteweta.github.io/internal/support/exception"
	"github.com/marina21-cs/weteweta.github.io/internal/support/logger"
)

const moduleName = "pipeline"

// Runner executes tasklets sequentially and fans execution events out to
// the registered listeners.
//
// A step that fails with a skippable error is recorded and the run moves on
// to the next step. A step that fails with any other error aborts the run;
// the remaining steps are not executed and the pipeline is marked FAILED.
type Runner struct {
	pipelineName       string
	tasklets           []Tasklet
	executionListeners []ExecutionListener
	stepListeners      []StepListener
}

// NewRunner creates a new Runner for the given tasklets, in order.
func NewRunner(
	pipelineName string,
	tasklets []Tasklet,
	executionListeners []ExecutionListener,
	stepListeners []StepListener,
) *Runner {
	return &Runner{
		pipelineName:       pipelineName,
		tasklets:           tasklets,
		executionListeners: executionListeners,
		stepListeners:      stepListeners,
	}
}

// Run executes the pipeline once. The returned PipelineExecution is always
// non-nil and carries the per-step outcomes; the error aggregates every
// failure that occurred, skippable ones included.
func (r *Runner) Run(ctx context.Context) (*PipelineExecution, error) {
	execution := NewPipelineExecution(r.pipelineName)
	r.notifyBeforePipeline(ctx, execution)
	execution.MarkAsStarted()

	var result *multierror.Error
	aborted := false

	for _, tasklet := range r.tasklets {
		if err := ctx.Err(); err != nil {
			abortErr := exception.New(moduleName, "pipeline canceled", err, false)
			execution.AddFailureException(abortErr)
			result = multierror.Append(result, abortErr)
			aborted = true
			break
		}

		stepErr := r.runStep(ctx, tasklet, execution)
		if stepErr == nil {
			continue
		}
		execution.AddFailureException(stepErr)
		result = multierror.Append(result, stepErr)

		if exception.IsSkippable(stepErr) {
			logger.Warnf("Step '%s' failed with a skippable error, continuing: %v", tasklet.Name(), stepErr)
			continue
		}
		logger.Errorf("Step '%s' failed, aborting pipeline: %v", tasklet.Name(), stepErr)
		aborted = true
		break
	}

	if aborted {
		execution.MarkAsFailed()
	} else {
		execution.MarkAsCompleted()
	}
	r.notifyAfterPipeline(ctx, execution)

	return execution, result.ErrorOrNil()
}

// runStep executes a single tasklet inside its own StepExecution.
func (r *Runner) runStep(ctx context.Context, tasklet Tasklet, execution *PipelineExecution) error {
	stepExecution := NewStepExecution(tasklet.Name(), execution)
	r.notifyBeforeStep(ctx, stepExecution)
	stepExecution.MarkAsStarted()

	exitStatus, err := tasklet.Execute(ctx, stepExecution)
	if closeErr := tasklet.Close(ctx); closeErr != nil {
		logger.Warnf("Step '%s' close failed: %v", tasklet.Name(), closeErr)
	}

	if err != nil {
		stepExecution.MarkAsFailed(err)
		r.notifyAfterStep(ctx, stepExecution)
		return err
	}

	stepExecution.MarkAsCompleted(exitStatus)
	r.notifyAfterStep(ctx, stepExecution)
	return nil
}

func (r *Runner) notifyBeforePipeline(ctx context.Context, execution *PipelineExecution) {
	for _, l := range r.executionListeners {
		l.BeforePipeline(ctx, execution)
	}
}

func (r *Runner) notifyAfterPipeline(ctx context.Context, execution *PipelineExecution) {
	for _, l := range r.executionListeners {
		l.AfterPipeline(ctx, execution)
	}
}

func (r *Runner) notifyBeforeStep(ctx context.Context, stepExecution *StepExecution) {
	for _, l := range r.stepListeners {
		l.BeforeStep(ctx, stepExecution)
	}
}

func (r *Runner) notifyAfterStep(ctx context.Context, stepExecution *StepExecution) {
	for _, l := range r.stepListeners {
		l.AfterStep(ctx, stepExecution)
	}
}
