package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marina21-cs/weteweta.github.io/internal/support/exception"
)

type fakeTasklet struct {
	name     string
	err      error
	executed bool
	closed   bool
}

func (f *fakeTasklet) Name() string { return f.name }

func (f *fakeTasklet) Execute(ctx context.Context, se *StepExecution) (ExitStatus, error) {
	f.executed = true
	if f.err != nil {
		return ExitStatusFailed, f.err
	}
	return ExitStatusCompleted, nil
}

func (f *fakeTasklet) Close(ctx context.Context) error {
	f.closed = true
	return nil
}

func TestRunner_AllStepsSucceed(t *testing.T) {
	first := &fakeTasklet{name: "first"}
	second := &fakeTasklet{name: "second"}
	runner := NewRunner("test-pipeline", []Tasklet{first, second}, nil, nil)

	execution, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, execution.Status)
	assert.Equal(t, ExitStatusCompleted, execution.ExitStatus)
	assert.True(t, first.executed)
	assert.True(t, second.executed)
	assert.True(t, first.closed)
	assert.Len(t, execution.StepExecutions, 2)
	for _, se := range execution.StepExecutions {
		assert.Equal(t, StatusCompleted, se.Status)
	}
}

func TestRunner_FatalErrorAbortsRemainingSteps(t *testing.T) {
	first := &fakeTasklet{name: "first", err: errors.New("boom")}
	second := &fakeTasklet{name: "second"}
	runner := NewRunner("test-pipeline", []Tasklet{first, second}, nil, nil)

	execution, err := runner.Run(context.Background())
	require.Error(t, err)

	assert.Equal(t, StatusFailed, execution.Status)
	assert.True(t, first.executed)
	assert.False(t, second.executed, "step after a fatal failure must not run")
	assert.Len(t, execution.StepExecutions, 1)
	assert.Equal(t, StatusFailed, execution.StepExecutions[0].Status)
}

func TestRunner_SkippableErrorContinues(t *testing.T) {
	skippable := exception.New("render", "contour rendering failed", errors.New("grid too sparse"), true)
	first := &fakeTasklet{name: "first", err: skippable}
	second := &fakeTasklet{name: "second"}
	runner := NewRunner("test-pipeline", []Tasklet{first, second}, nil, nil)

	execution, err := runner.Run(context.Background())
	require.Error(t, err, "skippable failures still surface in the aggregate error")

	assert.Equal(t, StatusCompleted, execution.Status, "skippable failures do not fail the pipeline")
	assert.True(t, second.executed)
	assert.Len(t, execution.Failures, 1)
}

func TestRunner_ContextCancellationStopsPipeline(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	first := &fakeTasklet{name: "first"}
	runner := NewRunner("test-pipeline", []Tasklet{first}, nil, nil)

	execution, err := runner.Run(ctx)
	require.Error(t, err)

	assert.Equal(t, StatusFailed, execution.Status)
	assert.False(t, first.executed)
}

func TestExecutionContext_SharedAcrossSteps(t *testing.T) {
	execution := NewPipelineExecution("test-pipeline")
	first := NewStepExecution("first", execution)
	second := NewStepExecution("second", execution)

	first.Context().Put("model", "handle")
	v, ok := second.Context().Get("model")
	require.True(t, ok)
	assert.Equal(t, "handle", v)
}
