// Package pipeline provides the execution model and sequential runner for
// the forecast pipeline. A pipeline is an ordered list of tasklets; each
// tasklet performs one stage (ingest, train, forecast, export, ...) and
// reports its outcome through a StepExecution.
package pipeline

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the state of a pipeline or step execution.
type Status string

const (
	StatusStarting  Status = "STARTING"
	StatusStarted   Status = "STARTED"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusUnknown   Status = "UNKNOWN"
)

// String returns the string representation of the Status.
func (s Status) String() string {
	return string(s)
}

// IsFinished checks if the Status represents a finished state.
func (s Status) IsFinished() bool {
	switch s {
	case StatusCompleted, StatusFailed:
		return true
	default:
		return false
	}
}

// ExitStatus represents the detailed status upon pipeline/step completion.
type ExitStatus string

const (
	ExitStatusUnknown   ExitStatus = "UNKNOWN"
	ExitStatusCompleted ExitStatus = "COMPLETED"
	ExitStatusFailed    ExitStatus = "FAILED"
	ExitStatusNoOp      ExitStatus = "NO_OP"
)

// String returns the ExitStatus as a string.
func (s ExitStatus) String() string {
	return string(s)
}

// ExecutionContext is a key-value store for passing state between steps of
// the same pipeline execution (e.g., the trained model handle, the forecast
// trajectories).
type ExecutionContext map[string]interface{}

// Put stores a value under the given key.
func (ec ExecutionContext) Put(key string, value interface{}) {
	ec[key] = value
}

// Get retrieves a value by key. ok is false when the key is absent.
func (ec ExecutionContext) Get(key string) (interface{}, bool) {
	v, ok := ec[key]
	return v, ok
}

// PipelineExecution tracks one run of the whole pipeline.
type PipelineExecution struct {
	ID               string
	PipelineName     string
	StartTime        time.Time
	EndTime          time.Time
	Status           Status
	ExitStatus       ExitStatus
	Failures         []error
	ExecutionContext ExecutionContext
	StepExecutions   []*StepExecution
}

// NewPipelineExecution creates a new PipelineExecution in the STARTING state.
func NewPipelineExecution(pipelineName string) *PipelineExecution {
	return &PipelineExecution{
		ID:               uuid.New().String(),
		PipelineName:     pipelineName,
		StartTime:        time.Now(),
		Status:           StatusStarting,
		ExitStatus:       ExitStatusUnknown,
		ExecutionContext: make(ExecutionContext),
	}
}

// MarkAsStarted transitions the execution to the STARTED state.
func (e *PipelineExecution) MarkAsStarted() {
	e.Status = StatusStarted
}

// MarkAsCompleted transitions the execution to the COMPLETED state.
func (e *PipelineExecution) MarkAsCompleted() {
	e.Status = StatusCompleted
	e.ExitStatus = ExitStatusCompleted
	e.EndTime = time.Now()
}

// MarkAsFailed transitions the execution to the FAILED state and records
// the given errors.
func (e *PipelineExecution) MarkAsFailed(errs ...error) {
	e.Status = StatusFailed
	e.ExitStatus = ExitStatusFailed
	e.EndTime = time.Now()
	for _, err := range errs {
		if err != nil {
			e.Failures = append(e.Failures, err)
		}
	}
}

// AddFailureException records an error without changing the status.
func (e *PipelineExecution) AddFailureException(err error) {
	if err != nil {
		e.Failures = append(e.Failures, err)
	}
}

// Duration returns the wall-clock duration of the execution.
func (e *PipelineExecution) Duration() time.Duration {
	if e.EndTime.IsZero() {
		return time.Since(e.StartTime)
	}
	return e.EndTime.Sub(e.StartTime)
}

// StepExecution tracks one step of a pipeline execution.
type StepExecution struct {
	ID                string
	StepName          string
	PipelineExecution *PipelineExecution
	StartTime         time.Time
	EndTime           time.Time
	Status            Status
	ExitStatus        ExitStatus
	ReadCount         int
	WriteCount        int
	FilterCount       int
	SkipCount         int
	Failures          []error
}

// NewStepExecution creates a new StepExecution attached to the given
// pipeline execution.
func NewStepExecution(stepName string, pipelineExecution *PipelineExecution) *StepExecution {
	se := &StepExecution{
		ID:                uuid.New().String(),
		StepName:          stepName,
		PipelineExecution: pipelineExecution,
		Status:            StatusStarting,
		ExitStatus:        ExitStatusUnknown,
	}
	pipelineExecution.StepExecutions = append(pipelineExecution.StepExecutions, se)
	return se
}

// Context returns the ExecutionContext shared across the pipeline execution.
func (se *StepExecution) Context() ExecutionContext {
	return se.PipelineExecution.ExecutionContext
}

// MarkAsStarted transitions the step to the STARTED state.
func (se *StepExecution) MarkAsStarted() {
	se.Status = StatusStarted
	se.StartTime = time.Now()
}

// MarkAsCompleted finishes the step with the given exit status.
func (se *StepExecution) MarkAsCompleted(exitStatus ExitStatus) {
	se.Status = StatusCompleted
	se.ExitStatus = exitStatus
	se.EndTime = time.Now()
}

// MarkAsFailed finishes the step in the FAILED state and records the error.
func (se *StepExecution) MarkAsFailed(err error) {
	se.Status = StatusFailed
	se.ExitStatus = ExitStatusFailed
	se.EndTime = time.Now()
	if err != nil {
		se.Failures = append(se.Failures, err)
	}
}

// Duration returns the wall-clock duration of the step.
func (se *StepExecution) Duration() time.Duration {
	if se.EndTime.IsZero() {
		return time.Since(se.StartTime)
	}
	return se.EndTime.Sub(se.StartTime)
}
