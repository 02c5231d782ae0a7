package pipeline

import "context"

// Tasklet is the interface for a step that performs a single pipeline stage.
type Tasklet interface {
	// Name returns the step name used in logs, metrics and spans.
	Name() string
	// Execute executes the business logic of the tasklet.
	// stepExecution: The current StepExecution.
	// Returns: An ExitStatus such as ExitStatusCompleted upon success.
	Execute(ctx context.Context, stepExecution *StepExecution) (ExitStatus, error)
	// Close releases resources held by the tasklet.
	Close(ctx context.Context) error
}
