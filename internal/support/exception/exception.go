// Package exception provides the error type used throughout the forecast
// pipeline. It standardizes errors raised by the pipeline stages so callers
// can tell skippable (per-item, per-city) failures apart from fatal ones.
package exception

import (
	"errors"
	"fmt"
	"runtime"
)

// PipelineError is the error type raised by pipeline components.
// It carries the module where the error occurred, a concise message, the
// wrapped original error and a flag indicating whether the failure is
// skippable (the step may continue) or fatal for the whole run.
type PipelineError struct {
	// Module indicates the component where the error occurred
	// (e.g. "reader", "aggregator", "forecaster", "render").
	Module string
	// Message is a concise description of the error.
	Message string
	// OriginalErr is the wrapped original error, if any.
	OriginalErr error
	// isSkippable indicates whether the step may continue past this error.
	isSkippable bool
	// StackTrace is the stack captured when the error was created.
	StackTrace string
}

// New creates a new PipelineError.
//
// module: the component where the error occurred.
// message: the error message.
// originalErr: the original error to wrap (may be nil).
// skippable: whether the enclosing step may continue past this error.
func New(module, message string, originalErr error, skippable bool) *PipelineError {
	buf := make([]byte, 2048)
	n := runtime.Stack(buf, false)

	return &PipelineError{
		Module:      module,
		Message:     message,
		OriginalErr: originalErr,
		isSkippable: skippable,
		StackTrace:  string(buf[:n]),
	}
}

// Newf creates a new non-skippable PipelineError with a formatted message.
func Newf(module, format string, a ...interface{}) *PipelineError {
	return New(module, fmt.Sprintf(format, a...), nil, false)
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	if e.OriginalErr != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Module, e.Message, e.OriginalErr)
	}
	return fmt.Sprintf("[%s] %s", e.Module, e.Message)
}

// Unwrap returns the wrapped original error for errors.Is/errors.As.
func (e *PipelineError) Unwrap() error {
	return e.OriginalErr
}

// IsSkippable reports whether the enclosing step may continue past this error.
func (e *PipelineError) IsSkippable() bool {
	return e.isSkippable
}

// IsSkippable reports whether err (or any error in its chain) is a
// PipelineError marked skippable. Non-PipelineError values are never
// skippable.
func IsSkippable(err error) bool {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.isSkippable
	}
	return false
}
