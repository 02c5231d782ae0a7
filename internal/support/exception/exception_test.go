package exception

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPipelineError_Error(t *testing.T) {
	cause := errors.New("disk full")
	err := New("writer", "failed to persist daily records", cause, false)

	assert.Contains(t, err.Error(), "writer")
	assert.Contains(t, err.Error(), "failed to persist daily records")
	assert.Contains(t, err.Error(), "disk full")
}

func TestPipelineError_Unwrap(t *testing.T) {
	cause := errors.New("row 17 malformed")
	err := New("reader", "failed to parse observation", cause, true)

	assert.ErrorIs(t, err, cause)

	wrapped := fmt.Errorf("ingest step: %w", err)
	var pe *PipelineError
	assert.ErrorAs(t, wrapped, &pe)
	assert.Equal(t, "reader", pe.Module)
}

func TestIsSkippable(t *testing.T) {
	skippable := New("forecaster", "prediction failed for one day", nil, true)
	fatal := New("aggregator", "no sequences created", nil, false)

	assert.True(t, IsSkippable(skippable))
	assert.False(t, IsSkippable(fatal))
	assert.False(t, IsSkippable(errors.New("plain error")))

	// The flag survives wrapping.
	assert.True(t, IsSkippable(fmt.Errorf("step: %w", skippable)))
}

func TestPipelineError_StackCaptured(t *testing.T) {
	err := New("render", "contour interpolation failed", nil, true)
	assert.NotEmpty(t, err.StackTrace)
}
