package engine

import (
	"errors"
	"fmt"
)

// Domain errors for the collision and solve pipeline.
var (
	// ErrInvalidConfig indicates nonsensical configuration, rejected
	// before any step runs.
	ErrInvalidConfig = errors.New("engine: invalid configuration")

	// ErrCapacityExceeded indicates a preallocated buffer (candidate
	// pairs or contacts) was too small for the scene. The step produced
	// no results; the caller must enlarge the capacity and retry.
	ErrCapacityExceeded = errors.New("engine: buffer capacity exceeded")
)

// StepError wraps an error with the step it occurred in.
type StepError struct {
	Step    int
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d: %v", e.Step, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
