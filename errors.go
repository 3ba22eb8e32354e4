package sampler

import (
	"errors"
	"fmt"
)

//////
// Error taxonomy.
//////

// Sentinel errors for the sampler package.
// Use errors.Is to check: errors.Is(err, sampler.ErrNotTrained)
var (
	// ErrNotTrained is returned when prediction or hyperparameter access is
	// requested before any training occurred.
	ErrNotTrained = errors.New("sampler: model is not trained yet")

	// ErrIndexOutOfRange is returned by buffer row access outside [0, Len).
	ErrIndexOutOfRange = errors.New("sampler: row index out of range")
)

// UnknownJobError indicates that a job id is not currently pending. It covers
// both ids that were never issued and ids that have already been resolved:
// a job id is consumed exactly once.
type UnknownJobError struct {
	// ID is the offending job id.
	ID string
}

func (e *UnknownJobError) Error() string {
	return fmt.Sprintf("sampler: job %q is not pending", e.ID)
}

// ShapeError indicates a row-width mismatch in a buffer, or a target value
// with unexpected dimensionality.
type ShapeError struct {
	// Want is the expected width.
	Want int

	// Got is the width that was provided.
	Got int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("sampler: shape mismatch: want width %d, got %d", e.Want, e.Got)
}

// PreconditionError indicates that an operation was invoked outside its valid
// domain, for example a grid sample index beyond the bootstrap range.
type PreconditionError struct {
	// Reason describes the violated precondition.
	Reason string
}

func (e *PreconditionError) Error() string {
	return "sampler: precondition violated: " + e.Reason
}
