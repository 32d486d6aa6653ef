package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrSelfPair indicates a body was paired with itself.
	ErrSelfPair = errors.New("dynamo: body paired with itself")

	// ErrNilBody indicates a nil body was passed where one is required.
	ErrNilBody = errors.New("dynamo: nil body")

	// ErrInvalidScale indicates a non-positive or non-finite sphere scale.
	ErrInvalidScale = errors.New("dynamo: scale must be positive and finite")

	// ErrInvalidBounds indicates a box whose lower corner is not below its upper corner.
	ErrInvalidBounds = errors.New("dynamo: lower bounds must be below upper bounds")

	// ErrInvalidStep indicates a non-positive or non-finite timestep.
	ErrInvalidStep = errors.New("dynamo: timestep must be positive and finite")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")
)

// StepError wraps an error with the frame and the bodies involved.
type StepError struct {
	Frame   int
	A, B    uint64
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("frame %d (bodies %d,%d): %v", e.Frame, e.A, e.B, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
