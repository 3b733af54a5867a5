package chess

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSquare indicates a malformed square label. It is a caller bug
	// and is never reported as an Illegal outcome.
	ErrInvalidSquare = errors.New("invalid square")

	// ErrInvariantViolation indicates a position that breaks the registry
	// invariants, such as a missing king or two pieces on one square.
	ErrInvariantViolation = errors.New("engine invariant violation")
)

// InvariantError describes why a restored position was refused.
type InvariantError struct {
	Reason string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvariantViolation, e.Reason)
}

func (e *InvariantError) Unwrap() error {
	return ErrInvariantViolation
}

func invariantf(format string, args ...interface{}) error {
	return &InvariantError{Reason: fmt.Sprintf(format, args...)}
}
