package nn

import (
	"errors"
	"fmt"
)

// Usage errors. None of them is retried: they signal wiring mistakes in the
// caller and are returned as soon as they are detected.
var (
	ErrNotInitialized     = errors.New("weight is not initialized")
	ErrAlreadyInitialized = errors.New("weight is already initialized")
	ErrUnbound            = errors.New("weight has no update algorithm bound")
	ErrShapeMismatch      = errors.New("shape mismatch")
	ErrInvalidBatchSize   = errors.New("batch size must be positive")
	ErrInvalidThreshold   = errors.New("clipping threshold must be positive and finite")
	ErrInvalidRange       = errors.New("invalid initialization range")
	ErrUnknownActivation  = errors.New("unknown activation")
)

// ShapeError describes a rejected operand.
type ShapeError struct {
	Op       string // Operation that rejected the operand (e.g., "AccumulateGradient")
	Name     string // Weight or layer name
	Expected [2]int
	Got      [2]int
}

// Error implements the error interface.
func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s %q: expected %dx%d, got %dx%d",
		e.Op, e.Name, e.Expected[0], e.Expected[1], e.Got[0], e.Got[1])
}

// Unwrap lets errors.Is match ErrShapeMismatch.
func (e *ShapeError) Unwrap() error {
	return ErrShapeMismatch
}
