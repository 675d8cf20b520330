package swego

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyFeatureSet is returned when the residual matrix has no
	// feature columns. There is nothing to estimate.
	ErrEmptyFeatureSet = errors.New("residual matrix has no feature columns")
)

// ErrShapeMismatch indicates a dimension incompatibility between the
// pseudoinverse, the residual matrix and the block assignment. It is always
// fatal to the call and is detected before any work is scheduled.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrShapeMismatch struct {
	What  string // the dimension that disagrees, e.g. "observations"
	Want  int
	Got   int
	cause error
}

func (e *ErrShapeMismatch) Error() string {
	return fmt.Sprintf("shape mismatch: %s: want %d, got %d", e.What, e.Want, e.Got)
}

func (e *ErrShapeMismatch) Unwrap() error { return e.cause }

// translateError normalizes errors from subsystems into the package's
// taxonomy. Partition errors (blocks.ErrInvalidBlockID,
// blocks.ErrDegenerateBlocking) pass through unchanged so callers can match
// them with errors.As.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("compute covariance: %w", err)
}
