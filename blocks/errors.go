package blocks

import "fmt"

// ErrInvalidBlockID indicates an assignment value outside [0, NumBlocks).
type ErrInvalidBlockID struct {
	Row       int // observation row carrying the bad id
	ID        int
	NumBlocks int
}

func (e *ErrInvalidBlockID) Error() string {
	return fmt.Sprintf("invalid block id %d at row %d: must be in [0, %d)", e.ID, e.Row, e.NumBlocks)
}

// ErrDegenerateBlocking indicates a blocking that degenerates the sandwich
// estimator: fewer than two blocks, or a block with no observations.
type ErrDegenerateBlocking struct {
	NumBlocks  int
	EmptyBlock int // id of an empty block, or -1 when NumBlocks < 2
}

func (e *ErrDegenerateBlocking) Error() string {
	if e.EmptyBlock >= 0 {
		return fmt.Sprintf("degenerate blocking: block %d has no observations", e.EmptyBlock)
	}
	return fmt.Sprintf("degenerate blocking: need at least 2 blocks, got %d", e.NumBlocks)
}
