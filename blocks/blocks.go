package blocks

// Partition maps every block id in [0, NumBlocks) to the ascending list of
// observation rows assigned to it. It is immutable after construction and
// safe for concurrent reads.
type Partition struct {
	numBlocks int
	obs       int

	// rows holds the row indices of all blocks back to back in one backing
	// slice; offsets[b]:offsets[b+1] delimits block b.
	rows    []int
	offsets []int
}

// New builds a Partition from an assignment of length obs where each entry
// is a block id in [0, numBlocks).
//
// Returns *ErrInvalidBlockID if any assignment value falls outside
// [0, numBlocks), and *ErrDegenerateBlocking if numBlocks < 2 or any block
// has no observations.
func New(assignment []int, numBlocks int) (*Partition, error) {
	if numBlocks < 2 {
		return nil, &ErrDegenerateBlocking{NumBlocks: numBlocks, EmptyBlock: -1}
	}

	counts := make([]int, numBlocks)
	for r, id := range assignment {
		if id < 0 || id >= numBlocks {
			return nil, &ErrInvalidBlockID{Row: r, ID: id, NumBlocks: numBlocks}
		}
		counts[id]++
	}
	for b, n := range counts {
		if n == 0 {
			return nil, &ErrDegenerateBlocking{NumBlocks: numBlocks, EmptyBlock: b}
		}
	}

	offsets := make([]int, numBlocks+1)
	for b, n := range counts {
		offsets[b+1] = offsets[b] + n
	}

	// Second pass places rows in ascending order within each block because
	// the assignment is scanned front to back.
	rows := make([]int, len(assignment))
	cursor := make([]int, numBlocks)
	copy(cursor, offsets[:numBlocks])
	for r, id := range assignment {
		rows[cursor[id]] = r
		cursor[id]++
	}

	return &Partition{
		numBlocks: numBlocks,
		obs:       len(assignment),
		rows:      rows,
		offsets:   offsets,
	}, nil
}

// NumBlocks returns the number of blocks.
func (p *Partition) NumBlocks() int { return p.numBlocks }

// Obs returns the number of observations the partition was built from.
func (p *Partition) Obs() int { return p.obs }

// Rows returns the observation rows of block b in ascending order.
// The returned slice aliases the partition's backing array and must not be
// modified.
func (p *Partition) Rows(b int) []int {
	return p.rows[p.offsets[b]:p.offsets[b+1]]
}

// Size returns the number of observations in block b.
func (p *Partition) Size(b int) int {
	return p.offsets[b+1] - p.offsets[b]
}
