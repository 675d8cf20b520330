package mockdata

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/hupe1980/swego/blocks"
)

// Params controls mock data generation.
type Params struct {
	// Obs is the number of observations.
	Obs int
	// Feat is the number of features (response columns).
	Feat int
	// Pred is the number of predictors (covariates).
	Pred int
	// MinBlockSize and MaxBlockSize bound the uniformly sampled block
	// sizes, both inclusive.
	MinBlockSize int
	MaxBlockSize int
	// Seed seeds the generator. The same params always produce the same
	// data.
	Seed uint64
}

// DefaultParams returns the canonical benchmark sizing: 8192 observations,
// (333^2-333)/2 features (the edge count of a 333-node connectome), 8
// predictors, block sizes 1 through 8.
func DefaultParams() Params {
	return Params{
		Obs:          8192,
		Feat:         ((333 * 333) - 333) / 2,
		Pred:         8,
		MinBlockSize: 1,
		MaxBlockSize: 8,
		Seed:         1,
	}
}

func (p Params) validate() error {
	if p.Obs < 1 || p.Feat < 1 || p.Pred < 1 {
		return fmt.Errorf("mockdata: dimensions must be positive, got obs=%d feat=%d pred=%d", p.Obs, p.Feat, p.Pred)
	}
	if p.MinBlockSize < 1 || p.MaxBlockSize < p.MinBlockSize {
		return fmt.Errorf("mockdata: invalid block size range [%d, %d]", p.MinBlockSize, p.MaxBlockSize)
	}
	return nil
}

// Data holds one generated input set.
type Data struct {
	// NumBlocks is the number of distinct block ids.
	NumBlocks int
	// BlockIDs assigns each observation a block id in [0, NumBlocks).
	BlockIDs []int
	// PInv is the pred x obs stand-in for the design matrix pseudoinverse.
	PInv *mat.Dense
	// Resid is the obs x feat residual matrix.
	Resid *mat.Dense
}

// Generate produces mock data from params.
func Generate(p Params) (*Data, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(p.Seed))
	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: rng}

	residData := make([]float64, p.Obs*p.Feat)
	for i := range residData {
		residData[i] = normal.Rand()
	}
	pinvData := make([]float64, p.Pred*p.Obs)
	for i := range pinvData {
		pinvData[i] = normal.Rand()
	}

	ids, numBlocks, err := blockIDs(p, rng)
	if err != nil {
		return nil, err
	}

	return &Data{
		NumBlocks: numBlocks,
		BlockIDs:  ids,
		PInv:      mat.NewDense(p.Pred, p.Obs, pinvData),
		Resid:     mat.NewDense(p.Obs, p.Feat, residData),
	}, nil
}

// blockIDs assigns ids run by run with uniform sizes in
// [MinBlockSize, MaxBlockSize]. Observations past the last full block keep
// id 0, so block 0 collects the trailing remainder. The vector is shuffled
// afterwards to make blocks non-contiguous.
func blockIDs(p Params, rng *rand.Rand) ([]int, int, error) {
	ids := make([]int, p.Obs)
	span := p.MaxBlockSize - p.MinBlockSize + 1

	id, start := 0, 0
	for {
		end := start + p.MinBlockSize + rng.Intn(span)
		if end > p.Obs {
			break
		}
		id++
		for r := start; r < end; r++ {
			ids[r] = id
		}
		start = end
	}

	numBlocks := id + 1
	if start == p.Obs {
		// No remainder left for block 0; relabel 1..id down to 0..id-1.
		for r := range ids {
			ids[r]--
		}
		numBlocks = id
	}
	if numBlocks < 2 {
		return nil, 0, fmt.Errorf("mockdata: %d observations with block sizes [%d, %d] yield %d block(s), need at least 2",
			p.Obs, p.MinBlockSize, p.MaxBlockSize, numBlocks)
	}

	rng.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})
	return ids, numBlocks, nil
}

// Obs returns the number of observations.
func (d *Data) Obs() int {
	obs, _ := d.Resid.Dims()
	return obs
}

// Feat returns the number of features.
func (d *Data) Feat() int {
	_, feat := d.Resid.Dims()
	return feat
}

// Pred returns the number of predictors.
func (d *Data) Pred() int {
	pred, _ := d.PInv.Dims()
	return pred
}

// Partition builds the block partition for this data set.
func (d *Data) Partition() (*blocks.Partition, error) {
	return blocks.New(d.BlockIDs, d.NumBlocks)
}
