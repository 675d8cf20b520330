package swego_test

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/swego"
	"github.com/hupe1980/swego/blocks"
	"github.com/hupe1980/swego/model"
)

func randDense(rows, cols int, rng *rand.Rand) *mat.Dense {
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = rng.NormFloat64()
	}
	return mat.NewDense(rows, cols, data)
}

func randAssignment(obs, numBlocks int, rng *rand.Rand) []int {
	ids := make([]int, obs)
	for b := 0; b < numBlocks; b++ {
		ids[b] = b
	}
	for r := numBlocks; r < obs; r++ {
		ids[r] = rng.Intn(numBlocks)
	}
	rng.Shuffle(obs, func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	return ids
}

func TestComputeCovariance_HandComputed(t *testing.T) {
	ctx := context.Background()

	// pred=2, obs=4, feat=1, two blocks of size 2:
	//   H(0) = P[:,{0,1}]·E[{0,1},0] = (1, 2)
	//   H(1) = P[:,{2,3}]·E[{2,3},0] = (3, 4)
	//   Sigma = [1 2; 2 4] + [9 12; 12 16] = [10 14; 14 20]
	pinv := mat.NewDense(2, 4, []float64{
		1, 0, 1, 0,
		0, 1, 0, 1,
	})
	resid := mat.NewDense(4, 1, []float64{1, 2, 3, 4})

	cov, err := swego.ComputeCovariance(ctx, pinv, resid, []int{0, 0, 1, 1}, 2)
	require.NoError(t, err)

	pred, feat := cov.Dims()
	require.Equal(t, 2, pred)
	require.Equal(t, 1, feat)

	want := [][]float64{{10, 14}, {14, 20}}
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			assert.InDelta(t, want[i][j], cov.At(i, j, 0), 1e-12)
		}
	}
}

func TestComputeCovariance_SlicesSymmetric(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(1))

	const (
		pred      = 4
		obs       = 80
		feat      = 9
		numBlocks = 13
	)
	pinv := randDense(pred, obs, rng)
	resid := randDense(obs, feat, rng)
	assignment := randAssignment(obs, numBlocks, rng)

	cov, err := swego.ComputeCovariance(ctx, pinv, resid, assignment, numBlocks)
	require.NoError(t, err)

	for f := 0; f < feat; f++ {
		for i := 0; i < pred; i++ {
			for j := i + 1; j < pred; j++ {
				assert.InDelta(t, cov.At(i, j, f), cov.At(j, i, f), 1e-12)
			}
		}
	}
}

func TestComputeCovariance_SlicesPositiveSemiDefinite(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(2))

	const (
		pred      = 3
		obs       = 60
		feat      = 6
		numBlocks = 10
	)
	pinv := randDense(pred, obs, rng)
	resid := randDense(obs, feat, rng)
	assignment := randAssignment(obs, numBlocks, rng)

	cov, err := swego.ComputeCovariance(ctx, pinv, resid, assignment, numBlocks)
	require.NoError(t, err)

	for f := 0; f < feat; f++ {
		var eig mat.EigenSym
		require.True(t, eig.Factorize(cov.Slice(f), false))
		for _, v := range eig.Values(nil) {
			assert.GreaterOrEqual(t, v, -1e-8, "feature %d", f)
		}
	}
}

func TestComputeCovariance_PermutationInvariant(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(3))

	const (
		pred      = 3
		obs       = 48
		feat      = 5
		numBlocks = 7
	)
	pinv := randDense(pred, obs, rng)
	resid := randDense(obs, feat, rng)
	assignment := randAssignment(obs, numBlocks, rng)

	cov, err := swego.ComputeCovariance(ctx, pinv, resid, assignment, numBlocks)
	require.NoError(t, err)

	// Relabel observation order with a random permutation, applied
	// consistently to pinv columns, resid rows and the assignment.
	perm := rng.Perm(obs)
	permPinv := mat.NewDense(pred, obs, nil)
	permResid := mat.NewDense(obs, feat, nil)
	permAssignment := make([]int, obs)
	for k, r := range perm {
		for i := 0; i < pred; i++ {
			permPinv.Set(i, k, pinv.At(i, r))
		}
		for j := 0; j < feat; j++ {
			permResid.Set(k, j, resid.At(r, j))
		}
		permAssignment[k] = assignment[r]
	}

	permCov, err := swego.ComputeCovariance(ctx, permPinv, permResid, permAssignment, numBlocks)
	require.NoError(t, err)

	for k, v := range cov.RawData() {
		assert.InDelta(t, v, permCov.RawData()[k], 1e-9)
	}
}

func TestComputeCovariance_MergingTwinBlocks(t *testing.T) {
	ctx := context.Background()

	// Blocks A={0,1} and B={2,3} are twins: identical pseudoinverse
	// columns and residual rows, so both contribute the same half-sandwich
	// h = (3, 1). Block C={4,5} contributes (3, 5).
	pinv := mat.NewDense(2, 6, []float64{
		1, 2, 1, 2, 0, 1,
		0, 1, 0, 1, 1, 1,
	})
	resid := mat.NewDense(6, 1, []float64{1, 1, 1, 1, 2, 3})

	split, err := swego.ComputeCovariance(ctx, pinv, resid, []int{0, 0, 1, 1, 2, 2}, 3)
	require.NoError(t, err)

	merged, err := swego.ComputeCovariance(ctx, pinv, resid, []int{0, 0, 0, 0, 1, 1}, 2)
	require.NoError(t, err)

	// Merging the twins turns h·h^T + h·h^T into (2h)(2h)^T, adding
	// exactly 2·h·h^T to the split result.
	h := []float64{3, 1}
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			want := split.At(i, j, 0) + 2*h[i]*h[j]
			assert.InDelta(t, want, merged.At(i, j, 0), 1e-12)
		}
	}
}

func TestComputeCovariance_EveryObservationItsOwnBlock(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(4))

	const (
		pred = 3
		obs  = 20
		feat = 4
	)
	pinv := randDense(pred, obs, rng)
	resid := randDense(obs, feat, rng)
	assignment := make([]int, obs)
	for r := range assignment {
		assignment[r] = r
	}

	cov, err := swego.ComputeCovariance(ctx, pinv, resid, assignment, obs)
	require.NoError(t, err)

	// With every observation its own block the estimator reduces to the
	// unclustered form P·diag(e_f^2)·P^T per feature.
	for f := 0; f < feat; f++ {
		diag := mat.NewDiagDense(obs, nil)
		for r := 0; r < obs; r++ {
			e := resid.At(r, f)
			diag.SetDiag(r, e*e)
		}
		var tmp, want mat.Dense
		tmp.Mul(pinv, diag)
		want.Mul(&tmp, pinv.T())

		for i := 0; i < pred; i++ {
			for j := 0; j < pred; j++ {
				assert.InDelta(t, want.At(i, j), cov.At(i, j, f), 1e-9)
			}
		}
	}
}

func TestComputeCovariance_ParallelMatchesSerial(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(5))

	const (
		pred      = 4
		obs       = 100
		feat      = 23
		numBlocks = 17
	)
	pinv := randDense(pred, obs, rng)
	resid := randDense(obs, feat, rng)
	assignment := randAssignment(obs, numBlocks, rng)

	serial, err := swego.ComputeCovariance(ctx, pinv, resid, assignment, numBlocks,
		swego.WithInnerThreads(1))
	require.NoError(t, err)

	for _, blockParallel := range []bool{false, true} {
		parallel, err := swego.ComputeCovariance(ctx, pinv, resid, assignment, numBlocks,
			swego.WithInnerThreads(8),
			swego.WithBlockParallel(blockParallel),
		)
		require.NoError(t, err)
		for k, v := range serial.RawData() {
			assert.InDelta(t, v, parallel.RawData()[k], 1e-9, "blockParallel=%v", blockParallel)
		}
	}
}

func TestComputeCovariance_WithPartition(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(6))

	const (
		pred      = 2
		obs       = 30
		feat      = 3
		numBlocks = 5
	)
	pinv := randDense(pred, obs, rng)
	resid := randDense(obs, feat, rng)
	assignment := randAssignment(obs, numBlocks, rng)

	part, err := blocks.New(assignment, numBlocks)
	require.NoError(t, err)

	fromAssignment, err := swego.ComputeCovariance(ctx, pinv, resid, assignment, numBlocks)
	require.NoError(t, err)

	// Same partition reused across two calls, assignment ignored.
	var reused *model.CovarianceTensor
	for rep := 0; rep < 2; rep++ {
		reused, err = swego.ComputeCovariance(ctx, pinv, resid, nil, 0, swego.WithPartition(part))
		require.NoError(t, err)
	}

	for k, v := range fromAssignment.RawData() {
		assert.InDelta(t, v, reused.RawData()[k], 1e-12)
	}
}

func TestComputeCovariance_ShapeMismatch(t *testing.T) {
	ctx := context.Background()
	pinv := mat.NewDense(2, 4, nil)
	resid := mat.NewDense(5, 2, nil)

	_, err := swego.ComputeCovariance(ctx, pinv, resid, []int{0, 0, 1, 1, 1}, 2)
	var sm *swego.ErrShapeMismatch
	require.ErrorAs(t, err, &sm)
	assert.Equal(t, 4, sm.Want)
	assert.Equal(t, 5, sm.Got)
}

func TestComputeCovariance_AssignmentLengthMismatch(t *testing.T) {
	ctx := context.Background()
	pinv := mat.NewDense(2, 4, nil)
	resid := mat.NewDense(4, 2, nil)

	_, err := swego.ComputeCovariance(ctx, pinv, resid, []int{0, 1}, 2)
	var sm *swego.ErrShapeMismatch
	require.ErrorAs(t, err, &sm)
}

func TestComputeCovariance_PartitionObsMismatch(t *testing.T) {
	ctx := context.Background()
	part, err := blocks.New([]int{0, 1, 0}, 2)
	require.NoError(t, err)

	pinv := mat.NewDense(2, 4, nil)
	resid := mat.NewDense(4, 2, nil)

	_, err = swego.ComputeCovariance(ctx, pinv, resid, nil, 0, swego.WithPartition(part))
	var sm *swego.ErrShapeMismatch
	require.ErrorAs(t, err, &sm)
}

func TestComputeCovariance_EmptyFeatureSet(t *testing.T) {
	ctx := context.Background()
	pinv := mat.NewDense(2, 4, nil)

	_, err := swego.ComputeCovariance(ctx, pinv, &mat.Dense{}, []int{0, 0, 1, 1}, 2)
	assert.ErrorIs(t, err, swego.ErrEmptyFeatureSet)
}

func TestComputeCovariance_InvalidBlocking(t *testing.T) {
	ctx := context.Background()
	pinv := mat.NewDense(2, 4, nil)
	resid := mat.NewDense(4, 2, nil)

	// Single block degenerates the estimator.
	_, err := swego.ComputeCovariance(ctx, pinv, resid, []int{0, 0, 0, 0}, 1)
	var db *blocks.ErrDegenerateBlocking
	require.ErrorAs(t, err, &db)

	// Block id out of range.
	_, err = swego.ComputeCovariance(ctx, pinv, resid, []int{0, 1, 2, 0}, 2)
	var ib *blocks.ErrInvalidBlockID
	require.ErrorAs(t, err, &ib)
	assert.Equal(t, 2, ib.ID)
}

func TestComputeCovariance_Cancelled(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	pinv := randDense(2, 40, rng)
	resid := randDense(40, 50, rng)
	assignment := randAssignment(40, 8, rng)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cov, err := swego.ComputeCovariance(ctx, pinv, resid, assignment, 8)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, cov)
}
