// Package kernel implements the half-sandwich reduction at the heart of the
// sandwich covariance estimator.
//
// For every feature f the kernel accumulates, over blocks b,
//
//	out[:,:,f] += H(b,f) * H(b,f)^T
//	H(b,f)      = pinv[:, rows(b)] * resid[rows(b), f]
//
// Summation over blocks is commutative and associative, so contributions
// from independent blocks may be combined in any order; results across
// schedules agree only up to floating-point rounding.
package kernel

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/swego/blocks"
	"github.com/hupe1980/swego/model"
)

// Options configures a reduction. Widths are per call; the kernel never
// consults process-wide pool state.
type Options struct {
	// Workers is the worker pool width. Values <= 0 use GOMAXPROCS.
	Workers int

	// BlockParallel selects the block-level map/reduce strategy: blocks are
	// mapped across workers into private partial tensors which are summed
	// afterwards. When false, features are mapped across workers and each
	// worker writes its disjoint output slabs directly.
	BlockParallel bool
}

// featureChunksPerWorker oversubscribes feature chunks so stragglers do not
// serialize the tail of the reduction.
const featureChunksPerWorker = 4

// Reduce accumulates the covariance tensor for all features into out.
// Inputs are read-only; out must be zeroed and sized pred x pred x feat.
//
// On error (including context cancellation) sibling workers are cancelled
// and out holds a meaningless partial sum that must be discarded.
func Reduce(ctx context.Context, pinv, resid *mat.Dense, part *blocks.Partition, out *model.CovarianceTensor, opts Options) error {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if opts.BlockParallel {
		return reduceBlocks(ctx, pinv, resid, part, out, workers)
	}
	return reduceFeatures(ctx, pinv, resid, part, out, workers)
}

// reduceFeatures maps features across the pool. Each worker owns the output
// slabs of its feature chunk exclusively, so no synchronization is needed
// beyond the group wait.
func reduceFeatures(ctx context.Context, pinv, resid *mat.Dense, part *blocks.Partition, out *model.CovarianceTensor, workers int) error {
	p := pinv.RawMatrix()
	e := resid.RawMatrix()
	pred := p.Rows
	_, feat := out.Dims()

	chunk := (feat + workers*featureChunksPerWorker - 1) / (workers * featureChunksPerWorker)
	if chunk < 1 {
		chunk = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for start := 0; start < feat; start += chunk {
		start := start
		end := min(start+chunk, feat)
		g.Go(func() error {
			h := make([]float64, pred)
			for f := start; f < end; f++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				slab := out.Slab(f)
				for b := 0; b < part.NumBlocks(); b++ {
					halfSandwich(h, p, e, part.Rows(b), f)
					accumulateOuter(slab, h, pred)
				}
			}
			return nil
		})
	}

	return g.Wait()
}

// reduceBlocks maps contiguous runs of blocks across the pool. Each worker
// folds its blocks into a private partial tensor; the partials are summed
// into out once the group finishes. Partial sums combine in slot order, but
// any order would do.
func reduceBlocks(ctx context.Context, pinv, resid *mat.Dense, part *blocks.Partition, out *model.CovarianceTensor, workers int) error {
	pred, feat := out.Dims()
	numBlocks := part.NumBlocks()
	if workers > numBlocks {
		workers = numBlocks
	}
	chunk := (numBlocks + workers - 1) / workers

	partials := make([]*model.CovarianceTensor, (numBlocks+chunk-1)/chunk)

	g, ctx := errgroup.WithContext(ctx)
	for slot, start := 0, 0; start < numBlocks; slot, start = slot+1, start+chunk {
		slot, start := slot, start
		end := min(start+chunk, numBlocks)
		g.Go(func() error {
			local := model.NewCovarianceTensor(pred, feat)
			h := make([]float64, pred)
			var psub, esub, hb mat.Dense
			for b := start; b < end; b++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				rows := part.Rows(b)

				// Half sandwiches for every feature of this block at once:
				// hb = pinv[:, rows] * resid[rows, :] is pred x feat.
				gatherColumns(&psub, pinv, rows)
				gatherRows(&esub, resid, rows)
				hb.Reset()
				hb.Mul(&psub, &esub)

				hr := hb.RawMatrix()
				for f := 0; f < feat; f++ {
					for i := 0; i < pred; i++ {
						h[i] = hr.Data[i*hr.Stride+f]
					}
					accumulateOuter(local.Slab(f), h, pred)
				}
			}
			partials[slot] = local
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	sum := out.RawData()
	for _, partial := range partials {
		floats.Add(sum, partial.RawData())
	}
	return nil
}

// halfSandwich computes h = pinv[:, rows] * resid[rows, f] for one
// (feature, block) pair. h has length pred.
func halfSandwich(h []float64, p, e blas64.General, rows []int, f int) {
	for i := range h {
		h[i] = 0
	}
	pred := len(h)
	for _, r := range rows {
		ef := e.Data[r*e.Stride+f]
		for i := 0; i < pred; i++ {
			h[i] += p.Data[i*p.Stride+r] * ef
		}
	}
}

// accumulateOuter adds the outer product h*h^T into the row-major
// pred x pred slab. Both triangles are written so slabs stay exactly
// symmetric without a mirroring pass.
func accumulateOuter(slab, h []float64, pred int) {
	for i := 0; i < pred; i++ {
		floats.AddScaled(slab[i*pred:(i+1)*pred], h[i], h)
	}
}

// gatherColumns copies src[:, rows] into dst, reshaping dst as needed.
func gatherColumns(dst, src *mat.Dense, rows []int) {
	m, _ := src.Dims()
	dst.Reset()
	dst.ReuseAs(m, len(rows))
	s := src.RawMatrix()
	d := dst.RawMatrix()
	for i := 0; i < m; i++ {
		srow := s.Data[i*s.Stride:]
		drow := d.Data[i*d.Stride : i*d.Stride+len(rows)]
		for k, r := range rows {
			drow[k] = srow[r]
		}
	}
}

// gatherRows copies src[rows, :] into dst, reshaping dst as needed.
func gatherRows(dst, src *mat.Dense, rows []int) {
	_, n := src.Dims()
	dst.Reset()
	dst.ReuseAs(len(rows), n)
	s := src.RawMatrix()
	d := dst.RawMatrix()
	for k, r := range rows {
		copy(d.Data[k*d.Stride:k*d.Stride+n], s.Data[r*s.Stride:r*s.Stride+n])
	}
}
