// Package swego computes cluster-robust ("sandwich") covariance estimates
// for ordinary-least-squares coefficients fitted independently across many
// response columns (features).
//
// The inputs are the Moore-Penrose pseudoinverse P of the design matrix
// (pred x obs), the matrix of OLS residuals E (obs x feat), and a block
// assignment mapping each observation to a cluster with potentially
// correlated errors. For every feature f the estimator sums, over blocks b,
// the outer product of the per-block half-sandwich
//
//	H(b,f) = P[:, rows(b)] * E[rows(b), f]
//
// yielding a pred x pred x feat covariance tensor. The full obs x obs
// residual covariance is never materialized.
//
// # Quick Start
//
//	ctx := context.Background()
//	cov, err := swego.ComputeCovariance(ctx, pinv, resid, assignment, numBlocks)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	sigma0 := cov.Slice(0) // pred x pred *mat.SymDense for feature 0
//
// # Parallelism
//
// The per-feature reduction is embarrassingly parallel: features share only
// read-only inputs and write disjoint slices of the output. Widths are
// explicit per call, never process-wide:
//
//	cov, err := swego.ComputeCovariance(ctx, pinv, resid, assignment, numBlocks,
//	    swego.WithInnerThreads(8),
//	    swego.WithBlockParallel(true), // map blocks, reduce partial tensors
//	)
//
// For repeated computations over the same blocking (permutation and
// bootstrap style workloads), build the partition once and reuse it:
//
//	part, _ := blocks.New(assignment, numBlocks)
//	cov, err := swego.ComputeCovariance(ctx, pinv, resid, nil, 0,
//	    swego.WithPartition(part))
//
// The bench package drives R independent repetitions across an outer worker
// pool, each repetition using its own inner width.
//
// # Errors
//
// All failure causes are deterministic functions of the input and surface
// before or instead of a result, never alongside a partial tensor:
// ErrShapeMismatch and ErrEmptyFeatureSet at this package's boundary, and
// blocks.ErrInvalidBlockID / blocks.ErrDegenerateBlocking from partition
// construction.
package swego
