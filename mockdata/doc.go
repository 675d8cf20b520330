// Package mockdata generates simulated inputs for benchmarking the sandwich
// covariance kernel: a standard-normal pseudoinverse and residual matrix and
// a shuffled block-id vector.
//
// Block ids are assigned run by run with uniformly random sizes and then
// shuffled, so blocks are deliberately non-contiguous in observation order —
// real data behaves this way and the resulting cache misses are part of what
// the benchmarks measure.
package mockdata
