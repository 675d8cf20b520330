// Package bench drives repeated sandwich covariance computations to
// characterize throughput under different allocations of parallelism.
//
// A Runner splits the hardware budget over two explicit axes: outer workers
// run independent repetitions concurrently, and each repetition uses its own
// inner width for the reduction. The product of the two should not exceed
// the available hardware concurrency; naive full-width nesting causes
// oversubscription. The package prescribes no optimal ratio — the original
// workloads this models (permutation tests, wild bootstrap) tune it per
// machine.
package bench
