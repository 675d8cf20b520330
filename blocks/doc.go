// Package blocks groups observation rows by block (cluster) id.
//
// A Partition is built once from a block assignment vector and reused,
// read-only, across all features and repetitions of a sandwich covariance
// computation. Construction is a single O(obs) counting pass; it performs
// no numeric work but its cost is meant to be amortized, so callers running
// repeated computations over the same blocking should build the partition
// up front (see swego.WithPartition).
package blocks
