package swego

import (
	"log/slog"

	"github.com/hupe1980/swego/blocks"
)

type options struct {
	innerThreads  int
	blockParallel bool
	partition     *blocks.Partition
	logger        *Logger
}

// Option configures ComputeCovariance behavior.
type Option func(*options)

// WithInnerThreads sets the width of the inner worker pool used for the
// reduction. Values <= 0 use runtime.GOMAXPROCS(0).
//
// Widths are per call. When nesting computations (see the bench package),
// size the product of outer and inner widths to the hardware budget instead
// of letting both default to full width.
func WithInnerThreads(n int) Option {
	return func(o *options) {
		o.innerThreads = n
	}
}

// WithBlockParallel toggles block-level sub-parallelism. When enabled, the
// reduction maps blocks across workers, each accumulating into a private
// partial tensor, and sums the partials afterwards. When disabled (the
// default), features are mapped across workers and each worker writes its
// disjoint output slices directly.
//
// Block-level parallelism pays off when per-block work is expensive (large
// blocks or a wide predictor dimension); otherwise the partial tensors cost
// more than they save.
func WithBlockParallel(enabled bool) Option {
	return func(o *options) {
		o.blockParallel = enabled
	}
}

// WithPartition supplies a prebuilt block partition, skipping partition
// construction inside the call. The assignment and numBlocks arguments of
// ComputeCovariance are ignored when a partition is set.
//
// Reusing one partition across repeated computations over the same blocking
// amortizes the O(obs) bucketing pass.
func WithPartition(p *blocks.Partition) Option {
	return func(o *options) {
		o.partition = p
	}
}

// WithLogger configures structured logging for computations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		logger: NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	return o
}
