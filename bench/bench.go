package bench

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/swego"
	"github.com/hupe1980/swego/blocks"
)

var (
	// ErrNoSource is returned when a Runner has no input source.
	ErrNoSource = errors.New("bench: no input source")

	// ErrInvalidReps is returned when the repetition count is not positive.
	ErrInvalidReps = errors.New("bench: repetitions must be >= 1")
)

// Source supplies the inputs for one repetition. Implementations may return
// the same triple every time (amortizing partition construction across
// repetitions) or regenerate fresh inputs per repetition.
//
// Sources must be safe for concurrent use when OuterWorkers > 1.
type Source interface {
	Inputs(ctx context.Context, rep int) (pinv, resid *mat.Dense, part *blocks.Partition, err error)
}

// FixedSource returns the same inputs for every repetition.
type FixedSource struct {
	PInv  *mat.Dense
	Resid *mat.Dense
	Part  *blocks.Partition
}

// Inputs implements Source.
func (s *FixedSource) Inputs(_ context.Context, _ int) (*mat.Dense, *mat.Dense, *blocks.Partition, error) {
	return s.PInv, s.Resid, s.Part, nil
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context, rep int) (*mat.Dense, *mat.Dense, *blocks.Partition, error)

// Inputs implements Source.
func (f SourceFunc) Inputs(ctx context.Context, rep int) (*mat.Dense, *mat.Dense, *blocks.Partition, error) {
	return f(ctx, rep)
}

// Runner executes R independent covariance computations and reports wall
// clock timings. It makes no correctness promise beyond every repetition
// producing the same tensor shape.
type Runner struct {
	// Reps is the number of repetitions, >= 1.
	Reps int

	// OuterWorkers is the number of repetitions run concurrently.
	// Values <= 0 run repetitions one at a time.
	OuterWorkers int

	// InnerThreads is the reduction width inside each repetition.
	// Values <= 0 use GOMAXPROCS.
	InnerThreads int

	// BlockParallel selects block-level sub-parallelism inside each
	// repetition.
	BlockParallel bool

	// Source supplies per-repetition inputs. Required.
	Source Source

	// Logger receives throttled progress output. Nil disables logging.
	Logger *swego.Logger
}

// Run executes all repetitions. A failed repetition cancels the rest and
// Run returns its error; the Report is only valid when err is nil.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	if r.Source == nil {
		return nil, ErrNoSource
	}
	if r.Reps < 1 {
		return nil, ErrInvalidReps
	}

	outer := r.OuterWorkers
	if outer <= 0 {
		outer = 1
	}
	logger := r.Logger
	if logger == nil {
		logger = swego.NoopLogger()
	}

	durations := make([]time.Duration, r.Reps)

	var (
		mu        sync.Mutex
		done      int
		shapeSet  bool
		wantPred  int
		wantFeat  int
		progress  = rate.Sometimes{Interval: time.Second}
		wallStart = time.Now()
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(outer)

	for rep := 0; rep < r.Reps; rep++ {
		rep := rep
		g.Go(func() error {
			pinv, resid, part, err := r.Source.Inputs(ctx, rep)
			if err != nil {
				return fmt.Errorf("bench: inputs for repetition %d: %w", rep, err)
			}

			start := time.Now()
			cov, err := swego.ComputeCovariance(ctx, pinv, resid, nil, 0,
				swego.WithPartition(part),
				swego.WithInnerThreads(r.InnerThreads),
				swego.WithBlockParallel(r.BlockParallel),
			)
			if err != nil {
				return fmt.Errorf("bench: repetition %d: %w", rep, err)
			}
			durations[rep] = time.Since(start)

			pred, feat := cov.Dims()

			mu.Lock()
			defer mu.Unlock()
			if !shapeSet {
				wantPred, wantFeat, shapeSet = pred, feat, true
			} else if pred != wantPred || feat != wantFeat {
				return fmt.Errorf("bench: repetition %d: tensor shape %dx%dx%d, want %dx%dx%d",
					rep, pred, pred, feat, wantPred, wantPred, wantFeat)
			}
			done++
			n := done
			progress.Do(func() {
				logger.InfoContext(ctx, "repetition finished",
					"done", n,
					"total", r.Reps,
					"elapsed", time.Since(wallStart).Round(time.Millisecond),
				)
			})
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return newReport(durations, time.Since(wallStart)), nil
}
