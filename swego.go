package swego

import (
	"context"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/swego/blocks"
	"github.com/hupe1980/swego/internal/kernel"
	"github.com/hupe1980/swego/model"
)

// ComputeCovariance computes the cluster-robust sandwich covariance tensor
// of the OLS coefficients for every feature.
//
// pinv is the pred x obs pseudoinverse of the design matrix, resid the
// obs x feat matrix of OLS residuals, and assignment maps each observation
// row to a block id in [0, numBlocks). All inputs are read-only during the
// call and may be shared across concurrent calls.
//
// The returned tensor is created fresh per call and fully owned by the
// caller. On any error no tensor is returned: validation failures surface
// before work is scheduled, and a worker failure cancels its siblings and
// discards the partial result.
func ComputeCovariance(ctx context.Context, pinv, resid *mat.Dense, assignment []int, numBlocks int, optFns ...Option) (*model.CovarianceTensor, error) {
	o := applyOptions(optFns)

	pred, obs := pinv.Dims()
	residObs, feat := resid.Dims()

	if feat == 0 {
		return nil, ErrEmptyFeatureSet
	}
	if residObs != obs {
		return nil, &ErrShapeMismatch{What: "observations (pinv cols vs resid rows)", Want: obs, Got: residObs}
	}

	part := o.partition
	if part == nil {
		if len(assignment) != obs {
			return nil, &ErrShapeMismatch{What: "observations (assignment length)", Want: obs, Got: len(assignment)}
		}
		var err error
		part, err = blocks.New(assignment, numBlocks)
		o.logger.LogPartition(ctx, obs, numBlocks, err)
		if err != nil {
			return nil, err
		}
	} else if part.Obs() != obs {
		return nil, &ErrShapeMismatch{What: "observations (partition)", Want: obs, Got: part.Obs()}
	}

	out := model.NewCovarianceTensor(pred, feat)

	start := time.Now()
	err := kernel.Reduce(ctx, pinv, resid, part, out, kernel.Options{
		Workers:       o.innerThreads,
		BlockParallel: o.blockParallel,
	})
	o.logger.LogCompute(ctx, pred, obs, feat, time.Since(start), err)
	if err != nil {
		return nil, translateError(err)
	}

	return out, nil
}
