package model

import "gonum.org/v1/gonum/mat"

// CovarianceTensor is a pred x pred x feat stack of per-feature covariance
// matrices. The backing storage is a single float64 slice laid out
// feature-major, so each feature's pred x pred slab is contiguous and can
// be owned exclusively by one worker during a reduction.
//
// Every slab is symmetric and positive semi-definite by construction: it is
// a sum of outer products of real vectors with themselves.
type CovarianceTensor struct {
	pred int
	feat int
	data []float64
}

// NewCovarianceTensor allocates a zeroed pred x pred x feat tensor.
func NewCovarianceTensor(pred, feat int) *CovarianceTensor {
	return &CovarianceTensor{
		pred: pred,
		feat: feat,
		data: make([]float64, pred*pred*feat),
	}
}

// Dims returns the predictor and feature dimensions.
func (t *CovarianceTensor) Dims() (pred, feat int) {
	return t.pred, t.feat
}

// At returns the (i, j) element of feature f's covariance matrix.
func (t *CovarianceTensor) At(i, j, f int) float64 {
	return t.data[f*t.pred*t.pred+i*t.pred+j]
}

// Slice returns feature f's pred x pred covariance matrix as a symmetric
// view sharing the tensor's backing storage. Mutating the view mutates the
// tensor.
func (t *CovarianceTensor) Slice(f int) *mat.SymDense {
	return mat.NewSymDense(t.pred, t.Slab(f))
}

// Slab returns the contiguous row-major pred x pred backing slab of
// feature f. It is the mutable write surface for reduction workers; slabs
// of distinct features never overlap.
func (t *CovarianceTensor) Slab(f int) []float64 {
	n := t.pred * t.pred
	return t.data[f*n : (f+1)*n : (f+1)*n]
}

// RawData returns the entire backing slice, feature-major. Intended for
// whole-tensor operations such as summing partial tensors.
func (t *CovarianceTensor) RawData() []float64 {
	return t.data
}
