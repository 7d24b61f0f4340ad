package cluster

import "errors"

// Common errors for cluster operations.
var (
	// ErrValidation indicates an invariant violation at construction or
	// mutation time (bad centroid, out-of-range metric, oversized name,
	// description, or topic list). The aggregate is left unchanged.
	ErrValidation = errors.New("cluster validation failed")

	// ErrDimensionMismatch indicates a centroid update whose vector length
	// does not match the cluster's fixed dimension. Surfaced distinctly from
	// ErrValidation because callers often special-case embedding model
	// changes.
	ErrDimensionMismatch = errors.New("centroid dimension mismatch")
)
