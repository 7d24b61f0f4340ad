package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/fyrsmithlabs/clusterd/internal/cluster"
)

// RunningMeanSource is an in-memory CentroidSource fed by assignment events.
// Callers Observe each member embedding as it is assigned; Recompute returns
// the mean of everything observed for the cluster since the last Reset.
//
// The aggregate keeps only the running sum and count, never the individual
// embeddings, so memory stays flat regardless of cluster size.
type RunningMeanSource struct {
	mu    sync.RWMutex
	sums  map[string][]float64
	count map[string]int
}

// NewRunningMeanSource creates an empty source.
func NewRunningMeanSource() *RunningMeanSource {
	return &RunningMeanSource{
		sums:  make(map[string][]float64),
		count: make(map[string]int),
	}
}

// Observe folds one member embedding into the cluster's running mean. The
// first observation fixes the dimension; later mismatches error.
func (r *RunningMeanSource) Observe(clusterID string, embedding []float32) error {
	if clusterID == "" {
		return fmt.Errorf("cluster ID cannot be empty")
	}
	if len(embedding) == 0 {
		return fmt.Errorf("embedding cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	sum, ok := r.sums[clusterID]
	if !ok {
		sum = make([]float64, len(embedding))
		r.sums[clusterID] = sum
	}
	if len(sum) != len(embedding) {
		return fmt.Errorf("%w: embedding length %d != accumulated length %d",
			cluster.ErrDimensionMismatch, len(embedding), len(sum))
	}

	for i, v := range embedding {
		sum[i] += float64(v)
	}
	r.count[clusterID]++
	return nil
}

// Recompute returns the mean of the observed embeddings for the cluster.
// Returns ErrNoCentroid when nothing has been observed.
func (r *RunningMeanSource) Recompute(_ context.Context, snap cluster.Snapshot) ([]float32, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sum, ok := r.sums[snap.ID]
	n := r.count[snap.ID]
	if !ok || n == 0 {
		return nil, ErrNoCentroid
	}
	if len(sum) != snap.Dimension {
		return nil, fmt.Errorf("%w: accumulated length %d != cluster dimension %d",
			cluster.ErrDimensionMismatch, len(sum), snap.Dimension)
	}

	mean := make([]float32, len(sum))
	for i, v := range sum {
		mean[i] = float32(v / float64(n))
	}
	return mean, nil
}

// Forget drops the accumulated state for a cluster. Call after archival or
// deletion so the next recompute does not resurrect old members.
func (r *RunningMeanSource) Forget(clusterID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sums, clusterID)
	delete(r.count, clusterID)
}

// Observed returns how many embeddings have been folded in for a cluster.
func (r *RunningMeanSource) Observed(clusterID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.count[clusterID]
}
