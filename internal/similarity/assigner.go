package similarity

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/clusterd/internal/cluster"
	"github.com/fyrsmithlabs/clusterd/internal/telemetry"
)

// Proposal is the outcome of proposing an item for assignment.
//
// Assignment is populated only for an auto-assign decision; a manual-review
// decision carries the candidate cluster and scores for a human to act on,
// and a reject carries them for observability only.
type Proposal struct {
	Decision   cluster.Decision
	ClusterID  string
	Similarity float64
	Confidence float64
	Assignment *cluster.Assignment
}

// Assigner turns similarity search results into assignment decisions using
// the engine's pure Classify policy.
type Assigner struct {
	index   *Index
	cfg     cluster.Config
	logger  *zap.Logger
	metrics *telemetry.Metrics
}

// NewAssigner creates an assigner over the given centroid index and policy.
// metrics may be nil; decisions then go uncounted.
func NewAssigner(index *Index, cfg cluster.Config, logger *zap.Logger, metrics *telemetry.Metrics) (*Assigner, error) {
	if index == nil {
		return nil, fmt.Errorf("index cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assigner{index: index, cfg: cfg, logger: logger, metrics: metrics}, nil
}

// Propose finds the best cluster for an item vector and classifies the
// match.
//
// Confidence is the best candidate's similarity discounted by how close the
// runner-up came: an item sitting between two clusters is a weaker call than
// one with a clear winner.
func (a *Assigner) Propose(ctx context.Context, momentID string, vector []float32) (Proposal, error) {
	if momentID == "" {
		return Proposal{}, fmt.Errorf("%w: moment ID cannot be empty", cluster.ErrValidation)
	}

	candidates, err := a.index.Search(ctx, vector, 2)
	if err != nil {
		return Proposal{}, fmt.Errorf("searching centroids: %w", err)
	}

	best := candidates[0]
	margin := best.Similarity
	if len(candidates) > 1 {
		margin = best.Similarity - candidates[1].Similarity
	}
	confidence := clamp01(best.Similarity * (0.5 + 0.5*clamp01(margin/ambiguityWindow)))

	p := Proposal{
		Decision:   cluster.Classify(best.Similarity, a.cfg),
		ClusterID:  best.ClusterID,
		Similarity: best.Similarity,
		Confidence: confidence,
	}

	a.metrics.RecordDecision(ctx, string(p.Decision))
	a.logger.Debug("assignment proposed",
		zap.String("moment_id", momentID),
		zap.String("cluster_id", best.ClusterID),
		zap.Float64("similarity", best.Similarity),
		zap.Float64("confidence", confidence),
		zap.String("decision", string(p.Decision)),
	)

	if p.Decision != cluster.DecisionAutoAssign {
		return p, nil
	}

	assignment, err := cluster.NewAssignment(momentID, best.ClusterID, best.Similarity, confidence, cluster.AssignedByAlgorithm)
	if err != nil {
		return Proposal{}, fmt.Errorf("building assignment: %w", err)
	}
	p.Assignment = assignment
	return p, nil
}

// ambiguityWindow is the similarity margin beyond which a runner-up no
// longer discounts confidence.
const ambiguityWindow = 0.2
