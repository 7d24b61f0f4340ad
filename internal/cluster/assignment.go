package cluster

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AssignedBy records who or what bound an item to a cluster: the assignment
// algorithm, a manual operator action, or the identity of the acting user.
type AssignedBy string

const (
	AssignedByAlgorithm AssignedBy = "algorithm"
	AssignedByManual    AssignedBy = "manual"
)

// Assignment binds one content item ("moment") to one cluster with the
// similarity/confidence pair the similarity search produced. The value is
// immutable once created; reassignment supersedes it with a new record.
type Assignment struct {
	ID         string            `json:"id"`
	MomentID   string            `json:"moment_id"`
	ClusterID  string            `json:"cluster_id"`
	Similarity float64           `json:"similarity"`
	Confidence float64           `json:"confidence"`
	AssignedAt time.Time         `json:"assigned_at"`
	AssignedBy AssignedBy        `json:"assigned_by"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// NewAssignment creates a validated assignment with a generated UUID and the
// current timestamp.
func NewAssignment(momentID, clusterID string, similarity, confidence float64, by AssignedBy) (*Assignment, error) {
	a := &Assignment{
		ID:         uuid.New().String(),
		MomentID:   momentID,
		ClusterID:  clusterID,
		Similarity: similarity,
		Confidence: confidence,
		AssignedAt: timeNow(),
		AssignedBy: by,
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// Validate checks the assignment's fields. Similarity and confidence must be
// in [0, 1]; item, cluster, and assigner identities must be present.
func (a *Assignment) Validate() error {
	if a.MomentID == "" {
		return fmt.Errorf("%w: moment ID cannot be empty", ErrValidation)
	}
	if a.ClusterID == "" {
		return fmt.Errorf("%w: cluster ID cannot be empty", ErrValidation)
	}
	if a.Similarity < 0 || a.Similarity > 1 {
		return fmt.Errorf("%w: similarity %f outside [0, 1]", ErrValidation, a.Similarity)
	}
	if a.Confidence < 0 || a.Confidence > 1 {
		return fmt.Errorf("%w: confidence %f outside [0, 1]", ErrValidation, a.Confidence)
	}
	if a.AssignedBy == "" {
		return fmt.Errorf("%w: assigned_by cannot be empty", ErrValidation)
	}
	return nil
}

// Decision is the outcome of threshold evaluation for a proposed assignment.
type Decision string

const (
	// DecisionAutoAssign: similarity is high enough to assign without review.
	DecisionAutoAssign Decision = "auto_assign"

	// DecisionManualReview: similarity is plausible but needs a human call.
	DecisionManualReview Decision = "manual_review"

	// DecisionReject: similarity is too low to bind the item at all.
	DecisionReject Decision = "reject"
)

// Classify evaluates a similarity score against the config's assignment
// thresholds. Pure function, no hidden state: the thresholds are not
// enforced inside the Assignment value itself, they belong to the caller's
// decision logic.
func Classify(similarity float64, cfg Config) Decision {
	switch {
	case similarity >= cfg.AutoAssignThreshold:
		return DecisionAutoAssign
	case similarity >= cfg.ManualReviewThreshold:
		return DecisionManualReview
	default:
		return DecisionReject
	}
}
