package cluster

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAssignment(t *testing.T) {
	t.Run("valid assignment", func(t *testing.T) {
		a, err := NewAssignment("moment-1", "cluster-1", 0.85, 0.9, AssignedByAlgorithm)
		require.NoError(t, err)

		_, err = uuid.Parse(a.ID)
		assert.NoError(t, err)
		assert.Equal(t, "moment-1", a.MomentID)
		assert.Equal(t, "cluster-1", a.ClusterID)
		assert.False(t, a.AssignedAt.IsZero())
	})

	t.Run("acting user identity as assigner", func(t *testing.T) {
		a, err := NewAssignment("moment-1", "cluster-1", 0.7, 0.7, AssignedBy("user-42"))
		require.NoError(t, err)
		assert.Equal(t, AssignedBy("user-42"), a.AssignedBy)
	})

	tests := []struct {
		name       string
		momentID   string
		clusterID  string
		similarity float64
		confidence float64
		by         AssignedBy
	}{
		{name: "empty moment ID", clusterID: "c", similarity: 0.9, confidence: 0.9, by: AssignedByAlgorithm},
		{name: "empty cluster ID", momentID: "m", similarity: 0.9, confidence: 0.9, by: AssignedByAlgorithm},
		{name: "similarity above one", momentID: "m", clusterID: "c", similarity: 1.1, confidence: 0.9, by: AssignedByAlgorithm},
		{name: "negative similarity", momentID: "m", clusterID: "c", similarity: -0.1, confidence: 0.9, by: AssignedByAlgorithm},
		{name: "confidence above one", momentID: "m", clusterID: "c", similarity: 0.9, confidence: 1.5, by: AssignedByAlgorithm},
		{name: "negative confidence", momentID: "m", clusterID: "c", similarity: 0.9, confidence: -0.5, by: AssignedByAlgorithm},
		{name: "empty assigner", momentID: "m", clusterID: "c", similarity: 0.9, confidence: 0.9, by: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAssignment(tt.momentID, tt.clusterID, tt.similarity, tt.confidence, tt.by)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestClassify(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		similarity float64
		want       Decision
	}{
		{similarity: 1.0, want: DecisionAutoAssign},
		{similarity: 0.8, want: DecisionAutoAssign}, // inclusive lower bound
		{similarity: 0.79, want: DecisionManualReview},
		{similarity: 0.6, want: DecisionManualReview}, // inclusive lower bound
		{similarity: 0.59, want: DecisionReject},
		{similarity: 0.0, want: DecisionReject},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.similarity, cfg), "similarity=%v", tt.similarity)
	}
}

func TestClassifyCustomThresholds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AutoAssignThreshold = 0.95
	cfg.ManualReviewThreshold = 0.9

	assert.Equal(t, DecisionManualReview, Classify(0.92, cfg))
	assert.Equal(t, DecisionReject, Classify(0.85, cfg))
}
