package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRoundTrip(t *testing.T) {
	c := mustNew(t, 64, WithName("go tooling"), WithTopics("go", "tooling"))
	require.NoError(t, c.UpdateCentroid(testCentroid(64)))
	coherence := 0.7
	c.UpdateMetrics(MetricsUpdate{Coherence: &coherence})
	c.AddMember()

	snap := c.Snapshot()
	restored, err := FromSnapshot(snap)
	require.NoError(t, err)

	assert.Equal(t, c.ID(), restored.ID())
	assert.Equal(t, c.Name(), restored.Name())
	assert.Equal(t, c.Centroid(), restored.Centroid())
	assert.Equal(t, c.Size(), restored.Size())
	assert.Equal(t, c.Coherence(), restored.Coherence())
	assert.Equal(t, c.Quality(), restored.Quality())
	assert.Equal(t, c.Topics(), restored.Topics())
	assert.Equal(t, c.Statistics(), restored.Statistics())
	assert.Equal(t, c.LastRecomputedAt(), restored.LastRecomputedAt())
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	c := mustNew(t, 64, WithTopics("a"))
	snap := c.Snapshot()

	snap.Centroid[0] = 123
	snap.Topics[0] = "mutated"

	assert.NotEqual(t, float32(123), c.Centroid()[0])
	assert.Equal(t, "a", c.Topics()[0])
}

func TestFromSnapshotValidation(t *testing.T) {
	valid := mustNew(t, 64).Snapshot()

	tests := []struct {
		name    string
		mutate  func(*Snapshot)
		wantErr string
	}{
		{
			name:    "empty ID",
			mutate:  func(s *Snapshot) { s.ID = "" },
			wantErr: "ID is empty",
		},
		{
			name:    "non-UUID ID",
			mutate:  func(s *Snapshot) { s.ID = "not-a-uuid" },
			wantErr: "not a UUID",
		},
		{
			name:    "centroid length mismatch",
			mutate:  func(s *Snapshot) { s.Centroid = s.Centroid[:10] },
			wantErr: "centroid length",
		},
		{
			name:    "dimension out of bounds",
			mutate:  func(s *Snapshot) { s.Dimension = 8; s.Centroid = testCentroid(8) },
			wantErr: "dimension",
		},
		{
			name:    "negative size",
			mutate:  func(s *Snapshot) { s.Size = -1 },
			wantErr: "size",
		},
		{
			name:    "density out of range",
			mutate:  func(s *Snapshot) { s.Density = 1.5 },
			wantErr: "density",
		},
		{
			name:    "coherence out of range",
			mutate:  func(s *Snapshot) { s.Coherence = -0.2 },
			wantErr: "coherence",
		},
		{
			name:    "unknown status",
			mutate:  func(s *Snapshot) { s.Status = Status("limbo") },
			wantErr: "status",
		},
		{
			name:    "unknown type",
			mutate:  func(s *Snapshot) { s.Type = Type("galactic") },
			wantErr: "cluster type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := valid
			snap.Centroid = append([]float32(nil), valid.Centroid...)
			tt.mutate(&snap)

			_, err := FromSnapshot(snap)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFromSnapshotRederivesQuality(t *testing.T) {
	snap := mustNew(t, 64).Snapshot()
	snap.Coherence = 1.0
	snap.Density = 1.0
	snap.AvgEngagement = 1.0
	snap.Size = 100
	snap.Quality = QualityLow // stored label is stale; metrics say otherwise

	c, err := FromSnapshot(snap)
	require.NoError(t, err)
	assert.Equal(t, QualityExcellent, c.Quality())
}
