package cluster

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMagnitude(t *testing.T) {
	tests := []struct {
		name string
		v    []float32
		want float64
	}{
		{name: "empty", v: nil, want: 0},
		{name: "zero vector", v: []float32{0, 0, 0}, want: 0},
		{name: "unit axis", v: []float32{1, 0, 0}, want: 1},
		{name: "pythagorean", v: []float32{3, 4}, want: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Magnitude(tt.v), 1e-9)
		})
	}
}

func TestNormalize(t *testing.T) {
	t.Run("scales to unit magnitude", func(t *testing.T) {
		got := Normalize([]float32{3, 4})
		assert.InDelta(t, 1.0, Magnitude(got), 1e-6)
		assert.InDelta(t, 0.6, float64(got[0]), 1e-6)
		assert.InDelta(t, 0.8, float64(got[1]), 1e-6)
	})

	t.Run("zero vector unchanged", func(t *testing.T) {
		got := Normalize([]float32{0, 0})
		assert.Equal(t, []float32{0, 0}, got)
	})

	t.Run("does not mutate input", func(t *testing.T) {
		in := []float32{3, 4}
		_ = Normalize(in)
		assert.Equal(t, []float32{3, 4}, in)
	})
}

func TestClampMagnitude(t *testing.T) {
	t.Run("within bound returns copy unchanged", func(t *testing.T) {
		in := []float32{0.3, 0.4}
		got := ClampMagnitude(in, 1.0)
		assert.Equal(t, in, got)
		// Must be a copy, not the same backing array.
		got[0] = 99
		assert.Equal(t, float32(0.3), in[0])
	})

	t.Run("above bound rescales to unit", func(t *testing.T) {
		got := ClampMagnitude([]float32{3, 4}, 1.0)
		assert.InDelta(t, 1.0, Magnitude(got), 1e-6)
	})
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a    []float32
		b    []float32
		want float64
	}{
		{name: "identical", a: []float32{1, 2, 3}, b: []float32{1, 2, 3}, want: 1.0},
		{name: "orthogonal", a: []float32{1, 0}, b: []float32{0, 1}, want: 0.0},
		{name: "opposite", a: []float32{1, 0}, b: []float32{-1, 0}, want: -1.0},
		{name: "empty input", a: nil, b: []float32{1}, want: 0.0},
		{name: "length mismatch", a: []float32{1, 2}, b: []float32{1, 2, 3}, want: 0.0},
		{name: "zero magnitude", a: []float32{0, 0}, b: []float32{1, 1}, want: 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CosineSimilarity(tt.a, tt.b), 1e-6)
		})
	}
}

func TestCosineSimilarityScaleInvariant(t *testing.T) {
	a := []float32{0.2, 0.5, 0.8}
	b := make([]float32, len(a))
	for i, x := range a {
		b[i] = x * 7
	}

	require.InDelta(t, 1.0, CosineSimilarity(a, b), 1e-6)
	assert.False(t, math.IsNaN(CosineSimilarity(a, b)))
}
