package cluster

import "math"

// Vector helpers used by the aggregate and the similarity layer.
//
// All functions treat their inputs as read-only and return fresh slices.
// Accumulation happens in float64 to avoid drift on long vectors even though
// embeddings are stored as []float32.

// Magnitude returns the Euclidean norm of the vector.
func Magnitude(v []float32) float64 {
	var sum float64
	for _, x := range v {
		f := float64(x)
		sum += f * f
	}
	return math.Sqrt(sum)
}

// Normalize returns a unit-magnitude copy of the vector.
//
// A zero-magnitude or empty vector is returned as an unmodified copy, since
// there is no direction to preserve.
func Normalize(v []float32) []float32 {
	out := make([]float32, len(v))
	mag := Magnitude(v)
	if mag == 0 {
		copy(out, v)
		return out
	}
	for i, x := range v {
		out[i] = float32(float64(x) / mag)
	}
	return out
}

// ClampMagnitude returns a copy of the vector rescaled to unit magnitude when
// its magnitude exceeds max, and an unmodified copy otherwise.
func ClampMagnitude(v []float32, max float64) []float32 {
	if Magnitude(v) > max {
		return Normalize(v)
	}
	out := make([]float32, len(v))
	copy(out, v)
	return out
}

// CosineSimilarity computes the cosine similarity between two vectors.
//
// Returns a value in [-1, 1]; embedding vectors typically land in [0, 1]
// since their components are mostly positive.
//
// Returns 0.0 for invalid inputs (empty vectors, zero-magnitude vectors, or
// vectors of different lengths) rather than erroring, so callers can treat
// the result uniformly as "no similarity".
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	if len(a) != len(b) {
		return 0.0
	}

	var dot, magA, magB float64
	for i := range a {
		x := float64(a[i])
		y := float64(b[i])
		dot += x * y
		magA += x * x
		magB += y * y
	}

	if magA == 0.0 || magB == 0.0 {
		return 0.0
	}

	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}
