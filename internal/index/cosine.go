package index

import "math"

// epsilon floors the cosine denominator so zero vectors score 0.
const epsilon = 1e-12

// Cosine returns the cosine similarity of a and b. Vectors of different
// length are compared over their common prefix.
func Cosine(a, b []float32) float64 {
	n := min(len(a), len(b))

	var dot, na, nb float64
	for i := 0; i < n; i++ {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}

	return dot / math.Max(math.Sqrt(na)*math.Sqrt(nb), epsilon)
}
