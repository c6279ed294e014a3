package utils

import "math"

// NormalizeL2 normalizes the slice in place to unit L2 norm.
// Returns false, leaving the slice unchanged, if the norm is zero or not finite.
func NormalizeL2(x []float32) bool {
	n := L2Norm(x)
	if n == 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return false
	}
	inv := 1.0 / n
	for i := range x {
		x[i] = float32(float64(x[i]) * inv)
	}
	return true
}

// L2Norm returns the euclidean norm of x, accumulated in float64.
func L2Norm(x []float32) float64 {
	var sum float64
	for _, v := range x {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}

// Dot returns the inner product of a and b (cosine similarity for unit vectors).
// Mismatched or empty inputs yield 0.
func Dot(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}
