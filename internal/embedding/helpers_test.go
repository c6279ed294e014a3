package embedding

import "github.com/hyperjump/kotae/pkg/utils"

// Dot is a test shorthand for the inner product.
func Dot(a, b []float32) float64 {
	return utils.Dot(a, b)
}
