//go:build !cgo
// +build !cgo

package rerank

import (
	"context"

	"github.com/hyperjump/kotae/internal/embedding"
)

// CrossEncoderScorer stub type when built without CGO (see onnx.go for real implementation).
type CrossEncoderScorer struct{}

// NewCrossEncoderScorer returns an error when built without CGO.
func NewCrossEncoderScorer(_ string, _ int) (*CrossEncoderScorer, error) {
	return nil, embedding.ErrONNXUnavailable
}

func (s *CrossEncoderScorer) Score(context.Context, string, []string) ([]float64, error) {
	return nil, embedding.ErrONNXUnavailable
}

func (s *CrossEncoderScorer) Close() error { return nil }
