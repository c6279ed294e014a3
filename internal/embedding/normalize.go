package embedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/hyperjump/kotae/pkg/utils"
)

// ErrZeroVector is returned when a model produces a vector that cannot be normalized.
var ErrZeroVector = errors.New("embedder returned a zero vector")

// normalized L2-normalizes every vector from the wrapped embedder and checks its dimension.
type normalized struct {
	Embedder
}

// Normalize wraps e so every returned vector has unit length.
func Normalize(e Embedder) Embedder {
	if _, ok := e.(*normalized); ok {
		return e
	}
	return &normalized{Embedder: e}
}

func (n *normalized) Embed(ctx context.Context, text string) ([]float32, error) {
	v, err := n.Embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	return n.fix(v)
}

func (n *normalized) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vs, err := n.Embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vs) != len(texts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vs), len(texts))
	}
	for i := range vs {
		if vs[i], err = n.fix(vs[i]); err != nil {
			return nil, fmt.Errorf("text %d: %w", i, err)
		}
	}
	return vs, nil
}

func (n *normalized) fix(v []float32) ([]float32, error) {
	if len(v) != n.Dimensions() {
		return nil, fmt.Errorf("embedder returned %d dimensions, want %d", len(v), n.Dimensions())
	}
	out := make([]float32, len(v))
	copy(out, v)
	if !utils.NormalizeL2(out) {
		return nil, ErrZeroVector
	}
	return out, nil
}
