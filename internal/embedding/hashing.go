package embedding

import (
	"context"

	"github.com/hyperjump/kotae/pkg/utils"
)

// HashingEmbedder is a deterministic bag-of-words embedder using feature hashing.
// Texts sharing more tokens get higher cosine similarity. It needs no model files,
// which makes it the offline default and the embedder used in tests.
type HashingEmbedder struct {
	dimensions int
}

// NewHashingEmbedder returns a hashing embedder with the given dimensions (default 384).
func NewHashingEmbedder(dimensions int) *HashingEmbedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &HashingEmbedder{dimensions: dimensions}
}

// Embed returns the unit-normalized token-count vector of text.
// Text without tokens hashes as a whole so the vector is never zero.
func (e *HashingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	emb := make([]float32, e.dimensions)
	tokens := Tokens(text)
	if len(tokens) == 0 {
		tokens = []string{text}
	}
	for _, tok := range tokens {
		emb[HashString(tok)%uint32(e.dimensions)]++
	}
	utils.NormalizeL2(emb)
	return emb, nil
}

// EmbedBatch calls Embed for each text.
func (e *HashingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return embedEach(ctx, e, texts)
}

// Dimensions returns the embedding dimension.
func (e *HashingEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op for HashingEmbedder.
func (e *HashingEmbedder) Close() error {
	return nil
}
