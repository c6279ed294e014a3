package embedding

import (
	"fmt"

	"github.com/hyperjump/kotae/internal/config"
	"go.uber.org/zap"
)

// New builds the embedder selected by cfg.Provider. The result is always normalized and,
// when cfg.CacheSize > 0, cached.
func New(cfg config.EmbeddingConfig, logger *zap.Logger) (Embedder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var base Embedder
	switch cfg.Provider {
	case "hashing", "":
		base = NewHashingEmbedder(cfg.Dimensions)
	case "openai":
		e, err := NewOpenAIEmbedder(cfg.Endpoint, cfg.APIKey(), cfg.Model, cfg.Dimensions)
		if err != nil {
			return nil, err
		}
		base = e
	case "onnx":
		e, err := NewONNXEmbedder(cfg.ModelPath, cfg.Dimensions, cfg.MaxTokens)
		if err != nil {
			return nil, err
		}
		base = e
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s (supported: hashing, openai, onnx)", cfg.Provider)
	}
	logger.Info("embedder ready",
		zap.String("provider", cfg.Provider),
		zap.String("model", cfg.Model),
		zap.Int("dimensions", base.Dimensions()))

	e := Normalize(base)
	if cfg.CacheSize > 0 {
		e = NewCachedEmbedder(e, cfg.CacheSize)
	}
	return e, nil
}
