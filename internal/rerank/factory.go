package rerank

import (
	"fmt"
	"io"

	"github.com/hyperjump/kotae/internal/config"
	"go.uber.org/zap"
)

// NewScorer builds the scorer selected by cfg.Provider. The returned closer releases model
// resources and is never nil.
func NewScorer(cfg config.RerankerConfig, logger *zap.Logger) (Scorer, io.Closer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Provider {
	case "lexical", "":
		logger.Info("reranker ready", zap.String("provider", "lexical"))
		return NewLexicalScorer(), nopCloser{}, nil
	case "onnx":
		s, err := NewCrossEncoderScorer(cfg.ModelPath, cfg.MaxTokens)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("reranker ready", zap.String("provider", "onnx"), zap.String("model", cfg.Model))
		return s, s, nil
	default:
		return nil, nil, fmt.Errorf("unknown reranker provider: %s (supported: lexical, onnx)", cfg.Provider)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
