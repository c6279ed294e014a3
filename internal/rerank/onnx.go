//go:build cgo
// +build cgo

package rerank

import (
	"context"
	"fmt"
	"sync"

	"github.com/hyperjump/kotae/internal/embedding"
	ort "github.com/yalue/onnxruntime_go"
)

// CrossEncoderScorer runs a cross-encoder exported to ONNX over each (query, passage) pair
// and uses its single relevance logit as the score.
type CrossEncoderScorer struct {
	session   *ort.AdvancedSession
	maxTokens int
	tokenizer embedding.PairTokenizer

	inputIDsTensor      *ort.Tensor[int64]
	attentionMaskTensor *ort.Tensor[int64]
	tokenTypeIDsTensor  *ort.Tensor[int64]
	logitsTensor        *ort.Tensor[float32]
	mu                  sync.Mutex
}

// NewCrossEncoderScorer loads the model at modelPath.
func NewCrossEncoderScorer(modelPath string, maxTokens int) (*CrossEncoderScorer, error) {
	if maxTokens <= 2 {
		return nil, fmt.Errorf("invalid cross-encoder max_tokens: %d", maxTokens)
	}
	if err := embedding.InitONNXRuntime(); err != nil {
		return nil, err
	}
	s := &CrossEncoderScorer{maxTokens: maxTokens, tokenizer: &embedding.SimpleTokenizer{}}
	shape := ort.NewShape(1, int64(maxTokens))
	var err error
	if s.inputIDsTensor, err = ort.NewEmptyTensor[int64](shape); err != nil {
		return nil, fmt.Errorf("failed to create input_ids tensor: %w", err)
	}
	if s.attentionMaskTensor, err = ort.NewEmptyTensor[int64](shape); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to create attention_mask tensor: %w", err)
	}
	if s.tokenTypeIDsTensor, err = ort.NewEmptyTensor[int64](shape); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to create token_type_ids tensor: %w", err)
	}
	if s.logitsTensor, err = ort.NewEmptyTensor[float32](ort.NewShape(1, 1)); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to create logits tensor: %w", err)
	}
	s.session, err = ort.NewAdvancedSession(
		modelPath,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{"logits"},
		[]ort.ArbitraryTensor{s.inputIDsTensor, s.attentionMaskTensor, s.tokenTypeIDsTensor},
		[]ort.ArbitraryTensor{s.logitsTensor},
		nil,
	)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}
	return s, nil
}

// Score runs the model once per passage.
func (s *CrossEncoderScorer) Score(ctx context.Context, query string, passages []string) ([]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	scores := make([]float64, len(passages))
	for i, p := range passages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ids, mask, types := s.tokenizer.TokenizePair(query, p, s.maxTokens)
		copy(s.inputIDsTensor.GetData(), ids)
		copy(s.attentionMaskTensor.GetData(), mask)
		copy(s.tokenTypeIDsTensor.GetData(), types)
		if err := s.session.Run(); err != nil {
			return nil, fmt.Errorf("cross-encoder inference failed: %w", err)
		}
		scores[i] = float64(s.logitsTensor.GetData()[0])
	}
	return scores, nil
}

// Close destroys the session and tensors.
func (s *CrossEncoderScorer) Close() error {
	var err error
	if s.session != nil {
		err = s.session.Destroy()
		s.session = nil
	}
	for _, t := range []*ort.Tensor[int64]{s.inputIDsTensor, s.attentionMaskTensor, s.tokenTypeIDsTensor} {
		if t != nil {
			_ = t.Destroy()
		}
	}
	s.inputIDsTensor, s.attentionMaskTensor, s.tokenTypeIDsTensor = nil, nil, nil
	if s.logitsTensor != nil {
		_ = s.logitsTensor.Destroy()
		s.logitsTensor = nil
	}
	return err
}
