// Package rerank reorders retrieved chunks by query relevance using a pluggable Scorer.
package rerank

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// Scorer assigns a relevance score to each (query, passage) pair; higher is more relevant.
// It returns exactly one score per passage, in passage order.
type Scorer interface {
	Score(ctx context.Context, query string, passages []string) ([]float64, error)
}

// ScorerFunc adapts a function to the Scorer interface.
type ScorerFunc func(ctx context.Context, query string, passages []string) ([]float64, error)

// Score calls f.
func (f ScorerFunc) Score(ctx context.Context, query string, passages []string) ([]float64, error) {
	return f(ctx, query, passages)
}

// Reranker sorts candidates by descending Scorer relevance and keeps the best k.
type Reranker struct {
	scorer Scorer
	logger *zap.Logger
}

// Option configures a Reranker.
type Option func(*Reranker)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Reranker) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a reranker over scorer.
func New(scorer Scorer, opts ...Option) *Reranker {
	r := &Reranker{scorer: scorer, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rerank returns the min(k, len(candidates)) most relevant candidates, best first.
// Equal scores keep their retrieval order. Scorer failures are returned as is;
// there is no fallback to the unranked order.
func (r *Reranker) Rerank(ctx context.Context, query string, candidates []string, k int) ([]string, error) {
	if k <= 0 || len(candidates) == 0 {
		return []string{}, nil
	}
	scores, err := r.scorer.Score(ctx, query, candidates)
	if err != nil {
		return nil, err
	}
	if len(scores) != len(candidates) {
		return nil, fmt.Errorf("scorer returned %d scores for %d candidates", len(scores), len(candidates))
	}

	order := make([]int, len(candidates))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return scores[order[a]] > scores[order[b]] })

	if k > len(order) {
		k = len(order)
	}
	out := make([]string, k)
	for i := 0; i < k; i++ {
		out[i] = candidates[order[i]]
	}
	r.logger.Debug("reranked candidates",
		zap.Int("candidates", len(candidates)),
		zap.Int("kept", k),
		zap.Float64("top_score", scores[order[0]]))
	return out, nil
}
