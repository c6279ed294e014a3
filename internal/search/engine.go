// Package search runs the query flow: embed the query, retrieve, rerank, generate.
package search

import (
	"context"
	"fmt"
	"time"

	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/failure"
	"github.com/hyperjump/kotae/internal/generate"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/rerank"
	"github.com/hyperjump/kotae/internal/vector"
	"go.uber.org/zap"
)

// Engine answers queries against a vector store.
type Engine struct {
	embedder  embedding.Embedder
	store     vector.Store
	reranker  *rerank.Reranker
	generator *generate.Generator
	logger    *zap.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets a logger for per-stage debug output.
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates a search engine with the given dependencies.
func NewEngine(
	embedder embedding.Embedder,
	store vector.Store,
	reranker *rerank.Reranker,
	generator *generate.Generator,
	opts ...EngineOption,
) *Engine {
	e := &Engine{
		embedder:  embedder,
		store:     store,
		reranker:  reranker,
		generator: generator,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Retrieve embeds the query and returns the texts of the k most similar chunks.
// An empty store yields an empty slice.
func (e *Engine) Retrieve(ctx context.Context, query string, k int) ([]string, error) {
	query, k, err := ProcessQuery(query, k)
	if err != nil {
		return nil, err
	}
	qvec, err := e.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	return e.retrieve(ctx, qvec, k)
}

// Answer runs the full query flow. An empty retrieval still reaches the generator,
// whose prompt tells the model to say it cannot answer.
func (e *Engine) Answer(ctx context.Context, query string, retrieveK, rerankK int) (*models.AskResponse, error) {
	start := time.Now()
	query, retrieveK, err := ProcessQuery(query, retrieveK)
	if err != nil {
		return nil, err
	}
	if _, rerankK, err = ProcessQuery(query, rerankK); err != nil {
		return nil, err
	}
	resp := &models.AskResponse{Query: query}

	t := time.Now()
	qvec, err := e.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	resp.Timings.EmbedMs = time.Since(t).Milliseconds()

	t = time.Now()
	if resp.Retrieved, err = e.retrieve(ctx, qvec, retrieveK); err != nil {
		return nil, err
	}
	resp.Timings.RetrieveMs = time.Since(t).Milliseconds()

	t = time.Now()
	resp.Reranked, err = e.reranker.Rerank(ctx, query, resp.Retrieved, rerankK)
	if err != nil {
		return nil, failure.Upstream(failure.StageReranked, err)
	}
	resp.Timings.RerankMs = time.Since(t).Milliseconds()

	t = time.Now()
	if resp.Answer, err = e.generator.Generate(ctx, query, resp.Reranked); err != nil {
		return nil, err
	}
	resp.Timings.GenerateMs = time.Since(t).Milliseconds()
	resp.QueryTime = time.Since(start).Milliseconds()

	e.logger.Debug("query answered",
		zap.Int("retrieved", len(resp.Retrieved)),
		zap.Int("reranked", len(resp.Reranked)),
		zap.Int64("query_time_ms", resp.QueryTime))
	return resp, nil
}

func (e *Engine) embedQuery(ctx context.Context, query string) ([]float32, error) {
	qvec, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, failure.Upstream(failure.StageQueryEmbedded, fmt.Errorf("embedding failed: %w", err))
	}
	return qvec, nil
}

func (e *Engine) retrieve(ctx context.Context, qvec []float32, k int) ([]string, error) {
	texts, err := e.store.Query(ctx, qvec, k)
	if err != nil {
		return nil, failure.Internal(failure.StageRetrieved, fmt.Errorf("vector search failed: %w", err))
	}
	e.logger.Debug("retrieved chunks", zap.Int("k", k), zap.Int("found", len(texts)))
	return texts, nil
}
