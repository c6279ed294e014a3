// Package pipeline wires the chunker, embedder, vector store, reranker and generator into the
// index and query flows and exposes them as the service's operations.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/extract"
	"github.com/hyperjump/kotae/internal/generate"
	"github.com/hyperjump/kotae/internal/indexer"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/rerank"
	"github.com/hyperjump/kotae/internal/search"
	"github.com/hyperjump/kotae/internal/storage"
	"github.com/hyperjump/kotae/internal/vector"
	"go.uber.org/zap"
)

// Deps are the components a Pipeline runs on. The pipeline owns them after New and releases
// them in Close.
type Deps struct {
	Embedder  embedding.Embedder
	Store     vector.Store
	Catalog   storage.Catalog
	Scorer    rerank.Scorer
	Completer generate.Completer
	// Extractor reads files for IndexDocument; nil reads them as plain text.
	Extractor *extract.Extractor
	// Closers are released after the components above, e.g. a scorer's model session.
	Closers []io.Closer
}

// Settings tune the flows and describe the components for Status.
type Settings struct {
	RetrieveK         int
	RerankK           int
	KeepEmpty         bool
	Concurrency       int
	GenerationTimeout time.Duration
	LogPrompt         bool
	// Extensions filters files in IndexDirectory; empty means all files.
	Extensions []string

	StoreBackend    string
	EmbeddingModel  string
	RerankerModel   string
	GenerationModel string
	// DiskPaths are measured for Status when set.
	DiskPaths []string
}

// DefaultSettings returns the settings used when none are given.
func DefaultSettings() Settings {
	return Settings{
		RetrieveK:    5,
		RerankK:      3,
		Concurrency:  4,
		StoreBackend: string(vector.BackendMemory),
	}
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger passed down to every component.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithSettings replaces DefaultSettings. Zero top-k values keep their defaults.
func WithSettings(s Settings) Option {
	return func(p *Pipeline) {
		d := p.settings
		p.settings = s
		if s.RetrieveK <= 0 {
			p.settings.RetrieveK = d.RetrieveK
		}
		if s.RerankK <= 0 {
			p.settings.RerankK = d.RerankK
		}
		if s.Concurrency <= 0 {
			p.settings.Concurrency = d.Concurrency
		}
	}
}

// Pipeline is the RAG service: the index flow over a store and the query flow against it.
type Pipeline struct {
	deps     Deps
	settings Settings
	indexer  *indexer.Indexer
	engine   *search.Engine
	logger   *zap.Logger
}

// New builds a pipeline over deps.
func New(deps Deps, opts ...Option) (*Pipeline, error) {
	switch {
	case deps.Embedder == nil:
		return nil, errors.New("pipeline: embedder is required")
	case deps.Store == nil:
		return nil, errors.New("pipeline: vector store is required")
	case deps.Scorer == nil:
		return nil, errors.New("pipeline: relevance scorer is required")
	case deps.Completer == nil:
		return nil, errors.New("pipeline: completer is required")
	}
	if deps.Catalog == nil {
		deps.Catalog = storage.NewMemoryCatalog()
	}
	p := &Pipeline{deps: deps, settings: DefaultSettings(), logger: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}

	idxOpts := []indexer.IndexerOption{
		indexer.WithLogger(p.logger),
		indexer.WithConcurrency(p.settings.Concurrency),
		indexer.WithChunker(indexer.NewChunker(p.settings.KeepEmpty)),
	}
	if deps.Extractor != nil {
		idxOpts = append(idxOpts, indexer.WithExtractor(deps.Extractor))
	}
	p.indexer = indexer.NewIndexer(deps.Embedder, deps.Store, deps.Catalog, idxOpts...)

	gen := generate.New(deps.Completer,
		generate.WithLogger(p.logger),
		generate.WithTimeout(p.settings.GenerationTimeout),
		generate.WithPromptLogging(p.settings.LogPrompt))
	p.engine = search.NewEngine(deps.Embedder, deps.Store,
		rerank.New(deps.Scorer, rerank.WithLogger(p.logger)),
		gen,
		search.WithLogger(p.logger))
	return p, nil
}

// Settings returns the effective settings.
func (p *Pipeline) Settings() Settings {
	return p.settings
}

// Indexer returns the indexer, for callers that walk directories or watch files.
func (p *Pipeline) Indexer() *indexer.Indexer {
	return p.indexer
}

// IndexDocument loads the file at source and runs the index flow on it.
func (p *Pipeline) IndexDocument(ctx context.Context, source string) (*models.Document, error) {
	doc, err := p.indexer.IndexFile(ctx, source, nil)
	if err != nil {
		p.logger.Warn("index failed", zap.String("source", source), zap.Error(err))
		return nil, err
	}
	p.logger.Info("document indexed",
		zap.String("source", doc.Source),
		zap.String("id", doc.ID),
		zap.Int("chunks", doc.ChunkCount))
	return doc, nil
}

// IndexText runs the index flow on inline text.
func (p *Pipeline) IndexText(ctx context.Context, input *models.DocumentInput) (*models.Document, error) {
	doc, err := p.indexer.IndexText(ctx, input)
	if err != nil {
		return nil, err
	}
	p.logger.Info("text indexed", zap.String("id", doc.ID), zap.Int("chunks", doc.ChunkCount))
	return doc, nil
}

// IndexDirectory indexes the files under dir whose extension is in Settings.Extensions.
func (p *Pipeline) IndexDirectory(ctx context.Context, dir string, recursive bool) (int, error) {
	return p.indexer.IndexDirectory(ctx, dir, p.settings.Extensions, recursive)
}

// AnswerQuery runs the query flow. Zero retrieveK or rerankK use the configured defaults.
func (p *Pipeline) AnswerQuery(ctx context.Context, query string, retrieveK, rerankK int) (*models.AskResponse, error) {
	req := &models.AskRequest{Query: query, RetrieveK: retrieveK, RerankK: rerankK}
	if err := req.Validate(p.settings.RetrieveK, p.settings.RerankK); err != nil {
		return nil, err
	}
	return p.engine.Answer(ctx, req.Query, req.RetrieveK, req.RerankK)
}

// RetrieveOnly returns the k chunks most similar to query, without reranking or generation.
// Zero k uses the configured retrieve default.
func (p *Pipeline) RetrieveOnly(ctx context.Context, query string, k int) ([]string, error) {
	req := &models.RetrieveRequest{Query: query, K: k}
	if err := req.Validate(p.settings.RetrieveK); err != nil {
		return nil, err
	}
	return p.engine.Retrieve(ctx, req.Query, req.K)
}

// Documents lists catalog entries, most recently indexed first.
func (p *Pipeline) Documents(ctx context.Context, offset, limit int) ([]*models.Document, error) {
	return p.deps.Catalog.ListDocuments(ctx, offset, limit)
}

// Status reports document and record counts and the configured components.
func (p *Pipeline) Status(ctx context.Context) (*models.Status, error) {
	n, err := p.deps.Catalog.CountDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}
	st := &models.Status{
		Documents:       n,
		Records:         p.deps.Store.Size(),
		StoreBackend:    p.settings.StoreBackend,
		EmbeddingModel:  p.settings.EmbeddingModel,
		Dimensions:      p.deps.Embedder.Dimensions(),
		RerankerModel:   p.settings.RerankerModel,
		GenerationModel: p.settings.GenerationModel,
	}
	if len(p.settings.DiskPaths) > 0 {
		if size, err := storage.DiskUsageBytes(p.settings.DiskPaths...); err == nil {
			st.DiskUsageBytes = &size
		}
	}
	return st, nil
}

// Clear drops every record and catalog entry.
func (p *Pipeline) Clear(ctx context.Context) error {
	if err := p.deps.Store.Clear(ctx); err != nil {
		return fmt.Errorf("clear vector store: %w", err)
	}
	if err := p.deps.Catalog.Clear(ctx); err != nil {
		return fmt.Errorf("clear catalog: %w", err)
	}
	p.logger.Info("index cleared")
	return nil
}

// Close releases every component.
func (p *Pipeline) Close() error {
	errs := []error{
		p.deps.Embedder.Close(),
		p.deps.Store.Close(),
		p.deps.Catalog.Close(),
	}
	for _, c := range p.deps.Closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
