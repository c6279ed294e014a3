package pipeline

import (
	"context"
	"fmt"
	"io"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/extract"
	"github.com/hyperjump/kotae/internal/generate"
	"github.com/hyperjump/kotae/internal/rerank"
	"github.com/hyperjump/kotae/internal/storage"
	"github.com/hyperjump/kotae/internal/vector"
	"go.uber.org/zap"
)

// SettingsFromConfig maps the configuration file onto pipeline settings.
func SettingsFromConfig(cfg *config.Config) Settings {
	s := Settings{
		RetrieveK:         cfg.Retrieval.TopKRetrieve,
		RerankK:           cfg.Retrieval.TopKRerank,
		KeepEmpty:         cfg.Chunking.KeepEmpty,
		Concurrency:       cfg.Embedding.Concurrency,
		GenerationTimeout: cfg.Generation.Timeout,
		LogPrompt:         cfg.Generation.LogPrompt,
		Extensions:        cfg.Watch.Extensions,
		StoreBackend:      cfg.Storage.Backend,
		EmbeddingModel:    cfg.Embedding.Model,
		RerankerModel:     cfg.Reranker.Model,
		GenerationModel:   cfg.Generation.Model,
	}
	if cfg.Embedding.Provider == "hashing" {
		s.EmbeddingModel = "hashing"
	}
	if cfg.Reranker.Provider == "lexical" {
		s.RerankerModel = "lexical"
	}
	switch vector.Backend(cfg.Storage.Backend) {
	case vector.BackendSQLite:
		s.DiskPaths = []string{cfg.Storage.DatabasePath, cfg.Storage.VectorPath}
	case vector.BackendPgVector:
		s.DiskPaths = []string{cfg.Storage.DatabasePath}
	}
	return s
}

// NewFromConfig builds every component named by cfg and the pipeline over them.
// Components created before a failure are closed.
func NewFromConfig(ctx context.Context, cfg *config.Config, logger *zap.Logger) (p *Pipeline, err error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var opened []io.Closer
	defer func() {
		if err != nil {
			for i := len(opened) - 1; i >= 0; i-- {
				_ = opened[i].Close()
			}
		}
	}()

	emb, err := embedding.New(cfg.Embedding, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	opened = append(opened, emb)

	store, err := vector.New(ctx, cfg.Storage, emb.Dimensions(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector store: %w", err)
	}
	opened = append(opened, store)

	catalog, err := newCatalog(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to open document catalog: %w", err)
	}
	opened = append(opened, catalog)

	scorer, scorerCloser, err := rerank.NewScorer(cfg.Reranker, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create reranker: %w", err)
	}
	opened = append(opened, scorerCloser)

	completer, err := generate.NewOpenAICompleter(generate.OpenAIOptions{
		Endpoint:    cfg.Generation.Endpoint,
		APIKey:      cfg.Generation.APIKey(),
		Model:       cfg.Generation.Model,
		MaxTokens:   cfg.Generation.MaxTokens,
		Temperature: cfg.Generation.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create generation client: %w", err)
	}
	if cfg.Generation.APIKey() == "" {
		logger.Warn("generation API key not set; requests may be rejected",
			zap.String("api_key_env", cfg.Generation.APIKeyEnv))
	}

	return New(Deps{
		Embedder:  emb,
		Store:     store,
		Catalog:   catalog,
		Scorer:    scorer,
		Completer: completer,
		Extractor: extract.NewExtractor(),
		Closers:   []io.Closer{scorerCloser},
	}, WithLogger(logger), WithSettings(SettingsFromConfig(cfg)))
}

// newCatalog keeps the catalog as durable as the vector store: in memory with the memory
// backend, in SQLite otherwise.
func newCatalog(cfg config.StorageConfig) (storage.Catalog, error) {
	if vector.Backend(cfg.Backend) == vector.BackendMemory || cfg.Backend == "" {
		return storage.NewMemoryCatalog(), nil
	}
	return storage.NewSQLiteCatalog(cfg.DatabasePath)
}
