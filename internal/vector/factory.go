package vector

import (
	"context"
	"fmt"

	"github.com/hyperjump/kotae/internal/config"
	"go.uber.org/zap"
)

// Backend names a vector store implementation.
type Backend string

const (
	// BackendMemory keeps records in process memory only; they are lost on exit.
	BackendMemory Backend = "memory"
	// BackendSQLite persists records to a SQLite file and queries an in-memory copy.
	BackendSQLite Backend = "sqlite"
	// BackendPgVector stores and queries records in PostgreSQL with pgvector.
	BackendPgVector Backend = "pgvector"
)

// New creates the store selected by cfg.Backend for vectors of the given dimension.
func New(ctx context.Context, cfg config.StorageConfig, dimensions int, logger *zap.Logger) (Store, error) {
	switch Backend(cfg.Backend) {
	case BackendMemory, "":
		return NewMemoryStore(dimensions)
	case BackendSQLite:
		return NewSQLiteStore(ctx, cfg.VectorPath, dimensions, logger)
	case BackendPgVector:
		return NewPgVectorStore(ctx, cfg.PostgresDSNOrEnv(), dimensions, logger)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s (supported: memory, sqlite, pgvector)", cfg.Backend)
	}
}
