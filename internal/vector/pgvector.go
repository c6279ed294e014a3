package vector

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

// PgVectorStore keeps records in PostgreSQL with the pgvector extension. Queries are exact:
// rows are ordered by cosine distance, then by insertion sequence.
type PgVectorStore struct {
	db         *sql.DB
	dimensions int
	table      string
	logger     *zap.Logger
}

// NewPgVectorStore connects to dsn and creates the extension and table if needed.
func NewPgVectorStore(ctx context.Context, dsn string, dimensions int, logger *zap.Logger) (*PgVectorStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is required for the pgvector backend")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &PgVectorStore{db: db, dimensions: dimensions, table: "kotae_chunks", logger: logger}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *PgVectorStore) migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			seq BIGSERIAL,
			content TEXT NOT NULL,
			embedding vector(%d) NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)`, s.table, s.dimensions),
	}
	for _, m := range migrations {
		if _, err := s.db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("execute migration: %w", err)
		}
	}
	return nil
}

// Type returns the backend identifier.
func (s *PgVectorStore) Type() string {
	return string(BackendPgVector)
}

// Upsert inserts the record or replaces its content and embedding, keeping its sequence.
func (s *PgVectorStore) Upsert(ctx context.Context, id, text string, vec []float32) error {
	if id == "" {
		return ErrEmptyID
	}
	if len(vec) != s.dimensions {
		return fmt.Errorf("%w: got %d, expected %d", ErrDimensionMismatch, len(vec), s.dimensions)
	}
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, content, embedding) VALUES ($1, $2, $3::vector)
		ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content,
			embedding = EXCLUDED.embedding`, s.table),
		id, text, formatPgVector(vec))
	if err != nil {
		return fmt.Errorf("upsert record: %w", err)
	}
	return nil
}

// Query returns the texts of the top-k records.
func (s *PgVectorStore) Query(ctx context.Context, vec []float32, k int) ([]string, error) {
	results, err := s.Search(ctx, vec, k)
	if err != nil {
		return nil, err
	}
	return Texts(results), nil
}

// Search returns the top-k records by cosine similarity.
func (s *PgVectorStore) Search(ctx context.Context, vec []float32, k int) ([]*Result, error) {
	if len(vec) != s.dimensions {
		return nil, fmt.Errorf("%w: query has %d, expected %d", ErrDimensionMismatch, len(vec), s.dimensions)
	}
	if k <= 0 {
		return []*Result{}, nil
	}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, content, 1 - (embedding <=> $1::vector) AS score
		FROM %s
		ORDER BY embedding <=> $1::vector, seq
		LIMIT $2`, s.table), formatPgVector(vec), k)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	results := []*Result{}
	for rows.Next() {
		r := &Result{}
		if err := rows.Scan(&r.ID, &r.Text, &r.Score); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// Size returns the number of records, or 0 if the count cannot be read.
func (s *PgVectorStore) Size() int {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var n int
	if err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, s.table)).Scan(&n); err != nil {
		s.logger.Warn("failed to count records", zap.Error(err))
		return 0
	}
	return n
}

// Delete removes the records with the given ids.
func (s *PgVectorStore) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = ANY($1)`, s.table), ids); err != nil {
		return fmt.Errorf("delete records: %w", err)
	}
	return nil
}

// Clear deletes every record.
func (s *PgVectorStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(`TRUNCATE %s`, s.table)); err != nil {
		return fmt.Errorf("clear records: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *PgVectorStore) Close() error {
	return s.db.Close()
}
