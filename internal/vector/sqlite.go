package vector

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// SQLiteStore persists records to SQLite and serves queries from an in-memory index that is
// rebuilt from the table on open. Writes go to the database first, then to memory.
type SQLiteStore struct {
	db      *sql.DB
	mem     *MemoryStore
	writeMu sync.Mutex
	logger  *zap.Logger
}

// NewSQLiteStore opens or creates the vector database at dbPath and loads its records.
// Parent directories are created if they do not exist.
func NewSQLiteStore(ctx context.Context, dbPath string, dimensions int, logger *zap.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	mem, err := NewMemoryStore(dimensions)
	if err != nil {
		return nil, err
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create vector database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if _, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS records (
		id TEXT PRIMARY KEY,
		seq INTEGER NOT NULL,
		text TEXT NOT NULL,
		vector BLOB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_records_seq ON records(seq);
	`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	s := &SQLiteStore{db: db, mem: mem, logger: logger}
	if err := s.load(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Info("vector store loaded", zap.String("path", dbPath), zap.Int("records", mem.Size()))
	return s, nil
}

func (s *SQLiteStore) load(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `SELECT id, seq, text, vector FROM records ORDER BY seq`)
	if err != nil {
		return fmt.Errorf("failed to read records: %w", err)
	}
	defer rows.Close()

	s.mem.mu.Lock()
	defer s.mem.mu.Unlock()
	for rows.Next() {
		var id, text string
		var seq int64
		var blob []byte
		if err := rows.Scan(&id, &seq, &text, &blob); err != nil {
			return fmt.Errorf("failed to scan record: %w", err)
		}
		vec := bytesToFloat32Slice(blob)
		if len(vec) != s.mem.dimensions {
			return fmt.Errorf("%w: record %s has %d, store expects %d", ErrDimensionMismatch, id, len(vec), s.mem.dimensions)
		}
		s.mem.put(id, text, vec, uint64(seq))
	}
	return rows.Err()
}

// Type returns the backend identifier.
func (s *SQLiteStore) Type() string {
	return string(BackendSQLite)
}

// Upsert writes the record to the database, then to the in-memory index.
func (s *SQLiteStore) Upsert(ctx context.Context, id, text string, vec []float32) error {
	if err := s.mem.validate(id, vec); err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mem.mu.RLock()
	seq := s.mem.seqOfLocked(id)
	s.mem.mu.RUnlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO records (id, seq, text, vector) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET text = excluded.text, vector = excluded.vector`,
		id, int64(seq), text, float32SliceToBytes(vec))
	if err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}

	s.mem.mu.Lock()
	s.mem.put(id, text, vec, seq)
	s.mem.mu.Unlock()
	return nil
}

// Query returns the texts of the top-k records.
func (s *SQLiteStore) Query(ctx context.Context, vec []float32, k int) ([]string, error) {
	return s.mem.Query(ctx, vec, k)
}

// Search returns the top-k records with scores.
func (s *SQLiteStore) Search(ctx context.Context, vec []float32, k int) ([]*Result, error) {
	return s.mem.Search(ctx, vec, k)
}

// Size returns the number of records.
func (s *SQLiteStore) Size() int {
	return s.mem.Size()
}

// Delete removes the records from the database, then from the in-memory index.
func (s *SQLiteStore) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	stmt, err := tx.PrepareContext(ctx, `DELETE FROM records WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare delete: %w", err)
	}
	defer stmt.Close()
	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, id); err != nil {
			return fmt.Errorf("failed to delete record %s: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}
	s.mem.mu.Lock()
	s.mem.deleteLocked(ids)
	s.mem.mu.Unlock()
	return nil
}

// Clear deletes every record from the database and memory.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM records`); err != nil {
		return fmt.Errorf("failed to clear records: %w", err)
	}
	return s.mem.Clear(ctx)
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
