// Package vector provides the vector store: exact top-k cosine retrieval over chunk embeddings,
// held in memory, persisted to SQLite, or delegated to PostgreSQL with pgvector.
package vector

import (
	"context"
	"errors"
)

var (
	// ErrDimensionMismatch is returned when a vector's length differs from the store's dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrEmptyID is returned when upserting a record without an ID.
	ErrEmptyID = errors.New("record id cannot be empty")
)

// Store holds (id, text, vector) records. Upsert replaces by ID; Query returns the texts of
// the k records most similar to a unit vector. Implementations are safe for concurrent use.
type Store interface {
	Upsert(ctx context.Context, id, text string, vec []float32) error
	Query(ctx context.Context, vec []float32, k int) ([]string, error)
	Search(ctx context.Context, vec []float32, k int) ([]*Result, error)
	// Delete removes the records with the given ids. Unknown ids are ignored.
	Delete(ctx context.Context, ids []string) error
	Size() int
	Clear(ctx context.Context) error
	Close() error
}

// Record is one stored chunk. Seq is the insertion sequence; it breaks score ties and is
// kept when the record is replaced.
type Record struct {
	ID     string
	Text   string
	Vector []float32
	Seq    uint64
}

// Result is a single scored hit.
type Result struct {
	ID    string  `json:"id"`
	Text  string  `json:"text"`
	Score float64 `json:"score"` // Inner product; cosine similarity for unit vectors
}

// Texts returns the texts of results in order.
func Texts(results []*Result) []string {
	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = r.Text
	}
	return texts
}
