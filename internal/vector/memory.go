package vector

import (
	"context"
	"fmt"
	"sync"

	"github.com/hyperjump/kotae/pkg/utils"
)

// MemoryStore is an in-memory store with exact brute-force inner product search.
// Upserts take the write lock; queries share the read lock.
type MemoryStore struct {
	dimensions int
	records    []*Record
	byID       map[string]int
	nextSeq    uint64
	mu         sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store for vectors of the given dimension.
func NewMemoryStore(dimensions int) (*MemoryStore, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	return &MemoryStore{
		dimensions: dimensions,
		byID:       make(map[string]int),
	}, nil
}

// Type returns the backend identifier.
func (m *MemoryStore) Type() string {
	return string(BackendMemory)
}

// Dimensions returns the vector dimension.
func (m *MemoryStore) Dimensions() int {
	return m.dimensions
}

// Upsert inserts a record or replaces the text and vector of an existing one.
func (m *MemoryStore) Upsert(ctx context.Context, id, text string, vec []float32) error {
	if err := m.validate(id, vec); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(id, text, vec, m.seqOfLocked(id))
	return nil
}

func (m *MemoryStore) validate(id string, vec []float32) error {
	if id == "" {
		return ErrEmptyID
	}
	if len(vec) != m.dimensions {
		return fmt.Errorf("%w: got %d, expected %d", ErrDimensionMismatch, len(vec), m.dimensions)
	}
	return nil
}

// seqOfLocked returns the existing sequence of id or the next free one.
func (m *MemoryStore) seqOfLocked(id string) uint64 {
	if i, ok := m.byID[id]; ok {
		return m.records[i].Seq
	}
	return m.nextSeq
}

// put stores a copy of vec under id. Caller holds the write lock.
func (m *MemoryStore) put(id, text string, vec []float32, seq uint64) {
	v := make([]float32, len(vec))
	copy(v, vec)
	if i, ok := m.byID[id]; ok {
		m.records[i] = &Record{ID: id, Text: text, Vector: v, Seq: m.records[i].Seq}
		return
	}
	m.byID[id] = len(m.records)
	m.records = append(m.records, &Record{ID: id, Text: text, Vector: v, Seq: seq})
	if seq >= m.nextSeq {
		m.nextSeq = seq + 1
	}
}

// Query returns the texts of the top-k records by inner product.
func (m *MemoryStore) Query(ctx context.Context, vec []float32, k int) ([]string, error) {
	results, err := m.Search(ctx, vec, k)
	if err != nil {
		return nil, err
	}
	return Texts(results), nil
}

// Search returns the top-k records by inner product, ties broken by insertion order.
// An empty store or k <= 0 yields an empty result.
func (m *MemoryStore) Search(ctx context.Context, vec []float32, k int) ([]*Result, error) {
	if len(vec) != m.dimensions {
		return nil, fmt.Errorf("%w: query has %d, expected %d", ErrDimensionMismatch, len(vec), m.dimensions)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if k <= 0 || len(m.records) == 0 {
		return []*Result{}, nil
	}
	if k > len(m.records) {
		k = len(m.records)
	}
	top := newTopK(k)
	for i, rec := range m.records {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		top.offer(candidate{rec: rec, score: utils.Dot(vec, rec.Vector)})
	}
	return top.results(), nil
}

// Records returns the stored records in insertion order.
func (m *MemoryStore) Records() []Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Record, len(m.records))
	for i, r := range m.records {
		out[i] = *r
	}
	return out
}

// Size returns the number of records.
func (m *MemoryStore) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// Delete removes the records with the given ids, keeping the remaining ones in insertion order.
func (m *MemoryStore) Delete(ctx context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteLocked(ids)
	return nil
}

func (m *MemoryStore) deleteLocked(ids []string) {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := m.byID[id]; ok {
			drop[id] = true
		}
	}
	if len(drop) == 0 {
		return
	}
	kept := m.records[:0]
	for _, rec := range m.records {
		if drop[rec.ID] {
			delete(m.byID, rec.ID)
			continue
		}
		m.byID[rec.ID] = len(kept)
		kept = append(kept, rec)
	}
	for i := len(kept); i < len(m.records); i++ {
		m.records[i] = nil
	}
	m.records = kept
}

// Clear removes every record.
func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = nil
	m.byID = make(map[string]int)
	m.nextSeq = 0
	return nil
}

// Close is a no-op for MemoryStore.
func (m *MemoryStore) Close() error {
	return nil
}
