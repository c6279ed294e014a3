package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hyperjump/kotae/internal/models"
)

// MemoryCatalog is an in-process Catalog, used with the ephemeral vector store.
type MemoryCatalog struct {
	mu   sync.RWMutex
	docs map[string]*models.Document
}

// NewMemoryCatalog returns an empty catalog.
func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{docs: make(map[string]*models.Document)}
}

func (m *MemoryCatalog) PutDocument(ctx context.Context, doc *models.Document) error {
	if doc.IndexedAt.IsZero() {
		doc.IndexedAt = time.Now()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[doc.ID] = catalogEntry(doc)
	return nil
}

func (m *MemoryCatalog) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	c := *doc
	return &c, nil
}

func (m *MemoryCatalog) ListDocuments(ctx context.Context, offset, limit int) ([]*models.Document, error) {
	m.mu.RLock()
	all := make([]*models.Document, 0, len(m.docs))
	for _, d := range m.docs {
		c := *d
		all = append(all, &c)
	}
	m.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].IndexedAt.Equal(all[j].IndexedAt) {
			return all[i].IndexedAt.After(all[j].IndexedAt)
		}
		return all[i].ID < all[j].ID
	})
	if offset < 0 {
		offset = 0
	}
	if offset >= len(all) {
		return []*models.Document{}, nil
	}
	all = all[offset:]
	if limit >= 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (m *MemoryCatalog) CountDocuments(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.docs)), nil
}

func (m *MemoryCatalog) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = make(map[string]*models.Document)
	return nil
}

func (m *MemoryCatalog) Close() error {
	return nil
}
