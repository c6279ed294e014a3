// Package storage keeps the document catalog: which sources were indexed, when, and into
// how many chunks. Chunk texts and vectors live in the vector store.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/kotae/internal/models"
)

// ErrNotFound is returned when a document is not in the catalog.
var ErrNotFound = errors.New("document not found")

// Catalog defines document catalog operations. PutDocument inserts or replaces by ID.
type Catalog interface {
	PutDocument(ctx context.Context, doc *models.Document) error
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	ListDocuments(ctx context.Context, offset, limit int) ([]*models.Document, error)
	CountDocuments(ctx context.Context) (int64, error)
	Clear(ctx context.Context) error
	Close() error
}

// catalogEntry drops the content; the catalog never stores document bodies.
func catalogEntry(doc *models.Document) *models.Document {
	c := *doc
	c.Content = ""
	return &c
}
