// Package models defines core data structures for documents, chunks, queries, and answers.
package models

import "time"

// Document is a loaded source document. Immutable once loaded.
type Document struct {
	ID         string                 `json:"id"`
	Source     string                 `json:"source,omitempty"`
	Title      string                 `json:"title,omitempty"`
	Content    string                 `json:"content,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	ChunkCount int                    `json:"chunk_count"`
	IndexedAt  time.Time              `json:"indexed_at"`
}

// Chunk is a contiguous paragraph span of a document. Index is its zero-based position
// in the chunker output; ID is unique across documents.
type Chunk struct {
	ID         string `json:"id"`
	DocumentID string `json:"document_id"`
	Index      int    `json:"index"`
	Text       string `json:"text"`
}

// DocumentInput is the input for indexing inline text.
type DocumentInput struct {
	ID       string                 `json:"id,omitempty"`
	Title    string                 `json:"title,omitempty"`
	Content  string                 `json:"content"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}
