// Package indexer splits documents into paragraph chunks and indexes them into the vector store.
package indexer

import (
	"strings"

	"github.com/hyperjump/kotae/internal/fileid"
	"github.com/hyperjump/kotae/internal/models"
)

// ParagraphSeparator delimits chunks in normalized text.
const ParagraphSeparator = "\n\n"

// Chunker splits text into paragraph chunks.
type Chunker struct {
	keepEmpty bool
}

// NewChunker creates a chunker. With keepEmpty, empty and whitespace-only segments produced by
// runs of blank lines are kept as chunks, so joining Split's output with ParagraphSeparator
// reconstructs the normalized input exactly.
func NewChunker(keepEmpty bool) *Chunker {
	return &Chunker{keepEmpty: keepEmpty}
}

// Split returns the paragraphs of text in order.
func (c *Chunker) Split(text string) []string {
	segments := strings.Split(NormalizeNewlines(text), ParagraphSeparator)
	if c.keepEmpty {
		return segments
	}
	out := segments[:0]
	for _, s := range segments {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

// Chunk splits text and assigns each paragraph its position and ID within docID.
func (c *Chunker) Chunk(docID, text string) []*models.Chunk {
	parts := c.Split(text)
	if len(parts) == 0 {
		return nil
	}
	chunks := make([]*models.Chunk, len(parts))
	for i, p := range parts {
		chunks[i] = &models.Chunk{
			ID:         fileid.ChunkID(docID, i),
			DocumentID: docID,
			Index:      i,
			Text:       p,
		}
	}
	return chunks
}
