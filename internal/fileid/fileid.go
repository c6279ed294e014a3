// Package fileid provides deterministic document and chunk identifiers.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const (
	filePrefix = "file:"
	textPrefix = "text:"
	chunkSep   = "#"
)

// DocID returns a stable document ID for the given absolute path.
// Same path always yields the same ID, so re-indexing a file replaces its records.
func DocID(absolutePath string) string {
	normalized := filepath.Clean(absolutePath)
	hash := sha256.Sum256([]byte(normalized))
	return filePrefix + hex.EncodeToString(hash[:])
}

// NewTextID returns a random ID for inline text indexed without a caller-supplied ID.
func NewTextID() string {
	return textPrefix + uuid.NewString()
}

// ChunkID returns the record ID of the chunk at index within docID.
func ChunkID(docID string, index int) string {
	return docID + chunkSep + strconv.Itoa(index)
}

// ParseChunkID splits a chunk ID into its document ID and index.
func ParseChunkID(id string) (docID string, index int, ok bool) {
	i := strings.LastIndex(id, chunkSep)
	if i <= 0 {
		return "", 0, false
	}
	n, err := strconv.Atoi(id[i+1:])
	if err != nil || n < 0 {
		return "", 0, false
	}
	return id[:i], n, true
}
