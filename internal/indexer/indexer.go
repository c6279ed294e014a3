package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/extract"
	"github.com/hyperjump/kotae/internal/failure"
	"github.com/hyperjump/kotae/internal/fileid"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/storage"
	"github.com/hyperjump/kotae/internal/vector"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 4

// Indexer runs the index flow: load, chunk, embed, store.
type Indexer struct {
	embedder    embedding.Embedder
	store       vector.Store
	catalog     storage.Catalog
	chunker     *Chunker
	extractor   *extract.Extractor
	concurrency int
	logger      *zap.Logger
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for debug output (file indexed, file skipped, etc.).
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) { idx.logger = l }
}

// WithConcurrency bounds the number of chunks embedded in parallel.
func WithConcurrency(n int) IndexerOption {
	return func(idx *Indexer) {
		if n > 0 {
			idx.concurrency = n
		}
	}
}

// WithChunker replaces the default chunker, which filters empty paragraphs.
func WithChunker(c *Chunker) IndexerOption {
	return func(idx *Indexer) { idx.chunker = c }
}

// WithExtractor sets the extractor used by IndexFile. Without one, files are read as plain text.
func WithExtractor(e *extract.Extractor) IndexerOption {
	return func(idx *Indexer) { idx.extractor = e }
}

// NewIndexer creates an indexer writing chunks to store and documents to catalog.
func NewIndexer(embedder embedding.Embedder, store vector.Store, catalog storage.Catalog, opts ...IndexerOption) *Indexer {
	idx := &Indexer{
		embedder:    embedder,
		store:       store,
		catalog:     catalog,
		chunker:     NewChunker(false),
		concurrency: defaultConcurrency,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// Chunker returns the chunker used by the indexer.
func (idx *Indexer) Chunker() *Chunker {
	return idx.chunker
}

// IndexText indexes inline text. A missing ID is replaced by a random one.
func (idx *Indexer) IndexText(ctx context.Context, input *models.DocumentInput) (*models.Document, error) {
	if input == nil {
		return nil, failure.Input(failure.StageLoaded, errors.New("document input is required"))
	}
	id := strings.TrimSpace(input.ID)
	if id == "" {
		id = fileid.NewTextID()
	}
	doc := &models.Document{
		ID:       id,
		Title:    input.Title,
		Metadata: input.Metadata,
	}
	if err := idx.index(ctx, doc, input.Content); err != nil {
		return nil, err
	}
	return doc, nil
}

const (
	metaKeySourcePath  = "source_path"
	metaKeySourceMtime = "source_mtime"
	metaKeySourceSize  = "source_size"
)

// IndexFile reads a file from path and indexes it. The document ID is derived from the
// absolute path so re-indexing replaces the same records. If allowedExts is non-empty, the
// file's extension must be in the list (case-insensitive).
// A file already indexed with the same mtime and size is skipped and its catalog entry returned.
func (idx *Indexer) IndexFile(ctx context.Context, path string, allowedExts []string) (*models.Document, error) {
	idx.logger.Debug("indexer indexing file", zap.String("path", path))
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, failure.Input(failure.StageLoaded, fmt.Errorf("absolute path: %w", err))
	}
	ext := strings.ToLower(filepath.Ext(absPath))
	if len(allowedExts) > 0 && !extensionAllowed(ext, allowedExts) {
		return nil, failure.Input(failure.StageLoaded, fmt.Errorf("extension %q not in allowed list", ext))
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, failure.Input(failure.StageLoaded, fmt.Errorf("stat file: %w", err))
	}
	if !info.Mode().IsRegular() {
		return nil, failure.Input(failure.StageLoaded, fmt.Errorf("not a regular file: %s", absPath))
	}
	docID := fileid.DocID(absPath)
	if doc, ok := idx.unchanged(ctx, absPath, docID, info); ok {
		idx.logger.Debug("indexer skipping unchanged file", zap.String("path", absPath))
		return doc, nil
	}
	text, err := idx.extractContent(absPath)
	if err != nil {
		return nil, failure.Input(failure.StageLoaded, fmt.Errorf("extract content: %w", err))
	}
	doc := &models.Document{
		ID:     docID,
		Source: absPath,
		Title:  filepath.Base(absPath),
		Metadata: map[string]interface{}{
			metaKeySourcePath:  absPath,
			metaKeySourceMtime: strconv.FormatInt(info.ModTime().UnixNano(), 10),
			metaKeySourceSize:  strconv.FormatInt(info.Size(), 10),
		},
	}
	if err := idx.index(ctx, doc, text); err != nil {
		return nil, err
	}
	idx.logger.Debug("indexer file indexed",
		zap.String("path", absPath),
		zap.String("doc_id", docID),
		zap.Int("chunks", doc.ChunkCount))
	return doc, nil
}

// unchanged returns the catalog entry of a file already indexed with the same mtime and size.
func (idx *Indexer) unchanged(ctx context.Context, absPath, docID string, info os.FileInfo) (*models.Document, bool) {
	if idx.store.Size() == 0 {
		return nil, false
	}
	doc, err := idx.catalog.GetDocument(ctx, docID)
	if err != nil || doc.Metadata == nil {
		return nil, false
	}
	if doc.Metadata[metaKeySourcePath] != absPath {
		return nil, false
	}
	// Values are stored as strings to avoid JSON float64 precision loss (UnixNano exceeds 53 bits).
	if metadataInt64(doc.Metadata, metaKeySourceMtime) != info.ModTime().UnixNano() ||
		metadataInt64(doc.Metadata, metaKeySourceSize) != info.Size() {
		return nil, false
	}
	return doc, true
}

func metadataInt64(m map[string]interface{}, key string) int64 {
	switch n := m[key].(type) {
	case string:
		x, _ := strconv.ParseInt(n, 10, 64)
		return x
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

// index chunks text, embeds every chunk, and only then writes the records and the catalog entry.
// Records left over from a longer previous version of the document are removed.
func (idx *Indexer) index(ctx context.Context, doc *models.Document, text string) error {
	if isBlank(text) {
		return failure.Input(failure.StageChunked, fmt.Errorf("%s: %w", doc.ID, failure.ErrEmptyDocument))
	}
	chunks := idx.chunker.Chunk(doc.ID, text)
	if len(chunks) == 0 {
		return failure.Input(failure.StageChunked, fmt.Errorf("%s: %w", doc.ID, failure.ErrEmptyDocument))
	}

	vectors, err := idx.embedChunks(ctx, chunks)
	if err != nil {
		return failure.Upstream(failure.StageEmbedded, err)
	}

	previous := 0
	if prev, err := idx.catalog.GetDocument(ctx, doc.ID); err == nil {
		previous = prev.ChunkCount
	}
	for i, ch := range chunks {
		if err := idx.store.Upsert(ctx, ch.ID, ch.Text, vectors[i]); err != nil {
			if errors.Is(err, vector.ErrDimensionMismatch) || errors.Is(err, vector.ErrEmptyID) {
				return failure.Input(failure.StageStored, err)
			}
			return failure.Internal(failure.StageStored, fmt.Errorf("store chunk %s: %w", ch.ID, err))
		}
	}
	if previous > len(chunks) {
		stale := make([]string, 0, previous-len(chunks))
		for i := len(chunks); i < previous; i++ {
			stale = append(stale, fileid.ChunkID(doc.ID, i))
		}
		if err := idx.store.Delete(ctx, stale); err != nil {
			return failure.Internal(failure.StageStored, fmt.Errorf("remove stale chunks: %w", err))
		}
	}

	doc.Content = text
	doc.ChunkCount = len(chunks)
	doc.IndexedAt = time.Now().UTC()
	if err := idx.catalog.PutDocument(ctx, doc); err != nil {
		return failure.Internal(failure.StageStored, fmt.Errorf("failed to store document: %w", err))
	}
	return nil
}

// embedChunks embeds chunks in parallel. vectors[i] belongs to chunks[i].
func (idx *Indexer) embedChunks(ctx context.Context, chunks []*models.Chunk) ([][]float32, error) {
	vectors := make([][]float32, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(idx.concurrency)
	for i, ch := range chunks {
		i, text := i, ch.Text
		g.Go(func() error {
			vec, err := idx.embedder.Embed(gctx, text)
			if err != nil {
				return fmt.Errorf("embed chunk %d: %w", i, err)
			}
			vectors[i] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

// IndexDirectory walks dir and indexes each regular file whose extension is in allowedExts
// (all files when empty). Subdirectories are visited only when recursive is set.
// Returns the number of files indexed and the first error encountered, if any.
func (idx *Indexer) IndexDirectory(ctx context.Context, dir string, allowedExts []string, recursive bool) (n int, err error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return 0, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return 0, failure.Input(failure.StageLoaded, fmt.Errorf("stat directory: %w", err))
	}
	if !info.IsDir() {
		return 0, failure.Input(failure.StageLoaded, fmt.Errorf("not a directory: %s", absDir))
	}
	err = filepath.WalkDir(absDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if path != absDir && !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if len(allowedExts) > 0 && !extensionAllowed(ext, allowedExts) {
			return nil
		}
		// Resolve symlinks so we only index regular files
		finfo, statErr := os.Stat(path)
		if statErr != nil || !finfo.Mode().IsRegular() {
			return nil
		}
		if _, indexErr := idx.IndexFile(ctx, path, allowedExts); indexErr != nil {
			if errors.Is(indexErr, failure.ErrEmptyDocument) {
				idx.logger.Debug("indexer skipping empty file", zap.String("path", path))
				return nil
			}
			return indexErr
		}
		n++
		return nil
	})
	return n, err
}

func (idx *Indexer) extractContent(path string) (string, error) {
	if idx.extractor != nil {
		return idx.extractor.Extract(path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// extensionAllowed reports whether ext is in allowed, ignoring case and the leading dot.
func extensionAllowed(ext string, allowed []string) bool {
	extNorm := strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == extNorm {
			return true
		}
	}
	return false
}
