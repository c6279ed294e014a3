// Package extract turns document files into plain text whose paragraphs are separated by
// blank lines, the unit the chunker splits on.
package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupported is returned for extensions with no extractor.
var ErrUnsupported = errors.New("unsupported document format")

// paragraphSep separates paragraphs, pages and sheets in extracted text.
const paragraphSep = "\n\n"

// Extractor extracts plain text from document files.
type Extractor struct {
	// Strict rejects unknown extensions instead of reading them as plain text.
	Strict bool
}

// NewExtractor returns a new Extractor that reads unknown extensions as plain text.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// SupportedExtensions lists the extensions with a dedicated extractor.
func SupportedExtensions() []string {
	return []string{".txt", ".md", ".rst", ".pdf", ".docx", ".xlsx", ".odt", ".rtf"}
}

// Extract reads the file at path and returns its text content.
func (e *Extractor) Extract(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return e.ExtractBytes(content, strings.ToLower(filepath.Ext(path)))
}

// ExtractBytes extracts text from content based on the given extension.
// ext should include the leading dot (e.g. ".pdf").
func (e *Extractor) ExtractBytes(content []byte, ext string) (string, error) {
	switch strings.ToLower(ext) {
	case ".pdf":
		return extractPDF(content)
	case ".docx":
		return extractDOCX(content)
	case ".xlsx":
		return extractExcel(content)
	case ".odt", ".rtf":
		return extractOffice(content)
	case ".txt", ".md", ".rst", "":
		return extractPlain(content)
	default:
		if e.Strict {
			return "", fmt.Errorf("%w: %s", ErrUnsupported, ext)
		}
		return extractPlain(content)
	}
}

// joinParagraphs trims each part and joins the non-empty ones with a blank line.
func joinParagraphs(parts []string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, paragraphSep)
}
