// Package cli provides output formatting for the kotae command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

const separator = "─────────────────────────────────────────────────────────"

// ParseFormat maps a --output value onto an OutputFormat.
func ParseFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(s))) {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteAnswer writes an answer and the chunks it was grounded on.
func WriteAnswer(w io.Writer, resp *models.AskResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, resp)
	}
	fmt.Fprintf(w, "\n%s\n\n", resp.Answer)
	if len(resp.Reranked) > 0 {
		fmt.Fprintf(w, "--- Context (%d of %d retrieved) ---\n", len(resp.Reranked), len(resp.Retrieved))
		for i, chunk := range resp.Reranked {
			writeChunk(w, i+1, chunk)
		}
	}
	t := resp.Timings
	fmt.Fprintf(w, "Answered in %dms (embed %dms, retrieve %dms, rerank %dms, generate %dms)\n",
		resp.QueryTime, t.EmbedMs, t.RetrieveMs, t.RerankMs, t.GenerateMs)
	return nil
}

// WriteChunks writes retrieved chunks in similarity order.
func WriteChunks(w io.Writer, resp *models.RetrieveResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, resp)
	}
	fmt.Fprintf(w, "\nRetrieved %d chunks for %q\n\n", len(resp.Chunks), resp.Query)
	for i, chunk := range resp.Chunks {
		writeChunk(w, i+1, chunk)
	}
	return nil
}

func writeChunk(w io.Writer, rank int, chunk string) {
	fmt.Fprintln(w, separator)
	fmt.Fprintf(w, "[%d] %s\n\n", rank, utils.Truncate(chunk, 300))
}

// WriteStatus writes the pipeline status.
func WriteStatus(w io.Writer, st *models.Status, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, st)
	}
	fmt.Fprintf(w, "documents:          %d   # count of indexed documents\n", st.Documents)
	fmt.Fprintf(w, "records:            %d   # count of stored chunk vectors\n", st.Records)
	if st.DiskUsageBytes != nil {
		fmt.Fprintf(w, "disk_usage_bytes:   %d   # catalog + vector store on disk\n", *st.DiskUsageBytes)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "# configuration")
	fmt.Fprintf(w, "store_backend:      %s\n", st.StoreBackend)
	fmt.Fprintf(w, "embedding_model:    %s\n", st.EmbeddingModel)
	if st.Dimensions > 0 {
		fmt.Fprintf(w, "embedding_dims:     %d\n", st.Dimensions)
	}
	fmt.Fprintf(w, "reranker_model:     %s\n", st.RerankerModel)
	fmt.Fprintf(w, "generation_model:   %s\n", st.GenerationModel)
	return nil
}

// WriteDocuments writes a page of the document catalog.
func WriteDocuments(w io.Writer, docs []*models.Document, format OutputFormat) error {
	if format == OutputJSON {
		if docs == nil {
			docs = []*models.Document{}
		}
		return writeJSON(w, docs)
	}
	if len(docs) == 0 {
		fmt.Fprintln(w, "No documents indexed.")
		return nil
	}
	for _, d := range docs {
		name := d.Title
		if name == "" {
			name = d.Source
		}
		fmt.Fprintf(w, "%s\t%d chunks\t%s\t%s\n", d.ID, d.ChunkCount, d.IndexedAt.Format("2006-01-02 15:04:05"), name)
	}
	return nil
}
