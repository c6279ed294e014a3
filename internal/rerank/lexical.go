package rerank

import (
	"context"
	"fmt"
	"strconv"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
)

// LexicalScorer scores passages by TF-IDF term relevance. Each call builds an in-memory
// Bleve index over the passages and runs the query as a match query against it.
// Passages that match no query term score zero.
type LexicalScorer struct{}

// NewLexicalScorer returns a Bleve-backed scorer.
func NewLexicalScorer() *LexicalScorer {
	return &LexicalScorer{}
}

type passageDoc struct {
	Content string `json:"content"`
}

// Score indexes passages under their position and returns each one's hit score.
func (s *LexicalScorer) Score(ctx context.Context, query string, passages []string) ([]float64, error) {
	scores := make([]float64, len(passages))
	if len(passages) == 0 {
		return scores, nil
	}

	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("content", textFieldMapping)
	im.DefaultMapping = docMapping

	index, err := bleve.NewMemOnly(im)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	defer index.Close()

	batch := index.NewBatch()
	for i, p := range passages {
		if err := batch.Index(strconv.Itoa(i), passageDoc{Content: p}); err != nil {
			return nil, fmt.Errorf("failed to index passage %d: %w", i, err)
		}
	}
	if err := index.Batch(batch); err != nil {
		return nil, fmt.Errorf("failed to index passages: %w", err)
	}

	q := bleve.NewMatchQuery(query)
	q.SetField("content")
	req := bleve.NewSearchRequest(q)
	req.Size = len(passages)
	results, err := index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}
	for _, hit := range results.Hits {
		i, err := strconv.Atoi(hit.ID)
		if err != nil || i < 0 || i >= len(scores) {
			continue
		}
		scores[i] = hit.Score
	}
	return scores, nil
}
