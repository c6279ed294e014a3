package models

import (
	"fmt"
	"strings"

	"github.com/hyperjump/kotae/internal/failure"
)

// MaxTopK caps retrieve_k and rerank_k on requests.
const MaxTopK = 100

// AskRequest asks a question against the indexed documents.
// Zero RetrieveK/RerankK mean "use configured defaults".
type AskRequest struct {
	Query     string `json:"query"`
	RetrieveK int    `json:"retrieve_k,omitempty"`
	RerankK   int    `json:"rerank_k,omitempty"`
}

// Validate trims the query and fills defaults. Returns an input error if the query is empty
// or a top-k is negative.
func (r *AskRequest) Validate(defaultRetrieveK, defaultRerankK int) error {
	r.Query = strings.TrimSpace(r.Query)
	if r.Query == "" {
		return failure.Input(failure.StageQueryEmbedded, failure.ErrEmptyQuery)
	}
	if r.RetrieveK < 0 || r.RerankK < 0 {
		return failure.Input(failure.StageQueryEmbedded,
			fmt.Errorf("%w: retrieve_k=%d rerank_k=%d", failure.ErrInvalidTopK, r.RetrieveK, r.RerankK))
	}
	if r.RetrieveK == 0 {
		r.RetrieveK = defaultRetrieveK
	}
	if r.RerankK == 0 {
		r.RerankK = defaultRerankK
	}
	if r.RetrieveK > MaxTopK {
		r.RetrieveK = MaxTopK
	}
	if r.RerankK > MaxTopK {
		r.RerankK = MaxTopK
	}
	return nil
}

// RetrieveRequest returns retrieved chunks without reranking or generation.
type RetrieveRequest struct {
	Query string `json:"query"`
	K     int    `json:"k,omitempty"`
}

// Validate trims the query and fills the default k, capped at MaxTopK.
func (r *RetrieveRequest) Validate(defaultK int) error {
	r.Query = strings.TrimSpace(r.Query)
	if r.Query == "" {
		return failure.Input(failure.StageQueryEmbedded, failure.ErrEmptyQuery)
	}
	if r.K < 0 {
		return failure.Input(failure.StageQueryEmbedded, fmt.Errorf("%w: k=%d", failure.ErrInvalidTopK, r.K))
	}
	if r.K == 0 {
		r.K = defaultK
	}
	if r.K > MaxTopK {
		r.K = MaxTopK
	}
	return nil
}

// IndexRequest indexes either a file on the server's filesystem (Path) or inline text.
type IndexRequest struct {
	Path string `json:"path,omitempty"`
	DocumentInput
}
