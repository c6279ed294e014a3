package search

import (
	"fmt"
	"strings"

	"github.com/hyperjump/kotae/internal/failure"
	"github.com/hyperjump/kotae/internal/models"
)

// ProcessQuery trims the query and checks k. k is capped at models.MaxTopK.
func ProcessQuery(query string, k int) (string, int, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", 0, failure.Input(failure.StageQueryEmbedded, failure.ErrEmptyQuery)
	}
	if k < 0 {
		return "", 0, failure.Input(failure.StageQueryEmbedded, fmt.Errorf("%w: %d", failure.ErrInvalidTopK, k))
	}
	if k > models.MaxTopK {
		k = models.MaxTopK
	}
	return query, k, nil
}
