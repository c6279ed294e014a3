package rerank

import (
	"testing"

	"github.com/hyperjump/kotae/internal/config"
)

func TestNewScorer(t *testing.T) {
	s, closer, err := NewScorer(config.RerankerConfig{Provider: "lexical"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*LexicalScorer); !ok {
		t.Errorf("got %T", s)
	}
	if err := closer.Close(); err != nil {
		t.Error(err)
	}
}

func TestNewScorer_Unknown(t *testing.T) {
	if _, _, err := NewScorer(config.RerankerConfig{Provider: "magic"}, nil); err == nil {
		t.Error("expected error for unknown provider")
	}
}
