package embedding

import (
	"context"
	"math"
	"testing"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/pkg/utils"
)

func TestNew_Hashing(t *testing.T) {
	e, err := New(config.EmbeddingConfig{Provider: "hashing", Dimensions: 32, CacheSize: 4}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()
	if _, ok := e.(*CachedEmbedder); !ok {
		t.Errorf("expected cached embedder, got %T", e)
	}
	v, err := e.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(utils.L2Norm(v)-1) > 1e-5 {
		t.Errorf("norm=%f", utils.L2Norm(v))
	}
}

func TestNew_NoCache(t *testing.T) {
	e, err := New(config.EmbeddingConfig{Provider: "hashing", Dimensions: 32}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := e.(*normalized); !ok {
		t.Errorf("expected normalized embedder, got %T", e)
	}
}

func TestNew_Unknown(t *testing.T) {
	if _, err := New(config.EmbeddingConfig{Provider: "magic", Dimensions: 8}, nil); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestNew_OpenAIRequiresModel(t *testing.T) {
	if _, err := New(config.EmbeddingConfig{Provider: "openai", Dimensions: 8}, nil); err == nil {
		t.Error("expected error without model")
	}
}
