package vector

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hyperjump/kotae/internal/config"
)

func TestNew_Memory(t *testing.T) {
	for _, backend := range []string{"memory", ""} {
		s, err := New(context.Background(), config.StorageConfig{Backend: backend}, 3, nil)
		if err != nil {
			t.Fatalf("New(%q): %v", backend, err)
		}
		if _, ok := s.(*MemoryStore); !ok {
			t.Errorf("New(%q) = %T", backend, s)
		}
		s.Close()
	}
}

func TestNew_SQLite(t *testing.T) {
	cfg := config.StorageConfig{Backend: "sqlite", VectorPath: filepath.Join(t.TempDir(), "v.db")}
	s, err := New(context.Background(), cfg, 3, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if err := s.Upsert(context.Background(), "a", "a", unit(1, 0, 0)); err != nil {
		t.Fatal(err)
	}
	if s.Size() != 1 {
		t.Errorf("Size=%d, want 1", s.Size())
	}
}

func TestNew_Unknown(t *testing.T) {
	if _, err := New(context.Background(), config.StorageConfig{Backend: "faiss"}, 3, nil); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestNew_InvalidDimension(t *testing.T) {
	if _, err := New(context.Background(), config.StorageConfig{Backend: "memory"}, 0, nil); err == nil {
		t.Error("expected error for zero dimension")
	}
}
