package main

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/embedding"
	"github.com/hyperjump/kotae/internal/extract"
	"github.com/hyperjump/kotae/internal/generate"
	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/pipeline"
	"github.com/hyperjump/kotae/internal/rerank"
	"github.com/hyperjump/kotae/internal/server"
	"github.com/hyperjump/kotae/internal/vector"
	"go.uber.org/zap"
)

func TestArgsReorder(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{"flags after question are moved first", []string{"capital of France", "-k", "3"}, []string{"-k", "3", "capital of France"}},
		{"flags first returns unchanged", []string{"-k", "3", "capital of France"}, []string{"-k", "3", "capital of France"}},
		{"question only returns unchanged", []string{"capital of France"}, []string{"capital of France"}},
		{"empty args returns unchanged", []string{}, []string{}},
		{"multiple positionals then flags", []string{"one", "two", "--json"}, []string{"--json", "one", "two"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := argsReorder(tt.args)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("argsReorder() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"single word", []string{"Paris"}, "Paris"},
		{"multiple words", []string{"capital", "of", "France?"}, "capital of France?"},
		{"single quoted phrase", []string{"capital of France?"}, "capital of France?"},
		{"empty args", []string{}, ""},
		{"blank args", []string{"  ", "  "}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildQuery(tt.args); got != tt.expected {
				t.Errorf("buildQuery(%v) = %q, want %q", tt.args, got, tt.expected)
			}
		})
	}
}

func TestStringList(t *testing.T) {
	var s stringList
	_ = s.Set("a.md")
	_ = s.Set("b.pdf")
	if !reflect.DeepEqual([]string(s), []string{"a.md", "b.pdf"}) || s.String() != "a.md,b.pdf" {
		t.Errorf("stringList = %v (%q)", []string(s), s.String())
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(origWd) })
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
}

func TestLoadConfig_prefersCwdConfigWhenDefaultPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
debug: true
storage:
  backend: sqlite
  database_path: "./test.db"
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	chdir(t, dir)

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	// On macOS, cwd can be /private/var/... while t.TempDir() is /var/...
	resolvedCanon, _ := filepath.EvalSymlinks(resolved)
	configPathCanon, _ := filepath.EvalSymlinks(configPath)
	if resolvedCanon != configPathCanon {
		t.Errorf("resolved path = %s, want %s", resolved, configPath)
	}
	if !cfg.Debug || cfg.Storage.Backend != "sqlite" {
		t.Errorf("unexpected config: debug=%v backend=%s", cfg.Debug, cfg.Storage.Backend)
	}
}

func TestLoadConfig_defaultsWhenNoFile(t *testing.T) {
	if _, err := os.Stat(defaultConfigPath); err == nil {
		t.Skip("a system config exists at the default path")
	}
	chdir(t, t.TempDir())
	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != "" {
		t.Errorf("resolved = %q, want empty", resolved)
	}
	if cfg.Storage.Backend != "memory" || cfg.Retrieval.TopKRetrieve != 5 {
		t.Errorf("defaults not applied: %+v", cfg.Storage)
	}
}

func TestLoadConfig_usesExplicitPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != configPath {
		t.Errorf("resolved path = %s, want %s", resolved, configPath)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}

	if _, _, err := loadConfig(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for explicit missing path")
	}
}

func newTestAPI(t *testing.T) *apiClient {
	t.Helper()
	emb := embedding.NewHashingEmbedder(384)
	store, err := vector.NewMemoryStore(emb.Dimensions())
	if err != nil {
		t.Fatal(err)
	}
	completer := generate.CompleterFunc(func(_ context.Context, prompt string) (string, error) {
		if strings.Contains(prompt, "Paris") {
			return "Paris.", nil
		}
		return "I don't know.", nil
	})
	p, err := pipeline.New(pipeline.Deps{
		Embedder:  emb,
		Store:     store,
		Scorer:    rerank.NewLexicalScorer(),
		Completer: completer,
		Extractor: extract.NewExtractor(),
	}, pipeline.WithLogger(zap.NewNop()))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { p.Close() })
	srv := server.NewServer(p, &config.ServerConfig{}, zap.NewNop())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return newAPIClient(ts.URL + "/")
}

func TestAPIClient_roundTrip(t *testing.T) {
	c := newTestAPI(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "capitals.md")
	if err := os.WriteFile(path, []byte("Paris is the capital of France.\n\nBerlin is the capital of Germany."), 0600); err != nil {
		t.Fatal(err)
	}
	idx, err := c.Index(ctx, &models.IndexRequest{Path: path})
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	if idx.Chunks != 2 {
		t.Errorf("chunks = %d, want 2", idx.Chunks)
	}

	ans, err := c.Ask(ctx, &models.AskRequest{Query: "What is the capital of France?", RerankK: 1})
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if ans.Answer != "Paris." || len(ans.Reranked) != 1 {
		t.Errorf("ask: %+v", ans)
	}

	ret, err := c.Retrieve(ctx, &models.RetrieveRequest{Query: "capital of Germany", K: 1})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(ret.Chunks) != 1 || ret.Chunks[0] != "Berlin is the capital of Germany." {
		t.Errorf("retrieve: %+v", ret.Chunks)
	}

	docs, err := c.Documents(ctx, 0, 10)
	if err != nil || len(docs) != 1 {
		t.Fatalf("Documents: %v %v", docs, err)
	}
	st, err := c.Status(ctx)
	if err != nil || st.Records != 2 {
		t.Fatalf("Status: %+v %v", st, err)
	}
	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if st, _ = c.Status(ctx); st.Records != 0 {
		t.Errorf("records after clear = %d", st.Records)
	}
}

func TestAPIClient_errorsCarryServerMessage(t *testing.T) {
	c := newTestAPI(t)
	_, err := c.Ask(context.Background(), &models.AskRequest{Query: "  "})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "400") || !strings.Contains(err.Error(), "query is empty") {
		t.Errorf("error = %v", err)
	}
	if _, err := c.WatchDirectories(context.Background()); err == nil || !strings.Contains(err.Error(), "501") {
		t.Errorf("watch without watcher: %v", err)
	}
}
