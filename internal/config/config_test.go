package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  database_path: "test.db"
embedding:
  model: "text-embedding-3-small"
reranker:
  model: "bge-reranker-base"
generation:
  endpoint: "http://localhost:11434/v1"
  timeout: 15s
retrieval:
  top_k_retrieve: 8
  top_k_rerank: 2
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Embedding.Model != "text-embedding-3-small" {
		t.Errorf("embedding.model = %q", cfg.Embedding.Model)
	}
	if cfg.Reranker.Model != "bge-reranker-base" {
		t.Errorf("reranker.model = %q", cfg.Reranker.Model)
	}
	if cfg.Generation.Endpoint != "http://localhost:11434/v1" {
		t.Errorf("generation.endpoint = %q", cfg.Generation.Endpoint)
	}
	if cfg.Generation.Timeout != 15*time.Second {
		t.Errorf("generation.timeout = %v", cfg.Generation.Timeout)
	}
	if cfg.Retrieval.TopKRetrieve != 8 || cfg.Retrieval.TopKRerank != 2 {
		t.Errorf("retrieval = %+v", cfg.Retrieval)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	path := writeConfig(t, `
storage:
  database_path: "./data/db/documents.db"
  vector_path: "./data/db/vectors.db"
watch:
  directories: ["./dev/sample"]
`)
	dir := filepath.Dir(path)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "data", "db", "documents.db"); cfg.Storage.DatabasePath != want {
		t.Errorf("database_path = %s, want %s", cfg.Storage.DatabasePath, want)
	}
	if want := filepath.Join(dir, "data", "db", "vectors.db"); cfg.Storage.VectorPath != want {
		t.Errorf("vector_path = %s, want %s", cfg.Storage.VectorPath, want)
	}
	if len(cfg.Watch.Directories) != 1 || cfg.Watch.Directories[0] != filepath.Join(dir, "dev", "sample") {
		t.Errorf("watch directories = %v", cfg.Watch.Directories)
	}
}

func TestLoad_invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "server: [unterminated"},
		{"bad backend", "storage:\n  backend: redis\n"},
		{"bad embedding provider", "embedding:\n  provider: magic\n"},
		{"bad reranker provider", "reranker:\n  provider: magic\n"},
		{"onnx without model path", "embedding:\n  provider: onnx\n"},
		{"negative top k", "retrieval:\n  top_k_retrieve: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.content)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Default()
	if cfg.Server.Host != "localhost" || cfg.Server.Port != 8080 {
		t.Errorf("default server: %+v", cfg.Server)
	}
	if cfg.Storage.Backend != "memory" {
		t.Errorf("default backend: %s", cfg.Storage.Backend)
	}
	if cfg.Retrieval.TopKRetrieve != 5 || cfg.Retrieval.TopKRerank != 3 {
		t.Errorf("default retrieval: %+v", cfg.Retrieval)
	}
	if cfg.Embedding.Provider != "hashing" || cfg.Reranker.Provider != "lexical" {
		t.Errorf("default providers: embedding=%s reranker=%s", cfg.Embedding.Provider, cfg.Reranker.Provider)
	}
	if cfg.Generation.Timeout != 60*time.Second {
		t.Errorf("default generation timeout: %v", cfg.Generation.Timeout)
	}
	if cfg.Chunking.KeepEmpty {
		t.Error("empty segments should be filtered by default")
	}
	if len(cfg.Watch.Extensions) != 8 || cfg.Watch.Extensions[0] != ".txt" {
		t.Errorf("watch extensions: got %v", cfg.Watch.Extensions)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestApplyDefaults_WatchRecursiveWhenDirectoriesSet(t *testing.T) {
	cfg := &Config{Watch: WatchConfig{Directories: []string{"/tmp/docs"}}}
	ApplyDefaults(cfg)
	if cfg.Watch.Recursive == nil || !*cfg.Watch.Recursive {
		t.Error("recursive should default to true when directories are set")
	}
}

func TestWatchConfig_RecursiveOrDefault(t *testing.T) {
	f := false
	if !(&WatchConfig{}).RecursiveOrDefault() {
		t.Error("nil should return true")
	}
	if (&WatchConfig{Recursive: &f}).RecursiveOrDefault() {
		t.Error("false should return false")
	}
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.yaml")
	cfg := Default()
	cfg.Server.Port = 9090
	cfg.Generation.Timeout = 5 * time.Second
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("loaded port: got %d", loaded.Server.Port)
	}
	if loaded.Generation.Timeout != 5*time.Second {
		t.Errorf("loaded timeout: got %v", loaded.Generation.Timeout)
	}
}

func TestAPIKeyFromEnv(t *testing.T) {
	t.Setenv("KOTAE_TEST_KEY", "secret")
	g := GenerationConfig{APIKeyEnv: "KOTAE_TEST_KEY"}
	if g.APIKey() != "secret" {
		t.Errorf("APIKey() = %q", g.APIKey())
	}
	e := EmbeddingConfig{}
	if e.APIKey() != "" {
		t.Error("empty api_key_env should give empty key")
	}
}

func TestPostgresDSNOrEnv(t *testing.T) {
	t.Setenv("KOTAE_TEST_DSN", "postgres://env")
	s := StorageConfig{PostgresDSN: "postgres://file", PostgresDSNEnv: "KOTAE_TEST_DSN"}
	if got := s.PostgresDSNOrEnv(); got != "postgres://env" {
		t.Errorf("got %q", got)
	}
	s.PostgresDSNEnv = "KOTAE_TEST_DSN_UNSET"
	if got := s.PostgresDSNOrEnv(); got != "postgres://file" {
		t.Errorf("got %q", got)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("KOTAE_DOTENV_TEST=from-file\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("KOTAE_DOTENV_TEST", "")
	os.Unsetenv("KOTAE_DOTENV_TEST")
	if err := LoadDotEnv(envPath, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv("KOTAE_DOTENV_TEST"); got != "from-file" {
		t.Errorf("KOTAE_DOTENV_TEST = %q", got)
	}
}
