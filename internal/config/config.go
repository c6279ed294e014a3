// Package config provides configuration loading and structs for the kotae server and CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug      bool             `yaml:"debug"`
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Chunking   ChunkingConfig   `yaml:"chunking"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Reranker   RerankerConfig   `yaml:"reranker"`
	Generation GenerationConfig `yaml:"generation"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Watch      WatchConfig      `yaml:"watch"`
}

// WatchConfig holds directory watch settings.
type WatchConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
	Recursive   *bool    `yaml:"recursive"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (w *WatchConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return true
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// StorageConfig selects the vector store backend and holds its paths.
type StorageConfig struct {
	// Backend is one of "memory", "sqlite" or "pgvector".
	Backend      string `yaml:"backend"`
	DatabasePath string `yaml:"database_path"`
	VectorPath   string `yaml:"vector_path"`
	PostgresDSN  string `yaml:"postgres_dsn"`
	// PostgresDSNEnv names an environment variable holding the DSN; it wins over PostgresDSN.
	PostgresDSNEnv string `yaml:"postgres_dsn_env"`
}

// ChunkingConfig controls paragraph splitting.
type ChunkingConfig struct {
	// KeepEmpty keeps empty and whitespace-only segments so joining chunks with a blank
	// line reproduces the source exactly.
	KeepEmpty bool `yaml:"keep_empty"`
}

// EmbeddingConfig holds embedder settings.
type EmbeddingConfig struct {
	// Provider is one of "hashing", "openai" or "onnx".
	Provider    string `yaml:"provider"`
	Model       string `yaml:"model"`
	Endpoint    string `yaml:"endpoint"`
	APIKeyEnv   string `yaml:"api_key_env"`
	ModelPath   string `yaml:"model_path"`
	Dimensions  int    `yaml:"dimensions"`
	MaxTokens   int    `yaml:"max_tokens"`
	CacheSize   int    `yaml:"cache_size"`
	Concurrency int    `yaml:"concurrency"`
}

// RerankerConfig holds relevance scorer settings.
type RerankerConfig struct {
	// Provider is one of "lexical" or "onnx".
	Provider  string `yaml:"provider"`
	Model     string `yaml:"model"`
	ModelPath string `yaml:"model_path"`
	MaxTokens int    `yaml:"max_tokens"`
}

// GenerationConfig holds the text-generation client settings.
type GenerationConfig struct {
	Model       string        `yaml:"model"`
	Endpoint    string        `yaml:"endpoint"`
	APIKeyEnv   string        `yaml:"api_key_env"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float32       `yaml:"temperature"`
	LogPrompt   bool          `yaml:"log_prompt"`
}

// RetrievalConfig holds the default candidate counts for a query.
type RetrievalConfig struct {
	TopKRetrieve int `yaml:"top_k_retrieve"`
	TopKRerank   int `yaml:"top_k_rerank"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.VectorPath = expandPath(cfg.Storage.VectorPath, configDir)
	if cfg.Embedding.ModelPath != "" {
		cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	}
	if cfg.Reranker.ModelPath != "" {
		cfg.Reranker.ModelPath = expandPath(cfg.Reranker.ModelPath, configDir)
	}
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with every default applied, for running without a file.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate checks enumerated options and numeric ranges.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "memory", "sqlite", "pgvector":
	default:
		return fmt.Errorf("invalid storage.backend %q (want memory, sqlite or pgvector)", c.Storage.Backend)
	}
	switch c.Embedding.Provider {
	case "hashing", "openai", "onnx":
	default:
		return fmt.Errorf("invalid embedding.provider %q (want hashing, openai or onnx)", c.Embedding.Provider)
	}
	switch c.Reranker.Provider {
	case "lexical", "onnx":
	default:
		return fmt.Errorf("invalid reranker.provider %q (want lexical or onnx)", c.Reranker.Provider)
	}
	if c.Embedding.Provider == "onnx" && c.Embedding.ModelPath == "" {
		return fmt.Errorf("embedding.model_path is required for the onnx provider")
	}
	if c.Reranker.Provider == "onnx" && c.Reranker.ModelPath == "" {
		return fmt.Errorf("reranker.model_path is required for the onnx provider")
	}
	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("embedding.dimensions must be positive")
	}
	if c.Retrieval.TopKRetrieve <= 0 || c.Retrieval.TopKRerank <= 0 {
		return fmt.Errorf("retrieval.top_k_retrieve and retrieval.top_k_rerank must be positive")
	}
	if c.Generation.Timeout < 0 {
		return fmt.Errorf("generation.timeout cannot be negative")
	}
	return nil
}

// PostgresDSNOrEnv returns the DSN from PostgresDSNEnv when set, else PostgresDSN.
func (s *StorageConfig) PostgresDSNOrEnv() string {
	if s.PostgresDSNEnv != "" {
		if v := os.Getenv(s.PostgresDSNEnv); v != "" {
			return v
		}
	}
	return s.PostgresDSN
}

// APIKey returns the value of the environment variable named by APIKeyEnv.
func (e *EmbeddingConfig) APIKey() string {
	if e.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(e.APIKeyEnv)
}

// APIKey returns the value of the environment variable named by APIKeyEnv.
func (g *GenerationConfig) APIKey() string {
	if g.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(g.APIKeyEnv)
}

// LoadDotEnv loads environment variables from the given .env files (default ".env").
// Missing files are ignored; variables already set in the environment are kept.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("failed to stat %s: %w", p, err)
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
