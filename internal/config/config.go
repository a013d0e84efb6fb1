package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ChunkerConfig controls how documents are split into passages.
type ChunkerConfig struct {
	ChunkSize int `yaml:"chunk_size"`
	Overlap   int `yaml:"overlap"`
}

// HashEmbedderConfig configures the offline feature-hashing embedder.
type HashEmbedderConfig struct {
	Dimension int `yaml:"dimension"`
}

// OpenAIEmbedderConfig configures the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"`
	Model     string `yaml:"model"`
}

// OllamaEmbedderConfig configures the Ollama embedder.
type OllamaEmbedderConfig struct {
	ServerURL string `yaml:"server_url"`
	Model     string `yaml:"model"`
	Dimension int    `yaml:"dimension"`
}

// EmbedderConfig selects and configures the embedder implementation.
type EmbedderConfig struct {
	Type   string                `yaml:"type"`
	Hash   *HashEmbedderConfig   `yaml:"hash,omitempty"`
	OpenAI *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
	Ollama *OllamaEmbedderConfig `yaml:"ollama,omitempty"`
}

// PgvectorConfig contains connection details for the Postgres index.
// The connection string is read from the named environment variable so
// credentials stay out of the config file.
type PgvectorConfig struct {
	ConnStringEnv string `yaml:"conn_string_env"`
	Table         string `yaml:"table"`
}

// IndexConfig selects and configures the vector index implementation.
type IndexConfig struct {
	Type     string          `yaml:"type"`
	Dir      string          `yaml:"dir"`
	Pgvector *PgvectorConfig `yaml:"pgvector,omitempty"`
}

// OpenAIGeneratorConfig configures the OpenAI answer generator.
type OpenAIGeneratorConfig struct {
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"`
	Model     string `yaml:"model"`
}

// OllamaGeneratorConfig configures the Ollama answer generator.
type OllamaGeneratorConfig struct {
	ServerURL string `yaml:"server_url"`
	Model     string `yaml:"model"`
}

// GeneratorConfig selects the answer generator. Type "none" disables
// generation and the templated renderer answers instead.
type GeneratorConfig struct {
	Type   string                 `yaml:"type"`
	OpenAI *OpenAIGeneratorConfig `yaml:"openai,omitempty"`
	Ollama *OllamaGeneratorConfig `yaml:"ollama,omitempty"`
}

// SearchConfig tunes the query pipeline.
type SearchConfig struct {
	TopK          int     `yaml:"top_k"`
	MinSimilarity float32 `yaml:"min_similarity"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Chunker   ChunkerConfig   `yaml:"chunker"`
	Embedder  EmbedderConfig  `yaml:"embedder"`
	Index     IndexConfig     `yaml:"index"`
	Generator GeneratorConfig `yaml:"generator"`
	Search    SearchConfig    `yaml:"search"`
}

// Load reads a config from path. A missing file yields the defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/docdex/config.yaml.
// If neither exists, it writes defaults to the user path and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate rejects unknown component types and out-of-range tunables.
func (c *AppConfig) Validate() error {
	switch c.Embedder.Type {
	case "hash", "openai", "ollama":
	default:
		return fmt.Errorf("unknown embedder type %q", c.Embedder.Type)
	}
	switch c.Index.Type {
	case "flat", "pgvector":
	default:
		return fmt.Errorf("unknown index type %q", c.Index.Type)
	}
	switch c.Generator.Type {
	case "none", "openai", "ollama":
	default:
		return fmt.Errorf("unknown generator type %q", c.Generator.Type)
	}
	if c.Chunker.ChunkSize < 0 || c.Chunker.Overlap < 0 {
		return errors.New("chunker sizes must not be negative")
	}
	if c.Chunker.Overlap > c.Chunker.ChunkSize {
		return fmt.Errorf("chunker overlap %d exceeds chunk size %d", c.Chunker.Overlap, c.Chunker.ChunkSize)
	}
	if c.Search.TopK < 0 {
		return errors.New("search top_k must not be negative")
	}
	if c.Search.MinSimilarity < 0 || c.Search.MinSimilarity > 1 {
		return errors.New("search min_similarity must be between 0 and 1")
	}
	return nil
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "docdex", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	return &AppConfig{
		Chunker:   ChunkerConfig{ChunkSize: 500, Overlap: 50},
		Embedder:  EmbedderConfig{Type: "hash", Hash: &HashEmbedderConfig{Dimension: 256}},
		Index:     IndexConfig{Type: "flat", Dir: "index_data"},
		Generator: GeneratorConfig{Type: "none"},
		Search:    SearchConfig{TopK: 5, MinSimilarity: 0.15},
	}
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Chunker.ChunkSize == 0 {
		cfg.Chunker.ChunkSize = 500
		if cfg.Chunker.Overlap == 0 {
			cfg.Chunker.Overlap = 50
		}
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "hash"
	}
	switch cfg.Embedder.Type {
	case "hash":
		if cfg.Embedder.Hash == nil {
			cfg.Embedder.Hash = &HashEmbedderConfig{}
		}
		if cfg.Embedder.Hash.Dimension == 0 {
			cfg.Embedder.Hash.Dimension = 256
		}
	case "openai":
		if cfg.Embedder.OpenAI == nil {
			cfg.Embedder.OpenAI = &OpenAIEmbedderConfig{}
		}
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "text-embedding-3-small"
		}
	case "ollama":
		if cfg.Embedder.Ollama == nil {
			cfg.Embedder.Ollama = &OllamaEmbedderConfig{}
		}
		if cfg.Embedder.Ollama.Model == "" {
			cfg.Embedder.Ollama.Model = "nomic-embed-text"
		}
	}
	if cfg.Index.Type == "" {
		cfg.Index.Type = "flat"
	}
	if cfg.Index.Dir == "" {
		cfg.Index.Dir = "index_data"
	}
	if cfg.Index.Type == "pgvector" {
		if cfg.Index.Pgvector == nil {
			cfg.Index.Pgvector = &PgvectorConfig{}
		}
		if cfg.Index.Pgvector.ConnStringEnv == "" {
			cfg.Index.Pgvector.ConnStringEnv = "DATABASE_URL"
		}
		if cfg.Index.Pgvector.Table == "" {
			cfg.Index.Pgvector.Table = "passages"
		}
	}
	if cfg.Generator.Type == "" {
		cfg.Generator.Type = "none"
	}
	switch cfg.Generator.Type {
	case "openai":
		if cfg.Generator.OpenAI == nil {
			cfg.Generator.OpenAI = &OpenAIGeneratorConfig{}
		}
		if cfg.Generator.OpenAI.APIKeyEnv == "" {
			cfg.Generator.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Generator.OpenAI.Model == "" {
			cfg.Generator.OpenAI.Model = "gpt-4o-mini"
		}
	case "ollama":
		if cfg.Generator.Ollama == nil {
			cfg.Generator.Ollama = &OllamaGeneratorConfig{}
		}
		if cfg.Generator.Ollama.Model == "" {
			cfg.Generator.Ollama.Model = "llama3.1"
		}
	}
	if cfg.Search.TopK == 0 {
		cfg.Search.TopK = 5
	}
	if cfg.Search.MinSimilarity == 0 {
		cfg.Search.MinSimilarity = 0.15
	}
}
