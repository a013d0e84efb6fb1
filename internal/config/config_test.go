package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.Chunker.ChunkSize)
	assert.Equal(t, 50, cfg.Chunker.Overlap)
	assert.Equal(t, "hash", cfg.Embedder.Type)
	require.NotNil(t, cfg.Embedder.Hash)
	assert.Equal(t, 256, cfg.Embedder.Hash.Dimension)
	assert.Equal(t, "flat", cfg.Index.Type)
	assert.Equal(t, "index_data", cfg.Index.Dir)
	assert.Equal(t, "none", cfg.Generator.Type)
	assert.Equal(t, 5, cfg.Search.TopK)
	assert.InDelta(t, 0.15, float64(cfg.Search.MinSimilarity), 1e-6)
}

func TestLoadAppliesSectionDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "embedder:\n  type: openai\nindex:\n  type: pgvector\nsearch:\n  top_k: 10\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.NotNil(t, cfg.Embedder.OpenAI)
	assert.Equal(t, "OPENAI_API_KEY", cfg.Embedder.OpenAI.APIKeyEnv)
	assert.Equal(t, "text-embedding-3-small", cfg.Embedder.OpenAI.Model)

	require.NotNil(t, cfg.Index.Pgvector)
	assert.Equal(t, "DATABASE_URL", cfg.Index.Pgvector.ConnStringEnv)
	assert.Equal(t, "passages", cfg.Index.Pgvector.Table)

	assert.Equal(t, 10, cfg.Search.TopK)
	assert.InDelta(t, 0.15, float64(cfg.Search.MinSimilarity), 1e-6)
	assert.Equal(t, 500, cfg.Chunker.ChunkSize)
	assert.Equal(t, 50, cfg.Chunker.Overlap)
}

func TestLoadRejectsUnknownTypes(t *testing.T) {
	dir := t.TempDir()

	cases := []struct {
		name    string
		content string
	}{
		{"embedder", "embedder:\n  type: banana\n"},
		{"index", "index:\n  type: banana\n"},
		{"generator", "generator:\n  type: banana\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(dir, tc.name+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(tc.content), 0o644))

			_, err := Load(path)
			assert.ErrorContains(t, err, tc.name)
		})
	}
}

func TestLoadRejectsOverlapLargerThanChunkSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "chunker:\n  chunk_size: 100\n  overlap: 200\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "overlap")
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{::"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := defaultConfig()
	cfg.Search.TopK = 7
	cfg.Generator = GeneratorConfig{Type: "ollama", Ollama: &OllamaGeneratorConfig{Model: "llama3.1"}}

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
