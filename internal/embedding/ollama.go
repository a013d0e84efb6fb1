package embedding

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms/ollama"
)

var ollamaDimensions = map[string]int{
	"nomic-embed-text":  768,
	"mxbai-embed-large": 1024,
	"all-minilm":        384,
}

type OllamaConfig struct {
	ServerURL string
	Model     string
	Dimension int
}

// OllamaEmbedder embeds text through a local Ollama server.
type OllamaEmbedder struct {
	llm   *ollama.LLM
	model string
	dim   int
}

func NewOllama(cfg OllamaConfig) (*OllamaEmbedder, error) {
	if cfg.Model == "" {
		cfg.Model = "nomic-embed-text"
	}
	opts := []ollama.Option{ollama.WithModel(cfg.Model)}
	if cfg.ServerURL != "" {
		opts = append(opts, ollama.WithServerURL(cfg.ServerURL))
	}
	llm, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("ollama embedder: %w", err)
	}
	dim := cfg.Dimension
	if dim <= 0 {
		dim = 768
		if d, ok := ollamaDimensions[cfg.Model]; ok {
			dim = d
		}
	}
	return &OllamaEmbedder{llm: llm, model: cfg.Model, dim: dim}, nil
}

func (e *OllamaEmbedder) ModelInfo() string { return "ollama/" + e.model }

func (e *OllamaEmbedder) Dimension() int { return e.dim }

func (e *OllamaEmbedder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vecs, err := e.llm.CreateEmbedding(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("ollama embeddings: %w", err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("ollama embeddings: got %d vectors for %d inputs", len(vecs), len(texts))
	}
	for _, v := range vecs {
		Normalize(v)
	}
	return vecs, nil
}
