package generator

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/schema"

	"docdex/internal/domain"
)

type OllamaConfig struct {
	ServerURL string
	Model     string
}

// OllamaGenerator answers through a local Ollama server.
type OllamaGenerator struct {
	llm   *ollama.LLM
	model string
}

func NewOllama(cfg OllamaConfig) (*OllamaGenerator, error) {
	if cfg.Model == "" {
		cfg.Model = "llama3.1"
	}
	opts := []ollama.Option{ollama.WithModel(cfg.Model)}
	if cfg.ServerURL != "" {
		opts = append(opts, ollama.WithServerURL(cfg.ServerURL))
	}
	llm, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("ollama generator: %w", err)
	}
	return &OllamaGenerator{llm: llm, model: cfg.Model}, nil
}

func (g *OllamaGenerator) Name() string { return "ollama/" + g.model }

func (g *OllamaGenerator) Generate(ctx context.Context, query string, results []domain.SearchResult) (string, error) {
	resp, err := g.llm.GenerateContent(ctx,
		[]llms.MessageContent{
			llms.TextParts(schema.ChatMessageTypeSystem, systemPrompt),
			llms.TextParts(schema.ChatMessageTypeHuman, buildUserPrompt(query, results)),
		},
		llms.WithTemperature(defaultTemperature),
	)
	if err != nil {
		return "", fmt.Errorf("%w: ollama chat: %w", ErrUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: ollama chat: no choices returned", ErrUnavailable)
	}
	answer := strings.TrimSpace(resp.Choices[0].Content)
	if answer == "" {
		return "", fmt.Errorf("%w: ollama chat: empty answer", ErrUnavailable)
	}
	return answer, nil
}
