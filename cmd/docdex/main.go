package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"docdex/internal/config"
	"docdex/internal/domain"
	"docdex/internal/embedding"
	"docdex/internal/generator"
	"docdex/internal/intent"
	"docdex/internal/service"
	"docdex/internal/tui"
	"docdex/internal/vectorindex"
	"docdex/internal/vectorindex/pgvector"
)

func main() {
	_ = godotenv.Load()

	var cfgPath, debugPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/docdex/config.yaml if not provided)")
	flag.StringVar(&debugPath, "debug", "", "Write debug logs to this file")
	flag.Parse()

	// The TUI owns the terminal, so logs go to a file or nowhere.
	log := logrus.New()
	log.SetOutput(io.Discard)
	if debugPath != "" {
		f, err := os.OpenFile(debugPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open debug log: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		log.SetOutput(f)
		log.SetLevel(logrus.DebugLevel)
	}

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	emb, err := buildEmbedder(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "embedder init failed: %v\n", err)
		os.Exit(1)
	}

	idx, err := openIndex(cfg, emb)
	if err != nil {
		if errors.Is(err, vectorindex.ErrNotFound) || errors.Is(err, vectorindex.ErrNotReady) {
			fmt.Fprintf(os.Stderr, "No index found. Build one first:\n\n  docdex-index your-documentation.txt\n")
		} else {
			fmt.Fprintf(os.Stderr, "failed to open index: %v\n", err)
		}
		os.Exit(1)
	}

	gen, err := buildGenerator(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generator init failed: %v\n", err)
		os.Exit(1)
	}
	genName := ""
	if gen != nil {
		genName = gen.Name()
	}

	svc := service.NewSearch(intent.New(), idx, gen, cfg.Search.MinSimilarity, log)
	log.WithFields(logrus.Fields{
		"passages":  idx.Size(),
		"embedder":  emb.ModelInfo(),
		"generator": genName,
	}).Info("starting chat")

	m := tui.New(svc, cfg.Search.TopK, idx.Size(), genName)
	if _, err := tea.NewProgram(m).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func openIndex(cfg *config.AppConfig, emb domain.Embedder) (domain.Index, error) {
	switch cfg.Index.Type {
	case "flat":
		return vectorindex.Load(cfg.Index.Dir, emb)
	case "pgvector":
		idx, err := pgvector.New(context.Background(), pgvector.Config{
			ConnString: os.Getenv(cfg.Index.Pgvector.ConnStringEnv),
			Table:      cfg.Index.Pgvector.Table,
		}, emb)
		if err != nil {
			return nil, err
		}
		if !idx.Ready() {
			idx.Close()
			return nil, vectorindex.ErrNotReady
		}
		return idx, nil
	}
	return nil, fmt.Errorf("unknown index type %q", cfg.Index.Type)
}

func buildEmbedder(cfg *config.AppConfig) (domain.Embedder, error) {
	switch cfg.Embedder.Type {
	case "hash":
		return embedding.NewHash(cfg.Embedder.Hash.Dimension), nil
	case "openai":
		c := cfg.Embedder.OpenAI
		return embedding.NewOpenAI(embedding.OpenAIConfig{
			APIKey:  os.Getenv(c.APIKeyEnv),
			BaseURL: c.BaseURL,
			Model:   c.Model,
		})
	case "ollama":
		c := cfg.Embedder.Ollama
		return embedding.NewOllama(embedding.OllamaConfig{
			ServerURL: c.ServerURL,
			Model:     c.Model,
			Dimension: c.Dimension,
		})
	}
	return nil, fmt.Errorf("unknown embedder type %q", cfg.Embedder.Type)
}

func buildGenerator(cfg *config.AppConfig) (domain.Generator, error) {
	switch cfg.Generator.Type {
	case "none":
		return nil, nil
	case "openai":
		c := cfg.Generator.OpenAI
		return generator.NewOpenAI(generator.OpenAIConfig{
			APIKey:  os.Getenv(c.APIKeyEnv),
			BaseURL: c.BaseURL,
			Model:   c.Model,
		})
	case "ollama":
		c := cfg.Generator.Ollama
		return generator.NewOllama(generator.OllamaConfig{
			ServerURL: c.ServerURL,
			Model:     c.Model,
		})
	}
	return nil, fmt.Errorf("unknown generator type %q", cfg.Generator.Type)
}
