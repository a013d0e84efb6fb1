package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"

	"docdex/internal/chunker"
	"docdex/internal/config"
	"docdex/internal/domain"
	"docdex/internal/embedding"
	"docdex/internal/vectorindex"
	"docdex/internal/vectorindex/pgvector"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	var verbose bool
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/docdex/config.yaml if not provided)")
	flag.BoolVar(&verbose, "verbose", false, "Enable debug logging")
	flag.Parse()
	inputs := flag.Args()
	if len(inputs) == 0 {
		fmt.Println("Usage: docdex-index [--config=config.yaml] file1.txt [file2.md ...]")
		os.Exit(1)
	}

	log := logrus.New()
	if verbose {
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
		log.Fatalf("failed to load config: %v", err)
	}

	chk, err := chunker.New(cfg.Chunker.ChunkSize, cfg.Chunker.Overlap)
	if err != nil {
		log.Fatalf("chunker init failed: %v", err)
	}

	passages := chunkInputs(log, chk, inputs)
	if len(passages) == 0 {
		log.Fatal("no passages produced; check the input files")
	}
	printStats(passages)

	emb, err := buildEmbedder(cfg)
	if err != nil {
		log.Fatalf("embedder init failed: %v", err)
	}
	log.WithField("model", emb.ModelInfo()).Debug("embedder ready")

	bar := progressbar.NewOptions(len(passages),
		progressbar.OptionSetDescription("embedding"),
		progressbar.OptionShowCount(),
	)
	ctx := context.Background()

	switch cfg.Index.Type {
	case "flat":
		idx := vectorindex.NewFlat(emb)
		idx.OnProgress(func(done, _ int) { _ = bar.Set(done) })
		if err := idx.Build(ctx, passages); err != nil {
			log.Fatalf("index build failed: %v", err)
		}
		_ = bar.Finish()
		fmt.Println()
		if err := idx.Save(cfg.Index.Dir); err != nil {
			log.Fatalf("index save failed: %v", err)
		}
		color.Green("Saved %d passages to %s", len(passages), cfg.Index.Dir)
	case "pgvector":
		idx, err := pgvector.New(ctx, pgvector.Config{
			ConnString: os.Getenv(cfg.Index.Pgvector.ConnStringEnv),
			Table:      cfg.Index.Pgvector.Table,
		}, emb)
		if err != nil {
			log.Fatalf("postgres init failed: %v", err)
		}
		defer idx.Close()
		idx.OnProgress(func(done, _ int) { _ = bar.Set(done) })
		if err := idx.Build(ctx, passages); err != nil {
			log.Fatalf("index build failed: %v", err)
		}
		_ = bar.Finish()
		fmt.Println()
		color.Green("Stored %d passages in table %s", len(passages), cfg.Index.Pgvector.Table)
	default:
		log.Fatalf("unknown index type %q", cfg.Index.Type)
	}
}

// chunkInputs reads every .txt and .md input and chunks it, renumbering
// passages so ids stay dense across files.
func chunkInputs(log *logrus.Logger, chk *chunker.SectionChunker, inputs []string) []domain.Passage {
	var passages []domain.Passage
	for _, path := range inputs {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".txt", ".md":
		default:
			log.Warnf("skipping %s: only .txt and .md files are indexed", path)
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			log.Fatalf("read %s: %v", path, err)
		}
		chunks, err := chk.Chunk(string(data))
		if err != nil {
			log.Fatalf("chunk %s: %v", path, err)
		}
		log.WithFields(logrus.Fields{"file": path, "passages": len(chunks)}).Debug("chunked input")
		for _, p := range chunks {
			p.ID = len(passages)
			passages = append(passages, p)
		}
	}
	return passages
}

func printStats(passages []domain.Passage) {
	var chars, words int
	sections := make(map[string]struct{})
	for _, p := range passages {
		chars += p.CharCount
		words += p.WordCount
		sections[p.Section] = struct{}{}
	}
	n := len(passages)
	color.Cyan("%d passages across %d sections", n, len(sections))
	color.Cyan("avg %d chars, %d words per passage", chars/n, words/n)
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
