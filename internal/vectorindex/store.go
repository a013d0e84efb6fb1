package vectorindex

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"docdex/internal/domain"
)

const (
	passagesFile = "passages.json"
	vectorsFile  = "vectors.gob"
	manifestFile = "manifest.yaml"
)

// Manifest records what a saved index was built from. It is written after
// the passage and vector files, so a readable manifest implies both are
// complete.
type Manifest struct {
	BuildID   string    `yaml:"build_id"`
	Model     string    `yaml:"model"`
	Dimension int       `yaml:"dimension"`
	Passages  int       `yaml:"passages"`
	CreatedAt time.Time `yaml:"created_at"`
}

// Save writes the index under dir: passages as JSON, vectors as gob, the
// manifest last. Each file lands through a temp file and rename, so a
// reader never sees a half-written file.
func (f *Flat) Save(dir string) error {
	f.mu.RLock()
	passages := f.passages
	vectors := f.vectors
	f.mu.RUnlock()
	if len(passages) == 0 {
		return ErrNotReady
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	pdata, err := json.MarshalIndent(passages, "", "  ")
	if err != nil {
		return fmt.Errorf("encode passages: %w", err)
	}
	if err := writeAtomic(filepath.Join(dir, passagesFile), pdata); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(vectors); err != nil {
		return fmt.Errorf("encode vectors: %w", err)
	}
	if err := writeAtomic(filepath.Join(dir, vectorsFile), buf.Bytes()); err != nil {
		return err
	}
	m := Manifest{
		BuildID:   uuid.NewString(),
		Model:     f.embedder.ModelInfo(),
		Dimension: len(vectors[0]),
		Passages:  len(passages),
		CreatedAt: time.Now().UTC(),
	}
	mdata, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	return writeAtomic(filepath.Join(dir, manifestFile), mdata)
}

// Load reads an index previously written by Save. A missing directory or
// file reports ErrNotFound; undecodable content or mismatched counts
// report ErrCorrupt. The manifest is cross-checked when present and
// tolerated when absent. Load also rejects an embedder whose dimension
// or model does not match what the index was built with.
func Load(dir string, embedder domain.Embedder) (*Flat, error) {
	var passages []domain.Passage
	if err := readFile(filepath.Join(dir, passagesFile), func(data []byte) error {
		return json.Unmarshal(data, &passages)
	}); err != nil {
		return nil, err
	}
	var vectors [][]float32
	if err := readFile(filepath.Join(dir, vectorsFile), func(data []byte) error {
		return gob.NewDecoder(bytes.NewReader(data)).Decode(&vectors)
	}); err != nil {
		return nil, err
	}
	if len(passages) == 0 || len(passages) != len(vectors) {
		return nil, fmt.Errorf("%w: %d passages, %d vectors", ErrCorrupt, len(passages), len(vectors))
	}
	if dim := embedder.Dimension(); dim != len(vectors[0]) {
		return nil, fmt.Errorf("%w: stored vectors have dimension %d, embedder %s produces %d",
			ErrCorrupt, len(vectors[0]), embedder.ModelInfo(), dim)
	}
	m, err := readManifest(filepath.Join(dir, manifestFile))
	switch {
	case err == nil:
		if m.Passages != len(passages) {
			return nil, fmt.Errorf("%w: manifest lists %d passages, found %d", ErrCorrupt, m.Passages, len(passages))
		}
		if m.Dimension != 0 && m.Dimension != len(vectors[0]) {
			return nil, fmt.Errorf("%w: manifest lists dimension %d, found %d", ErrCorrupt, m.Dimension, len(vectors[0]))
		}
		if m.Model != "" && m.Model != embedder.ModelInfo() {
			return nil, fmt.Errorf("%w: index built with embedder %s, loading with %s", ErrCorrupt, m.Model, embedder.ModelInfo())
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}
	f := NewFlat(embedder)
	f.passages = passages
	f.vectors = vectors
	return f, nil
}

// ReadManifest returns the manifest of a saved index without loading it.
func ReadManifest(dir string) (Manifest, error) {
	m, err := readManifest(filepath.Join(dir, manifestFile))
	if errors.Is(err, os.ErrNotExist) {
		return m, fmt.Errorf("%w: %s", ErrNotFound, dir)
	}
	return m, err
}

func readManifest(path string) (Manifest, error) {
	var m Manifest
	data, err := os.ReadFile(path)
	if err != nil {
		return m, err
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("%w: %s: %v", ErrCorrupt, filepath.Base(path), err)
	}
	return m, nil
}

func readFile(path string, decode func([]byte) error) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return err
	}
	if err := decode(data); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorrupt, filepath.Base(path), err)
	}
	return nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
