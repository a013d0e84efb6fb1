// Package vectorindex implements the retrieval indexes: an exact
// in-memory index with disk persistence and, as a subpackage, a
// Postgres-backed one using pgvector. Both score by cosine similarity
// over the unit-length vectors produced by the embedders.
package vectorindex

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"docdex/internal/domain"
)

const (
	// DefaultTopK bounds a query when the caller asks for k <= 0.
	DefaultTopK = 5

	// embedBatchSize is how many passages go into one embedding request.
	embedBatchSize = 16
)

var (
	ErrNotReady = errors.New("index not ready")
	ErrBuild    = errors.New("index build failed")
	ErrNotFound = errors.New("index not found")
	ErrCorrupt  = errors.New("index corrupt")
)

// Progress is invoked after every embedded batch during a build.
type Progress func(done, total int)

// Flat is an exact inner-product index. Build replaces the whole content
// atomically; Query scans every vector. It is safe for concurrent use.
type Flat struct {
	mu       sync.RWMutex
	embedder domain.Embedder
	passages []domain.Passage
	vectors  [][]float32
	progress Progress
}

func NewFlat(embedder domain.Embedder) *Flat {
	return &Flat{embedder: embedder}
}

// OnProgress registers a callback for build progress reporting.
func (f *Flat) OnProgress(fn Progress) { f.progress = fn }

// Build embeds all passages in order and swaps them in. On failure the
// previous content stays queryable.
func (f *Flat) Build(ctx context.Context, passages []domain.Passage) error {
	if len(passages) == 0 {
		return fmt.Errorf("%w: no passages", ErrBuild)
	}
	vectors, err := EmbedPassages(ctx, f.embedder, passages, f.progress)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.passages = append([]domain.Passage(nil), passages...)
	f.vectors = vectors
	f.mu.Unlock()
	return nil
}

// EmbedPassages encodes passage texts in fixed-size batches, preserving
// passage order. fn, when non-nil, is called after each batch.
func EmbedPassages(ctx context.Context, embedder domain.Embedder, passages []domain.Passage, fn Progress) ([][]float32, error) {
	vectors := make([][]float32, 0, len(passages))
	for start := 0; start < len(passages); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(passages) {
			end = len(passages)
		}
		texts := make([]string, 0, end-start)
		for _, p := range passages[start:end] {
			texts = append(texts, p.Text)
		}
		batch, err := embedder.Encode(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("%w: batch at %d: %w", ErrBuild, start, err)
		}
		if len(batch) != len(texts) {
			return nil, fmt.Errorf("%w: batch at %d: got %d vectors for %d texts", ErrBuild, start, len(batch), len(texts))
		}
		vectors = append(vectors, batch...)
		if fn != nil {
			fn(len(vectors), len(passages))
		}
	}
	return vectors, nil
}

// Query embeds term and returns up to k passages scoring at or above
// minSimilarity, ordered by similarity descending with passage id as the
// tie-break. Asking for more results than qualify returns all of them.
func (f *Flat) Query(ctx context.Context, term string, k int, minSimilarity float32) ([]domain.SearchResult, error) {
	f.mu.RLock()
	passages, vectors := f.passages, f.vectors
	f.mu.RUnlock()
	if len(passages) == 0 {
		return nil, ErrNotReady
	}
	if k <= 0 {
		k = DefaultTopK
	}
	qv, err := f.embedder.Encode(ctx, []string{term})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(qv) != 1 {
		return nil, fmt.Errorf("embed query: got %d vectors for one term", len(qv))
	}
	results := make([]domain.SearchResult, 0, k)
	for i, v := range vectors {
		sim := dot(v, qv[0])
		if sim < minSimilarity {
			continue
		}
		p := passages[i]
		results = append(results, domain.SearchResult{
			ChunkID:    p.ID,
			Text:       p.Text,
			Section:    p.Section,
			Similarity: sim,
			SearchTerm: term,
		})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].ChunkID < results[j].ChunkID
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func (f *Flat) Ready() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.passages) > 0
}

func (f *Flat) Size() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.passages)
}

func dot(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float32
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
