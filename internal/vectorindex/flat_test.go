package vectorindex

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docdex/internal/domain"
)

// stubEmbedder returns canned vectors keyed by text. Unknown texts embed
// to the zero vector.
type stubEmbedder struct {
	vecs  map[string][]float32
	dim   int
	model string
	err   error
}

func (s *stubEmbedder) Encode(_ context.Context, texts []string) ([][]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, ok := s.vecs[t]
		if !ok {
			v = make([]float32, s.dim)
		}
		out[i] = v
	}
	return out, nil
}

func (s *stubEmbedder) Dimension() int { return s.dim }

func (s *stubEmbedder) ModelInfo() string {
	if s.model != "" {
		return s.model
	}
	return "stub"
}

type batchRecorder struct {
	stubEmbedder
	batches []int
}

func (b *batchRecorder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	b.batches = append(b.batches, len(texts))
	return b.stubEmbedder.Encode(ctx, texts)
}

func directionEmbedder() *stubEmbedder {
	return &stubEmbedder{
		dim: 2,
		vecs: map[string][]float32{
			"q":     {1, 0},
			"diag":  {0.6, 0.8},
			"east":  {1, 0},
			"tilt":  {0.8, 0.6},
			"north": {0, 1},
			"tilt2": {0.8, 0.6},
		},
	}
}

func directionPassages() []domain.Passage {
	texts := []string{"diag", "east", "tilt", "north", "tilt2"}
	passages := make([]domain.Passage, len(texts))
	for i, text := range texts {
		passages[i] = domain.Passage{ID: i, Text: text, Section: "Directions", CharCount: len(text), WordCount: 1}
	}
	return passages
}

func TestFlatBuildAndReady(t *testing.T) {
	idx := NewFlat(directionEmbedder())
	ctx := context.Background()

	assert.False(t, idx.Ready())
	_, err := idx.Query(ctx, "q", 5, 0)
	assert.ErrorIs(t, err, ErrNotReady)

	require.NoError(t, idx.Build(ctx, directionPassages()))
	assert.True(t, idx.Ready())
	assert.Equal(t, 5, idx.Size())
}

func TestFlatBuildEmptyInput(t *testing.T) {
	idx := NewFlat(directionEmbedder())

	err := idx.Build(context.Background(), nil)
	assert.ErrorIs(t, err, ErrBuild)
	assert.False(t, idx.Ready())
}

func TestFlatBuildEmbedderFailure(t *testing.T) {
	boom := errors.New("boom")
	idx := NewFlat(&stubEmbedder{dim: 2, err: boom})

	err := idx.Build(context.Background(), directionPassages())
	assert.ErrorIs(t, err, ErrBuild)
	assert.ErrorIs(t, err, boom)
	assert.False(t, idx.Ready())
}

func TestFlatQueryOrderingAndThreshold(t *testing.T) {
	idx := NewFlat(directionEmbedder())
	ctx := context.Background()
	require.NoError(t, idx.Build(ctx, directionPassages()))

	got, err := idx.Query(ctx, "q", 5, 0.15)
	require.NoError(t, err)

	ids := make([]int, len(got))
	for i, r := range got {
		ids[i] = r.ChunkID
	}
	// east scores 1.0, the two tilts tie at 0.8 and keep id order,
	// diag scores 0.6, north scores 0 and is filtered out.
	assert.Equal(t, []int{1, 2, 4, 0}, ids)
	assert.Equal(t, "east", got[0].Text)
	assert.Equal(t, "Directions", got[0].Section)
	assert.Equal(t, "q", got[0].SearchTerm)
	assert.InDelta(t, 1.0, float64(got[0].Similarity), 1e-6)
}

func TestFlatQueryKBounds(t *testing.T) {
	idx := NewFlat(directionEmbedder())
	ctx := context.Background()
	require.NoError(t, idx.Build(ctx, directionPassages()))

	t.Run("truncates to k", func(t *testing.T) {
		got, err := idx.Query(ctx, "q", 2, 0.15)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, 1, got[0].ChunkID)
		assert.Equal(t, 2, got[1].ChunkID)
	})

	t.Run("over-request returns all qualifying", func(t *testing.T) {
		got, err := idx.Query(ctx, "q", 50, 0.15)
		require.NoError(t, err)
		assert.Len(t, got, 4)
	})

	t.Run("non-positive k falls back to default", func(t *testing.T) {
		got, err := idx.Query(ctx, "q", 0, -1)
		require.NoError(t, err)
		assert.Len(t, got, DefaultTopK)
	})
}

func TestFlatQueryHighThreshold(t *testing.T) {
	idx := NewFlat(directionEmbedder())
	ctx := context.Background()
	require.NoError(t, idx.Build(ctx, directionPassages()))

	got, err := idx.Query(ctx, "q", 5, 0.95)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].ChunkID)
}

func TestEmbedPassagesBatching(t *testing.T) {
	rec := &batchRecorder{stubEmbedder: stubEmbedder{dim: 2}}
	passages := make([]domain.Passage, 20)
	for i := range passages {
		passages[i] = domain.Passage{ID: i, Text: "p"}
	}

	var reported [][2]int
	vectors, err := EmbedPassages(context.Background(), rec, passages, func(done, total int) {
		reported = append(reported, [2]int{done, total})
	})
	require.NoError(t, err)

	assert.Len(t, vectors, 20)
	assert.Equal(t, []int{16, 4}, rec.batches)
	assert.Equal(t, [][2]int{{16, 20}, {20, 20}}, reported)
}
