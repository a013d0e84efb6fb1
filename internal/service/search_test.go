package service

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docdex/internal/domain"
	"docdex/internal/intent"
)

type spyIndex struct {
	results map[string][]domain.SearchResult
	err     error
	queries []string
	ks      []int
	mins    []float32
}

func (s *spyIndex) Build(context.Context, []domain.Passage) error { return nil }

func (s *spyIndex) Query(_ context.Context, term string, k int, minSimilarity float32) ([]domain.SearchResult, error) {
	s.queries = append(s.queries, term)
	s.ks = append(s.ks, k)
	s.mins = append(s.mins, minSimilarity)
	if s.err != nil {
		return nil, s.err
	}
	return s.results[term], nil
}

func (s *spyIndex) Ready() bool { return true }
func (s *spyIndex) Size() int   { return 42 }

type stubGenerator struct {
	answer string
	err    error
	calls  int
}

func (g *stubGenerator) Generate(context.Context, string, []domain.SearchResult) (string, error) {
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	return g.answer, nil
}

func (g *stubGenerator) Name() string { return "stub" }

func newTestSearch(idx domain.Index, gen domain.Generator) *SearchService {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewSearch(intent.New(), idx, gen, 0, log)
}

func hit(id int, sim float32, term string) domain.SearchResult {
	return domain.SearchResult{ChunkID: id, Text: "text", Section: "Lookup", Similarity: sim, SearchTerm: term}
}

func TestSearchMergesKeepingBestSimilarity(t *testing.T) {
	query := "How do I use LOOKUP?"
	idx := &spyIndex{results: map[string][]domain.SearchResult{
		query:        {hit(7, 0.77, query)},
		"lookup":     {hit(7, 0.81, "lookup"), hit(3, 0.50, "lookup")},
		"lookup_ext": {hit(9, 0.60, "lookup_ext")},
	}}
	svc := newTestSearch(idx, nil)

	outcome, err := svc.Search(context.Background(), query, 5)
	require.NoError(t, err)

	assert.Equal(t, domain.IntentDataLookup, outcome.Intent)
	assert.Equal(t, []string{query, "lookup", "lookup_ext"}, outcome.SearchTerms)
	assert.Equal(t, []string{query, "lookup", "lookup_ext"}, idx.queries)
	assert.Equal(t, []int{2, 2, 2}, idx.ks)
	assert.Equal(t, []float32{0.15, 0.15, 0.15}, idx.mins)

	require.Len(t, outcome.Results, 3)
	assert.Equal(t, 7, outcome.Results[0].ChunkID)
	assert.Equal(t, float32(0.81), outcome.Results[0].Similarity)
	assert.Equal(t, "lookup", outcome.Results[0].SearchTerm)
	assert.Equal(t, 9, outcome.Results[1].ChunkID)
	assert.Equal(t, 3, outcome.Results[2].ChunkID)

	assert.False(t, outcome.GeneratorUsed)
	assert.Empty(t, outcome.NaturalResponse)
}

func TestSearchSkipsNonTechnicalQueries(t *testing.T) {
	idx := &spyIndex{}
	svc := newTestSearch(idx, nil)

	outcome, err := svc.Search(context.Background(), "Bom dia!", 5)
	require.NoError(t, err)

	assert.Equal(t, domain.IntentGeneral, outcome.Intent)
	assert.Empty(t, idx.queries, "index must not be touched")
	assert.Empty(t, outcome.SearchTerms)
	assert.Empty(t, outcome.Results)
}

func TestSearchNoQualifyingResults(t *testing.T) {
	idx := &spyIndex{}
	gen := &stubGenerator{answer: "never used"}
	svc := newTestSearch(idx, gen)

	outcome, err := svc.Search(context.Background(), "How do I use LOOKUP?", 5)
	require.NoError(t, err)

	assert.Empty(t, outcome.Results)
	assert.Zero(t, gen.calls, "generation needs at least one result")
	assert.False(t, outcome.GeneratorUsed)
}

func TestSearchTruncatesToK(t *testing.T) {
	query := "How do I use LOOKUP?"
	idx := &spyIndex{results: map[string][]domain.SearchResult{
		query:        {hit(1, 0.9, query), hit(2, 0.8, query)},
		"lookup":     {hit(3, 0.7, "lookup"), hit(4, 0.6, "lookup")},
		"lookup_ext": {hit(5, 0.5, "lookup_ext")},
	}}
	svc := newTestSearch(idx, nil)

	outcome, err := svc.Search(context.Background(), query, 2)
	require.NoError(t, err)

	require.Len(t, outcome.Results, 2)
	assert.Equal(t, 1, outcome.Results[0].ChunkID)
	assert.Equal(t, 2, outcome.Results[1].ChunkID)
}

func TestSearchGeneratorSuccess(t *testing.T) {
	query := "How do I use LOOKUP?"
	idx := &spyIndex{results: map[string][]domain.SearchResult{
		query: {hit(1, 0.9, query)},
	}}
	gen := &stubGenerator{answer: "Use lookup_ext for external tables."}
	svc := newTestSearch(idx, gen)

	outcome, err := svc.Search(context.Background(), query, 5)
	require.NoError(t, err)

	assert.True(t, outcome.GeneratorUsed)
	assert.Equal(t, "Use lookup_ext for external tables.", outcome.NaturalResponse)
	assert.Equal(t, 1, gen.calls)
}

func TestSearchGeneratorFailureFallsBack(t *testing.T) {
	query := "How do I use LOOKUP?"
	idx := &spyIndex{results: map[string][]domain.SearchResult{
		query: {hit(1, 0.9, query)},
	}}
	gen := &stubGenerator{err: errors.New("model offline")}
	svc := newTestSearch(idx, gen)

	outcome, err := svc.Search(context.Background(), query, 5)
	require.NoError(t, err)

	assert.False(t, outcome.GeneratorUsed)
	assert.Empty(t, outcome.NaturalResponse)
	require.Len(t, outcome.Results, 1)
}

func TestSearchIndexErrorPropagates(t *testing.T) {
	boom := errors.New("index offline")
	svc := newTestSearch(&spyIndex{err: boom}, nil)

	_, err := svc.Search(context.Background(), "How do I use LOOKUP?", 5)
	assert.ErrorIs(t, err, boom)
}

func TestSearchIsDeterministic(t *testing.T) {
	query := "How do I use LOOKUP?"
	idx := &spyIndex{results: map[string][]domain.SearchResult{
		query:        {hit(4, 0.7, query), hit(2, 0.7, query)},
		"lookup":     {hit(8, 0.7, "lookup")},
		"lookup_ext": {hit(6, 0.7, "lookup_ext")},
	}}
	svc := newTestSearch(idx, nil)

	first, err := svc.Search(context.Background(), query, 5)
	require.NoError(t, err)
	second, err := svc.Search(context.Background(), query, 5)
	require.NoError(t, err)

	assert.Equal(t, first, second)

	ids := make([]int, len(first.Results))
	for i, r := range first.Results {
		ids[i] = r.ChunkID
	}
	// equal similarities fall back to ascending passage ids
	assert.Equal(t, []int{2, 4, 6, 8}, ids)
}
