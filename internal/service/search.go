// Package service wires the classifier, index and generator into the
// query pipeline.
package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"docdex/internal/domain"
	"docdex/internal/intent"
)

const (
	// maxSearchTerms caps how many expansion terms are searched per query.
	maxSearchTerms = 3

	// perTermK is how many passages each term contributes before merging.
	perTermK = 2

	defaultMinSimilarity = 0.15
	defaultTopK          = 5
)

// SearchService implements domain.Searcher: classify the query, search
// the index once per expansion term, merge the hits and optionally ask a
// generator for a natural-language answer.
type SearchService struct {
	classifier    *intent.Classifier
	index         domain.Index
	generator     domain.Generator
	minSimilarity float32
	log           *logrus.Logger
}

var _ domain.Searcher = (*SearchService)(nil)

// NewSearch builds the service. generator may be nil to disable
// generation; minSimilarity <= 0 falls back to the default threshold.
func NewSearch(classifier *intent.Classifier, index domain.Index, generator domain.Generator, minSimilarity float32, log *logrus.Logger) *SearchService {
	if log == nil {
		log = logrus.New()
	}
	if minSimilarity <= 0 {
		minSimilarity = defaultMinSimilarity
	}
	return &SearchService{
		classifier:    classifier,
		index:         index,
		generator:     generator,
		minSimilarity: minSimilarity,
		log:           log,
	}
}

// Search answers one query. Non-technical queries never touch the index.
// Each retained passage keeps the highest similarity any term gave it,
// and the merged list is ordered by similarity descending with passage
// id as the tie-break, truncated to k.
func (s *SearchService) Search(ctx context.Context, query string, k int) (domain.QueryOutcome, error) {
	if k <= 0 {
		k = defaultTopK
	}
	cl := s.classifier.Classify(query)
	outcome := domain.QueryOutcome{
		Intent:      cl.Intent,
		Recommended: cl.Recommended,
	}
	if !cl.Intent.Searchable() || len(cl.SearchTerms) == 0 {
		s.log.WithField("intent", cl.Intent).Debug("non-technical query, skipping search")
		return outcome, nil
	}

	terms := cl.SearchTerms
	if len(terms) > maxSearchTerms {
		terms = terms[:maxSearchTerms]
	}
	outcome.SearchTerms = terms
	s.log.WithFields(logrus.Fields{
		"intent": cl.Intent,
		"terms":  len(terms),
	}).Debug("classified query")

	best := make(map[int]domain.SearchResult)
	for _, term := range terms {
		results, err := s.index.Query(ctx, term, perTermK, s.minSimilarity)
		if err != nil {
			return domain.QueryOutcome{}, fmt.Errorf("search %q: %w", term, err)
		}
		for _, r := range results {
			if prev, ok := best[r.ChunkID]; !ok || r.Similarity > prev.Similarity {
				best[r.ChunkID] = r
			}
		}
	}
	merged := make([]domain.SearchResult, 0, len(best))
	for _, r := range best {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Similarity != merged[j].Similarity {
			return merged[i].Similarity > merged[j].Similarity
		}
		return merged[i].ChunkID < merged[j].ChunkID
	})
	if len(merged) > k {
		merged = merged[:k]
	}
	outcome.Results = merged

	if s.generator != nil && len(merged) > 0 {
		answer, err := s.generator.Generate(ctx, query, merged)
		if err != nil {
			s.log.WithError(err).Warn("generator failed, using templated answer")
		} else {
			outcome.NaturalResponse = answer
			outcome.GeneratorUsed = true
		}
	}
	return outcome, nil
}
