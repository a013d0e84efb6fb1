package domain

import "context"

// Intent labels a query with the topic area it asks about.
type Intent string

const (
	IntentConditionalLogic Intent = "conditional_logic"
	IntentDataLookup       Intent = "data_lookup"
	IntentDataValidation   Intent = "data_validation"
	IntentStringOps        Intent = "string_operations"
	IntentDateOps          Intent = "date_operations"
	IntentAggregation      Intent = "aggregation"
	IntentGeneral          Intent = "general_non_technical"
)

// Searchable reports whether queries with this intent should be answered
// from the documentation index. Non-technical queries never hit the index.
func (i Intent) Searchable() bool { return i != IntentGeneral }

// Passage is a section-tagged slice of the source document. Passages are
// created once during indexing and immutable thereafter.
type Passage struct {
	ID        int    `json:"id"`
	Text      string `json:"text"`
	Section   string `json:"section"`
	CharCount int    `json:"char_count"`
	WordCount int    `json:"word_count"`
}

// SearchResult is a passage matched by one expanded search term. It exists
// only for the lifetime of a single query.
type SearchResult struct {
	ChunkID    int
	Text       string
	Section    string
	Similarity float32
	SearchTerm string
}

// QueryOutcome is the contract returned to the presentation layer for one
// user query. NaturalResponse is empty unless the generator succeeded.
type QueryOutcome struct {
	Intent          Intent
	Recommended     []string
	SearchTerms     []string
	Results         []SearchResult
	NaturalResponse string
	GeneratorUsed   bool
}

// Chunker splits cleaned document text into indexable passages.
type Chunker interface {
	Chunk(text string) ([]Passage, error)
}

// Embedder converts batches of text into fixed-dimension unit vectors.
// Implementations must preserve input order.
type Embedder interface {
	Encode(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
	ModelInfo() string
}

// Index stores one embedding per passage and answers similarity queries.
// Query must not be called before Build or a load has populated the index.
type Index interface {
	Build(ctx context.Context, passages []Passage) error
	Query(ctx context.Context, term string, k int, minSimilarity float32) ([]SearchResult, error)
	Ready() bool
	Size() int
}

// Generator turns retrieved evidence into natural-language prose. It may
// fail or be unavailable at any time; callers degrade to a templated
// rendering instead of propagating the failure.
type Generator interface {
	Generate(ctx context.Context, query string, results []SearchResult) (string, error)
	Name() string
}

// Searcher is the retrieval entrypoint the presentation shell depends on.
type Searcher interface {
	Search(ctx context.Context, query string, k int) (QueryOutcome, error)
}
