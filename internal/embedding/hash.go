package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"regexp"
	"strings"
)

// DefaultHashDimension is the vector width used when none is configured.
const DefaultHashDimension = 256

// HashEmbedder is a deterministic feature-hashing vectorizer. Tokens are
// hashed into a fixed number of signed buckets, so it needs no vocabulary,
// no preparation pass and no external service, and the same text always
// maps to the same vector.
type HashEmbedder struct {
	dimension    int
	tokenPattern *regexp.Regexp
	stopwords    map[string]struct{}
}

// NewHash returns a feature-hashing embedder of the given width.
// Non-positive widths fall back to DefaultHashDimension.
func NewHash(dimension int) *HashEmbedder {
	if dimension <= 0 {
		dimension = DefaultHashDimension
	}
	return &HashEmbedder{
		dimension:    dimension,
		tokenPattern: regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`),
		stopwords:    defaultStopwords(),
	}
}

func (e *HashEmbedder) ModelInfo() string { return fmt.Sprintf("hash-%d", e.dimension) }

func (e *HashEmbedder) Dimension() int { return e.dimension }

// Encode hashes each text independently and L2-normalizes the result.
// Texts with no usable tokens produce zero vectors.
func (e *HashEmbedder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = e.encodeOne(text)
	}
	return out, nil
}

func (e *HashEmbedder) encodeOne(text string) []float32 {
	vec := make([]float32, e.dimension)
	for _, tok := range e.tokenize(text) {
		h := fnv.New64a()
		h.Write([]byte(tok))
		sum := h.Sum64()
		// Low bit picks the sign, the rest picks the bucket.
		sign := float32(1)
		if sum&1 == 1 {
			sign = -1
		}
		vec[int((sum>>1)%uint64(e.dimension))] += sign
	}
	Normalize(vec)
	return vec
}

func (e *HashEmbedder) tokenize(text string) []string {
	lower := strings.ToLower(text)
	raw := e.tokenPattern.FindAllString(lower, -1)
	if len(raw) == 0 {
		return nil
	}
	out := raw[:0]
	for _, t := range raw {
		if _, isStop := e.stopwords[t]; isStop {
			continue
		}
		out = append(out, t)
	}
	return out
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now",
		"o", "os", "as", "um", "uma", "de", "da", "do", "das", "dos", "e", "ou", "mas", "em", "no", "na", "nos", "nas", "por", "para", "com", "como", "que", "se", "ao", "aos", "seu", "sua", "ser", "são", "é", "não",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
