// Package embedding provides the embedder implementations used to turn
// passages and search terms into vectors: a deterministic feature-hashing
// embedder that needs no external service, an OpenAI-backed embedder and
// an Ollama-backed one. Every implementation returns unit-length vectors,
// so inner product and cosine similarity coincide.
package embedding

import "math"

// Normalize scales vec to unit L2 length in place. Zero vectors are left
// untouched.
func Normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
}
