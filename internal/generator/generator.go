// Package generator produces a natural-language answer from retrieval
// results through an external language model. Failures surface as errors
// so the caller can fall back to the templated renderer.
package generator

import (
	"errors"
	"fmt"
	"strings"

	"docdex/internal/domain"
)

// ErrUnavailable classifies a failed external generation call. Callers
// recover by rendering the templated answer instead.
var ErrUnavailable = errors.New("generator unavailable")

const (
	defaultTemperature = 0.4

	// promptResults caps how many passages go into the prompt.
	promptResults = 3
)

const systemPrompt = "You are a technical assistant for a documentation search tool. " +
	"You answer questions about the indexed documentation accurately and concisely."

func buildUserPrompt(query string, results []domain.SearchResult) string {
	var b strings.Builder
	b.WriteString("USER QUESTION:\n")
	b.WriteString(query)
	b.WriteString("\n\nRELEVANT DOCUMENTATION:\n")
	n := len(results)
	if n > promptResults {
		n = promptResults
	}
	for i, r := range results[:n] {
		fmt.Fprintf(&b, "Result %d (similarity: %.3f):\n%s\n\n", i+1, r.Similarity, r.Text)
	}
	b.WriteString("INSTRUCTIONS:\n")
	b.WriteString("- Answer clearly and technically\n")
	b.WriteString("- Be didactic, the reader is learning the tool\n")
	b.WriteString("- Include short examples when they help\n")
	b.WriteString("- Base the answer on the documentation above\n")
	b.WriteString("- Say explicitly when the documentation is not enough\n")
	return b.String()
}
