// Package answer renders a query outcome as plain text. It is the
// fallback path when no generator is configured or the generator fails.
package answer

import (
	"fmt"
	"strings"

	"docdex/internal/domain"
)

const (
	maxShownResults = 3
	snippetRunes    = 200
)

const notFound = "No specific information found in the documentation. Try rephrasing your question."

const smallTalk = "Hello! I answer questions about the indexed documentation. " +
	"Ask about conditional logic, lookups, validation, text handling, dates or aggregation."

var leadIns = map[domain.Intent]string{
	domain.IntentConditionalLogic: "For conditional logic, these functions are recommended:",
	domain.IntentDataLookup:       "For table lookups, these functions are useful:",
	domain.IntentDataValidation:   "For data validation, use:",
	domain.IntentStringOps:        "For text manipulation, consider:",
	domain.IntentDateOps:          "For date operations, consult:",
	domain.IntentAggregation:      "For data aggregation, these functions help:",
}

// Render builds the templated answer for an outcome.
func Render(o domain.QueryOutcome) string {
	if !o.Intent.Searchable() {
		return smallTalk
	}

	var b strings.Builder
	lead, ok := leadIns[o.Intent]
	if !ok {
		lead = "Based on your question:"
	}
	b.WriteString(lead)
	b.WriteString("\n")
	if len(o.Recommended) > 0 {
		b.WriteString("Recommended functions: ")
		b.WriteString(strings.Join(o.Recommended, ", "))
		b.WriteString("\n")
	}

	if len(o.Results) == 0 {
		b.WriteString("\n")
		b.WriteString(notFound)
		return b.String()
	}

	b.WriteString("\nMost relevant passages:\n")
	n := len(o.Results)
	if n > maxShownResults {
		n = maxShownResults
	}
	for i, r := range o.Results[:n] {
		fmt.Fprintf(&b, "%d. [%s] (similarity: %.3f)\n%s\n", i+1, r.Section, r.Similarity, snippet(r.Text))
	}
	b.WriteString("\nTip: mention a specific function name to narrow the search.")
	return b.String()
}

func snippet(text string) string {
	runes := []rune(text)
	if len(runes) <= snippetRunes {
		return text
	}
	return strings.TrimSpace(string(runes[:snippetRunes])) + "..."
}
