// Package intent maps free-form queries onto a closed set of topic labels
// using an ordered table of regex rules. Earlier rules win; queries that
// match nothing fall back to the non-technical label, which retrieval
// treats as "do not search".
package intent

import (
	"regexp"
	"strings"

	"docdex/internal/domain"
)

// Classification is the outcome of classifying one query: the detected
// intent, the canonical functions recommended for it, and the expanded
// search terms. SearchTerms is empty for non-searchable intents; callers
// typically issue only a prefix of it.
type Classification struct {
	Intent      domain.Intent
	Recommended []string
	SearchTerms []string
}

type rule struct {
	intent    domain.Intent
	patterns  []*regexp.Regexp
	functions []string
	synonyms  []string
}

// Classifier holds the compiled rule table. It is immutable after New and
// safe for concurrent use.
type Classifier struct {
	rules []rule
}

// New compiles the built-in rule table.
func New() *Classifier {
	return &Classifier{rules: defaultRules()}
}

// Classify lower-cases the query, tests each rule's patterns in priority
// order and returns the first match. The expansion is the original query
// followed by the intent's recommended functions and synonym phrases.
func (c *Classifier) Classify(query string) Classification {
	q := strings.ToLower(query)
	for _, r := range c.rules {
		for _, p := range r.patterns {
			if p.MatchString(q) {
				return expand(query, r)
			}
		}
	}
	return Classification{Intent: domain.IntentGeneral}
}

func expand(query string, r rule) Classification {
	cl := Classification{Intent: r.intent, Recommended: r.functions}
	if !r.intent.Searchable() {
		return cl
	}
	terms := make([]string, 0, 1+len(r.functions)+len(r.synonyms))
	terms = append(terms, query)
	terms = append(terms, r.functions...)
	terms = append(terms, r.synonyms...)
	cl.SearchTerms = terms
	return cl
}

func compile(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}
