package chunker

import (
	"strings"
	"unicode"
)

// splitSentences breaks text at terminator-plus-space boundaries while
// keeping two-letter titles ("Dr.") and dotted shorthands ("e.g.",
// "i.e.") attached to their sentence. Single-letter initials ("G.")
// still end a sentence.
func splitSentences(text string) []string {
	runes := []rune(text)
	var out []string
	start := 0
	for i := 1; i < len(runes); i++ {
		if !isBoundarySpace(runes[i]) || !isTerminator(runes[i-1]) {
			continue
		}
		if abbreviationBefore(runes, i) {
			continue
		}
		if sent := strings.TrimSpace(string(runes[start:i])); sent != "" {
			out = append(out, sent)
		}
		start = i + 1
	}
	if tail := strings.TrimSpace(string(runes[start:])); tail != "" {
		out = append(out, tail)
	}
	return out
}

// abbreviationBefore reports whether the characters before the space at i
// look like an abbreviation rather than a sentence end: a capital followed
// by one lowercase letter and the dot ("Dr.") or a dotted shorthand
// ("e.g.", "U.S.").
func abbreviationBefore(r []rune, i int) bool {
	if i >= 3 && r[i-1] == '.' && unicode.IsUpper(r[i-3]) && unicode.IsLower(r[i-2]) {
		return true
	}
	if i >= 4 && isWordRune(r[i-4]) && r[i-3] == '.' && isWordRune(r[i-2]) {
		return true
	}
	return false
}

func isWordRune(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' }

func isTerminator(r rune) bool { return r == '.' || r == '!' || r == '?' }

func isBoundarySpace(r rune) bool { return r == ' ' || r == '\t' || r == '\n' }
