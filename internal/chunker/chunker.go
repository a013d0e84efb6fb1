package chunker

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"docdex/internal/domain"
)

const (
	defaultChunkSize = 500

	// Passages at or below this trimmed length are dropped as noise.
	minPassageRunes = 100

	// Section label for text before the first recognized heading.
	defaultSection = "Introduction"
)

// SectionChunker splits cleaned document text into section-tagged passages
// of bounded size, carrying a sentence tail across chunk boundaries so
// adjacent chunks overlap.
type SectionChunker struct {
	chunkSize int
	overlap   int
}

// New creates a SectionChunker. A non-positive chunk size falls back to
// the default and a negative overlap clamps to zero; an overlap larger
// than the chunk size is a configuration error.
func New(chunkSize, overlap int) (*SectionChunker, error) {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap > chunkSize {
		return nil, fmt.Errorf("overlap %d exceeds chunk size %d", overlap, chunkSize)
	}
	return &SectionChunker{chunkSize: chunkSize, overlap: overlap}, nil
}

// Chunk converts document text into an ordered sequence of passages with
// dense zero-based ids. Empty input yields an empty result, not an error.
func (c *SectionChunker) Chunk(text string) ([]domain.Passage, error) {
	cleaned := normalize(text)
	if cleaned == "" {
		return nil, nil
	}
	var passages []domain.Passage
	id := 0
	for _, sec := range splitSections(cleaned) {
		for _, chunk := range c.splitSection(sec.body) {
			trimmed := strings.TrimSpace(chunk)
			if utf8.RuneCountInString(trimmed) <= minPassageRunes {
				continue
			}
			passages = append(passages, domain.Passage{
				ID:        id,
				Text:      trimmed,
				Section:   sec.name,
				CharCount: utf8.RuneCountInString(trimmed),
				WordCount: len(strings.Fields(trimmed)),
			})
			id++
		}
	}
	return passages, nil
}

var (
	controlRe  = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]`)
	spaceRunRe = regexp.MustCompile(`[ \t]{2,}`)
	blankRunRe = regexp.MustCompile(`\n{3,}`)
)

// normalize collapses runs of spaces and blank lines and strips control
// characters, keeping single newlines so section and paragraph structure
// stays visible to the splitters.
func normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = controlRe.ReplaceAllString(text, "")
	text = spaceRunRe.ReplaceAllString(text, " ")
	text = blankRunRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

type section struct {
	name string
	body string
}

// Heading patterns in priority order: numbered headings ("6.1.3 lookup_ext"),
// markdown headings, "Capitalized Words function" lines.
var headingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d+\.\d+(?:\.\d+)*\s+\S.*`),
	regexp.MustCompile(`^##+\s+\S.*`),
	regexp.MustCompile(`^[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*\s+function\b`),
}

// splitSections scans line by line and starts a new labeled section on every
// heading match. Text before the first heading keeps the default label; a
// document with no headings is a single section.
func splitSections(text string) []section {
	var sections []section
	name := defaultSection
	var lines []string

	flush := func() {
		if len(lines) == 0 {
			return
		}
		body := strings.TrimSpace(strings.Join(lines, "\n"))
		if body != "" {
			sections = append(sections, section{name: name, body: body})
		}
		lines = nil
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			lines = append(lines, "")
			continue
		}
		if label, ok := matchHeading(line); ok {
			flush()
			name = label
		}
		lines = append(lines, line)
	}
	flush()
	return sections
}

func matchHeading(line string) (string, bool) {
	for _, p := range headingPatterns {
		if m := p.FindString(line); m != "" {
			return strings.TrimSpace(m), true
		}
	}
	return "", false
}

// splitSection accumulates blank-line-delimited paragraphs into chunks of at
// most chunkSize runes. When a flush happens the next chunk is seeded with
// the previous chunk's trailing sentences, giving the overlap. Paragraphs
// that alone exceed the budget are split at sentence granularity.
func (c *SectionChunker) splitSection(body string) []string {
	var paragraphs []string
	for _, p := range strings.Split(body, "\n\n") {
		p = strings.TrimSpace(strings.ReplaceAll(p, "\n", " "))
		if p != "" {
			paragraphs = append(paragraphs, p)
		}
	}

	var chunks []string
	current := ""
	for _, para := range paragraphs {
		if runeLen(para) > c.chunkSize {
			for _, sent := range splitSentences(para) {
				if current != "" && runeLen(current)+runeLen(sent) > c.chunkSize {
					chunks = append(chunks, current)
					current = joinSpaced(c.overlapTail(current), sent)
				} else {
					current = joinSpaced(current, sent)
				}
			}
			continue
		}
		if current != "" && runeLen(current)+runeLen(para) > c.chunkSize {
			chunks = append(chunks, current)
			current = joinSpaced(c.overlapTail(current), para)
		} else {
			current = joinSpaced(current, para)
		}
	}
	if current != "" {
		chunks = append(chunks, current)
	}
	return chunks
}

// overlapTail collects trailing sentences of a chunk, newest last, until the
// overlap budget is exhausted.
func (c *SectionChunker) overlapTail(chunk string) string {
	if c.overlap <= 0 {
		return ""
	}
	sentences := splitSentences(chunk)
	tail := ""
	for i := len(sentences) - 1; i >= 0; i-- {
		if runeLen(tail)+runeLen(sentences[i]) > c.overlap {
			break
		}
		tail = joinSpaced(sentences[i], tail)
	}
	return tail
}

func joinSpaced(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	return a + " " + b
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }
