// Package protect swaps text that must survive machine translation untouched
// (product names, inline code, link targets) for opaque placeholders, and puts
// it back afterwards.
package protect

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Mapping stores the original text and its safe replacement.
type Mapping struct {
	Original    string
	Placeholder string
	Index       int
}

// varMatch stores a detected pattern position.
type varMatch struct {
	start, end int
	value      string
}

// MarkupPatterns match inline markup inside a segment that the translator must not see.
var MarkupPatterns = []*regexp.Regexp{
	regexp.MustCompile("`[^`\n]+`"),               // `code`
	regexp.MustCompile(`\]\([^)\s]+\)`),           // ](/link/target)
	regexp.MustCompile(`https?://[^\s)>"'\]]+`),   // bare URLs
	regexp.MustCompile(`\{[^{}\n]*\}`),            // {expression}
	regexp.MustCompile(`&(?:[a-zA-Z]+|#[0-9]+);`), // &nbsp;
}

// Protector replaces configured names and patterns with __KIND_n__ placeholders.
type Protector struct {
	kind     string
	names    []*regexp.Regexp
	patterns []*regexp.Regexp
}

// New builds a protector. Names are matched case-insensitively on word
// boundaries in the given order, so longer names must precede names they contain.
func New(kind string, names []string, patterns ...*regexp.Regexp) *Protector {
	p := &Protector{kind: strings.ToUpper(kind), patterns: patterns}
	for _, name := range names {
		if name == "" {
			continue
		}
		p.names = append(p.names, nameRegexp(name))
	}
	return p
}

// NewProductNames returns the per-file product-name protector.
func NewProductNames(names []string) *Protector {
	return New("PRODUCT", names)
}

// NewMarkup returns the per-segment inline markup protector.
func NewMarkup() *Protector {
	return New("MARKUP", nil, MarkupPatterns...)
}

func nameRegexp(name string) *regexp.Regexp {
	expr := regexp.QuoteMeta(name)
	if isWordByte(name[0]) {
		expr = `\b` + expr
	}
	if isWordByte(name[len(name)-1]) {
		expr += `\b`
	}
	return regexp.MustCompile(`(?i)` + expr)
}

func isWordByte(b byte) bool {
	return b == '_' || ('0' <= b && b <= '9') || ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
}

// Placeholders returns a pattern matching any placeholder this protector may emit.
func (p *Protector) Placeholders() *regexp.Regexp {
	return regexp.MustCompile(`__` + p.kind + `\d*_\d+__`)
}

// prefix picks a placeholder prefix that does not already occur in text.
// Without this, literal placeholder-shaped text in a document would be
// replaced on restore.
func (p *Protector) prefix(text string) string {
	prefix := "__" + p.kind + "_"
	for k := 1; strings.Contains(text, prefix); k++ {
		prefix = fmt.Sprintf("__%s%d_", p.kind, k)
	}
	return prefix
}

// Protect replaces all names and patterns with placeholders.
// Returns the safe string and a mapping to restore originals after translation.
func (p *Protector) Protect(text string) (string, []Mapping) {
	if len(p.names) == 0 && len(p.patterns) == 0 {
		return text, nil
	}

	prefix := p.prefix(text)
	var mappings []Mapping
	next := func(original string) string {
		idx := len(mappings)
		placeholder := fmt.Sprintf("%s%d__", prefix, idx)
		mappings = append(mappings, Mapping{Original: original, Placeholder: placeholder, Index: idx})
		return placeholder
	}

	result := text
	for _, re := range p.names {
		result = re.ReplaceAllStringFunc(result, next)
	}

	if len(p.patterns) == 0 {
		return result, mappings
	}

	var allMatches []varMatch
	for _, re := range p.patterns {
		for _, loc := range re.FindAllStringIndex(result, -1) {
			allMatches = append(allMatches, varMatch{start: loc[0], end: loc[1], value: result[loc[0]:loc[1]]})
		}
	}
	if len(allMatches) == 0 {
		return result, mappings
	}

	sortVarMatches(allMatches)

	// Remove overlapping matches (keep the first/longest).
	var filtered []varMatch
	lastEnd := -1
	for _, m := range allMatches {
		if m.start >= lastEnd {
			filtered = append(filtered, m)
			lastEnd = m.end
		}
	}

	var sb strings.Builder
	prev := 0
	for _, m := range filtered {
		sb.WriteString(result[prev:m.start])
		sb.WriteString(next(m.value))
		prev = m.end
	}
	sb.WriteString(result[prev:])

	return sb.String(), mappings
}

// Restore replaces placeholders with their originals, replaying mappings in order.
func Restore(translated string, mappings []Mapping) string {
	result := translated
	for _, m := range mappings {
		result = strings.ReplaceAll(result, m.Placeholder, m.Original)
	}
	return result
}

// sortVarMatches sorts by start position, then by length (descending) for overlaps.
func sortVarMatches(matches []varMatch) {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].start != matches[j].start {
			return matches[i].start < matches[j].start
		}
		return matches[i].end-matches[i].start > matches[j].end-matches[j].start
	})
}
