// Package mdx classifies the lines of MDX documents: which ones hold prose
// worth translating and which ones are code, frontmatter, JSX markup,
// attributes, URLs or style objects.
//
// Classification is line based and driven by enumerated tables. A line the
// tables do not describe is treated as prose; that is a known limitation, not
// something to paper over with broader heuristics.
package mdx

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"docs-translator/internal/textutil"
)

// Decision is the classifier's verdict for one line.
type Decision int

const (
	Skip Decision = iota
	Translate
	// Frontmatter marks a recognised frontmatter key whose value should be translated.
	Frontmatter
)

func (d Decision) String() string {
	switch d {
	case Translate:
		return "translate"
	case Frontmatter:
		return "frontmatter"
	}
	return "skip"
}

// Mode is the parser state carried from line to line. At most one flag is set.
type Mode struct {
	InCodeBlock   bool
	InFrontmatter bool
	InStyleObject bool
}

// Rules configures a Classifier.
type Rules struct {
	Source           textutil.Script
	Target           textutil.Script
	FrontmatterKeys  []string
	AttributeNames   []string
	InlineAttributes []string
	CSSValues        []string
	ImageExtensions  []string
	// SourceMarkers, when set and both languages share a script, are the
	// characters a line needs to count as source text.
	SourceMarkers string
	// Ignore matches text (placeholders) disregarded when looking for prose.
	Ignore *regexp.Regexp
}

const (
	codeFence        = "```"
	frontmatterDelim = "---"
	styleOpen        = "style={{"
	styleClose       = "}}"
	bom              = "\uFEFF"
)

var (
	singleTag   = regexp.MustCompile(`^</?[A-Za-z][\w.\-]*(\s+[^>]*)?/?>$`)
	tagFragment = regexp.MustCompile(`</?[A-Za-z][\w.\-]*|/>`)
	anyTag      = regexp.MustCompile(`<[^>]*>`)
)

// Classifier applies Rules to lines. It is stateless; use a Scanner to walk a document.
type Classifier struct {
	rules      Rules
	attrLine   *regexp.Regexp
	cssValue   *regexp.Regexp
	imageExts  []string
	fmPrefixes []string
}

func NewClassifier(rules Rules) *Classifier {
	if rules.Source == "" {
		rules.Source = textutil.Latin
	}
	if rules.Target == "" {
		rules.Target = textutil.Han
	}
	c := &Classifier{rules: rules}
	if alt := alternation(rules.AttributeNames); alt != "" {
		c.attrLine = regexp.MustCompile(`^(?:` + alt + `)\s*[:=]`)
	}
	if alt := alternation(rules.CSSValues); alt != "" {
		c.cssValue = regexp.MustCompile(`^['"](?:` + alt + `)['"]?\s*,?$`)
	}
	for _, ext := range rules.ImageExtensions {
		c.imageExts = append(c.imageExts, strings.ToLower(ext))
	}
	for _, key := range rules.FrontmatterKeys {
		c.fmPrefixes = append(c.fmPrefixes, key+":")
	}
	return c
}

// alternation quotes words into a regexp alternation, longest first.
func alternation(words []string) string {
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		if w != "" {
			quoted = append(quoted, regexp.QuoteMeta(w))
		}
	}
	sort.SliceStable(quoted, func(i, j int) bool { return len(quoted[i]) > len(quoted[j]) })
	return strings.Join(quoted, "|")
}

// Classify decides a non-delimiter line under the given mode. Mode toggles are
// the Scanner's job; Classify only reads the mode.
func (c *Classifier) Classify(line string, mode Mode) Decision {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || mode.InCodeBlock || mode.InStyleObject {
		return Skip
	}

	if mode.InFrontmatter {
		if !c.isFrontmatterKey(trimmed) {
			return Skip
		}
		fm, ok := ParseFrontmatterLine(line)
		if !ok || !c.Eligible(fm.Value) {
			return Skip
		}
		return Frontmatter
	}

	if strings.HasPrefix(trimmed, "import ") || strings.HasPrefix(trimmed, "export ") {
		return Skip
	}

	if singleTag.MatchString(trimmed) {
		return Skip
	}

	tagged := tagFragment.MatchString(trimmed)
	if tagged {
		text := tagFragment.ReplaceAllString(anyTag.ReplaceAllString(trimmed, " "), " ")
		if !c.RunEligible(text) {
			return Skip
		}
	}

	if c.isAttribute(trimmed) {
		return Skip
	}

	if c.isLinkOrImage(trimmed) {
		return Skip
	}

	if onlyPunctuation(trimmed) {
		return Skip
	}

	if !tagged && !c.Eligible(trimmed) {
		return Skip
	}
	return Translate
}

// Eligible reports whether text holds untranslated prose: a run of source
// script letters not yet written in the target language.
func (c *Classifier) Eligible(text string) bool {
	text = strings.TrimSpace(c.stripIgnored(text))
	if !c.rules.Source.HasRun(text) {
		return false
	}
	if c.rules.Source != textutil.Latin && utf8.RuneCountInString(text) <= 2 {
		return false
	}
	return c.untranslated(text)
}

// RunEligible reports whether a text run between tags should be sent: any
// source script letter will do, as long as the run is not yet in the target
// language.
func (c *Classifier) RunEligible(text string) bool {
	text = strings.TrimSpace(c.stripIgnored(text))
	return c.rules.Source.Has(text) && c.untranslated(text)
}

// untranslated reports whether text shows no sign of the target language.
// Between same-script languages the source markers decide. When every mark of
// the target is also a source letter, a rune marking the source is required.
func (c *Classifier) untranslated(text string) bool {
	src, dst := c.rules.Source, c.rules.Target
	switch {
	case dst == src:
		if c.rules.SourceMarkers != "" {
			return strings.ContainsAny(text, c.rules.SourceMarkers)
		}
		return true
	case src.Covers(dst):
		return src.Contains(text)
	case dst != textutil.Latin:
		return !dst.Contains(text)
	}
	return true
}

func (c *Classifier) stripIgnored(text string) string {
	if c.rules.Ignore == nil {
		return text
	}
	return c.rules.Ignore.ReplaceAllString(text, " ")
}

func (c *Classifier) isFrontmatterKey(trimmed string) bool {
	for _, p := range c.fmPrefixes {
		if strings.HasPrefix(trimmed, p) {
			return true
		}
	}
	return false
}

func (c *Classifier) isAttribute(trimmed string) bool {
	if c.attrLine != nil && c.attrLine.MatchString(trimmed) {
		return true
	}
	for _, a := range c.rules.InlineAttributes {
		if a != "" && strings.Contains(trimmed, a) {
			return true
		}
	}
	return c.cssValue != nil && c.cssValue.MatchString(trimmed)
}

func (c *Classifier) isLinkOrImage(trimmed string) bool {
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") ||
		strings.HasPrefix(trimmed, "mailto:") {
		return true
	}
	lower := strings.ToLower(trimmed)
	for _, ext := range c.imageExts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func onlyPunctuation(s string) bool {
	for _, r := range s {
		if !unicode.IsPunct(r) && !unicode.IsSymbol(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

// Scanner walks a document top to bottom, tracking Mode.
type Scanner struct {
	c    *Classifier
	mode Mode
	// content is set once a non-blank line has been seen; frontmatter may only open before it.
	content bool
}

func (c *Classifier) NewScanner() *Scanner {
	return &Scanner{c: c}
}

// Scan classifies the next line and updates the mode.
func (s *Scanner) Scan(line string) Decision {
	if !s.content && !s.mode.InFrontmatter {
		line = strings.TrimPrefix(line, bom)
	}
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return Skip
	}

	if s.mode.InCodeBlock {
		if strings.HasPrefix(trimmed, codeFence) {
			s.mode.InCodeBlock = false
		}
		return Skip
	}

	if s.mode.InFrontmatter {
		if trimmed == frontmatterDelim {
			s.mode.InFrontmatter = false
			s.content = true
			return Skip
		}
		return s.c.Classify(line, s.mode)
	}

	if s.mode.InStyleObject {
		if strings.Contains(trimmed, styleClose) {
			s.mode.InStyleObject = false
		}
		return Skip
	}

	first := !s.content
	s.content = true

	if strings.HasPrefix(trimmed, codeFence) {
		s.mode.InCodeBlock = true
		return Skip
	}

	if trimmed == frontmatterDelim {
		if first {
			s.mode.InFrontmatter = true
		}
		return Skip
	}

	if i := strings.Index(trimmed, styleOpen); i >= 0 {
		if !strings.Contains(trimmed[i+len(styleOpen):], styleClose) {
			s.mode.InStyleObject = true
		}
		return Skip
	}

	return s.c.Classify(line, s.mode)
}
