package mdx

import (
	"regexp"
	"strings"

	"docs-translator/internal/textutil"
)

// Shape is the layout of a translatable line, which decides what part of it
// is sent to the translator.
type Shape int

const (
	Plain Shape = iota
	Heading
	ListItem
	JSX
)

func (s Shape) String() string {
	switch s {
	case Heading:
		return "heading"
	case ListItem:
		return "list-item"
	case JSX:
		return "jsx"
	}
	return "plain"
}

var (
	headingMarker = regexp.MustCompile(`^(#+\s*)(.+)$`)
	listMarker    = regexp.MustCompile(`^((?:[-*+]|\d+[.)])\s+)(.+)$`)
	tagPattern    = regexp.MustCompile(`<[^>]+>`)
)

// Line is a translatable line broken into the parts that are kept verbatim
// (Indent, Marker, Trail) and the Body that gets translated.
type Line struct {
	Indent string
	Marker string
	Body   string
	Trail  string
	Shape  Shape
}

// String reassembles the line.
func (l Line) String() string {
	return l.Indent + l.Marker + l.Body + l.Trail
}

// SplitLine breaks a line into indentation, heading/list marker and body.
// Heading and list bodies may still hold tags; callers split those with SplitTags.
func SplitLine(line string) Line {
	indent, body, trail := textutil.SplitIndent(line)
	l := Line{Indent: indent, Body: body, Trail: trail, Shape: Plain}

	switch {
	case strings.HasPrefix(body, "#"):
		if m := headingMarker.FindStringSubmatch(body); m != nil {
			l.Marker, l.Body, l.Shape = m[1], m[2], Heading
		}
	case listMarker.MatchString(body):
		m := listMarker.FindStringSubmatch(body)
		l.Marker, l.Body, l.Shape = m[1], m[2], ListItem
	}

	if l.Shape == Plain && strings.Contains(l.Body, "<") && strings.Contains(l.Body, ">") {
		l.Shape = JSX
	}
	return l
}

// HasTags reports whether text contains at least one <...> tag.
func HasTags(text string) bool {
	return tagPattern.MatchString(text)
}

// Part is a piece of a tag-interleaved line.
type Part struct {
	Text string
	Tag  bool
}

// SplitTags splits text on tag boundaries, preserving order. Joining the Text
// of every part yields the input.
func SplitTags(text string) []Part {
	var parts []Part
	prev := 0
	for _, loc := range tagPattern.FindAllStringIndex(text, -1) {
		if loc[0] > prev {
			parts = append(parts, Part{Text: text[prev:loc[0]]})
		}
		parts = append(parts, Part{Text: text[loc[0]:loc[1]], Tag: true})
		prev = loc[1]
	}
	if prev < len(text) {
		parts = append(parts, Part{Text: text[prev:]})
	}
	return parts
}

// FrontmatterField is a parsed "key: value" frontmatter line.
type FrontmatterField struct {
	Indent string
	Key    string
	Value  string
	Quote  string
}

// String renders the field keeping the key and quote style.
func (f FrontmatterField) String() string {
	return f.Indent + f.Key + ": " + f.Quote + f.Value + f.Quote
}

// ParseFrontmatterLine parses a "key: value" line. Matching surrounding quotes
// are stripped from the value and remembered in Quote.
func ParseFrontmatterLine(line string) (FrontmatterField, bool) {
	indent, body, _ := textutil.SplitIndent(line)
	key, value, ok := strings.Cut(body, ":")
	if !ok || strings.TrimSpace(key) == "" {
		return FrontmatterField{}, false
	}
	f := FrontmatterField{Indent: indent, Key: strings.TrimSpace(key)}
	value = strings.TrimSpace(value)
	if len(value) >= 2 {
		if q := value[:1]; (q == `"` || q == `'`) && strings.HasSuffix(value, q) {
			f.Quote = q
			value = value[1 : len(value)-1]
		}
	}
	f.Value = value
	return f, true
}
