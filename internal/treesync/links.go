package treesync

import (
	"path"
	"regexp"
	"strings"
)

var (
	markdownLink = regexp.MustCompile(`\[([^\]]+)\]\((/[^)]+)\)`)
	// Components (capitalised) and plain anchors; only their href is touched.
	hrefTag  = regexp.MustCompile(`<(?:[A-Z][a-zA-Z]*|a)\b[^>]*>`)
	hrefAttr = regexp.MustCompile(`href="(/[^"]+)"`)
)

// Linker prefixes internal absolute links with a language directory.
type Linker struct {
	prefix string
	assets map[string]bool
}

// NewLinker creates a Linker for the language directory dir. Links to files
// with one of the asset extensions are left alone.
func NewLinker(dir string, assetExts []string) *Linker {
	l := &Linker{prefix: "/" + strings.Trim(dir, "/"), assets: make(map[string]bool, len(assetExts))}
	for _, ext := range assetExts {
		l.assets[strings.ToLower(ext)] = true
	}
	return l
}

// Prefix rewrites [text](/path), <Component href="/path"> and <a href="/path">
// so that they point into the language tree. Running it twice is a no-op.
func (l *Linker) Prefix(content string) string {
	content = markdownLink.ReplaceAllStringFunc(content, func(m string) string {
		sub := markdownLink.FindStringSubmatch(m)
		if !l.internal(sub[2]) {
			return m
		}
		return "[" + sub[1] + "](" + l.prefix + sub[2] + ")"
	})

	return hrefTag.ReplaceAllStringFunc(content, func(tag string) string {
		return hrefAttr.ReplaceAllStringFunc(tag, func(attr string) string {
			p := hrefAttr.FindStringSubmatch(attr)[1]
			if !l.internal(p) {
				return attr
			}
			return `href="` + l.prefix + p + `"`
		})
	})
}

func (l *Linker) internal(p string) bool {
	if strings.HasPrefix(p, "//") {
		return false
	}
	if p == l.prefix || strings.HasPrefix(p, l.prefix+"/") || strings.HasPrefix(p, l.prefix+"#") {
		return false
	}
	clean := p
	if i := strings.IndexAny(clean, "?#"); i >= 0 {
		clean = clean[:i]
	}
	return !l.assets[strings.ToLower(path.Ext(clean))]
}
