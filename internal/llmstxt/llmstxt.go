// Package llmstxt generates the llms.txt page index of every language tree.
package llmstxt

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"docs-translator/internal/config"
	"docs-translator/internal/filewalker"
	"docs-translator/internal/mdx"
)

// FileName is the name of the generated index in each language tree.
const FileName = "llms.txt"

const bom = "\uFEFF"

var frontmatterBlock = regexp.MustCompile(`^---\s*\n([\s\S]*?)\n---\s*(?:\n|$)`)

// Frontmatter holds the fields of a page used in the index.
type Frontmatter struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

// ParseFrontmatter extracts title and description from a document. Blocks
// that are not valid YAML (unquoted values containing ": " are common) are
// read line by line instead.
func ParseFrontmatter(content string) Frontmatter {
	content = strings.TrimPrefix(strings.ReplaceAll(content, "\r\n", "\n"), bom)
	m := frontmatterBlock.FindStringSubmatch(content)
	if m == nil {
		return Frontmatter{}
	}

	var fm Frontmatter
	if err := yaml.Unmarshal([]byte(m[1]), &fm); err == nil {
		return fm
	}

	fm = Frontmatter{}
	for _, line := range strings.Split(m[1], "\n") {
		f, ok := mdx.ParseFrontmatterLine(line)
		if !ok {
			continue
		}
		if f.Quote == "'" {
			f.Value = strings.ReplaceAll(f.Value, "''", "'")
		}
		switch f.Key {
		case "title":
			fm.Title = f.Value
		case "description":
			fm.Description = f.Value
		}
	}
	return fm
}

// Page is one entry of an index.
type Page struct {
	Title       string
	Description string
	URL         string
	// Path is relative to the docs root, without extension.
	Path string
}

// Result describes one written index.
type Result struct {
	Lang  string
	File  string
	Pages int
}

// Generator builds the indexes from the docs tree.
type Generator struct {
	baseURL string
	tables  config.LLMsTables
	walker  *filewalker.Walker
}

func NewGenerator(baseURL string, tables config.LLMsTables, walker *filewalker.Walker) *Generator {
	walker.Exclude(tables.Exclude...)
	return &Generator{
		baseURL: strings.TrimRight(baseURL, "/"),
		tables:  tables,
		walker:  walker,
	}
}

// Collect groups the included pages under root by section language.
func (g *Generator) Collect(root string) (map[string][]Page, error) {
	entries, err := g.walker.Walk(root)
	if err != nil {
		return nil, err
	}

	pages := make(map[string][]Page)
	for _, e := range entries {
		section, inner, ok := g.section(e.Rel)
		if !ok || !g.included(inner) {
			continue
		}

		data, err := os.ReadFile(e.Path)
		if err != nil {
			log.Error().Err(err).Str("file", e.Rel).Msg("Failed to read page")
			continue
		}
		fm := ParseFrontmatter(string(data))

		p := Page{
			Title:       fm.Title,
			Description: fm.Description,
			Path:        strings.TrimSuffix(e.Rel, filepath.Ext(e.Rel)),
		}
		if p.Title == "" {
			p.Title = p.Path
		}
		p.URL = g.url(section, p.Path)
		pages[section.Lang] = append(pages[section.Lang], p)
	}

	for lang := range pages {
		sort.Slice(pages[lang], func(i, j int) bool { return pages[lang][i].Path < pages[lang][j].Path })
	}
	return pages, nil
}

// section finds the section a page belongs to and its path inside that section.
func (g *Generator) section(rel string) (config.LLMsSection, string, bool) {
	var root *config.LLMsSection
	for i, s := range g.tables.Sections {
		if s.Dir == "" {
			root = &g.tables.Sections[i]
			continue
		}
		if strings.HasPrefix(rel, s.Dir+"/") {
			return s, strings.TrimPrefix(rel, s.Dir+"/"), true
		}
	}
	if root == nil {
		return config.LLMsSection{}, "", false
	}
	return *root, rel, true
}

func (g *Generator) included(inner string) bool {
	if len(g.tables.Include) == 0 {
		return true
	}
	for _, prefix := range g.tables.Include {
		if strings.HasPrefix(inner, prefix) {
			return true
		}
	}
	return false
}

func (g *Generator) url(section config.LLMsSection, pagePath string) string {
	index := "index"
	if section.Dir != "" {
		index = section.Dir + "/index"
	}
	if pagePath == index {
		return g.baseURL + "/" + section.Dir
	}
	return g.baseURL + "/" + pagePath
}

// Render formats one index.
func Render(section config.LLMsSection, pages []Page) string {
	var b bytes.Buffer
	if section.BOM {
		b.WriteString(bom)
	}
	fmt.Fprintf(&b, "# %s\n\n", section.Title)
	if section.Blurb != "" {
		fmt.Fprintf(&b, "> %s\n\n", section.Blurb)
	}
	fmt.Fprintf(&b, "## %s\n\n", section.Heading)
	for _, p := range pages {
		if p.Description != "" {
			fmt.Fprintf(&b, "- [%s](%s): %s\n", p.Title, p.URL, p.Description)
		} else {
			fmt.Fprintf(&b, "- [%s](%s)\n", p.Title, p.URL)
		}
	}
	return b.String()
}

// Generate writes llms.txt into every section's directory under root.
func (g *Generator) Generate(root string) ([]Result, error) {
	pages, err := g.Collect(root)
	if err != nil {
		return nil, err
	}

	var results []Result
	for _, s := range g.tables.Sections {
		dir := filepath.Join(root, filepath.FromSlash(s.Dir))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return results, fmt.Errorf("create %s: %w", s.Lang, err)
		}
		file := filepath.Join(dir, FileName)
		if err := os.WriteFile(file, []byte(Render(s, pages[s.Lang])), 0o644); err != nil {
			return results, fmt.Errorf("write %s: %w", file, err)
		}
		results = append(results, Result{Lang: s.Lang, File: file, Pages: len(pages[s.Lang])})
	}
	return results, nil
}
