package llmstxt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docs-translator/internal/config"
	"docs-translator/internal/filewalker"
)

func TestParseFrontmatter(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    Frontmatter
	}{
		{"yaml", "---\ntitle: \"Setup\"\ndescription: Getting started\n---\n# Body\n", Frontmatter{"Setup", "Getting started"}},
		{"invalid yaml", "---\ntitle: Setup: the basics\ndescription: 'It''s easy'\n---\n", Frontmatter{"Setup: the basics", "It's easy"}},
		{"bom and crlf", "\uFEFF---\r\ntitle: 設定\r\n---\r\n", Frontmatter{Title: "設定"}},
		{"none", "# Just a heading\n", Frontmatter{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseFrontmatter(tt.content))
		})
	}
}

func writePage(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newGenerator(t *testing.T) *Generator {
	t.Helper()
	tables, err := config.LoadTables("")
	require.NoError(t, err)
	return NewGenerator("https://docs.superun.com/", tables.LLMs, filewalker.NewWalker(tables.ExcludedDirs))
}

func TestGenerator_Collect(t *testing.T) {
	root := t.TempDir()
	writePage(t, root, "superun/setup.mdx", "---\ntitle: Setup\ndescription: First steps\n---\n")
	writePage(t, root, "superun/about.mdx", "# No frontmatter\n")
	writePage(t, root, "superun/prompt-to-design/intro.mdx", "---\ntitle: Hidden\n---\n")
	writePage(t, root, "blog/post.mdx", "---\ntitle: Blog\n---\n")
	writePage(t, root, "zh-Hant/superun/setup.mdx", "---\ntitle: 設定\n---\n")
	writePage(t, root, "zh-Hant/index.mdx", "---\ntitle: 首頁\n---\n")

	pages, err := newGenerator(t).Collect(root)
	require.NoError(t, err)

	assert.Equal(t, []Page{
		{Title: "superun/about", URL: "https://docs.superun.com/superun/about", Path: "superun/about"},
		{Title: "Setup", Description: "First steps", URL: "https://docs.superun.com/superun/setup", Path: "superun/setup"},
	}, pages["en"])
	assert.Equal(t, []Page{
		{Title: "設定", URL: "https://docs.superun.com/zh-Hant/superun/setup", Path: "zh-Hant/superun/setup"},
	}, pages["zh-Hant"])
	assert.Empty(t, pages["zh-Hans"])
}

func TestGenerator_IndexURL(t *testing.T) {
	g := newGenerator(t)
	section := config.LLMsSection{Lang: "zh-Hant", Dir: "zh-Hant"}
	assert.Equal(t, "https://docs.superun.com/zh-Hant", g.url(section, "zh-Hant/index"))
	assert.Equal(t, "https://docs.superun.com/", g.url(config.LLMsSection{Lang: "en"}, "index"))
}

func TestRender(t *testing.T) {
	section := config.LLMsSection{Title: "Docs", Blurb: "About.", Heading: "Pages"}
	got := Render(section, []Page{
		{Title: "A", URL: "https://x/a", Description: "first"},
		{Title: "B", URL: "https://x/b"},
	})
	assert.Equal(t, "# Docs\n\n> About.\n\n## Pages\n\n- [A](https://x/a): first\n- [B](https://x/b)\n", got)

	section.BOM = true
	assert.True(t, strings.HasPrefix(Render(section, nil), "\uFEFF# Docs"))
}

func TestGenerator_Generate(t *testing.T) {
	root := t.TempDir()
	writePage(t, root, "superun/setup.mdx", "---\ntitle: Setup\n---\n")
	writePage(t, root, "zh-Hans/superun/setup.mdx", "---\ntitle: 设置\n---\n")

	results, err := newGenerator(t).Generate(root)
	require.NoError(t, err)
	require.Len(t, results, 3)

	en, err := os.ReadFile(filepath.Join(root, FileName))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(en), "# superun Documentation\n"))
	assert.Contains(t, string(en), "- [Setup](https://docs.superun.com/superun/setup)\n")
	assert.NotContains(t, string(en), "zh-Hans")

	hans, err := os.ReadFile(filepath.Join(root, "zh-Hans", FileName))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(hans), "\uFEFF# superun 文档\n"))
	assert.Contains(t, string(hans), "- [设置](https://docs.superun.com/zh-Hans/superun/setup)\n")

	_, err = os.Stat(filepath.Join(root, "zh-Hant", FileName))
	assert.NoError(t, err)
}
