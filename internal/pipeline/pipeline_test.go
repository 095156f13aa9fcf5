package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docs-translator/internal/config"
	"docs-translator/internal/filewalker"
	"docs-translator/internal/translation"
)

// prefixClient marks every translated segment with 譯 so that translated
// lines carry Han text afterwards.
type prefixClient struct {
	calls []string
}

func (c *prefixClient) Translate(_ context.Context, text, _, _ string) (string, error) {
	c.calls = append(c.calls, text)
	return "譯" + text, nil
}

func loadTables(t *testing.T) *config.Tables {
	t.Helper()
	tables, err := config.LoadTables("")
	require.NoError(t, err)
	return tables
}

func newDriver(t *testing.T, client translation.Client, source, target string) *Driver {
	t.Helper()
	tables := loadTables(t)
	return NewDriver(client, tables.Language(source), tables.Language(target), tables, translation.Options{MaxSegmentLength: 1000})
}

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func read(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

const englishDoc = `---
title: "Getting Started"
icon: rocket
---

## Hello World

Deploy on superun Cloud today.

` + "```bash\nnpm install superun\n```" + `

<Card title="Setup" href="/superun/setup">
  Some text inside
</Card>
`

const translatedDoc = `---
title: "譯Getting Started"
icon: rocket
---

## 譯Hello World

譯Deploy on superun Cloud today.

` + "```bash\nnpm install superun\n```" + `

<Card title="Setup" href="/superun/setup">
  譯Some text inside
</Card>
`

func TestDriver_ProcessFileInPlace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.mdx")
	write(t, path, englishDoc)

	client := &prefixClient{}
	d := newDriver(t, client, "en", "zh-Hant")

	outcome, err := d.ProcessFile(context.Background(), path, path)
	require.NoError(t, err)
	assert.Equal(t, Translated, outcome)
	assert.Equal(t, translatedDoc, read(t, path))

	assert.Len(t, client.calls, 4)
	for _, call := range client.calls {
		assert.NotContains(t, call, "superun")
	}
	assert.Contains(t, client.calls, "Deploy on __PRODUCT_0__ today.")
}

func TestDriver_TranslatesShortRunsBetweenTags(t *testing.T) {
	client := &prefixClient{}
	d := newDriver(t, client, "en", "zh-Hant")

	out, segments, err := d.Translate(context.Background(), "Use <code>npm</code> or <code>yarn</code> to install\n<b>Save</b> it")
	require.NoError(t, err)
	assert.Equal(t, 2, segments)
	assert.Contains(t, client.calls, "or")
	assert.Contains(t, client.calls, "it")
	assert.Equal(t, "譯Use <code>譯npm</code> 譯or <code>譯yarn</code> 譯to install\n<b>譯Save</b> 譯it", out)
}

func TestDriver_FrontmatterAfterBOM(t *testing.T) {
	client := &prefixClient{}
	d := newDriver(t, client, "en", "zh-Hant")

	out, _, err := d.Translate(context.Background(), "\uFEFF---\ntitle: \"Getting Started\"\n---\nBody text here")
	require.NoError(t, err)
	assert.Equal(t, []string{"Getting Started", "Body text here"}, client.calls)
	assert.Equal(t, "\uFEFF---\ntitle: \"譯Getting Started\"\n---\n譯Body text here", out)
}

func TestDriver_JapaneseToSimplifiedChinese(t *testing.T) {
	client := &prefixClient{}
	d := newDriver(t, client, "ja", "zh-Hans")

	_, segments, err := d.Translate(context.Background(), "設定を開いてください\nこれはテストです\n打开设置页面")
	require.NoError(t, err)
	assert.Equal(t, 2, segments)
	assert.Equal(t, []string{"設定を開いてください", "これはテストです"}, client.calls)
}

func TestDriver_SecondRunWritesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.mdx")
	write(t, path, englishDoc)

	client := &prefixClient{}
	d := newDriver(t, client, "en", "zh-Hant")
	_, err := d.ProcessFile(context.Background(), path, path)
	require.NoError(t, err)

	past := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(path, past, past))
	client.calls = nil

	outcome, err := d.ProcessFile(context.Background(), path, path)
	require.NoError(t, err)
	assert.Equal(t, Unchanged, outcome)
	assert.Empty(t, client.calls)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(past))
}

func TestDriver_CrossTreeRewritesPaths(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "zh-Hant", "guide.mdx")
	dest := filepath.Join(root, "ja", "guide.mdx")
	write(t, src, "請參閱 [指南](/zh-Hant/guide)。\n")

	d := newDriver(t, &prefixClient{}, "zh-Hant", "ja")
	d.SetRewrite(PathRewrite("zh-Hant", "ja"))

	outcome, err := d.ProcessFile(context.Background(), src, dest)
	require.NoError(t, err)
	assert.Equal(t, Translated, outcome)
	assert.Equal(t, "譯請參閱 [指南](/ja/guide)。\n", read(t, dest))
	assert.Equal(t, "請參閱 [指南](/zh-Hant/guide)。\n", read(t, src))

	outcome, err = d.ProcessFile(context.Background(), src, dest)
	require.NoError(t, err)
	assert.Equal(t, Unchanged, outcome)
}

func TestDriver_CancelledContextDoesNotWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.mdx")
	write(t, path, englishDoc)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := newDriver(t, &prefixClient{}, "en", "zh-Hant")
	_, err := d.ProcessFile(ctx, path, path)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, englishDoc, read(t, path))
}

func TestDriver_MissingFile(t *testing.T) {
	d := newDriver(t, &prefixClient{}, "en", "zh-Hant")
	missing := filepath.Join(t.TempDir(), "missing.mdx")
	outcome, err := d.ProcessFile(context.Background(), missing, missing)
	assert.Error(t, err)
	assert.Equal(t, Skipped, outcome)
}

func TestPathRewrite(t *testing.T) {
	rw := PathRewrite("zh-Hant", "zh-Hans")
	in := `[a](/zh-Hant/x) href="/zh-Hant" /zh-Hant) /zh-Hantology/x`
	assert.Equal(t, `[a](/zh-Hans/x) href="/zh-Hans" /zh-Hans) /zh-Hantology/x`, rw(in))
	assert.Nil(t, PathRewrite("", "ja"))
	assert.Nil(t, PathRewrite("ja", "ja"))
}

func TestRunner_Run(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "a.mdx"), "Hello World text\n")
	write(t, filepath.Join(root, "b.mdx"), "```\ncode only\n```\n")
	write(t, filepath.Join(root, "c.mdx"), "你好世界\n")
	require.NoError(t, os.Symlink(filepath.Join(root, "nowhere"), filepath.Join(root, "d.mdx")))
	write(t, filepath.Join(root, "node_modules", "e.mdx"), "Never visited\n")

	client := &prefixClient{}
	d := newDriver(t, client, "en", "zh-Hant")
	r := NewRunner(d, filewalker.NewWalker([]string{"node_modules"}), 2, 20*time.Millisecond)

	start := time.Now()
	report, err := r.Run(context.Background(), root, "")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)

	assert.Equal(t, Report{Total: 4, Translated: 1, Unchanged: 2, Skipped: 1}, report)
	assert.Equal(t, []string{"Hello World text"}, client.calls)
	assert.Equal(t, "譯Hello World text\n", read(t, filepath.Join(root, "a.mdx")))
	assert.Equal(t, "Never visited\n", read(t, filepath.Join(root, "node_modules", "e.mdx")))
}

func TestRunner_DestRoot(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "en")
	dest := filepath.Join(root, "out")
	write(t, filepath.Join(src, "guide", "intro.mdx"), "Hello World text\n")

	d := newDriver(t, &prefixClient{}, "en", "zh-Hant")
	report, err := NewRunner(d, filewalker.NewWalker(nil), 10, 0).Run(context.Background(), src, dest)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Translated)
	assert.True(t, strings.HasPrefix(read(t, filepath.Join(dest, "guide", "intro.mdx")), "譯"))
}
