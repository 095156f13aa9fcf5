package docsjson

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docs-translator/internal/config"
)

const docsJSON = `{
  "name": "superun",
  "navigation": {
    "languages": [
      {"language": "en", "label": "English", "tabs": [{"tab": "Docs"}, {"tab": "API"}]},
      {"language": "zh-Hant", "label": "繁體中文", "groups": [{"group": "開始"}]},
      {"language": "ja"}
    ]
  }
}`

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	write(t, path, docsJSON)

	langs, err := Load(path)
	require.NoError(t, err)
	require.Len(t, langs, 3)
	assert.Equal(t, "English", langs[0].Label)
	assert.Equal(t, "2 tabs", langs[0].Navigation())
	assert.Equal(t, "1 groups", langs[1].Navigation())
	assert.Equal(t, "not set", langs[2].Navigation())
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	noLangs := filepath.Join(dir, "nolangs.json")
	write(t, noLangs, `{"navigation": {"tabs": []}}`)
	_, err = Load(noLangs)
	assert.ErrorIs(t, err, ErrNoLanguages)

	broken := filepath.Join(dir, "broken.json")
	write(t, broken, `{"navigation":`)
	_, err = Load(broken)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoLanguages)
}

func TestInspect(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "index.mdx"), "# Home\n")
	write(t, filepath.Join(root, "superun", "setup.mdx"), "# Setup\n")
	write(t, filepath.Join(root, "node_modules", "pkg", "readme.mdx"), "# Ignored\n")
	write(t, filepath.Join(root, "zh-Hant", "index.mdx"), "# 首頁\n")
	write(t, filepath.Join(root, "zh-Hans", "index.mdx"), "# 首页\n")

	tables, err := config.LoadTables("")
	require.NoError(t, err)
	langs := []Language{{Language: "en"}, {Language: "zh-Hant"}, {Language: "ja"}}

	reports, err := Inspect(root, langs, tables)
	require.NoError(t, err)
	require.Len(t, reports, 3)

	assert.Equal(t, "", reports[0].Dir)
	assert.True(t, reports[0].Exists)
	assert.Equal(t, 2, reports[0].Pages)

	assert.Equal(t, "zh-Hant", reports[1].Dir)
	assert.Equal(t, 1, reports[1].Pages)

	assert.Equal(t, "ja", reports[2].Dir)
	assert.False(t, reports[2].Exists)
	assert.Zero(t, reports[2].Pages)
}
