package check

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docs-translator/internal/config"
	"docs-translator/internal/filewalker"
	"docs-translator/internal/mdx"
	"docs-translator/internal/pipeline"
	"docs-translator/internal/protect"
)

func newChecker(t *testing.T) *Checker {
	t.Helper()
	tables, err := config.LoadTables("")
	require.NoError(t, err)
	products := protect.NewProductNames(tables.ProductNames)
	rules := pipeline.RulesFor(tables.Language("en"), tables.Language("zh-Hant"), tables, products.Placeholders())
	return NewChecker(mdx.NewClassifier(rules), products, filewalker.NewWalker(tables.ExcludedDirs), 4)
}

const mixedDoc = `---
title: "Getting Started"
description: "開始使用 superun"
---

## 快速開始

This paragraph was never translated.

superun Cloud

Short

` + "```js\nconst untouched = 'English in code'\n```"

func TestCheckContent(t *testing.T) {
	issues := newChecker(t).CheckContent(mixedDoc)

	require.Len(t, issues, 2)
	assert.Equal(t, Issue{Line: 2, Kind: "frontmatter-title", Content: "Getting Started"}, issues[0])
	assert.Equal(t, Issue{Line: 8, Kind: KindContent, Content: "This paragraph was never translated."}, issues[1])
}

func TestCheck_Tree(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{
		"index.mdx":           "# 首頁\n",
		"guide/setup.mdx":     "Untranslated setup steps here\n",
		"guide/deploy.mdx":    "部署\n\nDeploy the project somewhere\n",
		"node_modules/x.mdx":  "Ignored because excluded\n",
		"guide/notes.md":      "Not an mdx file at all\n",
		"guide/done/last.mdx": "完成\n",
	}
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	reports, err := newChecker(t).Check(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "guide/deploy.mdx", reports[0].File)
	assert.Equal(t, 3, reports[0].Issues[0].Line)
	assert.Equal(t, "guide/setup.mdx", reports[1].File)
	assert.Equal(t, 2, Count(reports))
}
