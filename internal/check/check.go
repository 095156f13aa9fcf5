// Package check reports lines of a translated tree that still hold
// source-language text. It never modifies files.
package check

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode/utf8"

	"docs-translator/internal/filewalker"
	"docs-translator/internal/mdx"
	"docs-translator/internal/protect"
	"docs-translator/internal/worker"
)

// Issue kinds.
const (
	KindContent = "content"
	// Frontmatter issues are reported as "frontmatter-<key>".
	kindFrontmatterPrefix = "frontmatter-"
)

// minContentRunes filters out short body fragments such as "API" or "OK".
const minContentRunes = 6

// Issue is one untranslated line.
type Issue struct {
	Line    int    `json:"line"`
	Kind    string `json:"type"`
	Content string `json:"content"`
}

// FileReport lists the issues of one file.
type FileReport struct {
	File   string  `json:"file"`
	Issues []Issue `json:"issues"`
}

// Checker scans files with the same classifier the translator uses.
type Checker struct {
	classifier *mdx.Classifier
	products   *protect.Protector
	walker     *filewalker.Walker
	workers    int
}

func NewChecker(classifier *mdx.Classifier, products *protect.Protector, walker *filewalker.Walker, workers int) *Checker {
	return &Checker{
		classifier: classifier,
		products:   products,
		walker:     walker,
		workers:    workers,
	}
}

// CheckContent returns the issues of one document.
func (c *Checker) CheckContent(content string) []Issue {
	safe, _ := c.products.Protect(content)
	original := strings.Split(content, "\n")
	lines := strings.Split(safe, "\n")
	scanner := c.classifier.NewScanner()

	var issues []Issue
	for i, line := range lines {
		switch scanner.Scan(line) {
		case mdx.Frontmatter:
			f, ok := mdx.ParseFrontmatterLine(original[i])
			if !ok {
				continue
			}
			issues = append(issues, Issue{Line: i + 1, Kind: kindFrontmatterPrefix + f.Key, Content: f.Value})
		case mdx.Translate:
			trimmed := strings.TrimSpace(original[i])
			if utf8.RuneCountInString(trimmed) < minContentRunes {
				continue
			}
			issues = append(issues, Issue{Line: i + 1, Kind: KindContent, Content: trimmed})
		}
	}
	return issues
}

// CheckFile reads and checks one file.
func (c *Checker) CheckFile(path string) ([]Issue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return c.CheckContent(string(data)), nil
}

// Check scans every file under root concurrently and returns the files with
// issues, sorted by path.
func (c *Checker) Check(ctx context.Context, root string) ([]FileReport, error) {
	entries, err := c.walker.Walk(root)
	if err != nil {
		return nil, err
	}

	pool := worker.NewPool(c.workers, func(_ context.Context, e filewalker.FileEntry) ([]Issue, error) {
		return c.CheckFile(e.Path)
	})

	var reports []FileReport
	for _, task := range pool.Execute(ctx, entries) {
		if task.Err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		if len(task.Result) > 0 {
			reports = append(reports, FileReport{File: task.Input.Rel, Issues: task.Result})
		}
	}

	sort.Slice(reports, func(i, j int) bool { return reports[i].File < reports[j].File })
	return reports, nil
}

// Count returns the total number of issues.
func Count(reports []FileReport) int {
	n := 0
	for _, r := range reports {
		n += len(r.Issues)
	}
	return n
}
