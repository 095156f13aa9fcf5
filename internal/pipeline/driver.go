// Package pipeline drives translation over documents: one file at a time,
// one line at a time, writing back only what actually changed.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"docs-translator/internal/config"
	"docs-translator/internal/mdx"
	"docs-translator/internal/protect"
	"docs-translator/internal/textutil"
	"docs-translator/internal/translation"
)

// Outcome is what happened to one file.
type Outcome int

const (
	Unchanged Outcome = iota
	Translated
	// Skipped means the file could not be read or written.
	Skipped
)

func (o Outcome) String() string {
	switch o {
	case Translated:
		return "translated"
	case Skipped:
		return "skipped"
	}
	return "unchanged"
}

const bom = "\uFEFF"

// Rewriter transforms a finished document before it is compared and written.
type Rewriter func(content string) string

// PathRewrite returns a Rewriter that moves absolute doc links from the
// /from tree to the /to tree, e.g. /zh-Hant/guide to /ja/guide.
func PathRewrite(from, to string) Rewriter {
	if from == "" || to == "" || from == to {
		return nil
	}
	re := regexp.MustCompile(`/` + regexp.QuoteMeta(from) + `(/|["')\s]|$)`)
	return func(content string) string {
		return re.ReplaceAllString(content, "/"+to+"${1}")
	}
}

// RulesFor builds classifier rules for a language pair from the lookup tables.
func RulesFor(source, target config.Language, tables *config.Tables, ignore *regexp.Regexp) mdx.Rules {
	return mdx.Rules{
		Source:           textutil.Script(source.Script),
		Target:           textutil.Script(target.Script),
		FrontmatterKeys:  tables.FrontmatterKeys,
		AttributeNames:   tables.AttributeNames,
		InlineAttributes: tables.InlineAttributes,
		CSSValues:        tables.CSSValues,
		ImageExtensions:  tables.ImageExtensions,
		SourceMarkers:    source.Markers,
		Ignore:           ignore,
	}
}

// Driver translates single files.
type Driver struct {
	products   *protect.Protector
	classifier *mdx.Classifier
	translator *translation.Translator
	rewrite    Rewriter
}

// NewDriver wires the protector, classifier and translator for one language pair.
func NewDriver(client translation.Client, source, target config.Language, tables *config.Tables, opts translation.Options) *Driver {
	products := protect.NewProductNames(tables.ProductNames)
	classifier := mdx.NewClassifier(RulesFor(source, target, tables, products.Placeholders()))
	opts.Eligible = classifier.RunEligible
	return &Driver{
		products:   products,
		classifier: classifier,
		translator: translation.New(client, source, target, opts),
	}
}

// SetRewrite installs a Rewriter applied to every translated document.
func (d *Driver) SetRewrite(r Rewriter) { d.rewrite = r }

// Translator returns the underlying translator.
func (d *Driver) Translator() *translation.Translator { return d.translator }

// Translate runs the line pipeline over a document and returns the result.
// The context is checked between lines; on cancellation the partial result
// is discarded and ctx.Err() returned.
func (d *Driver) Translate(ctx context.Context, content string) (string, int, error) {
	body, hasBOM := strings.CutPrefix(content, bom)
	safe, mappings := d.products.Protect(body)
	lines := strings.Split(safe, "\n")
	scanner := d.classifier.NewScanner()

	segments := 0
	for i, line := range lines {
		if err := ctx.Err(); err != nil {
			return "", 0, err
		}
		switch scanner.Scan(line) {
		case mdx.Translate:
			lines[i] = d.translator.Line(ctx, line)
			segments++
		case mdx.Frontmatter:
			lines[i] = d.translator.Frontmatter(ctx, line)
			segments++
		}
	}
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	out := protect.Restore(strings.Join(lines, "\n"), mappings)
	if hasBOM {
		out = bom + out
	}
	if d.rewrite != nil {
		out = d.rewrite(out)
	}
	return out, segments, nil
}

// ProcessFile translates path and writes the result to dest, which may be
// path itself. dest is written only when its current content differs.
func (d *Driver) ProcessFile(ctx context.Context, path, dest string) (Outcome, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Skipped, fmt.Errorf("read file: %w", err)
	}

	out, segments, err := d.Translate(ctx, string(data))
	if err != nil {
		return Unchanged, err
	}
	if segments == 0 && dest == path {
		return Unchanged, nil
	}

	current, exists := data, true
	if dest != path {
		current, err = os.ReadFile(dest)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			exists = false
		case err != nil:
			return Skipped, fmt.Errorf("read destination: %w", err)
		}
	}
	if exists && bytes.Equal(current, []byte(out)) {
		return Unchanged, nil
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return Skipped, fmt.Errorf("create destination dir: %w", err)
	}
	if err := os.WriteFile(dest, []byte(out), 0o644); err != nil {
		return Skipped, fmt.Errorf("write file: %w", err)
	}
	return Translated, nil
}
