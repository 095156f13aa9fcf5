// Package docsjson inspects the language configuration of the site's docs.json.
package docsjson

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"docs-translator/internal/config"
	"docs-translator/internal/filewalker"
)

// FileName is the site configuration file at the docs root.
const FileName = "docs.json"

// ErrNoLanguages is returned when docs.json has no navigation.languages array.
var ErrNoLanguages = errors.New("navigation.languages not found")

// Language is one navigation.languages entry.
type Language struct {
	Language string            `json:"language"`
	Label    string            `json:"label"`
	Tabs     []json.RawMessage `json:"tabs"`
	Groups   []json.RawMessage `json:"groups"`
}

// Navigation describes how the language's navigation is organised.
func (l Language) Navigation() string {
	switch {
	case l.Tabs != nil:
		return fmt.Sprintf("%d tabs", len(l.Tabs))
	case l.Groups != nil:
		return fmt.Sprintf("%d groups", len(l.Groups))
	default:
		return "not set"
	}
}

type document struct {
	Navigation struct {
		Languages []Language `json:"languages"`
	} `json:"navigation"`
}

// Load reads the configured languages from a docs.json file.
func Load(path string) ([]Language, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", FileName, err)
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", FileName, err)
	}
	if doc.Navigation.Languages == nil {
		return nil, ErrNoLanguages
	}
	return doc.Navigation.Languages, nil
}

// DirReport is the page count of one language directory.
type DirReport struct {
	Language
	Dir    string
	Exists bool
	Pages  int
}

// Inspect counts the pages of every configured language. Directories come
// from the language table; the root tree does not count pages of the other
// language directories.
func Inspect(root string, languages []Language, tables *config.Tables) ([]DirReport, error) {
	var langDirs []string
	for _, l := range tables.Languages {
		if l.Dir != "" {
			langDirs = append(langDirs, l.Dir)
		}
	}

	reports := make([]DirReport, 0, len(languages))
	for _, l := range languages {
		dir := tables.Language(l.Language).Dir
		r := DirReport{Language: l, Dir: dir}
		path := filepath.Join(root, filepath.FromSlash(dir))
		info, err := os.Stat(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			reports = append(reports, r)
			continue
		case err != nil:
			return reports, fmt.Errorf("stat %s: %w", path, err)
		case !info.IsDir():
			reports = append(reports, r)
			continue
		}
		r.Exists = true

		walker := filewalker.NewWalker(tables.ExcludedDirs)
		if dir == "" {
			walker.Exclude(langDirs...)
		}
		entries, err := walker.Walk(path)
		if err != nil {
			return reports, err
		}
		r.Pages = len(entries)
		reports = append(reports, r)
	}
	return reports, nil
}
