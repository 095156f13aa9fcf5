package filewalker

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// Extension is the file type handled by the tool.
const Extension = ".mdx"

// Walker traverses a docs tree and collects MDX files.
type Walker struct {
	excluded map[string]bool
}

// NewWalker creates a Walker that never descends into directories with the given names.
func NewWalker(excludedDirs []string) *Walker {
	w := &Walker{excluded: make(map[string]bool, len(excludedDirs))}
	for _, d := range excludedDirs {
		w.excluded[d] = true
	}
	return w
}

// Exclude adds directory names to skip, e.g. other language trees.
func (w *Walker) Exclude(names ...string) {
	for _, n := range names {
		if n != "" {
			w.excluded[n] = true
		}
	}
}

// FileEntry represents a discovered file ready for processing.
type FileEntry struct {
	// Path is absolute.
	Path string
	// Rel is relative to the walk root, slash separated.
	Rel string
}

// Walk discovers all MDX files under root in lexical order.
func (w *Walker) Walk(root string) ([]FileEntry, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root path: %w", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root is not a directory: %s", root)
	}

	var entries []FileEntry

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Error walking path")
			return nil
		}

		if d.IsDir() {
			if path != root && w.excluded[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}

		if !strings.EqualFold(filepath.Ext(path), Extension) {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("relative path: %w", err)
		}
		entries = append(entries, FileEntry{Path: path, Rel: filepath.ToSlash(rel)})
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}

	log.Debug().Int("count", len(entries)).Str("root", root).Msg("Discovered files")
	return entries, nil
}
