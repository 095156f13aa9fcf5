// Package treesync mirrors the source docs tree into a language directory:
// missing or stale pages get a translation template, translated pages get
// their internal links pointed at the language tree, and the outcome of
// every page is recorded in a status file.
package treesync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"docs-translator/internal/config"
	"docs-translator/internal/filewalker"
	"docs-translator/internal/textutil"
)

// StatusFile is the name of the status report written at the docs root.
const StatusFile = ".translation-status.json"

// Status is the sync outcome of one page.
type Status string

const (
	NeedsTranslation Status = "needs-translation"
	Translated       Status = "translated"
	UpdatedLinks     Status = "updated-links"
	UpToDate         Status = "up-to-date"
)

// FileStatus records the outcome for one page, by path relative to the source root.
type FileStatus struct {
	Status Status `json:"status"`
	File   string `json:"file"`
}

// Report is the content of the status file.
type Report struct {
	Total            int          `json:"total"`
	NeedsTranslation int          `json:"needsTranslation"`
	Translated       int          `json:"translated"`
	UpdatedLinks     int          `json:"updatedLinks"`
	UpToDate         int          `json:"upToDate"`
	Files            []FileStatus `json:"files"`
}

func (r *Report) add(f FileStatus) {
	r.Total++
	switch f.Status {
	case NeedsTranslation:
		r.NeedsTranslation++
	case Translated:
		r.Translated++
	case UpdatedLinks:
		r.UpdatedLinks++
	case UpToDate:
		r.UpToDate++
	}
	r.Files = append(r.Files, f)
}

// Syncer mirrors pages into one language directory.
type Syncer struct {
	target config.Language
	script textutil.Script
	walker *filewalker.Walker
	linker *Linker
	now    func() time.Time
}

func NewSyncer(target config.Language, walker *filewalker.Walker, assetExts []string) *Syncer {
	return &Syncer{
		target: target,
		script: textutil.Script(target.Script),
		walker: walker,
		linker: NewLinker(target.Dir, assetExts),
		now:    time.Now,
	}
}

// Sync mirrors every page under sourceRoot into targetRoot. A page that
// cannot be read or written is logged and left out of the report.
func (s *Syncer) Sync(ctx context.Context, sourceRoot, targetRoot string) (Report, error) {
	report := Report{Files: []FileStatus{}}

	entries, err := s.walker.Walk(sourceRoot)
	if err != nil {
		return report, err
	}

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		dest := filepath.Join(targetRoot, filepath.FromSlash(e.Rel))
		status, err := s.SyncFile(e.Path, dest, e.Rel)
		if err != nil {
			log.Error().Err(err).Str("file", e.Rel).Msg("Failed to sync file")
			continue
		}
		log.Info().Str("file", e.Rel).Str("status", string(status)).Msg("Synced file")
		report.add(FileStatus{Status: status, File: e.Rel})
	}
	return report, nil
}

// SyncFile brings dest in line with src. rel names the page in the template header.
func (s *Syncer) SyncFile(src, dest, rel string) (Status, error) {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return "", fmt.Errorf("stat source: %w", err)
	}

	var existing []byte
	destInfo, err := os.Stat(dest)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return "", fmt.Errorf("stat target: %w", err)
	default:
		existing, err = os.ReadFile(dest)
		if err != nil {
			return "", fmt.Errorf("read target: %w", err)
		}
	}

	translated := destInfo != nil && s.script.Contains(string(existing))
	stale := destInfo == nil || srcInfo.ModTime().After(destInfo.ModTime()) || !translated
	if !stale {
		return UpToDate, nil
	}

	if !translated {
		source, err := os.ReadFile(src)
		if err != nil {
			return "", fmt.Errorf("read source: %w", err)
		}
		body := s.linker.Prefix(string(source))
		// An unchanged template is not rewritten just to refresh its timestamp.
		if destInfo != nil && strings.HasPrefix(string(existing), "{/*") && strings.HasSuffix(string(existing), body) {
			return NeedsTranslation, nil
		}
		if err := writeFile(dest, s.header(rel)+body); err != nil {
			return "", err
		}
		return NeedsTranslation, nil
	}

	updated := s.linker.Prefix(string(existing))
	if updated == string(existing) {
		return Translated, nil
	}
	if err := writeFile(dest, updated); err != nil {
		return "", err
	}
	return UpdatedLinks, nil
}

func (s *Syncer) header(rel string) string {
	name := s.target.Name
	if name == "" {
		name = s.target.Code
	}
	return fmt.Sprintf("{/*\n  Translation status: needs translation\n  Source: %s\n  Last updated: %s\n  Translate the content below into %s\n*/}\n\n",
		rel, s.now().UTC().Format(time.RFC3339), name)
}

func writeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create target dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write target: %w", err)
	}
	return nil
}

// WriteStatus writes the report as indented JSON, replacing any previous file.
func WriteStatus(path string, report Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write status: %w", err)
	}
	return nil
}
