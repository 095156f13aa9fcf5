package pipeline

import (
	"context"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"docs-translator/internal/filewalker"
)

// Report counts files by outcome.
type Report struct {
	Total      int
	Translated int
	Unchanged  int
	Skipped    int
}

func (r *Report) add(o Outcome) {
	r.Total++
	switch o {
	case Translated:
		r.Translated++
	case Skipped:
		r.Skipped++
	default:
		r.Unchanged++
	}
}

// Runner drives a Driver over every file of a tree, sequentially, pausing
// after every batch of files.
type Runner struct {
	driver     *Driver
	walker     *filewalker.Walker
	batchFiles int
	batchPause time.Duration
}

func NewRunner(driver *Driver, walker *filewalker.Walker, batchFiles int, batchPause time.Duration) *Runner {
	return &Runner{
		driver:     driver,
		walker:     walker,
		batchFiles: batchFiles,
		batchPause: batchPause,
	}
}

// Run translates every file under root. With an empty destRoot files are
// rewritten in place; otherwise results go to the same relative path under
// destRoot. A file that fails is counted as skipped and the run continues;
// only a cancelled context stops it early.
func (r *Runner) Run(ctx context.Context, root, destRoot string) (Report, error) {
	var report Report

	entries, err := r.walker.Walk(root)
	if err != nil {
		return report, err
	}
	log.Info().Int("count", len(entries)).Str("root", root).Msg("Discovered files")

	for i, e := range entries {
		dest := e.Path
		if destRoot != "" {
			dest = filepath.Join(destRoot, filepath.FromSlash(e.Rel))
		}

		outcome, err := r.driver.ProcessFile(ctx, e.Path, dest)
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		if err != nil {
			log.Error().Err(err).Str("file", e.Rel).Msg("Failed to process file")
		}
		report.add(outcome)
		log.Info().
			Int("index", i+1).
			Int("total", len(entries)).
			Str("file", e.Rel).
			Str("outcome", outcome.String()).
			Msg("Processed file")

		if r.batchFiles > 0 && (i+1)%r.batchFiles == 0 && i+1 < len(entries) {
			log.Debug().Dur("pause", r.batchPause).Int("done", i+1).Msg("Pausing between batches")
			select {
			case <-ctx.Done():
				return report, ctx.Err()
			case <-time.After(r.batchPause):
			}
		}
	}

	return report, nil
}
