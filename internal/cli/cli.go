package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"docs-translator/internal/cache"
	"docs-translator/internal/check"
	"docs-translator/internal/config"
	"docs-translator/internal/docsjson"
	"docs-translator/internal/filewalker"
	"docs-translator/internal/llmstxt"
	"docs-translator/internal/mdx"
	"docs-translator/internal/pipeline"
	"docs-translator/internal/protect"
	"docs-translator/internal/repair"
	"docs-translator/internal/translation"
	"docs-translator/internal/treesync"
)

// Convert modes.
const (
	modeSemantic = "semantic"
	modeFix      = "fix"
	modeAll      = "all"
)

// Execute runs the CLI application.
func Execute() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var root string

	rootCmd := &cobra.Command{
		Use:   "docs-translator",
		Short: "Translation toolkit for a multi-language Mintlify docs tree",
		Long: `Translates .mdx pages between language trees while protecting product names,
code and JSX markup, repairs machine-translation damage, keeps language trees in
sync and regenerates llms.txt indexes.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setLogLevel(os.Getenv("LOG_LEVEL"))
		},
	}
	rootCmd.PersistentFlags().StringVar(&root, "root", "", "Docs root (default $DOCS_ROOT or .)")

	rootCmd.AddCommand(translateCmd(&root))
	rootCmd.AddCommand(convertCmd(&root))
	rootCmd.AddCommand(untranslatedCmd(&root))
	rootCmd.AddCommand(checkCmd(&root))
	rootCmd.AddCommand(fixCmd(&root))
	rootCmd.AddCommand(syncCmd(&root))
	rootCmd.AddCommand(llmsCmd(&root))
	rootCmd.AddCommand(checkI18nCmd(&root))

	return rootCmd
}

func setLogLevel(level string) {
	if level == "" {
		return
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		log.Warn().Str("level", level).Msg("Unknown log level, keeping info")
		return
	}
	zerolog.SetGlobalLevel(lvl)
}

func translateCmd(root *string) *cobra.Command {
	return &cobra.Command{
		Use:   "translate <source-lang> <target-lang> [target-dir]",
		Short: "Translate a language tree into another language directory",
		Example: `  docs-translator translate en ja ja
  docs-translator translate zh-TW ko ko
  docs-translator translate zh-CN en en`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			targetDir := ""
			if len(args) == 3 {
				targetDir = args[2]
			}
			return runTranslate(*root, args[0], args[1], targetDir)
		},
	}
}

func convertCmd(root *string) *cobra.Command {
	return &cobra.Command{
		Use:   "convert [semantic|fix|all]",
		Short: "Convert the Simplified Chinese tree in place from Traditional Chinese",
		Long: `semantic  translate remaining Traditional Chinese segments
fix       run the repair tables over the tree
all       semantic, then fix (default)`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{modeSemantic, modeFix, modeAll},
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := modeAll
			if len(args) == 1 {
				mode = args[0]
			}
			switch mode {
			case modeSemantic, modeFix, modeAll:
			default:
				return fmt.Errorf("unknown mode %q (want %s, %s or %s)", mode, modeSemantic, modeFix, modeAll)
			}
			return runConvert(*root, mode)
		},
	}
}

func untranslatedCmd(root *string) *cobra.Command {
	var lang string
	cmd := &cobra.Command{
		Use:   "untranslated",
		Short: "Translate English left behind in a language tree, in place",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUntranslated(*root, lang)
		},
	}
	cmd.Flags().StringVar(&lang, "lang", "zh-Hant", "Language tree to translate")
	return cmd
}

func checkCmd(root *string) *cobra.Command {
	var (
		lang   string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report lines of a language tree that are still in English",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(*root, lang, asJSON)
		},
	}
	cmd.Flags().StringVar(&lang, "lang", "zh-Hant", "Language tree to check")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON on stdout")
	return cmd
}

func fixCmd(root *string) *cobra.Command {
	var lang string
	cmd := &cobra.Command{
		Use:   "fix",
		Short: "Repair common machine-translation damage in a language tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFix(*root, lang)
		},
	}
	cmd.Flags().StringVar(&lang, "lang", "zh-Hant", "Language tree to repair")
	return cmd
}

func syncCmd(root *string) *cobra.Command {
	var lang string
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Mirror the source tree into a language tree and write the status file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(*root, lang)
		},
	}
	cmd.Flags().StringVar(&lang, "lang", "zh-Hant", "Language tree to sync")
	return cmd
}

func llmsCmd(root *string) *cobra.Command {
	return &cobra.Command{
		Use:   "llms",
		Short: "Regenerate the llms.txt index of every language",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLLMs(*root)
		},
	}
}

func checkI18nCmd(root *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check-i18n",
		Short: "Check the docs.json language configuration against the language trees",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheckI18n(*root)
		},
	}
}

// setupContext creates a cancellable context with signal handling.
func setupContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		log.Warn().Msg("Received shutdown signal, cancelling...")
		cancel()
	}()

	return ctx, cancel
}

// env bundles what every command needs.
type env struct {
	cfg    *config.Config
	tables *config.Tables
	root   string
}

func loadEnv(root string) (*env, error) {
	cfg := config.Load()
	tables, err := config.LoadTables(cfg.TablesFile)
	if err != nil {
		return nil, err
	}
	if root == "" {
		root = cfg.DocsRoot
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve docs root: %w", err)
	}
	return &env{cfg: cfg, tables: tables, root: abs}, nil
}

// languageDirs lists every language subdirectory known to the tables.
func (e *env) languageDirs() []string {
	var dirs []string
	for _, l := range e.tables.Languages {
		if l.Dir != "" {
			dirs = append(dirs, l.Dir)
		}
	}
	return dirs
}

// sourceWalker walks the tree of lang; the root tree skips the language directories.
func (e *env) sourceWalker(lang config.Language, extra ...string) *filewalker.Walker {
	w := filewalker.NewWalker(e.tables.ExcludedDirs)
	if lang.Dir == "" {
		w.Exclude(e.languageDirs()...)
		w.Exclude(extra...)
	}
	return w
}

func (e *env) dir(lang config.Language) string {
	return filepath.Join(e.root, filepath.FromSlash(lang.Dir))
}

// initDependencies opens the translation cache and the endpoint client.
func initDependencies(ctx context.Context, e *env, source, target config.Language) (translation.Client, cache.Cache, func(), error) {
	c, closeCache, err := cache.Open(ctx, e.cfg.TranslationCache, e.cfg.CacheSize, e.cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, err
	}
	if store, ok := c.(*cache.Store); ok {
		log.Info().Msg("Connected to PostgreSQL")
		if err := store.Preload(ctx, source.APICode, target.APICode); err != nil {
			log.Warn().Err(err).Msg("Failed to preload cache")
		}
	}

	client := translation.NewGoogleClient(e.cfg.TranslateEndpoint, e.cfg.HTTPTimeout)
	return client, c, closeCache, nil
}

func (e *env) newDriver(client translation.Client, c cache.Cache, source, target config.Language) *pipeline.Driver {
	return pipeline.NewDriver(client, source, target, e.tables, translation.Options{
		Delay:            e.cfg.RequestDelay,
		MaxSegmentLength: e.cfg.MaxSegmentLength,
		Cache:            c,
	})
}

func logRun(msg string, report pipeline.Report, stats translation.Stats) {
	log.Info().
		Int("files", report.Total).
		Int("translated", report.Translated).
		Int("unchanged", report.Unchanged).
		Int("skipped", report.Skipped).
		Int("calls", stats.Calls).
		Int("failures", stats.Failures).
		Int("cache_hits", stats.CacheHits).
		Msg(msg)
}

// runTranslate handles the `translate` command.
func runTranslate(root, sourceCode, targetCode, targetDir string) error {
	ctx, cancel := setupContext()
	defer cancel()

	e, err := loadEnv(root)
	if err != nil {
		return err
	}
	source := e.tables.Language(sourceCode)
	target := e.tables.Language(targetCode)
	if targetDir == "" {
		targetDir = target.Dir
	}
	if targetDir == "" || targetDir == source.Dir {
		return fmt.Errorf("target directory must differ from the source tree")
	}

	client, c, closeCache, err := initDependencies(ctx, e, source, target)
	if err != nil {
		return err
	}
	defer closeCache()

	driver := e.newDriver(client, c, source, target)
	if source.Dir == "" {
		driver.SetRewrite(treesync.NewLinker(targetDir, e.tables.ImageExtensions).Prefix)
	} else {
		driver.SetRewrite(pipeline.PathRewrite(source.Dir, targetDir))
	}

	log.Info().
		Str("source", source.Code).
		Str("target", target.Code).
		Str("from", e.dir(source)).
		Str("to", targetDir).
		Msg("Starting translation")

	runner := pipeline.NewRunner(driver, e.sourceWalker(source, targetDir), e.cfg.BatchFiles, e.cfg.BatchPause)
	report, err := runner.Run(ctx, e.dir(source), filepath.Join(e.root, filepath.FromSlash(targetDir)))
	logRun("Translation complete", report, driver.Translator().Stats())
	return err
}

// runConvert handles the `convert` command.
func runConvert(root, mode string) error {
	ctx, cancel := setupContext()
	defer cancel()

	e, err := loadEnv(root)
	if err != nil {
		return err
	}
	source := e.tables.Language("zh-Hant")
	target := e.tables.Language("zh-Hans")
	dir := e.dir(target)

	if mode == modeSemantic || mode == modeAll {
		client, c, closeCache, err := initDependencies(ctx, e, source, target)
		if err != nil {
			return err
		}
		defer closeCache()

		driver := e.newDriver(client, c, source, target)
		driver.SetRewrite(pipeline.PathRewrite(source.Dir, target.Dir))

		log.Info().Str("dir", dir).Msg("Starting conversion")
		runner := pipeline.NewRunner(driver, filewalker.NewWalker(e.tables.ExcludedDirs), e.cfg.BatchFiles, e.cfg.BatchPause)
		report, err := runner.Run(ctx, dir, "")
		logRun("Conversion complete", report, driver.Translator().Stats())
		if err != nil {
			return err
		}
	}

	if mode == modeFix || mode == modeAll {
		return repairTree(ctx, e, dir)
	}
	return nil
}

// runUntranslated handles the `untranslated` command.
func runUntranslated(root, lang string) error {
	ctx, cancel := setupContext()
	defer cancel()

	e, err := loadEnv(root)
	if err != nil {
		return err
	}
	source := e.tables.Language("en")
	target := e.tables.Language(lang)
	if target.Dir == "" {
		return fmt.Errorf("%s is the source tree", lang)
	}

	client, c, closeCache, err := initDependencies(ctx, e, source, target)
	if err != nil {
		return err
	}
	defer closeCache()

	driver := e.newDriver(client, c, source, target)
	dir := e.dir(target)

	log.Info().Str("dir", dir).Msg("Translating leftover English")
	runner := pipeline.NewRunner(driver, filewalker.NewWalker(e.tables.ExcludedDirs), e.cfg.BatchFiles, e.cfg.BatchPause)
	report, err := runner.Run(ctx, dir, "")
	logRun("Translation complete", report, driver.Translator().Stats())
	return err
}

// runCheck handles the `check` command.
func runCheck(root, lang string, asJSON bool) error {
	ctx, cancel := setupContext()
	defer cancel()

	e, err := loadEnv(root)
	if err != nil {
		return err
	}
	source := e.tables.Language("en")
	target := e.tables.Language(lang)

	products := protect.NewProductNames(e.tables.ProductNames)
	classifier := mdx.NewClassifier(pipeline.RulesFor(source, target, e.tables, products.Placeholders()))
	checker := check.NewChecker(classifier, products, e.sourceWalker(target), e.cfg.CheckWorkers)

	reports, err := checker.Check(ctx, e.dir(target))
	if err != nil {
		return fmt.Errorf("check %s: %w", lang, err)
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	}

	for _, r := range reports {
		for _, issue := range r.Issues {
			log.Info().
				Str("file", r.File).
				Int("line", issue.Line).
				Str("type", issue.Kind).
				Str("content", issue.Content).
				Msg("Untranslated")
		}
	}
	log.Info().Int("files", len(reports)).Int("issues", check.Count(reports)).Msg("Check complete")
	return nil
}

// runFix handles the `fix` command.
func runFix(root, lang string) error {
	ctx, cancel := setupContext()
	defer cancel()

	e, err := loadEnv(root)
	if err != nil {
		return err
	}
	target := e.tables.Language(lang)
	if target.Dir == "" {
		return fmt.Errorf("%s is the source tree", lang)
	}
	return repairTree(ctx, e, e.dir(target))
}

func repairTree(ctx context.Context, e *env, dir string) error {
	r, err := repair.New(e.tables)
	if err != nil {
		return err
	}
	report, err := r.RepairTree(ctx, filewalker.NewWalker(e.tables.ExcludedDirs), dir)
	log.Info().
		Int("files", report.Total).
		Int("fixed", report.Fixed).
		Int("failed", report.Failed).
		Msg("Repair complete")
	return err
}

// runSync handles the `sync` command.
func runSync(root, lang string) error {
	ctx, cancel := setupContext()
	defer cancel()

	e, err := loadEnv(root)
	if err != nil {
		return err
	}
	target := e.tables.Language(lang)
	if target.Dir == "" {
		return fmt.Errorf("%s is the source tree", lang)
	}

	walker := e.sourceWalker(e.tables.Language("en"))
	syncer := treesync.NewSyncer(target, walker, e.tables.ImageExtensions)
	report, err := syncer.Sync(ctx, e.root, e.dir(target))
	if err != nil {
		return fmt.Errorf("sync %s: %w", lang, err)
	}

	statusPath := filepath.Join(e.root, treesync.StatusFile)
	if err := treesync.WriteStatus(statusPath, report); err != nil {
		return err
	}

	log.Info().
		Int("total", report.Total).
		Int("needs_translation", report.NeedsTranslation).
		Int("translated", report.Translated).
		Int("updated_links", report.UpdatedLinks).
		Int("up_to_date", report.UpToDate).
		Str("status", statusPath).
		Msg("Sync complete")
	return nil
}

// runLLMs handles the `llms` command.
func runLLMs(root string) error {
	e, err := loadEnv(root)
	if err != nil {
		return err
	}

	gen := llmstxt.NewGenerator(e.cfg.DocsBaseURL, e.tables.LLMs, filewalker.NewWalker(e.tables.ExcludedDirs))
	results, err := gen.Generate(e.root)
	for _, r := range results {
		log.Info().Str("lang", r.Lang).Str("file", r.File).Int("pages", r.Pages).Msg("Wrote llms.txt")
	}
	return err
}

// runCheckI18n handles the `check-i18n` command.
func runCheckI18n(root string) error {
	e, err := loadEnv(root)
	if err != nil {
		return err
	}

	languages, err := docsjson.Load(filepath.Join(e.root, docsjson.FileName))
	if errors.Is(err, docsjson.ErrNoLanguages) {
		return fmt.Errorf("%w: languages belong under navigation.languages in %s", err, docsjson.FileName)
	}
	if err != nil {
		return err
	}
	log.Info().Int("count", len(languages)).Msg("Found language configuration")

	reports, err := docsjson.Inspect(e.root, languages, e.tables)
	if err != nil {
		return err
	}
	for _, r := range reports {
		l := log.Info()
		if !r.Exists {
			l = log.Warn()
		}
		l.Str("language", orUnset(r.Language.Language)).
			Str("label", orUnset(r.Label)).
			Str("navigation", r.Navigation()).
			Str("dir", orRoot(r.Dir)).
			Bool("exists", r.Exists).
			Int("pages", r.Pages).
			Msg("Language")
	}
	return nil
}

func orUnset(s string) string {
	if s == "" {
		return "not set"
	}
	return s
}

func orRoot(dir string) string {
	if dir == "" {
		return "."
	}
	return dir
}
