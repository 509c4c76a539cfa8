package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/a11yscan/internal/config"
	"github.com/nao1215/a11yscan/internal/crawler"
	"github.com/nao1215/a11yscan/internal/database"
	"github.com/nao1215/a11yscan/internal/design"
	a11ylog "github.com/nao1215/a11yscan/internal/log"
	"github.com/nao1215/a11yscan/internal/metrics"
	"github.com/nao1215/a11yscan/internal/model"
	"github.com/nao1215/a11yscan/internal/pipeline"
	"github.com/nao1215/a11yscan/internal/report"
	"github.com/nao1215/a11yscan/internal/ruleset"
	"github.com/nao1215/a11yscan/internal/source"
)

var (
	// errScoreBelowThreshold is returned when --fail-under is set and a
	// target scores below it.
	errScoreBelowThreshold = errors.New("score below threshold")

	// errTargetsFailed is returned when at least one target could not be
	// audited.
	errTargetsFailed = errors.New("audit failed")
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [file|url|-]...",
		Short: "Audit HTML documents for accessibility issues",
		Long: `Scan evaluates HTML documents against WCAG 2.1 derived accessibility rules.

Each target is scored from 0 to 100 and graded. Findings are grouped into:
- Critical issues (contrast, missing alt text, unlabeled controls, ...)
- Warnings (heading structure, landmarks, keyboard access, ...)
- Suggestions (small fonts, ...)

Targets may be local files, http(s) URLs or "-" for standard input.
Reports are saved to the history database unless --no-save is given.

Examples:
  # Audit a local file
  a11yscan scan index.html

  # Audit several pages concurrently against AAA
  a11yscan scan --level AAA --batch 8 a.html b.html https://example.com/

  # Crawl a site two links deep and write a Markdown report
  a11yscan scan --crawl-depth 2 --markdown -o report.md https://example.com/

  # Fail a CI job when any page scores below 80
  a11yscan scan --fail-under 80 dist/*.html

  # Attach a design recommendation for a finance brand
  a11yscan scan --recommend --industry finance --tone professional index.html

Configuration file (.a11yscan) example:
  defaults:
    level: AA
  targets:
    staging.example.com:
      headers:
        Authorization: "Bearer token"
      depth: 1`,
		Args: cobra.ArbitraryArgs,
		RunE: runScanCmd,
	}

	// Audit flags
	cmd.Flags().StringP("level", "l", string(config.DefaultLevel),
		"WCAG conformance level (AA or AAA)")
	cmd.Flags().String("rules", "",
		"YAML rule table override applied on top of the built-in thresholds")

	// Loading flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each URL fetch")
	cmd.Flags().Int64("max-size", config.DefaultMaxSize,
		"Maximum document size in bytes")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with HTTP requests")

	// Crawl flags
	cmd.Flags().IntP("crawl-depth", "d", config.DefaultCrawlDepth,
		"Link levels to follow from URL targets (0 audits only the target)")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of pages audited per crawled target")
	cmd.Flags().Duration("crawl-delay", config.DefaultCrawlDelay,
		"Delay between page fetches while crawling")

	// Batch flags
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of concurrent audits")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .a11yscan in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown and --html)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json and --html)")
	cmd.Flags().Bool("html", false,
		"Output HTML report (mutually exclusive with --json and --markdown)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	// Recommendation flags
	cmd.Flags().BoolP("recommend", "r", false,
		"Attach a design recommendation to each report")
	cmd.Flags().String("industry", "",
		"Industry preset for recommendations (e.g. finance, healthcare)")
	cmd.Flags().String("tone", "",
		"Brand tone preset for recommendations (e.g. professional, playful)")

	// History and CI flags
	cmd.Flags().Bool("no-save", false,
		"Do not store reports in the history database")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the history database")
	cmd.Flags().String("metrics-file", "",
		"Write Prometheus metrics in text format to this file")
	cmd.Flags().Int("fail-under", 0,
		"Exit with an error when any score is below this value (0 disables)")

	return cmd
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := a11ylog.NewSecureLogger(cmd.ErrOrStderr(), cfg.Verbose)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := &scanner{
		cfg:    cfg,
		stdin:  cmd.InOrStdin(),
		stdout: cmd.OutOrStdout(),
		stderr: cmd.ErrOrStderr(),
		logger: logger,
	}
	return s.run(ctx)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	level, err := flags.GetString("level")
	if err != nil {
		return nil, err
	}
	cfg.Level = model.Level(strings.ToUpper(level))

	if cfg.RulesFile, err = flags.GetString("rules"); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.MaxSize, err = flags.GetInt64("max-size"); err != nil {
		return nil, err
	}
	if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
		return nil, err
	}
	if cfg.CrawlDepth, err = flags.GetInt("crawl-depth"); err != nil {
		return nil, err
	}
	if cfg.MaxPages, err = flags.GetInt("max-pages"); err != nil {
		return nil, err
	}
	if cfg.CrawlDelay, err = flags.GetDuration("crawl-delay"); err != nil {
		return nil, err
	}
	if cfg.BatchSize, err = flags.GetInt("batch"); err != nil {
		return nil, err
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.HTMLReport, err = flags.GetBool("html"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.Recommend, err = flags.GetBool("recommend"); err != nil {
		return nil, err
	}
	if cfg.Industry, err = flags.GetString("industry"); err != nil {
		return nil, err
	}
	if cfg.Tone, err = flags.GetString("tone"); err != nil {
		return nil, err
	}
	if cfg.NoSave, err = flags.GetBool("no-save"); err != nil {
		return nil, err
	}
	if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
		return nil, err
	}
	if cfg.MetricsFile, err = flags.GetString("metrics-file"); err != nil {
		return nil, err
	}
	if cfg.FailUnder, err = flags.GetInt("fail-under"); err != nil {
		return nil, err
	}
	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}

	// A preset choice implies a recommendation.
	if cfg.Industry != "" || cfg.Tone != "" {
		cfg.Recommend = true
	}

	cfg.Verbose = getVerboseFlag(cmd)

	if cfg.File, err = loadConfigFile(cfg.ConfigFilePath); err != nil {
		return nil, err
	}

	// The file's default level applies unless --level was given.
	if !flags.Changed("level") && cfg.File.Defaults.Level != "" {
		cfg.Level = cfg.File.Defaults.Level
	}

	cfg.Targets = args

	return cfg, nil
}

// loadConfigFile loads the configuration file.
// If the user explicitly specified a path, a missing file is an error.
// Otherwise an empty configuration is used when no file is found.
func loadConfigFile(path string) (*config.File, error) {
	found := config.FindConfigFile(path)
	if found == "" {
		if path != "" {
			return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, path)
		}
		return &config.File{Targets: make(map[string]config.TargetConfig)}, nil
	}

	cf, err := config.LoadConfigFile(found)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", found, err)
	}
	return cf, nil
}

// scanner holds everything one scan run needs.
type scanner struct {
	cfg    *config.Config
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	logger *slog.Logger
	now    func() time.Time
}

// run audits every target and writes the reports.
func (s *scanner) run(ctx context.Context) error {
	cfg := s.cfg
	if s.now == nil {
		s.now = time.Now
	}

	table, err := config.RuleTable(cfg.File, cfg.RulesFile)
	if err != nil {
		return err
	}

	loader := source.NewLoader(
		source.WithTimeout(cfg.Timeout),
		source.WithMaxSize(cfg.MaxSize),
		source.WithUserAgent(cfg.UserAgent),
		source.WithStdin(s.stdin),
	)

	var store pipeline.Store
	if !cfg.NoSave {
		db, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		s.logger.Info("database opened", "path", db.Path())
		store = db
	}

	var generator *design.Generator
	if cfg.Recommend {
		if generator, err = design.NewGenerator(design.WithTable(table)); err != nil {
			return fmt.Errorf("failed to load design presets: %w", err)
		}
	}

	var m *metrics.Metrics
	if cfg.MetricsFile != "" {
		m = metrics.New()
		m.SetBuildInfo(getVersion(), table.Version)
	}

	s.logger.Info("starting audit",
		"targets", len(cfg.Targets),
		"level", cfg.Level,
		"batchSize", cfg.BatchSize,
		"save", store != nil,
	)

	jobs := s.buildJobs(ctx, loader, m)

	bp := pipeline.NewBatchProcessor(
		func() *pipeline.Pipeline {
			return pipeline.Standard(pipeline.Settings{
				Loader:    loader,
				Table:     table,
				Level:     cfg.Level,
				Generator: generator,
				Store:     store,
				Logger:    s.logger,
				Clock:     s.now,
			})
		},
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(s.logger),
		pipeline.WithMetrics(m),
	)

	results, batchErr := bp.ProcessBatch(ctx, jobs)

	if err := s.writeReports(results, table); err != nil {
		return err
	}

	if m != nil {
		if err := m.WriteTextfile(cfg.MetricsFile, s.now()); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}

	if batchErr != nil {
		return batchErr
	}
	return checkResults(results, cfg.FailUnder)
}

// buildJobs turns targets into pipeline jobs, applying per-target
// configuration. URL targets with a crawl depth are expanded into one job
// per crawled page.
func (s *scanner) buildJobs(ctx context.Context, loader *source.Loader, m *metrics.Metrics) []*pipeline.Job {
	cfg := s.cfg
	jobs := make([]*pipeline.Job, 0, len(cfg.Targets))

	for _, target := range cfg.Targets {
		tc := cfg.File.GetTargetConfig(target)

		depth := cfg.CrawlDepth
		if tc.Depth > 0 {
			depth = tc.Depth
		}

		if depth == 0 || !isURL(target) {
			jobs = append(jobs, s.newJob(target, tc))
			continue
		}

		spider := crawler.NewSpider(loader,
			crawler.WithMaxDepth(depth),
			crawler.WithMaxPages(cfg.MaxPages),
			crawler.WithDelay(cfg.CrawlDelay),
			crawler.WithIgnorePatterns(tc.IgnorePatterns),
			crawler.WithFollowPatterns(tc.FollowPatterns),
			crawler.WithLogger(s.logger),
		)
		docs, err := spider.Crawl(ctx, target, tc.Request())
		if err != nil {
			// The load step fetches the target again and reports the error.
			s.logger.Warn("crawl failed", "target", target, "error", err)
			jobs = append(jobs, s.newJob(target, tc))
			continue
		}
		m.RecordCrawl(len(docs))
		s.logger.Info("crawl complete", "target", target, "pages", len(docs))

		for _, doc := range docs {
			job := s.newJob(doc.Target, tc)
			job.Document = doc
			jobs = append(jobs, job)
		}
	}
	return jobs
}

// newJob creates a job for target. Per-target settings win over flags.
func (s *scanner) newJob(target string, tc config.TargetConfig) *pipeline.Job {
	job := pipeline.NewJob(target)
	job.Request = tc.Request()
	job.Level = tc.Level
	job.Preferences = design.Preferences{Industry: s.cfg.Industry, Tone: s.cfg.Tone}
	if tc.Industry != "" {
		job.Preferences.Industry = tc.Industry
	}
	if tc.Tone != "" {
		job.Preferences.Tone = tc.Tone
	}
	return job
}

// writeReports writes every successful job with the selected writer and
// lists failed targets on stderr.
func (s *scanner) writeReports(jobs []*pipeline.Job, table *ruleset.Table) error {
	out, closeOutput, err := openOutput(s.cfg.ReportFile, s.stdout)
	if err != nil {
		return err
	}
	defer closeOutput()

	writer := newReportWriter(s.cfg, out, len(jobs))

	for _, job := range jobs {
		if job.Failed() {
			fmt.Fprintf(s.stderr, "a11yscan: %s: %s failed: %v\n", job.Target, job.FailedStep, job.Err)
			continue
		}
		result := &report.Result{
			Target:         job.Target,
			Report:         job.Report,
			Recommendation: job.Recommendation,
		}
		if _, err := writer.Write(result); err != nil {
			return fmt.Errorf("failed to write report for %s: %w", job.Target, err)
		}
	}

	s.logger.Debug("reports written",
		"format", s.cfg.ReportFormat(),
		"rules", table.Version,
	)
	return nil
}

// newReportWriter selects the report writer for the configured format.
// A single JSON report is the bare report object; several targets or an
// attached recommendation use the wrapper carrying target and version.
func newReportWriter(cfg *config.Config, out io.Writer, n int) report.Writer {
	switch cfg.ReportFormat() {
	case "json":
		if n == 1 && !cfg.Recommend {
			return report.NewJSONWriter(out, report.WithPrettyPrint())
		}
		return report.NewFullJSONWriter(out, getVersion(), report.WithPrettyPrint())
	case "markdown":
		return report.NewMarkdownWriter(out)
	case "html":
		return report.NewHTMLWriter(out)
	default:
		return report.NewSimpleWriter(out, report.WithVerbose(cfg.Verbose))
	}
}

// openOutput opens the report destination. An empty path means fallback.
func openOutput(path string, fallback io.Writer) (io.Writer, func(), error) {
	if path == "" {
		return fallback, func() {}, nil
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// Reports can quote page markup, so keep them owner-readable only.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // path is provided by the user via --output
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

// checkResults turns failed targets and low scores into an error so the
// process exits non-zero.
func checkResults(jobs []*pipeline.Job, failUnder int) error {
	var failed, low []string
	for _, job := range jobs {
		switch {
		case job.Failed():
			failed = append(failed, job.Target)
		case failUnder > 0 && job.Report.Summary.Score < failUnder:
			low = append(low, fmt.Sprintf("%s (%d)", job.Target, job.Report.Summary.Score))
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("%w: %d of %d targets: %s",
			errTargetsFailed, len(failed), len(jobs), strings.Join(failed, ", "))
	}
	if len(low) > 0 {
		return fmt.Errorf("%w %d: %s", errScoreBelowThreshold, failUnder, strings.Join(low, ", "))
	}
	return nil
}

// isURL reports whether target is an http(s) URL.
func isURL(target string) bool {
	u, err := url.Parse(target)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return (scheme == "http" || scheme == "https") && u.Host != ""
}
