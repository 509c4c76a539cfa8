package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/nao1215/a11yscan/internal/config"
	"github.com/nao1215/a11yscan/internal/database"
	a11ylog "github.com/nao1215/a11yscan/internal/log"
	"github.com/nao1215/a11yscan/internal/model"
	"github.com/nao1215/a11yscan/internal/pipeline"
	"github.com/nao1215/a11yscan/internal/report"
	"github.com/nao1215/a11yscan/internal/source"
)

// defaultDebounce collapses the burst of events an editor save produces.
const defaultDebounce = 300 * time.Millisecond

// errNotLocalFile is returned when watch is given a URL or stdin.
var errNotLocalFile = errors.New("watch only supports local files")

// NewWatchCmd creates the watch command.
func NewWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <file>...",
		Short: "Re-audit HTML files whenever they change",
		Long: `Watch audits the given files once, then again every time one of them is
saved. Changes arriving within the debounce interval are audited together.

The score change since the previous audit is shown with each text report.
Press Ctrl+C to stop.

Examples:
  # Watch a page while editing it
  a11yscan watch index.html

  # Watch several pages against AAA and keep history
  a11yscan watch --level AAA --save index.html about.html`,
		Args: cobra.MinimumNArgs(1),
		RunE: runWatchCmd,
	}

	cmd.Flags().StringP("level", "l", string(config.DefaultLevel),
		"WCAG conformance level (AA or AAA)")
	cmd.Flags().String("rules", "",
		"YAML rule table override applied on top of the built-in thresholds")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .a11yscan in current or home directory)")
	cmd.Flags().BoolP("json", "j", false, "Output JSON reports")
	cmd.Flags().BoolP("markdown", "m", false, "Output Markdown reports")
	cmd.Flags().Duration("debounce", defaultDebounce,
		"Quiet period after the last change before auditing")
	cmd.Flags().Bool("save", false,
		"Store every audit in the history database")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the history database")

	return cmd
}

// runWatchCmd executes the watch command.
func runWatchCmd(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()

	levelFlag, err := flags.GetString("level")
	if err != nil {
		return err
	}
	level, ok := model.ParseLevel(strings.ToUpper(levelFlag))
	if !ok {
		return fmt.Errorf("configuration error: %w", config.ErrInvalidLevel)
	}
	rulesFile, err := flags.GetString("rules")
	if err != nil {
		return err
	}
	configPath, err := flags.GetString("config")
	if err != nil {
		return err
	}
	jsonOutput, err := flags.GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := flags.GetBool("markdown")
	if err != nil {
		return err
	}
	if jsonOutput && markdownOutput {
		return fmt.Errorf("configuration error: %w", config.ErrConflictingReportFormats)
	}
	debounce, err := flags.GetDuration("debounce")
	if err != nil {
		return err
	}
	save, err := flags.GetBool("save")
	if err != nil {
		return err
	}
	dbDir, err := flags.GetString("db-dir")
	if err != nil {
		return err
	}

	cf, err := loadConfigFile(configPath)
	if err != nil {
		return err
	}
	if !flags.Changed("level") && cf.Defaults.Level != "" {
		level = cf.Defaults.Level
	}
	table, err := config.RuleTable(cf, rulesFile)
	if err != nil {
		return err
	}

	logger := a11ylog.NewSecureLogger(cmd.ErrOrStderr(), getVerboseFlag(cmd))

	settings := pipeline.Settings{
		Loader: source.NewLoader(),
		Table:  table,
		Level:  level,
		Logger: logger,
	}
	if save {
		db, err := database.Open(dbDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		settings.Store = db
	}

	var writer report.Writer
	switch {
	case jsonOutput:
		writer = report.NewJSONWriter(cmd.OutOrStdout())
	case markdownOutput:
		writer = report.NewMarkdownWriter(cmd.OutOrStdout())
	default:
		writer = report.NewSimpleWriter(cmd.OutOrStdout())
	}

	session := &watchSession{
		pipeline: pipeline.Standard(settings),
		file:     cf,
		writer:   writer,
		out:      cmd.OutOrStdout(),
		errOut:   cmd.ErrOrStderr(),
		logger:   logger,
		debounce: debounce,
		showDiff: !jsonOutput && !markdownOutput,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return session.run(ctx, args)
}

// watchSession re-audits watched files on change.
type watchSession struct {
	pipeline *pipeline.Pipeline
	file     *config.File
	writer   report.Writer
	out      io.Writer
	errOut   io.Writer
	logger   *slog.Logger
	debounce time.Duration

	// showDiff prints the score change line before text reports.
	showDiff bool

	// targets maps a cleaned absolute path to the target as given.
	targets map[string]string

	// lastScore is the previous score per target.
	lastScore map[string]int
}

// run audits every target once, then watches until ctx is done.
func (s *watchSession) run(ctx context.Context, args []string) error {
	s.targets = make(map[string]string, len(args))
	s.lastScore = make(map[string]int, len(args))

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}
	defer fw.Close()

	dirs := make(map[string]bool)
	for _, target := range args {
		if target == source.StdinTarget || isURL(target) {
			return fmt.Errorf("%w: %s", errNotLocalFile, target)
		}
		abs, err := filepath.Abs(target)
		if err != nil {
			return err
		}
		if _, err := os.Stat(abs); err != nil {
			return fmt.Errorf("cannot watch %s: %w", target, err)
		}
		s.targets[abs] = target

		// Watch the directory: editors often save by renaming a temp
		// file over the original, which drops a watch on the file itself.
		dir := filepath.Dir(abs)
		if !dirs[dir] {
			if err := fw.Add(dir); err != nil {
				return fmt.Errorf("failed to watch %s: %w", dir, err)
			}
			dirs[dir] = true
		}
	}

	for _, target := range args {
		s.audit(ctx, target)
	}
	fmt.Fprintf(s.errOut, "Watching %d file(s) for changes. Press Ctrl+C to stop.\n", len(args))

	return s.loop(ctx, fw)
}

// loop collects change events and audits the changed targets once the
// debounce interval has passed without further events.
func (s *watchSession) loop(ctx context.Context, fw *fsnotify.Watcher) error {
	var timer *time.Timer
	var fire <-chan time.Time
	pending := make(map[string]bool)

	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			target, ok := s.match(ev)
			if !ok {
				continue
			}
			s.logger.Debug("file changed", "target", target, "op", ev.Op.String())
			pending[target] = true
			if timer == nil {
				timer = time.NewTimer(s.debounce)
			} else {
				timer.Reset(s.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			changed := make([]string, 0, len(pending))
			for target := range pending {
				changed = append(changed, target)
			}
			clear(pending)
			slices.Sort(changed)
			for _, target := range changed {
				s.audit(ctx, target)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("watch error", "error", err)
		}
	}
}

// match returns the watched target an event refers to. Only writes and
// creations count; removals are left for the following create.
func (s *watchSession) match(ev fsnotify.Event) (string, bool) {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return "", false
	}
	abs, err := filepath.Abs(ev.Name)
	if err != nil {
		return "", false
	}
	target, ok := s.targets[filepath.Clean(abs)]
	return target, ok
}

// audit runs the pipeline for one target and writes its report.
func (s *watchSession) audit(ctx context.Context, target string) {
	job := pipeline.NewJob(target)
	if s.file != nil {
		tc := s.file.GetTargetConfig(target)
		job.Level = tc.Level
	}

	if err := s.pipeline.Execute(ctx, job); err != nil {
		if ctx.Err() == nil {
			fmt.Fprintf(s.errOut, "a11yscan: %s: %v\n", target, err)
		}
		return
	}

	score := job.Report.Summary.Score
	if s.showDiff {
		line := fmt.Sprintf("[%s] %s: score %d", time.Now().Format("15:04:05"), target, score)
		if prev, ok := s.lastScore[target]; ok {
			line += fmt.Sprintf(" (%s)", formatDelta(score-prev))
		}
		fmt.Fprintln(s.out, line)
	}
	s.lastScore[target] = score

	if _, err := s.writer.Write(&report.Result{Target: target, Report: job.Report}); err != nil {
		s.logger.Warn("failed to write report", "target", target, "error", err)
	}
}
