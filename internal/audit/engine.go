package audit

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/nao1215/a11yscan/internal/dom"
	"github.com/nao1215/a11yscan/internal/model"
	"github.com/nao1215/a11yscan/internal/ruleset"
)

// ErrAnalysisFailed is returned when a check fails or panics. The run is
// aborted and no partial report is produced.
var ErrAnalysisFailed = errors.New("analysis failed")

// Check is one independent accessibility check.
//
// Design decision: Checks return an immutable Outcome instead of appending to
// shared buckets and debiting a shared score. The engine folds outcomes in
// registration order, so checks never observe each other's findings and the
// final report does not depend on anything but the document and the table.
type Check interface {
	// Name returns the check name used in logs and error messages.
	Name() string

	// Evaluate inspects the document and returns the findings of this check.
	// The table must be treated as read-only.
	Evaluate(doc *dom.Document, table *ruleset.Table) (Outcome, error)
}

// Engine runs the registered checks against a document and builds a report.
// An Engine holds no per-run state and may be shared between goroutines.
type Engine struct {
	checks []Check
	table  *ruleset.Table
	level  model.Level
	clock  func() time.Time
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithTable sets the rule table. The default is ruleset.Default().
func WithTable(t *ruleset.Table) Option {
	return func(e *Engine) {
		if t != nil {
			e.table = t
		}
	}
}

// WithLevel sets the conformance level. AAA raises the contrast thresholds.
func WithLevel(level model.Level) Option {
	return func(e *Engine) {
		if level != "" {
			e.level = level
		}
	}
}

// WithClock sets the timestamp source. Tests use it to make reports
// byte-for-byte reproducible.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithLogger sets the logger used for per-check debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates an Engine with the built-in checks registered in their
// fixed execution order.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		table:  ruleset.Default(),
		level:  model.LevelAA,
		clock:  time.Now,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}

	// Order matters: it is the display order of findings within a bucket.
	e.Register(NewContrastCheck(string(e.level)))
	e.Register(NewSemanticCheck())
	e.Register(NewImageCheck())
	e.Register(NewFormCheck())
	e.Register(NewHeadingCheck())
	e.Register(NewFontSizeCheck())
	e.Register(NewKeyboardCheck())
	e.Register(NewAriaCheck())

	return e
}

// Register appends a check. It runs after every previously registered check.
func (e *Engine) Register(c Check) {
	e.checks = append(e.checks, c)
}

// CheckNames returns the names of the registered checks in execution order.
func (e *Engine) CheckNames() []string {
	names := make([]string, len(e.checks))
	for i, c := range e.checks {
		names[i] = c.Name()
	}
	return names
}

// Table returns the rule table the engine evaluates against.
func (e *Engine) Table() *ruleset.Table {
	return e.table
}

// Level returns the conformance level the engine evaluates against.
func (e *Engine) Level() model.Level {
	return e.level
}

// Analyze parses r and runs every check against the result.
func (e *Engine) Analyze(r io.Reader) (*model.Report, error) {
	doc, err := dom.Parse(r)
	if err != nil {
		return nil, err
	}
	return e.Run(doc)
}

// Run evaluates doc and builds the report.
//
// Any error returned by a check, and any panic raised inside one, aborts the
// run and is reported as ErrAnalysisFailed naming the check.
func (e *Engine) Run(doc *dom.Document) (*model.Report, error) {
	var total Outcome
	for _, c := range e.checks {
		out, err := e.evaluate(c, doc)
		if err != nil {
			return nil, err
		}
		e.logger.Debug("check completed",
			slog.String("check", c.Name()),
			slog.Int("critical", len(out.critical)),
			slog.Int("warnings", len(out.warnings)),
			slog.Int("suggestions", len(out.suggestions)),
			slog.Int("penalty", out.penalty),
		)
		total = total.merge(out)
	}

	return model.BuildReport(
		total.critical,
		total.warnings,
		total.suggestions,
		model.MaxScore-total.penalty,
		e.clock(),
		model.WithLevel(e.level),
	), nil
}

func (e *Engine) evaluate(c Check, doc *dom.Document) (out Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: check %s panicked: %v", ErrAnalysisFailed, c.Name(), r)
		}
	}()

	out, err = c.Evaluate(doc, e.table)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: check %s: %w", ErrAnalysisFailed, c.Name(), err)
	}
	return out, nil
}
