package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nao1215/a11yscan/internal/audit"
	"github.com/nao1215/a11yscan/internal/database"
	"github.com/nao1215/a11yscan/internal/design"
	"github.com/nao1215/a11yscan/internal/dom"
	"github.com/nao1215/a11yscan/internal/model"
	"github.com/nao1215/a11yscan/internal/ruleset"
	"github.com/nao1215/a11yscan/internal/source"
)

// Step names, used in logs, metrics labels and Job.FailedStep.
const (
	StepLoad      = "load"
	StepAudit     = "audit"
	StepRecommend = "recommend"
	StepStore     = "store"
)

var (
	// ErrNoDocument is returned by the audit step when nothing was loaded.
	ErrNoDocument = errors.New("no document loaded")

	// ErrNoReport is returned by steps that need an audit report.
	ErrNoReport = errors.New("no audit report")
)

// Loader loads a single document. *source.Loader satisfies it.
type Loader interface {
	Load(ctx context.Context, target string, req source.Request) (*source.Document, error)
}

// LoadStep reads the target into Job.Document. Jobs that already carry a
// document, such as pages found by crawling, are left alone.
type LoadStep struct {
	loader Loader
	logger *slog.Logger
}

// NewLoadStep creates a load step.
func NewLoadStep(loader Loader, logger *slog.Logger) *LoadStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoadStep{loader: loader, logger: logger}
}

// Name returns the step name.
func (s *LoadStep) Name() string {
	return StepLoad
}

// Do executes the load step.
func (s *LoadStep) Do(ctx context.Context, job *Job) error {
	if job.Document != nil {
		return nil
	}

	doc, err := s.loader.Load(ctx, job.Target, job.Request)
	if err != nil {
		return err
	}
	s.logger.Debug("document loaded",
		"target", job.Target,
		"bytes", doc.Size,
		"charset", doc.Charset,
	)
	job.Document = doc
	return nil
}

// AuditStep parses the document and runs the rule engine on it.
//
// Design decision: The contrast check is built for one conformance level,
// so the step keeps one engine per level and picks the job's.
type AuditStep struct {
	engines map[model.Level]*audit.Engine
	level   model.Level
}

// AuditStepOption configures an AuditStep.
type AuditStepOption func(*auditStepConfig)

type auditStepConfig struct {
	table  *ruleset.Table
	level  model.Level
	clock  func() time.Time
	logger *slog.Logger
}

// WithAuditTable sets the rule table.
func WithAuditTable(t *ruleset.Table) AuditStepOption {
	return func(c *auditStepConfig) {
		if t != nil {
			c.table = t
		}
	}
}

// WithAuditLevel sets the level used for jobs without their own.
func WithAuditLevel(level model.Level) AuditStepOption {
	return func(c *auditStepConfig) {
		if level != "" {
			c.level = level
		}
	}
}

// WithAuditClock sets the report timestamp source.
func WithAuditClock(clock func() time.Time) AuditStepOption {
	return func(c *auditStepConfig) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithAuditLogger sets the logger passed to the engines.
func WithAuditLogger(logger *slog.Logger) AuditStepOption {
	return func(c *auditStepConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewAuditStep creates an audit step.
func NewAuditStep(opts ...AuditStepOption) *AuditStep {
	cfg := &auditStepConfig{
		table:  ruleset.Default(),
		level:  model.LevelAA,
		clock:  time.Now,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	s := &AuditStep{engines: make(map[model.Level]*audit.Engine), level: cfg.level}
	for _, level := range []model.Level{model.LevelAA, model.LevelAAA} {
		s.engines[level] = audit.NewEngine(
			audit.WithTable(cfg.table),
			audit.WithLevel(level),
			audit.WithClock(cfg.clock),
			audit.WithLogger(cfg.logger),
		)
	}
	return s
}

// Name returns the step name.
func (s *AuditStep) Name() string {
	return StepAudit
}

// Do executes the audit step.
func (s *AuditStep) Do(_ context.Context, job *Job) error {
	if job.Document == nil {
		return ErrNoDocument
	}

	level := s.level
	if job.Level != "" {
		level = job.Level
	}
	engine, ok := s.engines[level]
	if !ok {
		return fmt.Errorf("unsupported level %q", level)
	}

	doc, err := dom.Parse(job.Document.Reader())
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", job.Target, err)
	}
	report, err := engine.Run(doc)
	if err != nil {
		return err
	}

	job.Report = report
	if titles := doc.Query("title"); len(titles) > 0 {
		job.Title = strings.TrimSpace(titles[0].Text())
	}
	return nil
}

// RecommendStep attaches a design recommendation to the job.
type RecommendStep struct {
	generator *design.Generator
}

// NewRecommendStep creates a recommend step using generator.
func NewRecommendStep(generator *design.Generator) *RecommendStep {
	return &RecommendStep{generator: generator}
}

// Name returns the step name.
func (s *RecommendStep) Name() string {
	return StepRecommend
}

// Do executes the recommend step.
func (s *RecommendStep) Do(_ context.Context, job *Job) error {
	if job.Report == nil {
		return ErrNoReport
	}
	rec, err := s.generator.Generate(design.InputFrom(job.Report), job.Preferences)
	if err != nil {
		return err
	}
	job.Recommendation = rec
	return nil
}

// Store persists documents and reports. *database.HistoryDB satisfies it.
type Store interface {
	UpsertDocument(ctx context.Context, doc *database.DocumentRecord) error
	SaveReport(ctx context.Context, target, contentHash string, r *model.Report) (string, error)
}

// StoreStep saves the report and document metadata to the history database.
type StoreStep struct {
	store Store
}

// NewStoreStep creates a store step.
func NewStoreStep(store Store) *StoreStep {
	return &StoreStep{store: store}
}

// Name returns the step name.
func (s *StoreStep) Name() string {
	return StepStore
}

// Do executes the store step. Reports read from standard input are not
// stored, since "-" does not identify a page.
func (s *StoreStep) Do(ctx context.Context, job *Job) error {
	if job.Report == nil {
		return ErrNoReport
	}
	if job.Target == source.StdinTarget {
		return nil
	}

	var hash string
	if job.Document != nil {
		hash = database.ContentHash(job.Document.Body)
		rec := &database.DocumentRecord{
			Target:      job.Target,
			FetchedAt:   job.Document.FetchedAt,
			StatusCode:  job.Document.StatusCode,
			ContentType: job.Document.ContentType,
			Title:       job.Title,
			Size:        job.Document.Size,
			ContentHash: hash,
		}
		if err := s.store.UpsertDocument(ctx, rec); err != nil {
			return err
		}
	}

	runID, err := s.store.SaveReport(ctx, job.Target, hash, job.Report)
	if err != nil {
		return err
	}
	job.RunID = runID
	return nil
}

// Settings configures the standard a11yscan pipeline.
type Settings struct {
	Loader    Loader
	Table     *ruleset.Table
	Level     model.Level
	Generator *design.Generator // nil skips the recommend step
	Store     Store             // nil skips the store step
	Logger    *slog.Logger
	Clock     func() time.Time
}

// Standard builds the load, audit, store and recommend pipeline. The
// report is stored before the recommendation is generated, so a preset
// problem never costs the history entry.
func Standard(s Settings, opts ...Option) *Pipeline {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	p := New(append([]Option{WithLogger(logger)}, opts...)...)
	p.AddStep(NewLoadStep(s.Loader, logger))
	p.AddStep(NewAuditStep(
		WithAuditTable(s.Table),
		WithAuditLevel(s.Level),
		WithAuditClock(s.Clock),
		WithAuditLogger(logger),
	))
	if s.Store != nil {
		p.AddStep(NewStoreStep(s.Store))
	}
	if s.Generator != nil {
		p.AddStep(NewRecommendStep(s.Generator))
	}
	return p
}
