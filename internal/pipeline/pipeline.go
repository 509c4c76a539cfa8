package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/a11yscan/internal/design"
	"github.com/nao1215/a11yscan/internal/model"
	"github.com/nao1215/a11yscan/internal/source"
)

// Job is the state of one target moving through the pipeline. Each step
// reads what earlier steps produced and fills in its own fields.
type Job struct {
	// Target is the file path, URL or "-" being audited.
	Target string

	// Request carries per-target HTTP headers and cookie.
	Request source.Request

	// Level overrides the pipeline's conformance level when set.
	Level model.Level

	// Preferences select the design preset for the recommendation.
	Preferences design.Preferences

	// Document is set by the load step, or up front for crawled pages.
	Document *source.Document

	// Report is set by the audit step.
	Report *model.Report

	// Title is the document's <title>, set by the audit step.
	Title string

	// Recommendation is set by the recommend step.
	Recommendation *design.Recommendation

	// RunID is the history database ID of the stored report.
	RunID string

	// Err is the error of the step that failed, and FailedStep its name.
	Err        error
	FailedStep string

	// Steps lists the steps that ran, in order.
	Steps []string

	// Duration is the time spent executing the pipeline.
	Duration time.Duration
}

// NewJob creates a job for target.
func NewJob(target string) *Job {
	return &Job{Target: target}
}

// Failed reports whether a step failed.
func (j *Job) Failed() bool {
	return j.Err != nil
}

// Step defines the interface that all pipeline steps must implement.
// Steps are executed in sequence, each receiving the job as left by the
// previous steps.
//
// Design decision: We use an interface rather than function types because:
// 1. It allows steps to carry configuration state
// 2. It provides a Name() method for logging, metrics and error reporting
type Step interface {
	// Do executes the pipeline step.
	Do(ctx context.Context, job *Job) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline orchestrates the execution of multiple steps.
type Pipeline struct {
	steps []Step

	logger *slog.Logger

	// continueOnError determines whether to continue executing steps
	// after one fails. If false, the pipeline stops on first error.
	continueOnError bool

	now func() time.Time
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError configures the pipeline to continue execution
// even when a step fails. The first failure stays recorded in the job.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates a new Pipeline with the given options.
// Steps should be added using AddStep after creation.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
		now:   time.Now,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// AddStep appends a step to the pipeline.
// Steps are executed in the order they are added.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all pipeline steps in sequence.
// Cancellation is checked before each step; steps handle their own
// timeouts.
//
// Returns the first error encountered if continueOnError is false,
// or nil otherwise (the error stays recorded in the job).
func (p *Pipeline) Execute(ctx context.Context, job *Job) error {
	start := p.now()
	defer func() { job.Duration = p.now().Sub(start) }()

	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"target", job.Target,
				"reason", err,
			)
			job.fail(step.Name(), err)
			return err
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"target", job.Target,
		)

		if err := step.Do(ctx, job); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"target", job.Target,
				"error", err,
			)
			job.fail(step.Name(), err)

			if !p.continueOnError {
				return err
			}
		}

		job.Steps = append(job.Steps, step.Name())
	}

	return nil
}

func (j *Job) fail(step string, err error) {
	if j.Err != nil {
		return
	}
	j.Err = err
	j.FailedStep = step
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
