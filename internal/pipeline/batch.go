package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/a11yscan/internal/metrics"
)

// StepCancelled is recorded as Job.FailedStep for jobs that never started
// because the batch was cancelled.
const StepCancelled = "cancelled"

// BatchProcessor handles concurrent processing of multiple targets.
// It uses errgroup to manage goroutines and respect concurrency limits.
//
// Design decision: We use a separate BatchProcessor rather than adding batch
// functionality to Pipeline because:
// 1. It keeps the Pipeline focused on single-target execution
// 2. It provides cleaner separation of concerns
type BatchProcessor struct {
	// pipelineFactory creates a new pipeline for each job.
	pipelineFactory func() *Pipeline

	// concurrency is the maximum number of concurrent jobs.
	concurrency int

	logger  *slog.Logger
	metrics *metrics.Metrics
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent jobs.
// Default is 4 if not specified.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithMetrics records every finished job in m.
func WithMetrics(m *metrics.Metrics) BatchOption {
	return func(b *BatchProcessor) {
		b.metrics = m
	}
}

// NewBatchProcessor creates a new BatchProcessor.
//
// The pipelineFactory function is called for each job to create a fresh
// pipeline instance, so pipeline state doesn't leak between jobs.
func NewBatchProcessor(pipelineFactory func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     4,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch runs the pipeline on every job concurrently and returns the
// jobs in their input order. A failing job does not stop the others; its
// error stays in the job.
//
// Design decision: We use errgroup.SetLimit rather than a worker pool
// because it's simpler and errgroup handles the concurrency correctly.
//
// The returned error is non-nil only when ctx was cancelled. Jobs that had
// not started by then are marked with StepCancelled.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, jobs []*Job) ([]*Job, error) {
	bp.logger.Info("starting batch processing",
		"total_targets", len(jobs),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, job := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				job.fail(StepCancelled, err)
				return err
			}

			bp.logger.Info("auditing target",
				"target", job.Target,
				"index", i+1,
				"total", len(jobs),
			)

			if err := bp.pipelineFactory().Execute(ctx, job); err != nil {
				bp.logger.Warn("audit failed",
					"target", job.Target,
					"step", job.FailedStep,
					"error", err,
				)
			} else {
				bp.logger.Info("audit completed",
					"target", job.Target,
					"score", job.Report.Summary.Score,
				)
			}
			bp.record(job)

			// Never returned to errgroup: one bad target must not cancel
			// the rest.
			return nil
		})
	}

	err := g.Wait()

	bp.logger.Info("batch processing complete",
		"total_targets", len(jobs),
		"elapsed", time.Since(startTime),
	)

	return jobs, err
}

func (bp *BatchProcessor) record(job *Job) {
	if job.Document != nil {
		bp.metrics.RecordDocument(job.Document.Size)
	}
	if job.Report != nil {
		bp.metrics.RecordAudit(job.Report, job.Duration)
	}
	if job.Failed() {
		bp.metrics.RecordError(job.FailedStep)
	}
}
