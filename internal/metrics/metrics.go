package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/nao1215/a11yscan/internal/model"
)

const namespace = "a11yscan"

// Metrics holds the Prometheus collectors of one a11yscan run.
//
// Design decision: Every Metrics owns a private registry instead of using the
// global default one. a11yscan is a CLI, so metrics are written once to a
// textfile at exit, and tests can create as many instances as they like.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	AuditsTotal     *prometheus.CounterVec
	FindingsTotal   *prometheus.CounterVec
	ErrorsTotal     *prometheus.CounterVec
	AuditDuration   prometheus.Histogram
	Score           prometheus.Histogram
	DocumentBytes   prometheus.Histogram
	PagesCrawled    prometheus.Counter
	LastRunUnixTime prometheus.Gauge
	BuildInfo       *prometheus.GaugeVec
}

// New creates and registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		AuditsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "audits_total",
				Help:      "Total number of completed audits by conformance level and grade",
			},
			[]string{"level", "grade"},
		),
		FindingsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "findings_total",
				Help:      "Total number of findings by bucket and rule",
			},
			[]string{"bucket", "rule"},
		),
		ErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total number of failed targets by pipeline step",
			},
			[]string{"step"},
		),
		AuditDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "audit_duration_seconds",
				Help:      "Time spent loading and auditing one target",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
		),
		Score: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "score",
				Help:      "Distribution of accessibility scores",
				Buckets:   []float64{60, 70, 80, 90, 100},
			},
		),
		DocumentBytes: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "document_bytes",
				Help:      "Size of audited documents in bytes",
				Buckets:   prometheus.ExponentialBuckets(1024, 4, 8),
			},
		),
		PagesCrawled: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pages_crawled_total",
				Help:      "Total number of pages discovered by crawling URL targets",
			},
		),
		LastRunUnixTime: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_run_timestamp_seconds",
				Help:      "Unix time the metrics were last written",
			},
		),
		BuildInfo: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "build_info",
				Help:      "Build information, value is always 1",
			},
			[]string{"version", "rules"},
		),
	}
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordAudit records a completed audit.
func (m *Metrics) RecordAudit(r *model.Report, duration time.Duration) {
	if m == nil || r == nil {
		return
	}
	m.AuditsTotal.WithLabelValues(string(r.Level), r.Summary.Grade).Inc()
	m.AuditDuration.Observe(duration.Seconds())
	m.Score.Observe(float64(r.Summary.Score))
	buckets := []struct {
		bucket   model.Bucket
		findings []model.Finding
	}{
		{model.BucketCritical, r.Critical},
		{model.BucketWarning, r.Warnings},
		{model.BucketSuggestion, r.Suggestions},
	}
	for _, b := range buckets {
		for _, f := range b.findings {
			m.FindingsTotal.WithLabelValues(b.bucket.String(), f.Rule).Inc()
		}
	}
}

// RecordDocument records the size of a loaded document.
func (m *Metrics) RecordDocument(size int64) {
	if m == nil {
		return
	}
	m.DocumentBytes.Observe(float64(size))
}

// RecordError records a target that failed in the named step.
func (m *Metrics) RecordError(step string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(step).Inc()
}

// RecordCrawl records the number of pages a crawl produced.
func (m *Metrics) RecordCrawl(pages int) {
	if m == nil {
		return
	}
	m.PagesCrawled.Add(float64(pages))
}

// SetBuildInfo sets build information.
func (m *Metrics) SetBuildInfo(version, rulesVersion string) {
	if m == nil {
		return
	}
	m.BuildInfo.WithLabelValues(version, rulesVersion).Set(1)
}

// WriteTextfile writes all metrics to path in the Prometheus text format,
// for collection by node_exporter's textfile collector. The file is replaced
// atomically.
func (m *Metrics) WriteTextfile(path string, now time.Time) error {
	if m == nil {
		return nil
	}
	m.LastRunUnixTime.Set(float64(now.Unix()))
	return prometheus.WriteToTextfile(path, m.registry)
}
