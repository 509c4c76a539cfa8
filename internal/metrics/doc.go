// Package metrics exposes Prometheus counters and histograms for audits:
// completed audits by grade, findings by bucket and rule, failures by
// pipeline step, audit duration, score and document size.
//
// The scan command writes them with --metrics-file in the text exposition
// format, which node_exporter's textfile collector picks up.
package metrics
