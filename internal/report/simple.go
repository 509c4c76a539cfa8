package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/a11yscan/internal/design"
	"github.com/nao1215/a11yscan/internal/model"
)

// ruleWidth is the width of the section rules in text output.
const ruleWidth = 70

// SimpleWriter outputs human-readable text reports for terminal display.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors so the output can be piped to files or other tools.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether buckets with no findings are shown.
	showEmpty bool

	// verbose adds the remediation text under every finding.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the result in human-readable format.
func (w *SimpleWriter) Write(result *Result) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, result)
	w.writeSummary(&sb, result.Report)
	w.writeFindings(&sb, result.Report)
	if result.Recommendation != nil {
		w.writeRecommendation(&sb, result.Recommendation)
	}
	w.writeFooter(&sb)

	return io.WriteString(w.output, sb.String())
}

// WriteRecommendation outputs a design recommendation in human-readable format.
func (w *SimpleWriter) WriteRecommendation(rec *design.Recommendation) (int, error) {
	var sb strings.Builder
	w.writeRecommendation(&sb, rec)
	return io.WriteString(w.output, sb.String())
}

func writeSection(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n\n")
}

// writeHeader writes the report header with target information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, result *Result) {
	r := result.Report

	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString("                      ACCESSIBILITY REPORT\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n\n")

	if result.Target != "" {
		fmt.Fprintf(sb, "Target:       %s\n", result.Target)
	}
	fmt.Fprintf(sb, "Audited:      %s\n", r.Timestamp.Format("2006-01-02 15:04:05 MST"))
	standard := "WCAG " + r.WCAGVersion
	if r.Level != "" {
		standard += " " + string(r.Level)
	}
	fmt.Fprintf(sb, "Standard:     %s\n", standard)
	fmt.Fprintf(sb, "Score:        %d/%d\n", r.Summary.Score, model.MaxScore)
	fmt.Fprintf(sb, "Grade:        %s (%s)\n", r.Summary.Grade, r.Summary.GradeLabel)
	sb.WriteString("\n")
}

// writeSummary writes the bucket counts.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, r *model.Report) {
	writeSection(sb, "SUMMARY")

	fmt.Fprintf(sb, "  CRITICAL:    %d\n", r.Summary.CriticalCount)
	fmt.Fprintf(sb, "  WARNING:     %d\n", r.Summary.WarningCount)
	fmt.Fprintf(sb, "  SUGGESTION:  %d\n", r.Summary.SuggestionCount)
	sb.WriteString("\n")
	fmt.Fprintf(sb, "  ISSUES:      %d (suggestions are not counted)\n", r.Summary.TotalIssues)
	sb.WriteString("\n")
}

// writeFindings writes all findings grouped by bucket, critical first.
func (w *SimpleWriter) writeFindings(sb *strings.Builder, r *model.Report) {
	if len(r.Findings()) == 0 && !w.showEmpty {
		return
	}

	writeSection(sb, "FINDINGS")

	buckets := []struct {
		bucket   model.Bucket
		findings []model.Finding
	}{
		{model.BucketCritical, r.Critical},
		{model.BucketWarning, r.Warnings},
		{model.BucketSuggestion, r.Suggestions},
	}
	for _, b := range buckets {
		if len(b.findings) == 0 && !w.showEmpty {
			continue
		}
		w.writeBucket(sb, b.bucket, b.findings)
	}
}

func (w *SimpleWriter) writeBucket(sb *strings.Builder, bucket model.Bucket, findings []model.Finding) {
	fmt.Fprintf(sb, "[%s] %s\n", bucketIndicator(bucket), strings.ToUpper(bucket.String()))

	if len(findings) == 0 {
		sb.WriteString("  No findings\n\n")
		return
	}

	for _, f := range findings {
		fmt.Fprintf(sb, "  * %s (%s)\n", f.Description, f.Rule)
		if f.Element != "" {
			fmt.Fprintf(sb, "    Element: %s\n", truncateString(f.Element, 80))
		}
		if w.verbose {
			rem := f.Kind().Remediation()
			fmt.Fprintf(sb, "    Fix:     %s\n", f.Suggestion)
			if rem.WCAG != "" {
				fmt.Fprintf(sb, "    WCAG:    %s\n", rem.WCAG)
			}
		}
	}
	sb.WriteString("\n")
}

// bucketIndicator returns a visual indicator for the bucket.
func bucketIndicator(b model.Bucket) string {
	switch b {
	case model.BucketCritical:
		return "!!!"
	case model.BucketWarning:
		return "!"
	case model.BucketSuggestion:
		return "i"
	default:
		return "?"
	}
}

func (w *SimpleWriter) writeRecommendation(sb *strings.Builder, rec *design.Recommendation) {
	writeSection(sb, "DESIGN RECOMMENDATION")

	fmt.Fprintf(sb, "%s\n", rec.Headline)
	if rec.Fallback {
		fmt.Fprintf(sb, "(no exact preset; using %s/%s)\n", rec.Industry, rec.Tone)
	}
	sb.WriteString("\n")

	if len(rec.Priorities) > 0 {
		sb.WriteString("Priorities:\n")
		for i, p := range rec.Priorities {
			fmt.Fprintf(sb, "  %d. %s x%d (+%d points) [WCAG %s]\n", i+1, p.Title, p.Count, p.Impact, p.WCAG)
			if w.verbose {
				fmt.Fprintf(sb, "     %s\n", p.Fix)
			}
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Palette:\n")
	for _, pair := range rec.ColorPairs {
		status := "ok"
		if !pair.Passes {
			status = fmt.Sprintf("below %.1f:1", pair.Required)
		}
		fmt.Fprintf(sb, "  %-26s %s on %s  %.2f:1  %s\n", pair.Name, pair.Foreground, pair.Background, pair.Ratio, status)
	}
	sb.WriteString("\n")

	t := rec.Typography
	sb.WriteString("Typography:\n")
	fmt.Fprintf(sb, "  Headings: %s\n", t.HeadingFont)
	fmt.Fprintf(sb, "  Body:     %s, %gpx, line-height %g\n", t.BodyFont, t.BaseSize, t.LineHeight)
	sb.WriteString("\n")

	if len(rec.Layout.Guidelines) > 0 {
		sb.WriteString("Layout:\n")
		for _, g := range rec.Layout.Guidelines {
			fmt.Fprintf(sb, "  - %s\n", g)
		}
		sb.WriteString("\n")
	}
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString("Report generated by a11yscan\n")
	sb.WriteString("https://github.com/nao1215/a11yscan\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
}
