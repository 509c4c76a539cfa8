package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/a11yscan/internal/design"
	"github.com/nao1215/a11yscan/internal/model"
)

// MarkdownWriter outputs reports in GitHub-flavored Markdown.
// This format is designed for pull request comments and documentation.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation, which gives us tables, alerts, details blocks and mermaid
// charts without hand-written escaping.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the result in Markdown format.
func (w *MarkdownWriter) Write(result *Result) (int, error) {
	md := markdown.NewMarkdown(w.output)
	writeMarkdownResult(md, result)
	return len(md.String()), md.Build()
}

// WriteRecommendation outputs a design recommendation in Markdown format.
func (w *MarkdownWriter) WriteRecommendation(rec *design.Recommendation) (int, error) {
	md := markdown.NewMarkdown(w.output)
	md.H1("Design Recommendation")
	md.PlainText("")
	writeMarkdownRecommendation(md, rec)
	writeMarkdownFooter(md)
	return len(md.String()), md.Build()
}

// writeMarkdownResult renders a complete result. It is shared with the HTML
// writer, which converts the same document.
func writeMarkdownResult(md *markdown.Markdown, result *Result) {
	writeMarkdownHeader(md, result)
	writeMarkdownSummary(md, result.Report)
	writeMarkdownFindings(md, result.Report)
	if result.Recommendation != nil {
		md.H2("Design Recommendation")
		md.PlainText("")
		writeMarkdownRecommendation(md, result.Recommendation)
	}
	writeMarkdownFooter(md)
}

// writeMarkdownHeader writes the title and the audit information table.
func writeMarkdownHeader(md *markdown.Markdown, result *Result) {
	r := result.Report

	md.H1("Accessibility Report")
	md.PlainText("")

	rows := make([][]string, 0, 5)
	if result.Target != "" {
		rows = append(rows, []string{"Target", codeCell(result.Target)})
	}
	standard := "WCAG " + r.WCAGVersion
	if r.Level != "" {
		standard += " " + string(r.Level)
	}
	rows = append(rows,
		[]string{"Audited", r.Timestamp.Format("2006-01-02 15:04:05 MST")},
		[]string{"Standard", standard},
		[]string{"Score", fmt.Sprintf("**%d** / %d", r.Summary.Score, model.MaxScore)},
		[]string{"Grade", fmt.Sprintf("%s (%s)", r.Summary.Grade, r.Summary.GradeLabel)},
	)

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeMarkdownSummary writes the bucket table, the distribution chart and
// an alert matching the worst bucket.
func writeMarkdownSummary(md *markdown.Markdown, r *model.Report) {
	s := r.Summary

	md.H2("Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Bucket", "Count"},
		Rows: [][]string{
			{"🔴 Critical", strconv.Itoa(s.CriticalCount)},
			{"🟠 Warning", strconv.Itoa(s.WarningCount)},
			{"🔵 Suggestion", strconv.Itoa(s.SuggestionCount)},
			{"**Issues**", "**" + strconv.Itoa(s.TotalIssues) + "**"},
		},
	})
	md.PlainText("")

	if len(r.Findings()) > 0 {
		writePieChart(md, s)
	}

	switch {
	case s.CriticalCount > 0:
		md.Cautionf("%d critical issue(s) block access for some users and should be fixed first.", s.CriticalCount)
	case s.WarningCount > 0:
		md.Warningf("%d warning(s) degrade the experience for assistive technology users.", s.WarningCount)
	case s.SuggestionCount > 0:
		md.Note("No issues found. Only suggestions remain.")
	default:
		md.Tip("No accessibility issues detected by the automated checks.")
	}
	md.PlainText("")
}

// writePieChart writes a mermaid pie chart of the bucket distribution.
func writePieChart(md *markdown.Markdown, s model.Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Finding Distribution"),
		piechart.WithShowData(true),
	)

	if s.CriticalCount > 0 {
		chart.LabelAndIntValue("Critical", uint64(s.CriticalCount)) //nolint:gosec // counts are never negative
	}
	if s.WarningCount > 0 {
		chart.LabelAndIntValue("Warning", uint64(s.WarningCount)) //nolint:gosec // counts are never negative
	}
	if s.SuggestionCount > 0 {
		chart.LabelAndIntValue("Suggestion", uint64(s.SuggestionCount)) //nolint:gosec // counts are never negative
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeMarkdownFindings writes all findings grouped by bucket.
func writeMarkdownFindings(md *markdown.Markdown, r *model.Report) {
	md.H2("Findings")
	md.PlainText("")

	if len(r.Findings()) == 0 {
		md.PlainText("No findings.")
		md.PlainText("")
		return
	}

	buckets := []struct {
		header   string
		findings []model.Finding
	}{
		{"🔴 Critical", r.Critical},
		{"🟠 Warnings", r.Warnings},
		{"🔵 Suggestions", r.Suggestions},
	}
	for _, b := range buckets {
		if len(b.findings) == 0 {
			continue
		}
		md.H3(b.header)
		md.PlainText("")
		writeFindingsTable(md, b.findings)
	}
}

// writeFindingsTable writes a table of findings followed by one collapsible
// remediation block per rule.
func writeFindingsTable(md *markdown.Markdown, findings []model.Finding) {
	rows := make([][]string, len(findings))
	var rules []model.Rule
	seen := make(map[model.Rule]bool)
	for i, f := range findings {
		element := "-"
		if f.Element != "" {
			element = codeCell(truncateString(f.Element, 60))
		}
		rows[i] = []string{
			"`" + f.Rule + "`",
			tableCell(f.Description),
			element,
			tableCell(truncateString(f.Suggestion, 80)),
		}

		if kind := f.Kind(); !seen[kind] {
			seen[kind] = true
			rules = append(rules, kind)
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Rule", "Description", "Element", "Suggestion"},
		Rows:   rows,
	})
	md.PlainText("")

	for _, rule := range rules {
		md.Details(rule.Remediation().Title, remediationText(rule))
	}
	md.PlainText("")
}

// remediationText is the body of a remediation details block.
func remediationText(rule model.Rule) string {
	rem := rule.Remediation()

	var sb strings.Builder
	if rem.Impact != "" {
		sb.WriteString(rem.Impact)
		sb.WriteString("\n\n")
	}
	sb.WriteString("**Fix:** ")
	sb.WriteString(rem.Fix)
	if rem.WCAG != "" {
		fmt.Fprintf(&sb, "\n\n**WCAG:** %s", rem.WCAG)
	}
	if rem.Example != "" {
		fmt.Fprintf(&sb, "\n\n```html\n%s\n```", rem.Example)
	}
	return sb.String()
}

// writeMarkdownRecommendation writes the design recommendation sections.
func writeMarkdownRecommendation(md *markdown.Markdown, rec *design.Recommendation) {
	md.PlainText(rec.Headline + ".")
	md.PlainText("")
	if rec.Fallback {
		md.Notef("No exact preset matched; the %s/%s preset is used.", rec.Industry, rec.Tone)
		md.PlainText("")
	}

	md.H3("Priorities")
	md.PlainText("")
	if len(rec.Priorities) == 0 {
		md.PlainText("Nothing to fix.")
	} else {
		rows := make([][]string, len(rec.Priorities))
		for i, p := range rec.Priorities {
			rows[i] = []string{
				strconv.Itoa(i + 1),
				p.Title,
				p.Bucket,
				strconv.Itoa(p.Count),
				"+" + strconv.Itoa(p.Impact),
				p.WCAG,
			}
		}
		md.Table(markdown.TableSet{
			Header: []string{"#", "Issue", "Bucket", "Count", "Points", "WCAG"},
			Rows:   rows,
		})
	}
	md.PlainText("")

	md.H3("Palette")
	md.PlainText("")
	rows := make([][]string, len(rec.ColorPairs))
	for i, pair := range rec.ColorPairs {
		status := "✅"
		if !pair.Passes {
			status = fmt.Sprintf("❌ needs %.1f:1", pair.Required)
		}
		rows[i] = []string{
			pair.Name,
			"`" + pair.Foreground + "`",
			"`" + pair.Background + "`",
			fmt.Sprintf("%.2f:1", pair.Ratio),
			status,
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Pair", "Foreground", "Background", "Contrast", "AA"},
		Rows:   rows,
	})
	md.PlainText("")

	t := rec.Typography
	md.H3("Typography")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Heading font", tableCell(t.HeadingFont)},
			{"Body font", tableCell(t.BodyFont)},
			{"Base size", fmt.Sprintf("%gpx", t.BaseSize)},
			{"Line height", fmt.Sprintf("%g", t.LineHeight)},
			{"Letter spacing", fmt.Sprintf("%gem", t.LetterSpacing)},
			{"Scale", fmt.Sprintf("%g", t.Scale)},
		},
	})
	md.PlainText("")

	if len(rec.Layout.Guidelines) > 0 {
		md.H3("Layout")
		md.PlainText("")
		if rec.Layout.MaxWidth != "" {
			md.PlainTextf("Max width `%s`, %s grid, %dpx spacing unit.", rec.Layout.MaxWidth, rec.Layout.Grid, rec.Layout.Spacing)
			md.PlainText("")
		}
		md.BulletList(rec.Layout.Guidelines...)
		md.PlainText("")
	}
}

// writeMarkdownFooter writes the report footer.
func writeMarkdownFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Report generated by [a11yscan](https://github.com/nao1215/a11yscan)*")
}

// tableCell escapes characters that would break a table row.
func tableCell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}

// codeCell renders s as inline code inside a table cell.
func codeCell(s string) string {
	return "`" + tableCell(strings.ReplaceAll(s, "`", "'")) + "`"
}
