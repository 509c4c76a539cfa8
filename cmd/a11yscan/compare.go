package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/spf13/cobra"

	"github.com/nao1215/a11yscan/internal/config"
	"github.com/nao1215/a11yscan/internal/database"
	"github.com/nao1215/a11yscan/internal/model"
)

// Constants for score direction and summary messages.
const (
	directionWorsened  = "worsened"
	directionImproved  = "improved"
	directionUnchanged = "unchanged"
	noFindingsMessage  = "No findings"
)

// NewCompareCmd creates the compare command.
// This command compares audit results with historical data stored in the database.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [target]",
		Short: "Compare audit results with historical data",
		Long: `Compare displays differences between the latest and a previous audit of a target.

This command retrieves report history from the database and shows:
- The score and grade change
- New findings that appeared since the previous audit
- Resolved findings that are no longer present
- Changes in critical, warning and suggestion counts

The comparison requires at least two audits of the target in the database.
Use 'a11yscan scan' to audit targets and save results.

Examples:
  # Compare the latest two audits of a page
  a11yscan compare https://example.com/

  # List audit history for a target
  a11yscan compare --list index.html

  # Compare with a specific historical audit by ID
  a11yscan compare --with-id 5 index.html

  # Compare with the first audit since a date
  a11yscan compare --since 2026-01-01 index.html

  # Show how often one rule fired over time
  a11yscan compare --rule missing_alt index.html

  # List all audited targets
  a11yscan compare --list-targets`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCompareCmd,
	}

	// History listing flags
	cmd.Flags().BoolP("list", "l", false,
		"List audit history for the specified target")
	cmd.Flags().BoolP("list-targets", "L", false,
		"List all audited targets in the database")
	cmd.Flags().String("rule", "",
		"Show the count of one rule (e.g. missing_alt) across the target's history")

	// Comparison target flags
	cmd.Flags().Int64P("with-id", "i", 0,
		"Compare with a specific audit by ID (use --list to see available IDs)")
	cmd.Flags().StringP("since", "s", "",
		"Compare with the first audit at or after this date (format: YYYY-MM-DD)")

	// Output format flags
	cmd.Flags().BoolP("json", "j", false,
		"Output comparison result in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output comparison result in Markdown format")

	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the history database")

	return cmd
}

// runCompareCmd executes the compare command.
func runCompareCmd(cmd *cobra.Command, args []string) error {
	listTargets, err := cmd.Flags().GetBool("list-targets")
	if err != nil {
		return err
	}

	// Validate arguments before opening the database.
	var target string
	if !listTargets {
		if len(args) == 0 {
			return errors.New("target is required (use --list-targets to see audited targets)")
		}
		target = args[0]
	}

	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}

	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false
	db, err := database.Open(dbDir, opts)
	if err != nil {
		if errors.Is(err, database.ErrDatabaseNotFound) {
			return fmt.Errorf("%w (run 'a11yscan scan' first)", err)
		}
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if listTargets {
		return listAuditedTargets(ctx, out, db)
	}

	listHistory, err := cmd.Flags().GetBool("list")
	if err != nil {
		return err
	}
	if listHistory {
		return listAuditHistory(ctx, out, db, target)
	}

	rule, err := cmd.Flags().GetString("rule")
	if err != nil {
		return err
	}
	if rule != "" {
		return showRuleTrend(ctx, out, db, target, rule)
	}

	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	if jsonOutput && markdownOutput {
		return config.ErrConflictingReportFormats
	}

	withID, err := cmd.Flags().GetInt64("with-id")
	if err != nil {
		return err
	}
	since, err := cmd.Flags().GetString("since")
	if err != nil {
		return err
	}

	result, err := runComparison(ctx, db, target, withID, since)
	if err != nil {
		return err
	}

	switch {
	case jsonOutput:
		return outputComparisonJSON(out, result)
	case markdownOutput:
		return outputComparisonMarkdown(out, result)
	default:
		return outputComparisonText(out, result)
	}
}

// listAuditedTargets lists all targets that have reports in the database.
func listAuditedTargets(ctx context.Context, out io.Writer, db *database.HistoryDB) error {
	targets, err := db.ListTargets(ctx)
	if err != nil {
		return fmt.Errorf("failed to list targets: %w", err)
	}

	if len(targets) == 0 {
		fmt.Fprintln(out, "No audited targets found in the database.")
		fmt.Fprintln(out, "\nUse 'a11yscan scan <target>' to audit a page.")
		return nil
	}

	fmt.Fprintf(out, "Audited targets (%d):\n\n", len(targets))
	for _, target := range targets {
		fmt.Fprintf(out, "  • %s\n", target)
	}
	fmt.Fprintln(out, "\nUse 'a11yscan compare --list <target>' to see the audit history of a target.")

	return nil
}

// listAuditHistory lists all reports stored for a target.
func listAuditHistory(ctx context.Context, out io.Writer, db *database.HistoryDB, target string) error {
	history, err := db.GetHistory(ctx, target)
	if err != nil {
		return fmt.Errorf("failed to get audit history: %w", err)
	}

	if len(history) == 0 {
		fmt.Fprintf(out, "No audit history found for %s\n", target)
		fmt.Fprintln(out, "\nUse 'a11yscan scan' to audit this target.")
		return nil
	}

	fmt.Fprintf(out, "Audit history for %s (%d audits):\n\n", target, len(history))
	fmt.Fprintf(out, "  %-6s  %-20s  %-5s  %-5s  %s\n", "ID", "Date", "Score", "Grade", "Findings")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 60))

	for _, meta := range history {
		fmt.Fprintf(out, "  %-6d  %-20s  %-5d  %-5s  %s\n",
			meta.ID,
			meta.Timestamp.Format("2006-01-02 15:04:05"),
			meta.Score,
			meta.Grade,
			formatBucketSummary(meta.Summary),
		)
	}

	fmt.Fprintln(out, "\nUse 'a11yscan compare <target>' to compare the latest two audits.")
	fmt.Fprintln(out, "Use 'a11yscan compare --with-id <id> <target>' to compare with a specific audit.")

	return nil
}

// showRuleTrend prints the count of one rule for every stored run.
func showRuleTrend(ctx context.Context, out io.Writer, db *database.HistoryDB, target, rule string) error {
	if model.LookupRule(rule) == model.RuleUnknown {
		return fmt.Errorf("unknown rule %q", rule)
	}

	trend, err := db.RuleTrend(ctx, target, rule)
	if err != nil {
		return err
	}
	if len(trend) == 0 {
		fmt.Fprintf(out, "No audit history found for %s\n", target)
		return nil
	}

	fmt.Fprintf(out, "%s for %s (%d audits):\n\n", rule, target, len(trend))
	for _, rc := range trend {
		fmt.Fprintf(out, "  %-20s  %4d  %s\n",
			rc.Timestamp.Format("2006-01-02 15:04:05"), rc.Count, strings.Repeat("█", min(rc.Count, 40)))
	}
	return nil
}

// formatBucketSummary formats the bucket counts into a short string.
func formatBucketSummary(summary map[string]int) string {
	if summary == nil {
		return "N/A"
	}

	var parts []string
	if v := summary["critical"]; v > 0 {
		parts = append(parts, fmt.Sprintf("C:%d", v))
	}
	if v := summary["warning"]; v > 0 {
		parts = append(parts, fmt.Sprintf("W:%d", v))
	}
	if v := summary["suggestion"]; v > 0 {
		parts = append(parts, fmt.Sprintf("S:%d", v))
	}

	if len(parts) == 0 {
		return noFindingsMessage
	}
	return strings.Join(parts, " ")
}

// runComparison selects the two reports to compare and compares them.
func runComparison(ctx context.Context, db *database.HistoryDB, target string, withID int64, since string) (*ComparisonResult, error) {
	history, err := db.GetHistory(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("failed to get audit history: %w", err)
	}

	if len(history) == 0 {
		return nil, fmt.Errorf("no audit history found for %s", target)
	}

	if len(history) < 2 && withID == 0 && since == "" {
		return nil, fmt.Errorf("at least 2 audits are required for comparison (found %d)", len(history))
	}

	// The latest report is always the current one.
	currentMeta := history[0]
	var previousID int64

	switch {
	case withID > 0:
		previousID = withID
	case since != "":
		parsed, err := time.Parse("2006-01-02", since)
		if err != nil {
			return nil, fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", err)
		}
		// History is newest first, so walk it backwards to find the
		// oldest report at or after the date.
		for i := len(history) - 1; i >= 0; i-- {
			if !history[i].Timestamp.Before(parsed) {
				previousID = history[i].ID
				break
			}
		}
		if previousID == 0 {
			return nil, fmt.Errorf("no audits found since %s", since)
		}
		if previousID == currentMeta.ID {
			return nil, fmt.Errorf("only one audit found since %s; at least 2 audits are required for comparison", since)
		}
	default:
		previousID = history[1].ID
	}

	previous, err := db.GetReportByID(ctx, previousID)
	if err != nil {
		return nil, fmt.Errorf("failed to get audit with ID %d: %w", previousID, err)
	}
	if previous == nil {
		return nil, fmt.Errorf("audit with ID %d not found", previousID)
	}
	if previous.Target != target {
		return nil, fmt.Errorf("audit ID %d belongs to %s, not %s", previousID, previous.Target, target)
	}

	current, err := db.GetReportByID(ctx, currentMeta.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get audit with ID %d: %w", currentMeta.ID, err)
	}
	if current == nil {
		return nil, fmt.Errorf("audit with ID %d not found", currentMeta.ID)
	}

	return compareReports(previous, current), nil
}

// ComparisonResult holds the result of comparing two reports.
type ComparisonResult struct {
	// Target is the audited file or URL.
	Target string `json:"target"`

	// Previous contains metadata about the previous audit.
	Previous AuditMetadata `json:"previous"`

	// Current contains metadata about the current audit.
	Current AuditMetadata `json:"current"`

	// NewFindings contains findings that are new in the current audit.
	NewFindings []model.Finding `json:"new_findings,omitempty"`

	// ResolvedFindings contains findings that were in the previous audit but not in current.
	ResolvedFindings []model.Finding `json:"resolved_findings,omitempty"`

	// UnchangedCount is the number of findings present in both audits.
	UnchangedCount int `json:"unchanged_count"`

	// Change describes the overall change.
	Change Change `json:"change"`
}

// AuditMetadata contains metadata about one audit for comparison display.
type AuditMetadata struct {
	ID              int64     `json:"id"`
	RunID           string    `json:"run_id"`
	Timestamp       time.Time `json:"timestamp"`
	Score           int       `json:"score"`
	Grade           string    `json:"grade"`
	CriticalCount   int       `json:"critical_count"`
	WarningCount    int       `json:"warning_count"`
	SuggestionCount int       `json:"suggestion_count"`
	TotalFindings   int       `json:"total_findings"`
}

// Change describes the difference between two audits.
type Change struct {
	// Direction is "improved", "worsened", or "unchanged".
	Direction string `json:"direction"`

	ScoreDelta      int `json:"score_delta"`
	CriticalDelta   int `json:"critical_delta"`
	WarningDelta    int `json:"warning_delta"`
	SuggestionDelta int `json:"suggestion_delta"`
}

func newAuditMetadata(sr *database.StoredReport) AuditMetadata {
	s := sr.Report.Summary
	return AuditMetadata{
		ID:              sr.ID,
		RunID:           sr.RunID,
		Timestamp:       sr.Report.Timestamp,
		Score:           s.Score,
		Grade:           s.Grade,
		CriticalCount:   s.CriticalCount,
		WarningCount:    s.WarningCount,
		SuggestionCount: s.SuggestionCount,
		TotalFindings:   len(sr.Report.Findings()),
	}
}

// compareReports compares two stored reports.
// Findings are matched by rule, element and description. Repeated
// identical findings are matched one for one, and output keeps report order.
func compareReports(previous, current *database.StoredReport) *ComparisonResult {
	result := &ComparisonResult{
		Target:   current.Target,
		Previous: newAuditMetadata(previous),
		Current:  newAuditMetadata(current),
	}

	remaining := make(map[string]int)
	for _, f := range previous.Report.Findings() {
		remaining[findingKey(f)]++
	}
	for _, f := range current.Report.Findings() {
		key := findingKey(f)
		if remaining[key] > 0 {
			remaining[key]--
			result.UnchangedCount++
			continue
		}
		result.NewFindings = append(result.NewFindings, f)
	}

	// Whatever was not matched has been resolved.
	for _, f := range previous.Report.Findings() {
		key := findingKey(f)
		if remaining[key] > 0 {
			remaining[key]--
			result.ResolvedFindings = append(result.ResolvedFindings, f)
		}
	}

	result.Change = calculateChange(result.Previous, result.Current)
	return result
}

// findingKey generates a key for a finding for comparison purposes.
func findingKey(f model.Finding) string {
	return f.Rule + "|" + f.Element + "|" + f.Description
}

// calculateChange calculates the change between two audits.
// The direction follows the score; on equal scores fewer critical issues,
// then fewer warnings, count as an improvement.
func calculateChange(previous, current AuditMetadata) Change {
	change := Change{
		ScoreDelta:      current.Score - previous.Score,
		CriticalDelta:   current.CriticalCount - previous.CriticalCount,
		WarningDelta:    current.WarningCount - previous.WarningCount,
		SuggestionDelta: current.SuggestionCount - previous.SuggestionCount,
	}

	decider := change.ScoreDelta
	if decider == 0 {
		decider = -change.CriticalDelta
	}
	if decider == 0 {
		decider = -change.WarningDelta
	}

	switch {
	case decider > 0:
		change.Direction = directionImproved
	case decider < 0:
		change.Direction = directionWorsened
	default:
		change.Direction = directionUnchanged
	}
	return change
}

// outputComparisonJSON outputs the comparison result in JSON format.
func outputComparisonJSON(out io.Writer, result *ComparisonResult) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// outputComparisonMarkdown outputs the comparison result in Markdown format.
func outputComparisonMarkdown(out io.Writer, result *ComparisonResult) error {
	md := markdown.NewMarkdown(out)
	prev, cur, ch := result.Previous, result.Current, result.Change

	md.H1("Audit Comparison: " + result.Target)
	md.PlainText("")
	md.H2("Summary")
	md.PlainText("")
	md.PlainText("**Status:** " + formatDirection(ch.Direction))
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Previous", "Current", "Change"},
		Rows: [][]string{
			{"Date", prev.Timestamp.Format("2006-01-02 15:04"), cur.Timestamp.Format("2006-01-02 15:04"), "-"},
			{"Score", strconv.Itoa(prev.Score), strconv.Itoa(cur.Score), formatDelta(ch.ScoreDelta)},
			{"Grade", prev.Grade, cur.Grade, "-"},
			{"Critical", strconv.Itoa(prev.CriticalCount), strconv.Itoa(cur.CriticalCount), formatDelta(ch.CriticalDelta)},
			{"Warning", strconv.Itoa(prev.WarningCount), strconv.Itoa(cur.WarningCount), formatDelta(ch.WarningDelta)},
			{"Suggestion", strconv.Itoa(prev.SuggestionCount), strconv.Itoa(cur.SuggestionCount), formatDelta(ch.SuggestionDelta)},
			{
				"**Total**",
				"**" + strconv.Itoa(prev.TotalFindings) + "**",
				"**" + strconv.Itoa(cur.TotalFindings) + "**",
				"**" + formatDelta(cur.TotalFindings-prev.TotalFindings) + "**",
			},
		},
	})
	md.PlainText("")

	if len(result.NewFindings) > 0 {
		md.H2(fmt.Sprintf("New Findings (%d)", len(result.NewFindings)))
		md.PlainText("")
		md.BulletList(findingLines(result.NewFindings, false)...)
		md.PlainText("")
	}

	if len(result.ResolvedFindings) > 0 {
		md.H2(fmt.Sprintf("Resolved Findings (%d)", len(result.ResolvedFindings)))
		md.PlainText("")
		md.BulletList(findingLines(result.ResolvedFindings, true)...)
		md.PlainText("")
	}

	if result.UnchangedCount > 0 {
		md.PlainText(fmt.Sprintf("*%d findings unchanged*", result.UnchangedCount))
	}

	return md.Build()
}

// findingLines renders findings as Markdown list items.
func findingLines(findings []model.Finding, struck bool) []string {
	lines := make([]string, 0, len(findings))
	for _, f := range findings {
		line := fmt.Sprintf("**[%s]** `%s`: %s", f.Kind().Bucket(), f.Rule, f.Description)
		if struck {
			line = "~~" + line + "~~"
		}
		if f.Element != "" && !struck {
			line += fmt.Sprintf(" (`%s`)", strings.ReplaceAll(f.Element, "`", "'"))
		}
		lines = append(lines, line)
	}
	return lines
}

// outputComparisonText outputs the comparison result in human-readable text format.
func outputComparisonText(out io.Writer, result *ComparisonResult) error {
	prev, cur, ch := result.Previous, result.Current, result.Change

	fmt.Fprintf(out, "Audit Comparison: %s\n", result.Target)
	fmt.Fprintln(out, strings.Repeat("=", 60))

	fmt.Fprintf(out, "\nStatus: %s\n", formatDirection(ch.Direction))
	fmt.Fprintf(out, "\nPrevious audit: %s (score %d, grade %s)\n",
		prev.Timestamp.Format("2006-01-02 15:04:05"), prev.Score, prev.Grade)
	fmt.Fprintf(out, "Current audit:  %s (score %d, grade %s)\n",
		cur.Timestamp.Format("2006-01-02 15:04:05"), cur.Score, cur.Grade)

	fmt.Fprintln(out, "\nFindings Summary:")
	fmt.Fprintf(out, "  %-10s  %-10s  %-10s  %-10s\n", "Bucket", "Previous", "Current", "Change")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 45))
	rows := []struct {
		name      string
		prev, cur int
		delta     int
	}{
		{"Critical", prev.CriticalCount, cur.CriticalCount, ch.CriticalDelta},
		{"Warning", prev.WarningCount, cur.WarningCount, ch.WarningDelta},
		{"Suggestion", prev.SuggestionCount, cur.SuggestionCount, ch.SuggestionDelta},
	}
	for _, r := range rows {
		fmt.Fprintf(out, "  %-10s  %-10d  %-10d  %-10s\n", r.name, r.prev, r.cur, formatDelta(r.delta))
	}
	fmt.Fprintln(out, "  "+strings.Repeat("-", 45))
	fmt.Fprintf(out, "  %-10s  %-10d  %-10d  %-10s\n", "Total",
		prev.TotalFindings, cur.TotalFindings, formatDelta(cur.TotalFindings-prev.TotalFindings))

	if len(result.NewFindings) > 0 {
		fmt.Fprintf(out, "\nNew Findings (%d):\n", len(result.NewFindings))
		for _, f := range result.NewFindings {
			fmt.Fprintf(out, "  [+] [%s] %s: %s\n", f.Kind().Bucket(), f.Rule, f.Description)
			if f.Element != "" {
				fmt.Fprintf(out, "      Element: %s\n", f.Element)
			}
		}
	}

	if len(result.ResolvedFindings) > 0 {
		fmt.Fprintf(out, "\nResolved Findings (%d):\n", len(result.ResolvedFindings))
		for _, f := range result.ResolvedFindings {
			fmt.Fprintf(out, "  [-] [%s] %s: %s\n", f.Kind().Bucket(), f.Rule, f.Description)
		}
	}

	if result.UnchangedCount > 0 {
		fmt.Fprintf(out, "\nUnchanged: %d findings\n", result.UnchangedCount)
	}

	return nil
}

// formatDirection formats the change direction for display.
func formatDirection(direction string) string {
	switch direction {
	case directionImproved:
		return "IMPROVED (accessibility got better)"
	case directionWorsened:
		return "WORSENED (accessibility got worse)"
	default:
		return "UNCHANGED"
	}
}

// formatDelta formats a numeric delta with sign for display.
func formatDelta(delta int) string {
	if delta > 0 {
		return "+" + strconv.Itoa(delta)
	} else if delta < 0 {
		return strconv.Itoa(delta)
	}
	return "0"
}
