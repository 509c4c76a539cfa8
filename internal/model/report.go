package model

import (
	"slices"
	"time"
)

// WCAGVersion is the WCAG revision the rule set is derived from.
const WCAGVersion = "2.1"

// MaxScore is the score of a document without any penalised finding.
const MaxScore = 100

// Level is the WCAG conformance level an audit was run against.
type Level string

const (
	// LevelAA is the default conformance target.
	LevelAA Level = "AA"

	// LevelAAA raises the contrast thresholds.
	LevelAAA Level = "AAA"
)

// ParseLevel validates a level name. The second return value is false for
// anything other than "AA" or "AAA".
func ParseLevel(s string) (Level, bool) {
	switch Level(s) {
	case LevelAA:
		return LevelAA, true
	case LevelAAA:
		return LevelAAA, true
	default:
		return "", false
	}
}

// Summary is the numeric overview of a report.
type Summary struct {
	// Score is the clamped score in [0, 100].
	Score int `json:"score"`

	// Grade is the letter grade derived from Score.
	Grade string `json:"grade"`

	// GradeLabel is the human-readable qualifier of Grade.
	GradeLabel string `json:"gradeLabel"`

	// TotalIssues counts critical findings and warnings. Suggestions are
	// advisory and excluded.
	TotalIssues int `json:"totalIssues"`

	// CriticalCount is the number of critical findings.
	CriticalCount int `json:"criticalCount"`

	// WarningCount is the number of warnings.
	WarningCount int `json:"warningCount"`

	// SuggestionCount is the number of suggestions.
	SuggestionCount int `json:"suggestionCount"`
}

// Report is the result of one audit run.
//
// Design decision: The JSON shape is a public contract consumed by the
// design generator and external tooling. New fields must be additive; the
// three finding arrays are always present (never null) so consumers can
// iterate without nil checks.
type Report struct {
	Summary     Summary   `json:"summary"`
	Critical    []Finding `json:"critical"`
	Warnings    []Finding `json:"warnings"`
	Suggestions []Finding `json:"suggestions"`
	Timestamp   time.Time `json:"timestamp"`
	WCAGVersion string    `json:"wcagVersion"`

	// Level is the conformance level the audit was run against.
	Level Level `json:"level,omitempty"`
}

// ReportOption configures optional Report fields in BuildReport.
type ReportOption func(*Report)

// WithLevel records the conformance level on the report.
func WithLevel(level Level) ReportOption {
	return func(r *Report) {
		r.Level = level
	}
}

// BuildReport assembles a report from the bucketed findings and the raw
// accumulated score. The raw score may be negative; the report shows
// max(0, score). The input slices are copied so that later changes by the
// caller do not leak into the report.
func BuildReport(critical, warnings, suggestions []Finding, score int, at time.Time, opts ...ReportOption) *Report {
	clamped := ClampScore(score)
	grade := GradeFor(clamped)

	r := &Report{
		Summary: Summary{
			Score:           clamped,
			Grade:           grade.Letter,
			GradeLabel:      grade.Label,
			TotalIssues:     len(critical) + len(warnings),
			CriticalCount:   len(critical),
			WarningCount:    len(warnings),
			SuggestionCount: len(suggestions),
		},
		Critical:    cloneFindings(critical),
		Warnings:    cloneFindings(warnings),
		Suggestions: cloneFindings(suggestions),
		Timestamp:   at.UTC(),
		WCAGVersion: WCAGVersion,
	}

	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ClampScore bounds a raw score to [0, MaxScore].
func ClampScore(score int) int {
	return min(max(score, 0), MaxScore)
}

// Findings returns all findings in display order: critical, warnings, suggestions.
func (r *Report) Findings() []Finding {
	all := make([]Finding, 0, len(r.Critical)+len(r.Warnings)+len(r.Suggestions))
	all = append(all, r.Critical...)
	all = append(all, r.Warnings...)
	all = append(all, r.Suggestions...)
	return all
}

// Penalty returns the sum of rule penalties over every finding in the report.
// For a freshly built report Summary.Score == max(0, MaxScore - Penalty()).
func (r *Report) Penalty() int {
	total := 0
	for _, f := range r.Findings() {
		total += f.Kind().Penalty()
	}
	return total
}

// HasCritical reports whether the report contains at least one critical finding.
func (r *Report) HasCritical() bool {
	return len(r.Critical) > 0
}

func cloneFindings(in []Finding) []Finding {
	if in == nil {
		return []Finding{}
	}
	return slices.Clone(in)
}

// Grade is a rung of the score ladder.
type Grade struct {
	// Letter is the short grade shown in summaries.
	Letter string

	// Label is the human-readable qualifier.
	Label string

	// MinScore is the lowest score that earns this grade.
	MinScore int
}

// gradeLadder is ordered from best to worst; the first rung whose MinScore
// is reached wins.
var gradeLadder = []Grade{
	{Letter: "AAA", Label: "Excellent", MinScore: 90},
	{Letter: "AA", Label: "Good", MinScore: 80},
	{Letter: "A", Label: "Fair", MinScore: 70},
	{Letter: "B", Label: "Needs improvement", MinScore: 60},
	{Letter: "C", Label: "Poor", MinScore: 0},
}

// GradeFor maps a clamped score to its grade.
func GradeFor(score int) Grade {
	for _, g := range gradeLadder {
		if score >= g.MinScore {
			return g
		}
	}
	return gradeLadder[len(gradeLadder)-1]
}

// Grades returns the grade ladder from best to worst.
func Grades() []Grade {
	return slices.Clone(gradeLadder)
}
