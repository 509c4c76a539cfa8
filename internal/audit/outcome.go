package audit

import (
	"slices"

	"github.com/nao1215/a11yscan/internal/model"
)

// Outcome is the result of one check: its findings per bucket and the total
// penalty they carry. The zero value is an empty outcome.
type Outcome struct {
	critical    []model.Finding
	warnings    []model.Finding
	suggestions []model.Finding
	penalty     int
}

// Critical returns a copy of the critical findings.
func (o Outcome) Critical() []model.Finding { return slices.Clone(o.critical) }

// Warnings returns a copy of the warnings.
func (o Outcome) Warnings() []model.Finding { return slices.Clone(o.warnings) }

// Suggestions returns a copy of the suggestions.
func (o Outcome) Suggestions() []model.Finding { return slices.Clone(o.suggestions) }

// Penalty returns the sum of penalties of the findings.
func (o Outcome) Penalty() int { return o.penalty }

// Len returns the number of findings in all buckets.
func (o Outcome) Len() int {
	return len(o.critical) + len(o.warnings) + len(o.suggestions)
}

// merge returns a new Outcome with other's findings appended after o's.
func (o Outcome) merge(other Outcome) Outcome {
	return Outcome{
		critical:    slices.Concat(o.critical, other.critical),
		warnings:    slices.Concat(o.warnings, other.warnings),
		suggestions: slices.Concat(o.suggestions, other.suggestions),
		penalty:     o.penalty + other.penalty,
	}
}

// outcomeBuilder accumulates the findings of a single check.
// The bucket and penalty of a finding are taken from its rule.
type outcomeBuilder struct {
	out Outcome
}

func (b *outcomeBuilder) add(rule model.Rule, description, element string) {
	b.addFinding(model.NewFinding(rule, description, element))
}

func (b *outcomeBuilder) addFinding(f model.Finding) {
	rule := f.Kind()
	switch rule.Bucket() {
	case model.BucketCritical:
		b.out.critical = append(b.out.critical, f)
	case model.BucketWarning:
		b.out.warnings = append(b.out.warnings, f)
	default:
		b.out.suggestions = append(b.out.suggestions, f)
	}
	b.out.penalty += rule.Penalty()
}

func (b *outcomeBuilder) outcome() Outcome {
	return b.out
}

// NewOutcome builds an Outcome from findings, routing each to the bucket of
// its rule. It is intended for checks registered from outside this package.
func NewOutcome(findings ...model.Finding) Outcome {
	var b outcomeBuilder
	for _, f := range findings {
		b.addFinding(f)
	}
	return b.outcome()
}
