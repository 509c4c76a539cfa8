package audit

import (
	"fmt"

	"github.com/nao1215/a11yscan/internal/dom"
	"github.com/nao1215/a11yscan/internal/model"
	"github.com/nao1215/a11yscan/internal/ruleset"
)

// HeadingCheck flags a missing or repeated h1 and skipped heading levels.
type HeadingCheck struct{}

// NewHeadingCheck creates a HeadingCheck.
func NewHeadingCheck() *HeadingCheck {
	return &HeadingCheck{}
}

// Name returns the check name.
func (c *HeadingCheck) Name() string {
	return "headings"
}

// Evaluate runs the check.
func (c *HeadingCheck) Evaluate(doc *dom.Document, _ *ruleset.Table) (Outcome, error) {
	var b outcomeBuilder

	switch h1 := doc.Count("h1"); {
	case h1 == 0:
		b.add(model.RuleMissingH1, "Document has no h1 heading", "")
	case h1 > 1:
		b.add(model.RuleMultipleH1, fmt.Sprintf("Document has %d h1 headings", h1), "")
	}

	prev := 0
	for _, h := range doc.Query("h1, h2, h3, h4, h5, h6") {
		level := int(h.Tag()[1] - '0')
		if prev > 0 && level > prev+1 {
			b.add(model.RuleHeadingLevelSkipped,
				fmt.Sprintf("Heading level jumps from h%d to h%d", prev, level),
				h.Snippet())
		}
		prev = level
	}

	return b.outcome(), nil
}
