package audit

import (
	"fmt"
	"strings"

	"github.com/nao1215/a11yscan/internal/dom"
	"github.com/nao1215/a11yscan/internal/model"
	"github.com/nao1215/a11yscan/internal/ruleset"
)

// AriaCheck flags a missing main landmark and aria-labelledby references to
// ids that do not exist.
type AriaCheck struct{}

// NewAriaCheck creates an AriaCheck.
func NewAriaCheck() *AriaCheck {
	return &AriaCheck{}
}

// Name returns the check name.
func (c *AriaCheck) Name() string {
	return "aria"
}

// Evaluate runs the check.
func (c *AriaCheck) Evaluate(doc *dom.Document, _ *ruleset.Table) (Outcome, error) {
	var b outcomeBuilder

	if doc.Count(`main, [role="main"]`) == 0 {
		b.add(model.RuleMissingMainLandmark, "Document has no main landmark", "")
	}

	for _, el := range doc.Query("[aria-labelledby]") {
		// aria-labelledby holds a space-separated id list.
		var missing []string
		for _, id := range strings.Fields(el.AttrValue("aria-labelledby")) {
			if !doc.HasID(id) {
				missing = append(missing, id)
			}
		}
		if len(missing) == 0 {
			continue
		}
		b.add(model.RuleBrokenAriaLabelledby,
			fmt.Sprintf("aria-labelledby references missing id(s): %s", strings.Join(missing, ", ")),
			el.Snippet())
	}

	return b.outcome(), nil
}
