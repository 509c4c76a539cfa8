package audit

import (
	"fmt"

	"github.com/nao1215/a11yscan/internal/dom"
	"github.com/nao1215/a11yscan/internal/model"
	"github.com/nao1215/a11yscan/internal/ruleset"
)

// FontSizeCheck flags elements that declare a font size below the desktop
// minimum. Only declared sizes count, so one small declaration is reported
// once rather than on every descendant that inherits it.
type FontSizeCheck struct{}

// NewFontSizeCheck creates a FontSizeCheck.
func NewFontSizeCheck() *FontSizeCheck {
	return &FontSizeCheck{}
}

// Name returns the check name.
func (c *FontSizeCheck) Name() string {
	return "font-size"
}

// Evaluate runs the check.
func (c *FontSizeCheck) Evaluate(doc *dom.Document, table *ruleset.Table) (Outcome, error) {
	var b outcomeBuilder
	for _, el := range doc.Elements() {
		px, ok := el.DeclaredFontSize()
		if !ok || px >= table.FontSize.Desktop {
			continue
		}
		b.add(model.RuleSmallFontSize,
			fmt.Sprintf("Font size %gpx is below the %gpx minimum", px, table.FontSize.Desktop),
			el.Snippet())
	}
	return b.outcome(), nil
}
