package audit

import (
	"fmt"
	"strings"

	"github.com/nao1215/a11yscan/internal/color"
	"github.com/nao1215/a11yscan/internal/dom"
	"github.com/nao1215/a11yscan/internal/model"
	"github.com/nao1215/a11yscan/internal/ruleset"
)

// colorProps are the properties that make an element a contrast candidate.
var colorProps = []string{"color", "background-color", "background"}

// textlessInputTypes are input types that render no text of their own.
var textlessInputTypes = map[string]bool{
	"hidden":   true,
	"checkbox": true,
	"radio":    true,
	"range":    true,
	"color":    true,
	"file":     true,
	"image":    true,
}

// ContrastCheck flags text whose color does not contrast enough with its
// background.
//
// Candidates are elements that declare a color or background and style some
// text themselves, or are form controls that render text (value, placeholder
// or options). Styled elements with no text are skipped. The foreground is the inherited color (default black),
// the background the nearest declared non-transparent background (default
// white). Large text (at least the table's large text size) uses the lower
// large-text threshold.
type ContrastCheck struct {
	level string
}

// NewContrastCheck creates a ContrastCheck for the given level ("AA" or "AAA").
func NewContrastCheck(level string) *ContrastCheck {
	return &ContrastCheck{level: level}
}

// Name returns the check name.
func (c *ContrastCheck) Name() string {
	return "contrast"
}

// Evaluate runs the check.
func (c *ContrastCheck) Evaluate(doc *dom.Document, table *ruleset.Table) (Outcome, error) {
	var b outcomeBuilder
	for _, el := range doc.Elements() {
		if !el.DeclaresStyle(colorProps...) || !(isTextControl(el) || el.OwnsText(colorProps...)) {
			continue
		}

		fg, bg := el.ResolvedColor(), el.ResolvedBackground()
		size := el.ResolvedFontSize()
		required := table.ContrastFor(c.level, table.IsLargeText(size))
		ratio := color.Contrast(fg, bg)
		if ratio >= required {
			continue
		}

		b.add(model.RuleLowContrast,
			fmt.Sprintf("Contrast ratio %.2f:1 of %s on %s at %gpx is below the required %g:1",
				color.RoundRatio(ratio), fg, bg, size, required),
			el.Snippet())
	}
	return b.outcome(), nil
}

// isTextControl reports whether el is a form control that displays text.
func isTextControl(el *dom.Node) bool {
	switch el.Tag() {
	case "textarea", "select", "button":
		return true
	case "input":
		return !textlessInputTypes[strings.ToLower(el.AttrValue("type"))]
	}
	return false
}
