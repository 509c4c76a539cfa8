package audit

import (
	"strings"

	"github.com/nao1215/a11yscan/internal/dom"
	"github.com/nao1215/a11yscan/internal/model"
	"github.com/nao1215/a11yscan/internal/ruleset"
)

// ImageCheck flags images without a text alternative and empty alternatives
// that are not explicitly marked decorative.
type ImageCheck struct{}

// NewImageCheck creates an ImageCheck.
func NewImageCheck() *ImageCheck {
	return &ImageCheck{}
}

// Name returns the check name.
func (c *ImageCheck) Name() string {
	return "images"
}

// Evaluate runs the check.
func (c *ImageCheck) Evaluate(doc *dom.Document, _ *ruleset.Table) (Outcome, error) {
	var b outcomeBuilder
	for _, img := range doc.Query("img") {
		alt, ok := img.Attr("alt")
		switch {
		case !ok:
			b.add(model.RuleMissingAlt, "Image has no alt attribute", img.Snippet())
		case strings.TrimSpace(alt) == "" && !img.HasAttr("role") && !img.HasAttr("aria-hidden"):
			b.add(model.RuleEmptyAltUnmarked,
				`Image has alt="" but is not marked decorative with role or aria-hidden`,
				img.Snippet())
		}
	}
	return b.outcome(), nil
}
