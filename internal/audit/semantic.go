package audit

import (
	"fmt"
	"slices"
	"strings"

	"github.com/nao1215/a11yscan/internal/dom"
	"github.com/nao1215/a11yscan/internal/model"
	"github.com/nao1215/a11yscan/internal/ruleset"
)

const (
	// landmarkDivThreshold is the div count above which landmarks are expected.
	landmarkDivThreshold = 10

	// minLandmarks is the landmark count expected on a div-heavy page.
	minLandmarks = 3
)

// ownedAttributes lists tag/attribute pairs reported by a dedicated check.
// SemanticCheck skips them so a single defect is reported once.
var ownedAttributes = map[string][]string{
	"img": {"alt"}, // ImageCheck
}

// SemanticCheck flags elements that lack attributes the rule table marks as
// required, and div-heavy pages that use too few landmark elements.
type SemanticCheck struct{}

// NewSemanticCheck creates a SemanticCheck.
func NewSemanticCheck() *SemanticCheck {
	return &SemanticCheck{}
}

// Name returns the check name.
func (c *SemanticCheck) Name() string {
	return "semantic"
}

// Evaluate runs the check.
func (c *SemanticCheck) Evaluate(doc *dom.Document, table *ruleset.Table) (Outcome, error) {
	var b outcomeBuilder

	divs, landmarks := 0, 0
	for _, el := range doc.Elements() {
		tag := el.Tag()
		if tag == "div" {
			divs++
		}
		if slices.Contains(table.Landmarks, tag) {
			landmarks++
		}

		required, ok := table.RequiredAttributes[tag]
		if !ok {
			continue
		}
		var missing []string
		for _, attr := range required {
			if slices.Contains(ownedAttributes[tag], attr) {
				continue
			}
			if !el.HasAttr(attr) {
				missing = append(missing, attr)
			}
		}
		if len(missing) > 0 {
			b.add(model.RuleMissingRequiredAttribute,
				fmt.Sprintf("<%s> is missing required attribute(s): %s", tag, strings.Join(missing, ", ")),
				el.Snippet())
		}
	}

	if divs > landmarkDivThreshold && landmarks < minLandmarks {
		b.add(model.RuleInsufficientLandmarks,
			fmt.Sprintf("Page uses %d div elements but only %d landmark elements", divs, landmarks),
			"")
	}
	return b.outcome(), nil
}
