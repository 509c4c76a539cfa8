package audit

import (
	"fmt"
	"strings"

	"github.com/nao1215/a11yscan/internal/dom"
	"github.com/nao1215/a11yscan/internal/model"
	"github.com/nao1215/a11yscan/internal/ruleset"
)

// unlabeledTypes are input types that need no label: they are invisible or
// carry their own text.
var unlabeledTypes = map[string]bool{
	"hidden": true,
	"submit": true,
	"button": true,
}

// requiredMarkers are the texts accepted as a visible "required" indicator.
var requiredMarkers = []string{"required", "필수", "*"}

// FormCheck flags form controls without a programmatic label and required
// controls whose requirement is not announced.
type FormCheck struct{}

// NewFormCheck creates a FormCheck.
func NewFormCheck() *FormCheck {
	return &FormCheck{}
}

// Name returns the check name.
func (c *FormCheck) Name() string {
	return "forms"
}

// Evaluate runs the check.
func (c *FormCheck) Evaluate(doc *dom.Document, _ *ruleset.Table) (Outcome, error) {
	var b outcomeBuilder

	labelled := make(map[string]bool)
	for _, label := range doc.Query("label[for]") {
		if id := label.AttrValue("for"); id != "" {
			labelled[id] = true
		}
	}

	for _, ctl := range doc.Query("input, textarea, select") {
		if unlabeledTypes[strings.ToLower(ctl.AttrValue("type"))] {
			continue
		}
		if id := ctl.ID(); id != "" && labelled[id] {
			continue
		}
		if ctl.AttrValue("aria-label") != "" || ctl.AttrValue("aria-labelledby") != "" {
			continue
		}
		b.add(model.RuleUnlabeledFormControl,
			fmt.Sprintf("<%s> has no associated label, aria-label or aria-labelledby", ctl.Tag()),
			ctl.Snippet())
	}

	marked := make(map[*dom.Node]bool)
	for _, el := range doc.Query("[required]") {
		if el.HasAttr("aria-required") {
			continue
		}
		scope := el.Closest("form")
		if scope == nil {
			scope = doc.Body()
		}
		has, seen := marked[scope]
		if !seen {
			has = hasRequiredMarker(scope)
			marked[scope] = has
		}
		if has {
			continue
		}
		b.add(model.RuleRequiredNotIndicated,
			fmt.Sprintf("Required <%s> has no aria-required and no visible required marker", el.Tag()),
			el.Snippet())
	}

	return b.outcome(), nil
}

// hasRequiredMarker searches the text of scope for a required indicator.
// It is a heuristic: the marker is not tied to a particular control.
func hasRequiredMarker(scope *dom.Node) bool {
	if scope == nil {
		return false
	}
	text := strings.ToLower(scope.Text())
	for _, m := range requiredMarkers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}
