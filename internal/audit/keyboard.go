package audit

import (
	"fmt"
	"strconv"

	"github.com/nao1215/a11yscan/internal/dom"
	"github.com/nao1215/a11yscan/internal/model"
	"github.com/nao1215/a11yscan/internal/ruleset"
)

var focusableSelector = dom.MustCompile("a, button, input, textarea, select, [tabindex]")

// naturallyFocusable are tags that receive keyboard focus without tabindex.
var naturallyFocusable = map[string]bool{
	"a":        true,
	"area":     true,
	"button":   true,
	"input":    true,
	"select":   true,
	"summary":  true,
	"textarea": true,
}

// KeyboardCheck flags positive tabindex values and click handlers on
// elements keyboard users cannot reach.
type KeyboardCheck struct{}

// NewKeyboardCheck creates a KeyboardCheck.
func NewKeyboardCheck() *KeyboardCheck {
	return &KeyboardCheck{}
}

// Name returns the check name.
func (c *KeyboardCheck) Name() string {
	return "keyboard"
}

// Evaluate runs the check.
func (c *KeyboardCheck) Evaluate(doc *dom.Document, _ *ruleset.Table) (Outcome, error) {
	var b outcomeBuilder
	for _, el := range doc.Elements() {
		if focusableSelector.Match(el) {
			if n, ok := tabindex(el); ok && n > 0 {
				b.add(model.RulePositiveTabindex,
					fmt.Sprintf("tabindex=%d overrides the natural focus order", n),
					el.Snippet())
			}
		}

		// Whether the handler is reachable by keyboard cannot be confirmed
		// statically, so this is only a suggestion.
		if el.HasAttr("onclick") && !naturallyFocusable[el.Tag()] && !el.HasAttr("tabindex") {
			b.add(model.RuleClickHandlerNotFocusable,
				fmt.Sprintf("<%s> has a click handler but cannot receive keyboard focus", el.Tag()),
				el.Snippet())
		}
	}
	return b.outcome(), nil
}

// tabindex parses the tabindex attribute. Malformed values count as absent.
func tabindex(el *dom.Node) (int, bool) {
	v := el.AttrValue("tabindex")
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
