package model

// Finding is a single rule violation or advisory observation.
// Findings are values; once a check returns them they are never modified.
type Finding struct {
	// Rule is the canonical rule key, see Rule.Key.
	Rule string `json:"rule"`

	// Description explains what was found on this particular element.
	Description string `json:"description"`

	// Element is a short markup snippet identifying the offending element.
	// Document-level findings (such as a missing h1) leave it empty.
	Element string `json:"element,omitempty"`

	// Suggestion is the remediation text for this finding.
	Suggestion string `json:"suggestion"`
}

// NewFinding creates a finding for rule with the rule's default suggestion.
func NewFinding(rule Rule, description, element string) Finding {
	return Finding{
		Rule:        rule.Key(),
		Description: description,
		Element:     element,
		Suggestion:  rule.Remediation().Fix,
	}
}

// Kind returns the Rule the finding was produced by.
// Findings loaded from reports written by other versions may return RuleUnknown.
func (f Finding) Kind() Rule {
	return LookupRule(f.Rule)
}
