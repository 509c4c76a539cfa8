package model

// Rule enumerates every kind of finding the audit engine can produce.
// Each value carries its canonical key (the "rule" field in reports), the
// bucket it is reported under, a fixed score penalty and the remediation text
// shown to users.
//
// Design decision: We use a closed enumeration backed by a table indexed by
// the enum value rather than a free-form map keyed by strings. The table
// gives one place to read penalties and remediation, and TestRuleTableComplete
// fails when a new Rule is added without an entry. Unknown keys coming back
// from stored or hand-written reports resolve to RuleUnknown, which has a
// generic remediation.
type Rule int

const (
	// RuleUnknown is the fallback for keys that do not name a known rule.
	RuleUnknown Rule = iota

	// RuleLowContrast: text color against its background is below the
	// required contrast ratio.
	RuleLowContrast

	// RuleMissingRequiredAttribute: an element lacks an attribute the rule
	// table marks as required for its tag.
	RuleMissingRequiredAttribute

	// RuleInsufficientLandmarks: a div-heavy page uses too few landmark elements.
	RuleInsufficientLandmarks

	// RuleMissingAlt: an image has no alt attribute at all.
	RuleMissingAlt

	// RuleEmptyAltUnmarked: an image has alt="" but is not explicitly marked
	// as decorative.
	RuleEmptyAltUnmarked

	// RuleUnlabeledFormControl: a form control has no programmatic label.
	RuleUnlabeledFormControl

	// RuleRequiredNotIndicated: a required control is not announced as required.
	RuleRequiredNotIndicated

	// RuleMissingH1: the document has no h1 heading.
	RuleMissingH1

	// RuleMultipleH1: the document has more than one h1 heading.
	RuleMultipleH1

	// RuleHeadingLevelSkipped: a heading jumps more than one level deeper
	// than the previous heading.
	RuleHeadingLevelSkipped

	// RuleSmallFontSize: an element declares a font size below the minimum.
	RuleSmallFontSize

	// RulePositiveTabindex: a focusable element uses tabindex > 0.
	RulePositiveTabindex

	// RuleClickHandlerNotFocusable: an element reacts to clicks but cannot
	// receive keyboard focus.
	RuleClickHandlerNotFocusable

	// RuleMissingMainLandmark: the document has no main landmark.
	RuleMissingMainLandmark

	// RuleBrokenAriaLabelledby: aria-labelledby points at an id that does not exist.
	RuleBrokenAriaLabelledby
)

// Remediation is the user-facing guidance attached to a rule.
type Remediation struct {
	// Title is a short human-readable name for the rule.
	Title string

	// Impact explains who is affected and how.
	Impact string

	// Fix describes how to resolve the finding. It is used as the default
	// suggestion text of findings.
	Fix string

	// Example is a short markup snippet showing the fixed form.
	Example string

	// WCAG is the WCAG 2.1 success criterion the rule approximates, or an
	// IRI ruleset identifier for rules without a direct WCAG mapping.
	WCAG string
}

// RuleInfo is the static description of a rule.
type RuleInfo struct {
	// Key is the canonical rule name used in reports and as lookup key.
	Key string

	// Bucket is where findings of this rule are reported.
	Bucket Bucket

	// Penalty is subtracted from the score for every finding of this rule.
	Penalty int

	// Remediation is the guidance shown to users.
	Remediation Remediation
}

var ruleInfos = [...]RuleInfo{
	RuleUnknown: {
		Key:     "unknown",
		Bucket:  BucketSuggestion,
		Penalty: 0,
		Remediation: Remediation{
			Title:  "Unrecognised rule",
			Impact: "This finding was produced by a rule this version does not know about.",
			Fix:    "Review the element manually against WCAG 2.1 and the IRI checklist.",
			WCAG:   "-",
		},
	},
	RuleLowContrast: {
		Key:     "low_contrast",
		Bucket:  BucketCritical,
		Penalty: 10,
		Remediation: Remediation{
			Title:   "Insufficient color contrast",
			Impact:  "Users with low vision or color deficiencies cannot read the text reliably.",
			Fix:     "Darken the text or lighten the background until the ratio reaches 4.5:1 (3:1 for large text).",
			Example: `<p style="color:#595959;background-color:#ffffff">`,
			WCAG:    "1.4.3",
		},
	},
	RuleMissingRequiredAttribute: {
		Key:     "missing_required_attribute",
		Bucket:  BucketCritical,
		Penalty: 8,
		Remediation: Remediation{
			Title:   "Missing required attribute",
			Impact:  "Assistive technology cannot determine the purpose or behaviour of the element.",
			Fix:     "Add the missing attributes listed in the finding.",
			Example: `<button type="submit">Send</button>`,
			WCAG:    "4.1.2",
		},
	},
	RuleInsufficientLandmarks: {
		Key:     "insufficient_landmarks",
		Bucket:  BucketWarning,
		Penalty: 5,
		Remediation: Remediation{
			Title:   "Too few landmark elements",
			Impact:  "Screen reader users cannot jump between page regions and must read linearly.",
			Fix:     "Replace generic div wrappers with header, nav, main, section, article, aside and footer.",
			Example: "<header>…</header><nav>…</nav><main>…</main><footer>…</footer>",
			WCAG:    "1.3.1",
		},
	},
	RuleMissingAlt: {
		Key:     "missing_alt",
		Bucket:  BucketCritical,
		Penalty: 12,
		Remediation: Remediation{
			Title:   "Image without alt attribute",
			Impact:  "Screen readers announce the file name or nothing at all, hiding the image content.",
			Fix:     `Describe the image in an alt attribute, or use alt="" with role="presentation" for decorative images.`,
			Example: `<img src="chart.png" alt="Sales grew 20% in Q3">`,
			WCAG:    "1.1.1",
		},
	},
	RuleEmptyAltUnmarked: {
		Key:     "empty_alt_unmarked",
		Bucket:  BucketWarning,
		Penalty: 3,
		Remediation: Remediation{
			Title:   "Empty alt on an unmarked image",
			Impact:  "It is unclear whether the image is decorative or its description was forgotten.",
			Fix:     `Add role="presentation" or aria-hidden="true" when the image is decorative, otherwise describe it.`,
			Example: `<img src="divider.png" alt="" role="presentation">`,
			WCAG:    "1.1.1",
		},
	},
	RuleUnlabeledFormControl: {
		Key:     "unlabeled_form_control",
		Bucket:  BucketCritical,
		Penalty: 10,
		Remediation: Remediation{
			Title:   "Form control without label",
			Impact:  "Screen reader users hear only the control type and cannot tell what to enter.",
			Fix:     "Associate a label element through for/id, or add aria-label or aria-labelledby.",
			Example: `<label for="email">Email</label><input type="email" id="email">`,
			WCAG:    "3.3.2",
		},
	},
	RuleRequiredNotIndicated: {
		Key:     "required_not_indicated",
		Bucket:  BucketWarning,
		Penalty: 3,
		Remediation: Remediation{
			Title:   "Required field not indicated",
			Impact:  "Users discover mandatory fields only after a failed submission.",
			Fix:     `Add aria-required="true" and a visible "required" marker to the label.`,
			Example: `<label for="name">Name (required)</label><input id="name" required aria-required="true">`,
			WCAG:    "3.3.2",
		},
	},
	RuleMissingH1: {
		Key:     "missing_h1",
		Bucket:  BucketCritical,
		Penalty: 15,
		Remediation: Remediation{
			Title:   "Missing h1 heading",
			Impact:  "The page has no top-level heading, so its topic is not announced.",
			Fix:     "Add exactly one h1 that describes the page content.",
			Example: "<h1>Account settings</h1>",
			WCAG:    "2.4.6",
		},
	},
	RuleMultipleH1: {
		Key:     "multiple_h1",
		Bucket:  BucketWarning,
		Penalty: 5,
		Remediation: Remediation{
			Title:   "Multiple h1 headings",
			Impact:  "Several competing top-level headings blur the page outline.",
			Fix:     "Keep one h1 and demote the others to h2 or lower.",
			Example: "<h1>Products</h1><h2>Featured</h2>",
			WCAG:    "1.3.1",
		},
	},
	RuleHeadingLevelSkipped: {
		Key:     "heading_level_skipped",
		Bucket:  BucketWarning,
		Penalty: 3,
		Remediation: Remediation{
			Title:   "Skipped heading level",
			Impact:  "Users navigating by heading assume missing sections.",
			Fix:     "Increase heading levels one step at a time (h2 then h3, not h2 then h4).",
			Example: "<h2>Plans</h2><h3>Basic</h3>",
			WCAG:    "1.3.1",
		},
	},
	RuleSmallFontSize: {
		Key:     "small_font_size",
		Bucket:  BucketWarning,
		Penalty: 2,
		Remediation: Remediation{
			Title:   "Font size too small",
			Impact:  "Small text is hard to read for users with low vision, especially on dense pages.",
			Fix:     "Use at least 14px for body text on desktop, and prefer relative units.",
			Example: `<p style="font-size:1rem">`,
			WCAG:    "1.4.4",
		},
	},
	RulePositiveTabindex: {
		Key:     "positive_tabindex",
		Bucket:  BucketWarning,
		Penalty: 2,
		Remediation: Remediation{
			Title:   "Positive tabindex",
			Impact:  "Keyboard focus jumps in an order that does not follow the visual layout.",
			Fix:     `Remove the tabindex or use tabindex="0", and order the markup to match the layout.`,
			Example: `<button tabindex="0">`,
			WCAG:    "2.4.3",
		},
	},
	RuleClickHandlerNotFocusable: {
		Key:     "click_handler_not_focusable",
		Bucket:  BucketSuggestion,
		Penalty: 0,
		Remediation: Remediation{
			Title:   "Click handler on a non-focusable element",
			Impact:  "Keyboard users may not be able to trigger the action.",
			Fix:     `Use a button element, or add tabindex="0", a role and a keyboard handler.`,
			Example: `<button type="button" onclick="toggle()">Menu</button>`,
			WCAG:    "2.1.1",
		},
	},
	RuleMissingMainLandmark: {
		Key:     "missing_main_landmark",
		Bucket:  BucketSuggestion,
		Penalty: 0,
		Remediation: Remediation{
			Title:   "Missing main landmark",
			Impact:  "Screen reader users cannot skip directly to the primary content.",
			Fix:     `Wrap the primary content in a main element or add role="main".`,
			Example: "<main>…</main>",
			WCAG:    "1.3.1",
		},
	},
	RuleBrokenAriaLabelledby: {
		Key:     "broken_aria_labelledby",
		Bucket:  BucketWarning,
		Penalty: 3,
		Remediation: Remediation{
			Title:   "Broken aria-labelledby reference",
			Impact:  "The element's accessible name is empty because the referenced element does not exist.",
			Fix:     "Point aria-labelledby at the id of an existing element, or fix the id.",
			Example: `<h2 id="billing">Billing</h2><section aria-labelledby="billing">`,
			WCAG:    "4.1.2",
		},
	},
}

// rulesByKey is the reverse index of ruleInfos.
var rulesByKey = func() map[string]Rule {
	m := make(map[string]Rule, len(ruleInfos))
	for i, info := range ruleInfos {
		m[info.Key] = Rule(i)
	}
	return m
}()

// Info returns the static description of the rule.
// Out-of-range values return the RuleUnknown description.
func (r Rule) Info() RuleInfo {
	if r < 0 || int(r) >= len(ruleInfos) {
		return ruleInfos[RuleUnknown]
	}
	return ruleInfos[r]
}

// Key returns the canonical rule name.
func (r Rule) Key() string {
	return r.Info().Key
}

// String implements fmt.Stringer.
func (r Rule) String() string {
	return r.Key()
}

// Bucket returns the bucket findings of this rule belong to.
func (r Rule) Bucket() Bucket {
	return r.Info().Bucket
}

// Penalty returns the score penalty of one finding of this rule.
func (r Rule) Penalty() int {
	return r.Info().Penalty
}

// Remediation returns the guidance attached to the rule.
func (r Rule) Remediation() Remediation {
	return r.Info().Remediation
}

// LookupRule resolves a canonical key to its Rule.
// Unrecognised keys return RuleUnknown, never an error, so that reports
// written by newer versions remain readable.
func LookupRule(key string) Rule {
	if r, ok := rulesByKey[key]; ok {
		return r
	}
	return RuleUnknown
}

// Rules returns every known rule in declaration order, excluding RuleUnknown.
func Rules() []Rule {
	rules := make([]Rule, 0, len(ruleInfos)-1)
	for i := 1; i < len(ruleInfos); i++ {
		rules = append(rules, Rule(i))
	}
	return rules
}
