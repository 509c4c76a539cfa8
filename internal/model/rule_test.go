package model

import "testing"

// TestBucketString tests the String method of Bucket.
func TestBucketString(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		bucket   Bucket
		expected string
	}{
		{BucketSuggestion, "suggestion"},
		{BucketWarning, "warning"},
		{BucketCritical, "critical"},
		{Bucket(42), "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			t.Parallel()
			if got := tc.bucket.String(); got != tc.expected {
				t.Errorf("got %q, expected %q", got, tc.expected)
			}
			if tc.expected == "unknown" {
				return
			}
			parsed, ok := ParseBucket(tc.expected)
			if !ok || parsed != tc.bucket {
				t.Errorf("ParseBucket(%q) = %v, %v", tc.expected, parsed, ok)
			}
		})
	}
}

// TestRuleTableComplete ensures every rule has a unique key and remediation.
func TestRuleTableComplete(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for _, r := range Rules() {
		info := r.Info()
		if info.Key == "" || info.Key == "unknown" {
			t.Errorf("rule %d has no key", r)
		}
		if seen[info.Key] {
			t.Errorf("duplicate key %q", info.Key)
		}
		seen[info.Key] = true

		rem := info.Remediation
		if rem.Title == "" || rem.Fix == "" || rem.WCAG == "" {
			t.Errorf("rule %q has incomplete remediation: %+v", info.Key, rem)
		}
		if info.Bucket == BucketSuggestion && info.Penalty != 0 {
			t.Errorf("suggestion rule %q must not carry a penalty", info.Key)
		}
		if info.Bucket != BucketSuggestion && info.Penalty <= 0 {
			t.Errorf("rule %q must carry a positive penalty", info.Key)
		}
	}

	if len(Rules()) != 15 {
		t.Errorf("expected 15 rules, got %d", len(Rules()))
	}
}

// TestRulePenalties pins the published penalty of each rule.
func TestRulePenalties(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		key     string
		bucket  Bucket
		penalty int
	}{
		{"low_contrast", BucketCritical, 10},
		{"missing_required_attribute", BucketCritical, 8},
		{"insufficient_landmarks", BucketWarning, 5},
		{"missing_alt", BucketCritical, 12},
		{"empty_alt_unmarked", BucketWarning, 3},
		{"unlabeled_form_control", BucketCritical, 10},
		{"required_not_indicated", BucketWarning, 3},
		{"missing_h1", BucketCritical, 15},
		{"multiple_h1", BucketWarning, 5},
		{"heading_level_skipped", BucketWarning, 3},
		{"small_font_size", BucketWarning, 2},
		{"positive_tabindex", BucketWarning, 2},
		{"click_handler_not_focusable", BucketSuggestion, 0},
		{"missing_main_landmark", BucketSuggestion, 0},
		{"broken_aria_labelledby", BucketWarning, 3},
	}

	for _, tc := range testCases {
		t.Run(tc.key, func(t *testing.T) {
			t.Parallel()

			r := LookupRule(tc.key)
			if r == RuleUnknown {
				t.Fatalf("LookupRule(%q) returned RuleUnknown", tc.key)
			}
			if r.Key() != tc.key {
				t.Errorf("Key() = %q, expected %q", r.Key(), tc.key)
			}
			if r.Bucket() != tc.bucket {
				t.Errorf("Bucket() = %v, expected %v", r.Bucket(), tc.bucket)
			}
			if r.Penalty() != tc.penalty {
				t.Errorf("Penalty() = %d, expected %d", r.Penalty(), tc.penalty)
			}
		})
	}
}

// TestLookupRuleUnknown tests the generic fallback for unknown keys.
func TestLookupRuleUnknown(t *testing.T) {
	t.Parallel()

	for _, key := range []string{"", "not_a_rule", "H1 태그 누락"} {
		r := LookupRule(key)
		if r != RuleUnknown {
			t.Errorf("LookupRule(%q) = %v, expected RuleUnknown", key, r)
		}
		if r.Remediation().Fix == "" {
			t.Errorf("unknown rule must carry a generic remediation")
		}
		if r.Penalty() != 0 {
			t.Errorf("unknown rule must not carry a penalty")
		}
	}

	if got := Rule(-1).Key(); got != "unknown" {
		t.Errorf("out of range rule key = %q", got)
	}
	if got := Rule(1000).Key(); got != "unknown" {
		t.Errorf("out of range rule key = %q", got)
	}
}

// TestNewFinding tests that findings pick up the rule's default suggestion.
func TestNewFinding(t *testing.T) {
	t.Parallel()

	f := NewFinding(RuleMissingAlt, "image has no alt", `<img src="x.png">`)
	if f.Rule != "missing_alt" {
		t.Errorf("Rule = %q", f.Rule)
	}
	if f.Suggestion != RuleMissingAlt.Remediation().Fix {
		t.Errorf("Suggestion = %q", f.Suggestion)
	}
	if f.Kind() != RuleMissingAlt {
		t.Errorf("Kind() = %v", f.Kind())
	}
}
