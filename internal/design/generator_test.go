package design

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/a11yscan/internal/model"
)

// TestDefaultPresets tests the embedded preset table.
func TestDefaultPresets(t *testing.T) {
	t.Parallel()

	p, err := DefaultPresets()
	if err != nil {
		t.Fatalf("DefaultPresets failed: %v", err)
	}
	if p.Empty() {
		t.Fatal("embedded presets are empty")
	}

	for _, industry := range p.IndustryNames() {
		if _, ok := p.Industries[industry][FallbackTone]; !ok {
			t.Errorf("industry %q has no %q tone", industry, FallbackTone)
		}
		for _, tone := range p.ToneNames(industry) {
			pr := p.Industries[industry][tone]
			if pr.Palette.Text == "" || pr.Palette.Background == "" || pr.Typography.BodyFont == "" {
				t.Errorf("%s/%s preset is incomplete", industry, tone)
			}
		}
	}
}

// TestLookupFallback tests the preset fallback chain.
func TestLookupFallback(t *testing.T) {
	t.Parallel()

	p, err := DefaultPresets()
	if err != nil {
		t.Fatal(err)
	}

	testCases := []struct {
		industry, tone         string
		wantIndustry, wantTone string
		fallback               bool
	}{
		{"finance", "professional", "finance", "professional", false},
		{"finance", "playful", "finance", "neutral", true},
		{"aerospace", "friendly", "general", "friendly", true},
		{"aerospace", "playful", "general", "neutral", true},
	}

	for _, tc := range testCases {
		t.Run(tc.industry+"/"+tc.tone, func(t *testing.T) {
			t.Parallel()

			_, ind, tone, fb, err := p.Lookup(tc.industry, tc.tone)
			if err != nil {
				t.Fatalf("Lookup failed: %v", err)
			}
			if ind != tc.wantIndustry || tone != tc.wantTone || fb != tc.fallback {
				t.Errorf("Lookup = %s/%s (fallback %v), expected %s/%s (fallback %v)",
					ind, tone, fb, tc.wantIndustry, tc.wantTone, tc.fallback)
			}
		})
	}
}

// TestGenerate tests priorities, palettes and typography.
func TestGenerate(t *testing.T) {
	t.Parallel()

	in := Input{
		Score:         62,
		CriticalRules: []string{"missing_alt", "low_contrast", "low_contrast", "missing_alt", "missing_alt"},
		WarningRules:  []string{"insufficient_landmarks", "positive_tabindex", "positive_tabindex", "mystery_rule"},
	}

	rec, err := Generate(in, Preferences{Industry: " Healthcare ", Tone: ""})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if rec.Industry != "healthcare" || rec.Tone != "neutral" || rec.Fallback {
		t.Errorf("preset = %s/%s fallback=%v", rec.Industry, rec.Tone, rec.Fallback)
	}
	if !rec.HighContrast || rec.Palette.Text != "#000000" {
		t.Errorf("score below 70 should select the high-contrast palette: %+v", rec.Palette)
	}

	wantOrder := []string{"missing_alt", "low_contrast", "insufficient_landmarks", "positive_tabindex", "mystery_rule"}
	if len(rec.Priorities) != len(wantOrder) {
		t.Fatalf("got %d priorities, expected %d", len(rec.Priorities), len(wantOrder))
	}
	for i, want := range wantOrder {
		if rec.Priorities[i].Rule != want {
			t.Errorf("priority %d = %s, expected %s", i, rec.Priorities[i].Rule, want)
		}
	}
	first := rec.Priorities[0]
	if first.Count != 3 || first.Impact != 36 || first.Bucket != "critical" || first.WCAG != "1.1.1" {
		t.Errorf("unexpected first priority: %+v", first)
	}
	if last := rec.Priorities[4]; last.Impact != 0 || last.Fix == "" {
		t.Errorf("unknown rule should carry generic remediation: %+v", last)
	}

	if rec.Typography.BaseSize < 14 || rec.Typography.LineHeight < 1.5 {
		t.Errorf("typography below minimums: %+v", rec.Typography)
	}
	if len(rec.ColorPairs) != 4 {
		t.Errorf("expected 4 color pairs, got %d", len(rec.ColorPairs))
	}

	found := false
	for _, g := range rec.Layout.Guidelines {
		if strings.Contains(g, "landmarks") {
			found = true
		}
	}
	if !found {
		t.Errorf("landmark hint missing from guidelines: %v", rec.Layout.Guidelines)
	}
	if !strings.HasPrefix(rec.Headline, "Healthcare / Neutral") {
		t.Errorf("Headline = %q", rec.Headline)
	}
}

// TestGenerateClampsTypography tests that presets below the minimums are raised.
func TestGenerateClampsTypography(t *testing.T) {
	t.Parallel()

	p, err := LoadPresets([]byte(`
industries:
  general:
    neutral:
      palette: {text: "#000", background: "#fff", surface: "#fff", muted_text: "#999", primary: "#fff"}
      typography: {body_font: serif, base_size: 11, line_height: 1.1}
`))
	if err != nil {
		t.Fatal(err)
	}
	g, err := NewGenerator(WithPresets(p))
	if err != nil {
		t.Fatal(err)
	}

	rec, err := g.Generate(Input{Score: 95}, Preferences{})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if rec.Typography.BaseSize != 14 || rec.Typography.LineHeight != 1.5 {
		t.Errorf("typography = %+v", rec.Typography)
	}
	if rec.HighContrast {
		t.Error("high contrast must not be used without a variant")
	}

	failing := 0
	for _, pair := range rec.ColorPairs {
		if !pair.Passes {
			failing++
		}
	}
	// #999 on white is 2.85:1 and white on white is 1:1.
	if failing != 2 {
		t.Errorf("expected 2 failing pairs, got %d: %+v", failing, rec.ColorPairs)
	}
}

// TestGenerateNoPresets tests the empty preset table error.
func TestGenerateNoPresets(t *testing.T) {
	t.Parallel()

	g, err := NewGenerator(WithPresets(&Presets{}))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := g.Generate(Input{Score: 50}, Preferences{Industry: "finance"}); !errors.Is(err, ErrNoPresets) {
		t.Errorf("expected ErrNoPresets, got %v", err)
	}

	// A table without the general/neutral fallback cannot answer unknown industries.
	p, err := LoadPresets([]byte("industries:\n  finance:\n    bold:\n      palette: {text: \"#000\"}\n"))
	if err != nil {
		t.Fatal(err)
	}
	g, err = NewGenerator(WithPresets(p))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := g.Generate(Input{}, Preferences{Industry: "retail"}); !errors.Is(err, ErrNoPresets) {
		t.Errorf("expected ErrNoPresets, got %v", err)
	}
}

// TestInputFrom tests extraction of the narrow generator input.
func TestInputFrom(t *testing.T) {
	t.Parallel()

	r := model.BuildReport(
		[]model.Finding{model.NewFinding(model.RuleMissingH1, "x", "")},
		[]model.Finding{model.NewFinding(model.RuleMultipleH1, "y", "")},
		[]model.Finding{model.NewFinding(model.RuleMissingMainLandmark, "z", "")},
		80, time.Now(),
	)
	in := InputFrom(r)
	if in.Score != 80 || len(in.CriticalRules) != 1 || in.CriticalRules[0] != "missing_h1" ||
		len(in.WarningRules) != 1 || in.WarningRules[0] != "multiple_h1" {
		t.Errorf("unexpected input: %+v", in)
	}
}
