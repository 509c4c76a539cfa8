package design

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/a11yscan/internal/color"
	"github.com/nao1215/a11yscan/internal/model"
	"github.com/nao1215/a11yscan/internal/ruleset"
)

// HighContrastThreshold is the score below which the high-contrast variant
// of a palette is recommended.
const HighContrastThreshold = 70

// Input is the narrow view of a report the generator consumes: the score and
// the rule keys of critical findings and warnings. Nothing else in the report
// is read, so reports from other versions remain usable.
type Input struct {
	Score         int      `json:"score"`
	CriticalRules []string `json:"criticalRules"`
	WarningRules  []string `json:"warningRules"`
}

// InputFrom extracts the generator input from a report.
func InputFrom(r *model.Report) Input {
	in := Input{
		Score:         r.Summary.Score,
		CriticalRules: make([]string, 0, len(r.Critical)),
		WarningRules:  make([]string, 0, len(r.Warnings)),
	}
	for _, f := range r.Critical {
		in.CriticalRules = append(in.CriticalRules, f.Rule)
	}
	for _, f := range r.Warnings {
		in.WarningRules = append(in.WarningRules, f.Rule)
	}
	return in
}

// Preferences selects the preset.
type Preferences struct {
	Industry string `json:"industry"`
	Tone     string `json:"tone"`
}

// Priority is one rule to fix, ranked by its impact on the score.
type Priority struct {
	Rule    string `json:"rule"`
	Title   string `json:"title"`
	Bucket  string `json:"bucket"`
	Count   int    `json:"count"`
	Penalty int    `json:"penalty"`

	// Impact is Count * Penalty, the points regained by fixing every instance.
	Impact int `json:"impact"`

	Fix     string `json:"fix"`
	Example string `json:"example,omitempty"`
	WCAG    string `json:"wcag"`
}

// ColorPair is a foreground/background combination from the palette with its
// contrast ratio.
type ColorPair struct {
	Name       string  `json:"name"`
	Foreground string  `json:"foreground"`
	Background string  `json:"background"`
	Ratio      float64 `json:"ratio"`
	Required   float64 `json:"required"`
	Passes     bool    `json:"passes"`
}

// Recommendation is the generator output.
type Recommendation struct {
	Industry     string      `json:"industry"`
	Tone         string      `json:"tone"`
	Fallback     bool        `json:"fallback"`
	HighContrast bool        `json:"highContrast"`
	Score        int         `json:"score"`
	Headline     string      `json:"headline"`
	Priorities   []Priority  `json:"priorities"`
	Palette      Palette     `json:"palette"`
	ColorPairs   []ColorPair `json:"colorPairs"`
	Typography   Typography  `json:"typography"`
	Layout       Layout      `json:"layout"`
}

// Generator produces design recommendations from audit results.
type Generator struct {
	presets *Presets
	table   *ruleset.Table
}

// Option configures a Generator.
type Option func(*Generator)

// WithPresets replaces the embedded preset table.
func WithPresets(p *Presets) Option {
	return func(g *Generator) {
		g.presets = p
	}
}

// WithTable sets the rule table used for contrast and typography minimums.
func WithTable(t *ruleset.Table) Option {
	return func(g *Generator) {
		if t != nil {
			g.table = t
		}
	}
}

// NewGenerator creates a Generator with the embedded presets.
func NewGenerator(opts ...Option) (*Generator, error) {
	g := &Generator{table: ruleset.Default()}
	for _, opt := range opts {
		opt(g)
	}
	if g.presets == nil {
		p, err := DefaultPresets()
		if err != nil {
			return nil, err
		}
		g.presets = p
	}
	return g, nil
}

// Generate creates a recommendation with the embedded presets and the
// default rule table.
func Generate(in Input, prefs Preferences) (*Recommendation, error) {
	g, err := NewGenerator()
	if err != nil {
		return nil, err
	}
	return g.Generate(in, prefs)
}

// layoutHints adds layout guidance for structural rules.
var layoutHints = map[string]string{
	model.RuleInsufficientLandmarks.Key(): "Replace generic wrappers with header, nav, main and footer landmarks.",
	model.RuleMissingMainLandmark.Key():   "Wrap the primary content of every page in a single main element.",
	model.RuleHeadingLevelSkipped.Key():   "Derive heading levels from the content outline, not from visual size.",
	model.RuleSmallFontSize.Key():         "Size text in rem so it follows the user's browser setting.",
	model.RulePositiveTabindex.Key():      "Order markup to match the visual layout instead of using tabindex.",
}

// Generate creates a recommendation for the given audit input.
// An unknown industry or tone falls back to a default preset; only an empty
// preset table is an error.
func (g *Generator) Generate(in Input, prefs Preferences) (*Recommendation, error) {
	industry := normalizeName(prefs.Industry, FallbackIndustry)
	tone := normalizeName(prefs.Tone, FallbackTone)

	preset, usedIndustry, usedTone, fallback, err := g.presets.Lookup(industry, tone)
	if err != nil {
		return nil, err
	}

	rec := &Recommendation{
		Industry:   usedIndustry,
		Tone:       usedTone,
		Fallback:   fallback,
		Score:      in.Score,
		Priorities: rankPriorities(in),
		Palette:    preset.Palette,
		Typography: g.clampTypography(preset.Typography),
		Layout:     preset.Layout,
	}
	if in.Score < HighContrastThreshold && preset.HighContrast != nil {
		rec.Palette = *preset.HighContrast
		rec.HighContrast = true
	}
	rec.ColorPairs = g.colorPairs(rec.Palette)
	rec.Layout.Guidelines = slices.Clone(preset.Layout.Guidelines)
	for _, hint := range g.hintsFor(in) {
		if !slices.Contains(rec.Layout.Guidelines, hint) {
			rec.Layout.Guidelines = append(rec.Layout.Guidelines, hint)
		}
	}
	rec.Headline = headline(rec)

	return rec, nil
}

func normalizeName(s, fallback string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return fallback
	}
	return s
}

// rankPriorities groups findings by rule and ranks them: critical before
// warning, then by impact, then by rule key for a stable order.
func rankPriorities(in Input) []Priority {
	type group struct {
		bucket model.Bucket
		count  int
	}
	groups := make(map[string]*group)
	add := func(keys []string, bucket model.Bucket) {
		for _, k := range keys {
			g, ok := groups[k]
			if !ok {
				g = &group{bucket: bucket}
				groups[k] = g
			}
			g.count++
		}
	}
	add(in.CriticalRules, model.BucketCritical)
	add(in.WarningRules, model.BucketWarning)

	out := make([]Priority, 0, len(groups))
	for key, g := range groups {
		rule := model.LookupRule(key)
		rem := rule.Remediation()
		out = append(out, Priority{
			Rule:    key,
			Title:   rem.Title,
			Bucket:  g.bucket.String(),
			Count:   g.count,
			Penalty: rule.Penalty(),
			Impact:  g.count * rule.Penalty(),
			Fix:     rem.Fix,
			Example: rem.Example,
			WCAG:    rem.WCAG,
		})
	}

	bucketOf := func(p Priority) model.Bucket {
		b, _ := model.ParseBucket(p.Bucket)
		return b
	}
	slices.SortFunc(out, func(a, b Priority) int {
		if c := cmp.Compare(bucketOf(b), bucketOf(a)); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Impact, a.Impact); c != 0 {
			return c
		}
		return cmp.Compare(a.Rule, b.Rule)
	})
	return out
}

// clampTypography raises the preset to the rule table minimums.
func (g *Generator) clampTypography(t Typography) Typography {
	t.BaseSize = max(t.BaseSize, g.table.FontSize.Desktop)
	t.LineHeight = max(t.LineHeight, g.table.LineHeightMin)
	return t
}

// colorPairs annotates the text-bearing combinations of a palette with their
// contrast ratio against the AA normal-text threshold.
func (g *Generator) colorPairs(p Palette) []ColorPair {
	required := g.table.ContrastFor(ruleset.LevelAA, false)
	pairs := []struct{ name, fg, bg string }{
		{"text on background", p.Text, p.Background},
		{"text on surface", p.Text, p.Surface},
		{"muted text on background", p.MutedText, p.Background},
		{"label on primary", p.Background, p.Primary},
	}

	out := make([]ColorPair, 0, len(pairs))
	for _, pr := range pairs {
		ratio := color.RoundRatio(color.Contrast(pr.fg, pr.bg))
		out = append(out, ColorPair{
			Name:       pr.name,
			Foreground: pr.fg,
			Background: pr.bg,
			Ratio:      ratio,
			Required:   required,
			Passes:     ratio >= required,
		})
	}
	return out
}

func (g *Generator) hintsFor(in Input) []string {
	var hints []string
	seen := make(map[string]bool)
	for _, key := range slices.Concat(in.CriticalRules, in.WarningRules) {
		if hint, ok := layoutHints[key]; ok && !seen[key] {
			seen[key] = true
			hints = append(hints, hint)
		}
	}
	return hints
}

// titleCase capitalizes a preset name for display. A Caser is stateful, so
// a new one is created per call.
func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

func headline(rec *Recommendation) string {
	name := titleCase(rec.Industry) + " / " + titleCase(rec.Tone)
	grade := model.GradeFor(rec.Score)
	msg := fmt.Sprintf("%s design system for a page graded %s (%s, score %d)", name, grade.Letter, grade.Label, rec.Score)
	if rec.HighContrast {
		msg += " using the high-contrast palette"
	}
	return msg
}
