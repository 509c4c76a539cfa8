package ruleset

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// Version identifies the built-in rule thresholds.
const Version = "iri-wcag21-1"

// Level names used by ContrastFor. They mirror model.Level without importing it.
const (
	LevelAA  = "AA"
	LevelAAA = "AAA"
)

var (
	// ErrInvalidThreshold is returned when a threshold is zero or negative.
	ErrInvalidThreshold = errors.New("threshold must be positive")

	// ErrInvalidRequiredAttributes is returned when a required-attribute entry
	// names no attributes.
	ErrInvalidRequiredAttributes = errors.New("required attribute entry must list at least one attribute")
)

// Pair is a pair of contrast thresholds for the AA and AAA levels.
type Pair struct {
	AA  float64 `yaml:"aa"  json:"aa"`
	AAA float64 `yaml:"aaa" json:"aaa"`
}

// Contrast holds the contrast thresholds.
type Contrast struct {
	// NormalText applies below LargeTextSize.
	NormalText Pair `yaml:"normal_text" json:"normalText"`

	// LargeText applies at or above LargeTextSize.
	LargeText Pair `yaml:"large_text" json:"largeText"`

	// LargeTextSize is the font size in px at which text counts as large.
	LargeTextSize float64 `yaml:"large_text_size" json:"largeTextSize"`
}

// FontSize holds minimum font sizes in px.
type FontSize struct {
	Desktop float64 `yaml:"desktop" json:"desktop"`
	Mobile  float64 `yaml:"mobile"  json:"mobile"`
}

// Table is the static, read-only configuration the audit checks consult.
//
// Design decision: Checks receive the Table by pointer but never modify it.
// Default returns a fresh value each time, and Merge returns a new Table, so a
// single Table can be shared read-only by any number of concurrent audits.
type Table struct {
	Version  string   `yaml:"version"   json:"version"`
	Contrast Contrast `yaml:"contrast"  json:"contrast"`
	FontSize FontSize `yaml:"font_size" json:"fontSize"`

	// LineHeightMin is the minimum unitless line height.
	LineHeightMin float64 `yaml:"line_height_min" json:"lineHeightMin"`

	// LetterSpacingMin is the minimum letter spacing in em.
	LetterSpacingMin float64 `yaml:"letter_spacing_min" json:"letterSpacingMin"`

	// RequiredAttributes maps a tag name to the attributes it must carry.
	RequiredAttributes map[string][]string `yaml:"required_attributes" json:"requiredAttributes"`

	// Landmarks lists the tag names counted as semantic landmarks.
	Landmarks []string `yaml:"landmarks" json:"landmarks"`
}

// Default returns a fresh copy of the built-in rule table.
func Default() *Table {
	return &Table{
		Version: Version,
		Contrast: Contrast{
			NormalText:    Pair{AA: 4.5, AAA: 7.0},
			LargeText:     Pair{AA: 3.0, AAA: 4.5},
			LargeTextSize: 18,
		},
		FontSize: FontSize{
			Desktop: 14,
			Mobile:  12,
		},
		LineHeightMin:    1.5,
		LetterSpacingMin: 0.12,
		RequiredAttributes: map[string][]string{
			"img":    {"alt"},
			"input":  {"type", "id"},
			"label":  {"for"},
			"form":   {"action", "method"},
			"button": {"type"},
			"a":      {"href"},
		},
		Landmarks: []string{"header", "nav", "main", "section", "article", "aside", "footer"},
	}
}

// ContrastFor returns the minimum contrast ratio for the given level and
// text size. Any level other than AAA uses the AA thresholds.
func (t *Table) ContrastFor(level string, large bool) float64 {
	pair := t.Contrast.NormalText
	if large {
		pair = t.Contrast.LargeText
	}
	if level == LevelAAA {
		return pair.AAA
	}
	return pair.AA
}

// IsLargeText reports whether a font size in px counts as large text.
func (t *Table) IsLargeText(px float64) bool {
	return px >= t.Contrast.LargeTextSize
}

// RequiredTags returns the tags of RequiredAttributes in sorted order so that
// checks iterating the map produce deterministic output.
func (t *Table) RequiredTags() []string {
	return slices.Sorted(maps.Keys(t.RequiredAttributes))
}

// Clone returns a deep copy of t.
func (t *Table) Clone() *Table {
	c := *t
	c.RequiredAttributes = make(map[string][]string, len(t.RequiredAttributes))
	for tag, attrs := range t.RequiredAttributes {
		c.RequiredAttributes[tag] = slices.Clone(attrs)
	}
	c.Landmarks = slices.Clone(t.Landmarks)
	return &c
}

// Validate checks that every threshold is positive and every required
// attribute entry is non-empty.
func (t *Table) Validate() error {
	thresholds := []struct {
		name  string
		value float64
	}{
		{"contrast.normal_text.aa", t.Contrast.NormalText.AA},
		{"contrast.normal_text.aaa", t.Contrast.NormalText.AAA},
		{"contrast.large_text.aa", t.Contrast.LargeText.AA},
		{"contrast.large_text.aaa", t.Contrast.LargeText.AAA},
		{"contrast.large_text_size", t.Contrast.LargeTextSize},
		{"font_size.desktop", t.FontSize.Desktop},
		{"font_size.mobile", t.FontSize.Mobile},
		{"line_height_min", t.LineHeightMin},
		{"letter_spacing_min", t.LetterSpacingMin},
	}
	for _, th := range thresholds {
		if th.value <= 0 {
			return fmt.Errorf("%s = %v: %w", th.name, th.value, ErrInvalidThreshold)
		}
	}
	for _, tag := range t.RequiredTags() {
		if len(t.RequiredAttributes[tag]) == 0 {
			return fmt.Errorf("required_attributes.%s: %w", tag, ErrInvalidRequiredAttributes)
		}
	}
	return nil
}

// Merge returns a new table with every non-zero field of override applied on
// top of base. RequiredAttributes entries are merged per tag; Landmarks is
// replaced when the override lists any. Neither argument is modified.
func Merge(base, override *Table) *Table {
	out := base.Clone()
	if override == nil {
		return out
	}

	setFloat(&out.Contrast.NormalText.AA, override.Contrast.NormalText.AA)
	setFloat(&out.Contrast.NormalText.AAA, override.Contrast.NormalText.AAA)
	setFloat(&out.Contrast.LargeText.AA, override.Contrast.LargeText.AA)
	setFloat(&out.Contrast.LargeText.AAA, override.Contrast.LargeText.AAA)
	setFloat(&out.Contrast.LargeTextSize, override.Contrast.LargeTextSize)
	setFloat(&out.FontSize.Desktop, override.FontSize.Desktop)
	setFloat(&out.FontSize.Mobile, override.FontSize.Mobile)
	setFloat(&out.LineHeightMin, override.LineHeightMin)
	setFloat(&out.LetterSpacingMin, override.LetterSpacingMin)

	if override.Version != "" {
		out.Version = override.Version
	}
	for tag, attrs := range override.RequiredAttributes {
		out.RequiredAttributes[tag] = slices.Clone(attrs)
	}
	if len(override.Landmarks) > 0 {
		out.Landmarks = slices.Clone(override.Landmarks)
	}
	return out
}

func setFloat(dst *float64, v float64) {
	if v != 0 {
		*dst = v
	}
}

// Parse decodes a YAML rule override.
func Parse(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse rule table: %w", err)
	}
	return &t, nil
}

// Load reads a YAML override from path, merges it over Default and validates
// the result.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by the user via --rules
	if err != nil {
		return nil, fmt.Errorf("failed to read rule table: %w", err)
	}
	override, err := Parse(data)
	if err != nil {
		return nil, err
	}
	t := Merge(Default(), override)
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rule table %s: %w", path, err)
	}
	return t, nil
}
