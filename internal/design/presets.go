package design

import (
	_ "embed"
	"errors"
	"fmt"
	"maps"
	"slices"

	"gopkg.in/yaml.v3"
)

const (
	// FallbackIndustry is used when the requested industry has no presets.
	FallbackIndustry = "general"

	// FallbackTone is used when the requested tone has no preset.
	FallbackTone = "neutral"
)

// ErrNoPresets is returned when the preset table is empty or lacks the
// fallback entry needed to answer a request.
var ErrNoPresets = errors.New("no design presets available")

//go:embed presets.yaml
var defaultPresetsYAML []byte

// Palette is a set of brand colors.
type Palette struct {
	Primary    string `yaml:"primary"    json:"primary"`
	Secondary  string `yaml:"secondary"  json:"secondary"`
	Accent     string `yaml:"accent"     json:"accent"`
	Background string `yaml:"background" json:"background"`
	Surface    string `yaml:"surface"    json:"surface"`
	Text       string `yaml:"text"       json:"text"`
	MutedText  string `yaml:"muted_text" json:"mutedText"`
}

// Typography is a type scale.
type Typography struct {
	HeadingFont   string  `yaml:"heading_font"   json:"headingFont"`
	BodyFont      string  `yaml:"body_font"      json:"bodyFont"`
	BaseSize      float64 `yaml:"base_size"      json:"baseSize"`
	LineHeight    float64 `yaml:"line_height"    json:"lineHeight"`
	LetterSpacing float64 `yaml:"letter_spacing" json:"letterSpacing"`
	Scale         float64 `yaml:"scale"          json:"scale"`
}

// Layout describes page structure guidance.
type Layout struct {
	MaxWidth   string   `yaml:"max_width"  json:"maxWidth"`
	Grid       string   `yaml:"grid"       json:"grid"`
	Spacing    int      `yaml:"spacing"    json:"spacing"`
	Guidelines []string `yaml:"guidelines" json:"guidelines"`
}

// Preset is the design system for one industry and tone.
type Preset struct {
	Palette      Palette    `yaml:"palette"`
	HighContrast *Palette   `yaml:"high_contrast"`
	Typography   Typography `yaml:"typography"`
	Layout       Layout     `yaml:"layout"`
}

// Presets is the preset table: industry -> tone -> preset.
type Presets struct {
	Industries map[string]map[string]Preset `yaml:"industries"`
}

// LoadPresets decodes a preset table from YAML.
func LoadPresets(data []byte) (*Presets, error) {
	var p Presets
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse design presets: %w", err)
	}
	return &p, nil
}

// DefaultPresets returns the preset table embedded in the binary.
func DefaultPresets() (*Presets, error) {
	return LoadPresets(defaultPresetsYAML)
}

// Empty reports whether the table holds no preset at all.
func (p *Presets) Empty() bool {
	if p == nil {
		return true
	}
	for _, tones := range p.Industries {
		if len(tones) > 0 {
			return false
		}
	}
	return true
}

// IndustryNames returns the known industries in sorted order.
func (p *Presets) IndustryNames() []string {
	if p == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(p.Industries))
}

// ToneNames returns the tones defined for an industry in sorted order.
func (p *Presets) ToneNames(industry string) []string {
	if p == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(p.Industries[industry]))
}

// Lookup resolves a preset, falling back from the requested tone to the
// industry's neutral tone, then to general/neutral. The returned names are
// the ones actually used; fallback is true when they differ from the request.
func (p *Presets) Lookup(industry, tone string) (preset Preset, usedIndustry, usedTone string, fallback bool, err error) {
	if p.Empty() {
		return Preset{}, "", "", false, ErrNoPresets
	}

	candidates := [][2]string{
		{industry, tone},
		{industry, FallbackTone},
		{FallbackIndustry, tone},
		{FallbackIndustry, FallbackTone},
	}
	for _, c := range candidates {
		if pr, ok := p.Industries[c[0]][c[1]]; ok {
			return pr, c[0], c[1], c[0] != industry || c[1] != tone, nil
		}
	}
	return Preset{}, "", "", false, fmt.Errorf("%w: no %s/%s fallback", ErrNoPresets, FallbackIndustry, FallbackTone)
}
