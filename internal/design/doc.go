// Package design generates design recommendations (palette, typography,
// layout) from an audit result and an industry/tone preference.
//
// The generator reads only the score and the rule keys of critical findings
// and warnings. Presets are static data embedded from presets.yaml. Palettes
// are annotated with their contrast ratios, and typography is raised to the
// rule table minimums, so a recommendation never reintroduces the defects the
// audit reported.
package design
