// Package ruleset holds the Rule Table: contrast thresholds, font size and
// spacing minimums, the required-attribute map and the landmark tag list.
//
// The built-in values follow WCAG 2.1 and the IRI checklist. Users can
// override individual values with a YAML file:
//
//	contrast:
//	  normal_text:
//	    aa: 4.5
//	  large_text_size: 24
//	font_size:
//	  desktop: 16
//	required_attributes:
//	  iframe: [title]
//
// Tables are never modified after construction, so one Table may be shared
// by concurrent audits.
package ruleset
