// Package color parses CSS color values and computes WCAG 2.1 contrast ratios.
//
// Contrast is a pure function: it has no state and is safe for concurrent use.
// Unparsable colors fail open to the maximum ratio of 21:1.
package color
