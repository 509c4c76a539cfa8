// Package audit implements the accessibility rule-evaluation engine.
//
// The Engine runs eight independent checks against a parsed document, in this
// fixed order:
//
//  1. contrast: text/background contrast ratio
//  2. semantic: required attributes and landmark usage
//  3. images: alt text
//  4. forms: labels and required-field indication
//  5. headings: h1 presence and heading level skips
//  6. font-size: minimum declared font size
//  7. keyboard: positive tabindex and unreachable click handlers
//  8. aria: main landmark and aria-labelledby references
//
// Every check returns an Outcome: its findings per bucket and the sum of
// their penalties. The engine concatenates outcomes in check order and
// subtracts the total penalty from 100 to obtain the score. Findings within a
// bucket are therefore ordered by check, then by document position.
//
// A run has no I/O and no shared mutable state. The same document and clock
// always produce the same report.
package audit
