// Package main provides the entry point for the a11yscan CLI.
//
// a11yscan audits HTML documents for accessibility problems against WCAG 2.1
// derived rules and reports a score, graded findings and remediation advice.
//
// Usage:
//
//	a11yscan scan index.html
//	a11yscan scan https://example.com/ --json
//	cat page.html | a11yscan scan -
//
// See --help for all available options.
package main

// main is the entry point for a11yscan.
func main() {
	Execute()
}
