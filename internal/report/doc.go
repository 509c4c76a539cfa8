// Package report writes audit results.
//
// This package contains writers for different output formats:
//   - SimpleWriter: human-readable text for terminal display
//   - JSONWriter: the report object as JSON, for tool integration
//   - FullJSONWriter: the report wrapped with target and version metadata
//   - MarkdownWriter: GitHub-flavored Markdown with a mermaid chart
//   - HTMLWriter: the Markdown report rendered to a sanitized HTML page
//
// Report data structures live in the model package; this package only
// renders them. Writers implement the Writer interface, allowing them to be
// used interchangeably and composed with MultiWriter.
package report
