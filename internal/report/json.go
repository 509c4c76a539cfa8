package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/a11yscan/internal/design"
	"github.com/nao1215/a11yscan/internal/model"
)

// JSONWriter outputs reports in JSON format.
// Write emits the report object unchanged, so consumers can rely on its
// shape. A recommendation, when present, follows as a second JSON document.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the report in JSON format.
func (w *JSONWriter) Write(result *Result) (int, error) {
	n, err := w.writeJSON(result.Report)
	if err != nil || result.Recommendation == nil {
		return n, err
	}
	m, err := w.writeJSON(result.Recommendation)
	return n + m, err
}

// WriteRecommendation outputs the recommendation in JSON format.
func (w *JSONWriter) WriteRecommendation(rec *design.Recommendation) (int, error) {
	return w.writeJSON(rec)
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	// Trailing newline keeps multiple documents line-separated.
	data = append(data, '\n')

	return w.output.Write(data)
}

// JSONReport wraps a report with the target and tool metadata.
//
// Design decision: We wrap the report rather than adding fields to
// model.Report because the report object has a fixed shape that other
// tools consume.
type JSONReport struct {
	// Version is the a11yscan version that generated this report.
	Version string `json:"version"`

	// Target is the audited file or URL.
	Target string `json:"target"`

	// Report is the audit report.
	Report *model.Report `json:"report"`

	// Recommendation is the design recommendation, if one was requested.
	Recommendation *design.Recommendation `json:"recommendation,omitempty"`
}

// NewJSONReport creates a JSONReport wrapper with version information.
func NewJSONReport(result *Result, version string) *JSONReport {
	return &JSONReport{
		Version:        version,
		Target:         result.Target,
		Report:         result.Report,
		Recommendation: result.Recommendation,
	}
}

// FullJSONWriter outputs complete results with the metadata wrapper,
// one document per result.
type FullJSONWriter struct {
	*JSONWriter

	// version is the a11yscan version string.
	version string
}

// NewFullJSONWriter creates a writer for complete results with metadata.
func NewFullJSONWriter(output io.Writer, version string, opts ...JSONWriterOption) *FullJSONWriter {
	return &FullJSONWriter{
		JSONWriter: NewJSONWriter(output, opts...),
		version:    version,
	}
}

// Write outputs the result wrapped with metadata.
func (w *FullJSONWriter) Write(result *Result) (int, error) {
	return w.writeJSON(NewJSONReport(result, w.version))
}
