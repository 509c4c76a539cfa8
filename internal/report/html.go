package report

import (
	"bytes"
	"fmt"
	"html/template"
	"io"

	"github.com/microcosm-cc/bluemonday"
	"github.com/nao1215/markdown"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/nao1215/a11yscan/internal/design"
)

// pageTemplate wraps the rendered report in a standalone, accessible page.
var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body{font-family:system-ui,sans-serif;font-size:1rem;line-height:1.5;color:#111827;background:#fff;max-width:72rem;margin:0 auto;padding:1rem}
table{border-collapse:collapse;margin:1rem 0}
th,td{border:1px solid #4b5563;padding:.25rem .5rem;text-align:left}
code{background:#f3f4f6;padding:0 .2rem}
blockquote{border-left:4px solid #1d4ed8;margin:1rem 0;padding:.5rem 1rem;background:#f8fafc}
</style>
</head>
<body>
<main>
{{.Body}}
</main>
</body>
</html>
`))

// HTMLWriter outputs reports as a standalone HTML page.
// The page is the Markdown report rendered with goldmark and sanitized with
// bluemonday, so finding text copied from the audited document cannot inject
// markup into the report.
type HTMLWriter struct {
	baseWriter

	title    string
	renderer goldmark.Markdown
	policy   *bluemonday.Policy
}

// HTMLWriterOption configures an HTMLWriter.
type HTMLWriterOption func(*HTMLWriter)

// WithTitle sets the page title.
func WithTitle(title string) HTMLWriterOption {
	return func(w *HTMLWriter) {
		w.title = title
	}
}

// NewHTMLWriter creates an HTMLWriter that outputs to the given writer.
func NewHTMLWriter(output io.Writer, opts ...HTMLWriterOption) *HTMLWriter {
	w := &HTMLWriter{
		baseWriter: newBaseWriter(output),
		title:      "Accessibility Report",
		renderer: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			// Raw HTML (details blocks) is kept here and sanitized afterwards.
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
		policy: bluemonday.UGCPolicy(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the result as an HTML page.
func (w *HTMLWriter) Write(result *Result) (int, error) {
	md := markdown.NewMarkdown(io.Discard)
	writeMarkdownResult(md, result)
	return w.render(md)
}

// WriteRecommendation outputs a design recommendation as an HTML page.
func (w *HTMLWriter) WriteRecommendation(rec *design.Recommendation) (int, error) {
	md := markdown.NewMarkdown(io.Discard)
	md.H1("Design Recommendation")
	md.PlainText("")
	writeMarkdownRecommendation(md, rec)
	writeMarkdownFooter(md)
	return w.render(md)
}

func (w *HTMLWriter) render(md *markdown.Markdown) (int, error) {
	if err := md.Error(); err != nil {
		return 0, err
	}

	var body bytes.Buffer
	if err := w.renderer.Convert([]byte(md.String()), &body); err != nil {
		return 0, fmt.Errorf("failed to render markdown: %w", err)
	}
	clean := w.policy.SanitizeBytes(body.Bytes())

	var page bytes.Buffer
	err := pageTemplate.Execute(&page, struct {
		Title string
		Body  template.HTML
	}{
		Title: w.title,
		Body:  template.HTML(clean), //nolint:gosec // sanitized by bluemonday above
	})
	if err != nil {
		return 0, fmt.Errorf("failed to render page: %w", err)
	}
	return w.output.Write(page.Bytes())
}
