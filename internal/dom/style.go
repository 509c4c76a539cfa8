package dom

import (
	"math"
	"strconv"
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
	"golang.org/x/net/html"

	"github.com/nao1215/a11yscan/internal/color"
)

const (
	// defaultFontSize is the browser default root font size in px.
	defaultFontSize = 16.0

	// DefaultColor is the foreground used when nothing declares a color.
	DefaultColor = "#000000"

	// DefaultBackground is the background used when nothing declares one.
	DefaultBackground = "#ffffff"
)

// styleRule is a qualified rule from a <style> block with one selector.
type styleRule struct {
	sel   cascadia.Sel
	spec  cascadia.Specificity
	order int
	decls []*css.Declaration
}

// declWeight orders competing declarations by the CSS cascade:
// !important, then inline, then specificity, then source order.
type declWeight struct {
	important bool
	inline    bool
	spec      cascadia.Specificity
	order     int
}

func (w declWeight) less(o declWeight) bool {
	if w.important != o.important {
		return !w.important
	}
	if w.inline != o.inline {
		return !w.inline
	}
	if w.spec != o.spec {
		return w.spec.Less(o.spec)
	}
	return w.order < o.order
}

// collectStylesheet parses every <style> element under root.
//
// Design decision: At-rules (@media, @supports, @font-face) are ignored. The
// audit is static and has no viewport, so media conditions cannot be
// evaluated; only unconditional rules contribute. A <style> block that fails
// to parse is skipped without affecting the others.
func collectStylesheet(root *html.Node) []styleRule {
	var rules []styleRule
	order := 0

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "style" {
			var text strings.Builder
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.TextNode {
					text.WriteString(c.Data)
				}
			}
			sheet, err := parser.Parse(text.String())
			if err == nil {
				for _, r := range sheet.Rules {
					if r.Kind != css.QualifiedRule {
						continue
					}
					for _, s := range r.Selectors {
						sel, err := cascadia.Parse(s)
						if err != nil {
							continue
						}
						rules = append(rules, styleRule{
							sel:   sel,
							spec:  sel.Specificity(),
							order: order,
							decls: r.Declarations,
						})
						order++
					}
				}
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return rules
}

// parseInlineStyle parses a style attribute into declarations.
//
// The value is normalised first: empty segments are dropped and a trailing
// semicolon added, since the CSS parser drops the value of a final
// declaration that lacks one. Input the parser still rejects falls back to a
// plain property:value split.
func parseInlineStyle(s string) []*css.Declaration {
	var segs []string
	for seg := range strings.SplitSeq(s, ";") {
		if seg = strings.TrimSpace(seg); seg != "" {
			segs = append(segs, seg)
		}
	}
	if len(segs) == 0 {
		return nil
	}

	decls, err := parser.ParseDeclarations(strings.Join(segs, "; ") + ";")
	if err == nil {
		return decls
	}

	decls = decls[:0]
	for _, seg := range segs {
		prop, val, ok := strings.Cut(seg, ":")
		if !ok {
			continue
		}
		d := &css.Declaration{Property: strings.TrimSpace(prop), Value: strings.TrimSpace(val)}
		if v, imp := strings.CutSuffix(d.Value, "!important"); imp {
			d.Value = strings.TrimSpace(v)
			d.Important = true
		}
		decls = append(decls, d)
	}
	return decls
}

// computeStyles cascades declarations onto every element and resolves the
// inherited color, background and font size. Elements are stored in
// document order, so a parent is always resolved before its children.
func (d *Document) computeStyles(sheet []styleRule) {
	for _, el := range d.elements {
		el.style = cascade(el, sheet)
		el.resolve()
	}
}

func cascade(el *Node, sheet []styleRule) map[string]string {
	type winner struct {
		value  string
		weight declWeight
	}
	won := make(map[string]winner)

	apply := func(decls []*css.Declaration, w declWeight) {
		for _, decl := range decls {
			prop := strings.ToLower(strings.TrimSpace(decl.Property))
			if prop == "" {
				continue
			}
			dw := w
			dw.important = decl.Important
			if cur, ok := won[prop]; ok && dw.less(cur.weight) {
				continue
			}
			won[prop] = winner{value: strings.TrimSpace(decl.Value), weight: dw}
		}
	}

	for _, r := range sheet {
		if r.sel.Match(el.n) {
			apply(r.decls, declWeight{spec: r.spec, order: r.order})
		}
	}
	if inline, ok := el.Attr("style"); ok {
		apply(parseInlineStyle(inline), declWeight{inline: true, order: len(sheet)})
	}

	if len(won) == 0 {
		return nil
	}
	out := make(map[string]string, len(won))
	for prop, w := range won {
		out[prop] = w.value
	}
	return out
}

func (n *Node) resolve() {
	parentColor, parentBg, parentSize := DefaultColor, DefaultBackground, defaultFontSize
	if n.parent != nil {
		parentColor, parentBg, parentSize = n.parent.color, n.parent.background, n.parent.fontSize
	}

	n.color = parentColor
	if v, ok := n.Style("color"); ok {
		switch strings.ToLower(v) {
		case "inherit", "unset", "currentcolor":
		case "initial":
			n.color = DefaultColor
		default:
			n.color = v
		}
	}

	n.background = parentBg
	if v, ok := backgroundColor(n); ok {
		n.background = v
	}

	n.fontSize = parentSize
	if v, ok := n.Style("font-size"); ok {
		if px, ok := parseFontSize(v, parentSize); ok {
			n.fontSize = px
		}
	} else if scale, ok := uaFontScale[n.Tag()]; ok {
		n.fontSize = parentSize * scale
	}
}

// backgroundColor extracts the element's own background color from
// background-color or the background shorthand. Transparent colors count as
// undeclared. An unparsable background-color is returned as-is so that
// contrast evaluation fails open on it.
func backgroundColor(n *Node) (string, bool) {
	if v, ok := n.Style("background-color"); ok {
		switch strings.ToLower(v) {
		case "inherit", "unset", "initial", "currentcolor":
			return "", false
		}
		c, err := color.Parse(v)
		if err == nil && c.Transparent() {
			return "", false
		}
		return v, true
	}

	v, ok := n.Style("background")
	if !ok {
		return "", false
	}
	if c, err := color.Parse(v); err == nil {
		return v, !c.Transparent()
	}
	for _, tok := range splitOutsideParens(v) {
		if c, err := color.Parse(tok); err == nil {
			return tok, !c.Transparent()
		}
	}
	return "", false
}

// splitOutsideParens splits on whitespace that is not inside parentheses, so
// "url(a b.png) rgb(0, 0, 0)" yields two tokens.
func splitOutsideParens(s string) []string {
	var (
		out   []string
		depth int
		start = -1
	)
	for i, r := range s {
		switch {
		case r == '(':
			depth++
		case r == ')':
			depth = max(depth-1, 0)
		case (r == ' ' || r == '\t' || r == '\n') && depth == 0:
			if start >= 0 {
				out = append(out, s[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = append(out, s[start:])
	}
	return out
}

// uaFontScale is the browser default font size of elements relative to
// their parent.
var uaFontScale = map[string]float64{
	"h1":    2,
	"h2":    1.5,
	"h3":    1.17,
	"h4":    1,
	"h5":    0.83,
	"h6":    0.67,
	"small": 1 / 1.2,
}

// absoluteFontSizes maps CSS absolute-size keywords to px.
var absoluteFontSizes = map[string]float64{
	"xx-small":  9,
	"x-small":   10,
	"small":     13,
	"medium":    16,
	"large":     18,
	"x-large":   24,
	"xx-large":  32,
	"xxx-large": 48,
}

// fontUnits converts a unit to px given the parent size.
var fontUnits = []struct {
	suffix string
	toPx   func(v, parent float64) float64
}{
	// Longest suffixes first so "rem" is not read as "em".
	{"rem", func(v, _ float64) float64 { return v * defaultFontSize }},
	{"px", func(v, _ float64) float64 { return v }},
	{"pt", func(v, _ float64) float64 { return v * 96 / 72 }},
	{"pc", func(v, _ float64) float64 { return v * 16 }},
	{"em", func(v, parent float64) float64 { return v * parent }},
	{"%", func(v, parent float64) float64 { return v * parent / 100 }},
}

// parseFontSize converts a font-size value to px. The second return value is
// false when the value cannot be resolved statically (calc(), viewport units,
// var(), inherit) or is not a finite number.
func parseFontSize(v string, parent float64) (float64, bool) {
	v = strings.ToLower(strings.TrimSpace(v))
	v = strings.TrimSpace(strings.TrimSuffix(v, "!important"))

	if px, ok := absoluteFontSizes[v]; ok {
		return px, true
	}
	switch v {
	case "smaller":
		return parent / 1.2, true
	case "larger":
		return parent * 1.2, true
	case "initial":
		return defaultFontSize, true
	}

	for _, u := range fontUnits {
		num, ok := strings.CutSuffix(v, u.suffix)
		if !ok {
			continue
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
		if err != nil || f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return u.toPx(f, parent), true
	}
	return 0, false
}
