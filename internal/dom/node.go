package dom

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// snippetMax is the maximum length in runes of Node.Snippet.
const snippetMax = 120

// Node is an element of a Document.
type Node struct {
	n      *html.Node
	doc    *Document
	parent *Node

	// index is the position of the element in document order.
	index int

	// style holds the cascaded declarations of this element.
	style map[string]string

	// resolved values, computed top-down during Parse.
	color      string
	background string
	fontSize   float64
}

// Tag returns the lowercase tag name.
func (n *Node) Tag() string {
	return n.n.Data
}

// Index returns the position of the element in document order.
func (n *Node) Index() int {
	return n.index
}

// Attr returns the value of an attribute and whether it is present.
// Attribute names are matched case-insensitively; the HTML parser already
// lowercases them, so this matters only for foreign content.
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, name) {
			return a.Val, true
		}
	}
	return "", false
}

// HasAttr reports whether an attribute is present, whatever its value.
func (n *Node) HasAttr(name string) bool {
	_, ok := n.Attr(name)
	return ok
}

// AttrValue returns the trimmed attribute value, or "" when absent.
func (n *Node) AttrValue(name string) string {
	v, _ := n.Attr(name)
	return strings.TrimSpace(v)
}

// ID returns the id attribute.
func (n *Node) ID() string {
	return n.AttrValue("id")
}

// Parent returns the parent element, or nil for the root element.
func (n *Node) Parent() *Node {
	return n.parent
}

// Closest returns the nearest ancestor (or n itself) with the given tag.
func (n *Node) Closest(tag string) *Node {
	for cur := n; cur != nil; cur = cur.parent {
		if cur.Tag() == tag {
			return cur
		}
	}
	return nil
}

// Text returns the text content of the element and its descendants with
// whitespace collapsed. Script and style contents are skipped.
func (n *Node) Text() string {
	var parts []string
	var walk func(*html.Node)
	walk = func(h *html.Node) {
		switch h.Type {
		case html.TextNode:
			parts = append(parts, strings.Fields(h.Data)...)
		case html.ElementNode:
			if h.Data == "script" || h.Data == "style" {
				return
			}
		}
		for c := h.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n.n)
	return strings.Join(parts, " ")
}

// OwnsText reports whether n contains visible text that is not inside a
// descendant element declaring one of props. With props "color" and
// "background-color" it tells whether n is the element that styles some of
// the text below it.
func (n *Node) OwnsText(props ...string) bool {
	var walk func(h *html.Node, top bool) bool
	walk = func(h *html.Node, top bool) bool {
		switch h.Type {
		case html.TextNode:
			return strings.TrimSpace(h.Data) != ""
		case html.ElementNode:
			if h.Data == "script" || h.Data == "style" {
				return false
			}
			if !top {
				if el := n.doc.byNode[h]; el != nil && el.DeclaresStyle(props...) {
					return false
				}
			}
		}
		for c := h.FirstChild; c != nil; c = c.NextSibling {
			if walk(c, false) {
				return true
			}
		}
		return false
	}
	return walk(n.n, true)
}

// Snippet renders the opening tag of the element, truncated for display.
// It identifies the element in findings without dumping its subtree.
func (n *Node) Snippet() string {
	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(n.n.Data)
	for _, a := range n.n.Attr {
		b.WriteByte(' ')
		if a.Namespace != "" {
			b.WriteString(a.Namespace)
			b.WriteByte(':')
		}
		b.WriteString(a.Key)
		b.WriteString(`="`)
		b.WriteString(html.EscapeString(a.Val))
		b.WriteByte('"')
	}
	b.WriteByte('>')

	s := b.String()
	if utf8.RuneCountInString(s) <= snippetMax {
		return s
	}
	runes := []rune(s)
	return string(runes[:snippetMax-1]) + "…"
}

// Style returns the value the element itself declares for a CSS property,
// from inline style or a matching <style> rule. Inherited values are not
// included; use the Resolved accessors for those.
func (n *Node) Style(prop string) (string, bool) {
	v, ok := n.style[strings.ToLower(prop)]
	return v, ok
}

// DeclaresStyle reports whether the element declares any of props.
func (n *Node) DeclaresStyle(props ...string) bool {
	for _, p := range props {
		if _, ok := n.Style(p); ok {
			return true
		}
	}
	return false
}

// ResolvedColor returns the inherited foreground color, "#000000" when no
// ancestor declares a usable color.
func (n *Node) ResolvedColor() string {
	return n.color
}

// ResolvedBackground returns the nearest non-transparent background color
// declared on the element or an ancestor, "#ffffff" when none is declared.
func (n *Node) ResolvedBackground() string {
	return n.background
}

// ResolvedFontSize returns the computed font size in px.
func (n *Node) ResolvedFontSize() float64 {
	return n.fontSize
}

// DeclaredFontSize returns the computed font size in px when the element
// itself declares a font-size that resolves to a number.
func (n *Node) DeclaredFontSize() (float64, bool) {
	v, ok := n.Style("font-size")
	if !ok {
		return 0, false
	}
	parent := defaultFontSize
	if n.parent != nil {
		parent = n.parent.fontSize
	}
	return parseFontSize(v, parent)
}
