package dom

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// ErrInvalidSelector is returned by Compile for selectors it cannot parse.
var ErrInvalidSelector = errors.New("invalid selector")

// Document is a parsed HTML document with precomputed element styles.
//
// Design decision: Every element is indexed and its computed style resolved
// once, during Parse. After that the Document is read-only, so checks can
// query it repeatedly (and concurrently) without locks or lazy caches.
type Document struct {
	root *html.Node

	// elements holds every element node in document order.
	elements []*Node

	// byNode maps the underlying html.Node to its wrapper.
	byNode map[*html.Node]*Node

	// ids maps an id attribute value to the first element carrying it.
	ids map[string]*Node
}

// Parse reads and parses an HTML document.
//
// Parsing is tolerant: malformed markup is repaired the way browsers do it,
// so Parse only fails when reading from r fails.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return newDocument(root), nil
}

// ParseString parses an HTML document held in memory.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

func newDocument(root *html.Node) *Document {
	d := &Document{
		root:   root,
		byNode: make(map[*html.Node]*Node),
		ids:    make(map[string]*Node),
	}

	var walk func(n *html.Node, parent *Node)
	walk = func(n *html.Node, parent *Node) {
		next := parent
		if n.Type == html.ElementNode {
			el := &Node{n: n, doc: d, parent: parent, index: len(d.elements)}
			d.elements = append(d.elements, el)
			d.byNode[n] = el
			if id, ok := el.Attr("id"); ok && id != "" {
				if _, dup := d.ids[id]; !dup {
					d.ids[id] = el
				}
			}
			next = el
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, next)
		}
	}
	walk(root, nil)

	d.computeStyles(collectStylesheet(root))
	return d
}

// Elements returns every element in document order.
func (d *Document) Elements() []*Node {
	out := make([]*Node, len(d.elements))
	copy(out, d.elements)
	return out
}

// Len returns the number of elements in the document.
func (d *Document) Len() int {
	return len(d.elements)
}

// Selector is a compiled CSS selector group.
type Selector struct {
	group cascadia.SelectorGroup
	text  string
}

// String returns the selector source.
func (s Selector) String() string {
	return s.text
}

// Compile parses a selector group such as "a, button, [tabindex]".
func Compile(selector string) (Selector, error) {
	group, err := cascadia.ParseGroup(selector)
	if err != nil {
		return Selector{}, fmt.Errorf("%w %q: %w", ErrInvalidSelector, selector, err)
	}
	return Selector{group: group, text: selector}, nil
}

// MustCompile is like Compile but panics on error. It is intended for
// package-level selector variables.
func MustCompile(selector string) Selector {
	s, err := Compile(selector)
	if err != nil {
		panic(err)
	}
	return s
}

// Match reports whether the selector matches n.
func (s Selector) Match(n *Node) bool {
	return n != nil && s.group != nil && s.group.Match(n.n)
}

// Select returns every element matching s in document order.
func (d *Document) Select(s Selector) []*Node {
	var out []*Node
	for _, el := range d.elements {
		if s.Match(el) {
			out = append(out, el)
		}
	}
	return out
}

// Query returns every element matching selector in document order.
// An invalid selector matches nothing.
func (d *Document) Query(selector string) []*Node {
	s, err := Compile(selector)
	if err != nil {
		return nil
	}
	return d.Select(s)
}

// Count returns the number of elements matching selector.
func (d *Document) Count(selector string) int {
	return len(d.Query(selector))
}

// ElementByID returns the first element whose id equals id, or nil.
func (d *Document) ElementByID(id string) *Node {
	return d.ids[id]
}

// HasID reports whether any element carries the given id.
func (d *Document) HasID(id string) bool {
	_, ok := d.ids[id]
	return ok
}

// Body returns the body element. The HTML parser always synthesises one,
// so Body is nil only for documents built from fragments.
func (d *Document) Body() *Node {
	for _, el := range d.elements {
		if el.Tag() == "body" {
			return el
		}
	}
	return nil
}
