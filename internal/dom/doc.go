// Package dom provides a read-only, queryable view of an HTML document for
// the audit checks.
//
// Documents are parsed with golang.org/x/net/html, which repairs malformed
// markup the way browsers do, so parsing never fails on bad HTML. Elements
// are matched with CSS selectors (github.com/andybalholm/cascadia), and a
// simplified computed style is derived from <style> blocks and inline style
// attributes (github.com/aymerick/douceur):
//
//   - Node.Style returns what the element itself declares
//   - Node.ResolvedColor and Node.ResolvedBackground walk up the ancestors
//   - Node.ResolvedFontSize converts px, pt, em, rem, % and keywords to px
//
// External stylesheets, media queries and pseudo-classes are not evaluated.
package dom
