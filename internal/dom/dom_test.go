package dom

import (
	"errors"
	"strings"
	"testing"
	"testing/iotest"
)

func mustParse(t *testing.T, src string) *Document {
	t.Helper()
	doc, err := ParseString(src)
	if err != nil {
		t.Fatalf("ParseString failed: %v", err)
	}
	return doc
}

// TestParseTolerant tests that malformed markup still yields a document.
func TestParseTolerant(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `<div><p>unclosed <b>bold<img src=x.png></div></span>`)
	if doc.Count("img") != 1 {
		t.Errorf("expected 1 img, got %d", doc.Count("img"))
	}
	if doc.Body() == nil {
		t.Error("parser should synthesise a body")
	}
}

// TestParseReaderError tests that read failures are reported.
func TestParseReaderError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	if _, err := Parse(iotest.ErrReader(boom)); !errors.Is(err, boom) {
		t.Errorf("expected reader error, got %v", err)
	}
}

// TestQuery tests selector matching and document order.
func TestQuery(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `<html><body>
<nav id="top" class="menu main"><a href="/">Home</a><button>Go</button></nav>
<main><section><a href="/x" tabindex="2">X</a><input type="text" required></section></main>
<div tabindex="0">focusable div</div>
</body></html>`)

	testCases := []struct {
		selector string
		tags     []string
	}{
		{"a", []string{"a", "a"}},
		{"a, button", []string{"a", "button", "a"}},
		{"button, a", []string{"a", "button", "a"}},
		{"#top", []string{"nav"}},
		{".menu", []string{"nav"}},
		{"[tabindex]", []string{"a", "div"}},
		{`[type="text"]`, []string{"input"}},
		{"main a", []string{"a"}},
		{"nav > a", []string{"a"}},
		{"input[required]", []string{"input"}},
		{"h1", nil},
		{"p[", nil},
	}

	for _, tc := range testCases {
		t.Run(tc.selector, func(t *testing.T) {
			t.Parallel()

			got := doc.Query(tc.selector)
			if len(got) != len(tc.tags) {
				t.Fatalf("Query(%q) returned %d nodes, expected %d", tc.selector, len(got), len(tc.tags))
			}
			for i, n := range got {
				if n.Tag() != tc.tags[i] {
					t.Errorf("node %d = %s, expected %s", i, n.Tag(), tc.tags[i])
				}
				if i > 0 && got[i-1].Index() >= n.Index() {
					t.Errorf("results not in document order")
				}
			}
		})
	}

	if _, err := Compile("p["); !errors.Is(err, ErrInvalidSelector) {
		t.Errorf("expected ErrInvalidSelector, got %v", err)
	}
}

// TestNodeAccessors tests attribute, text and ancestor helpers.
func TestNodeAccessors(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `<form id="f"><label for="name">Name <b>(required)</b></label>
<input id="name" alt="" data-x=" y "><script>var x = 1;</script></form>`)

	input := doc.ElementByID("name")
	if input == nil || input.Tag() != "input" {
		t.Fatalf("ElementByID(name) = %v", input)
	}
	if v, ok := input.Attr("alt"); !ok || v != "" {
		t.Errorf("empty alt should be present: %q, %v", v, ok)
	}
	if _, ok := input.Attr("title"); ok {
		t.Error("absent attribute reported as present")
	}
	if input.AttrValue("data-x") != "y" {
		t.Errorf("AttrValue should trim, got %q", input.AttrValue("data-x"))
	}
	if form := input.Closest("form"); form == nil || form.ID() != "f" {
		t.Error("Closest(form) failed")
	}
	if input.Closest("table") != nil {
		t.Error("Closest should return nil when no ancestor matches")
	}

	form := doc.ElementByID("f")
	if got := form.Text(); got != "Name (required)" {
		t.Errorf("Text() = %q", got)
	}
	if !doc.HasID("f") || doc.HasID("ghost") {
		t.Error("HasID mismatch")
	}
}

// TestOwnsText tests detection of text styled by an element itself.
func TestOwnsText(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `<div id="dark" style="background:#000"><p id="light" style="color:#fff">hi</p></div>
<p id="wrapper" style="color:#777"><span id="inner">text</span></p>
<div id="empty" style="color:red">   <script>var x;</script></div>`)

	testCases := []struct {
		id   string
		owns bool
	}{
		{"dark", false},
		{"light", true},
		{"wrapper", true},
		{"inner", true},
		{"empty", false},
	}
	for _, tc := range testCases {
		t.Run(tc.id, func(t *testing.T) {
			t.Parallel()
			if got := doc.ElementByID(tc.id).OwnsText("color", "background-color", "background"); got != tc.owns {
				t.Errorf("OwnsText() = %v, expected %v", got, tc.owns)
			}
		})
	}
}

// TestSnippet tests opening-tag rendering and truncation.
func TestSnippet(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `<img src="x.png" alt="a &quot;b&quot;"><p title="`+strings.Repeat("x", 300)+`">t</p>`)

	img := doc.Query("img")[0]
	if got := img.Snippet(); got != `<img src="x.png" alt="a &#34;b&#34;">` {
		t.Errorf("Snippet() = %q", got)
	}

	p := doc.Query("p")[0]
	s := p.Snippet()
	if !strings.HasSuffix(s, "…") || len([]rune(s)) != snippetMax {
		t.Errorf("long snippet not truncated: %d runes", len([]rune(s)))
	}
}

// TestComputedStyle tests the cascade and inherited resolution.
func TestComputedStyle(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `<html><head><style>
p { color: #333333; font-size: 12px }
.note { color: #777777 }
#hero { background-color: navy; font-size: 2em }
div.box { background: url(bg.png) no-repeat #eeeeee }
@media print { p { color: red } }
</style></head><body>
<p id="plain">plain</p>
<p class="note" id="note">note</p>
<p class="note" id="inline" style="color:#111111">inline</p>
<p class="note" id="weak" style="color:red">weak</p>
<div id="hero"><span id="child">c</span><h1 id="title">t</h1></div>
<div class="box"><em id="boxed">b</em></div>
<div style="background-color: transparent"><i id="transparent">t</i></div>
<div style="color: var(--fg); background-color: rgba(0,0,0,0)"><u id="var">v</u></div>
<span id="default">d</span>
</body></html>`)

	get := func(id string) *Node {
		t.Helper()
		n := doc.ElementByID(id)
		if n == nil {
			t.Fatalf("no element #%s", id)
		}
		return n
	}

	testCases := []struct {
		id         string
		color      string
		background string
		fontSize   float64
	}{
		{"plain", "#333333", "#ffffff", 12},
		{"note", "#777777", "#ffffff", 12},
		{"inline", "#111111", "#ffffff", 12},
		{"weak", "red", "#ffffff", 12},
		{"hero", "#000000", "navy", 32},
		{"child", "#000000", "navy", 32},
		{"title", "#000000", "navy", 64},
		{"boxed", "#000000", "#eeeeee", 16},
		{"transparent", "#000000", "#ffffff", 16},
		{"var", "var(--fg)", "#ffffff", 16},
		{"default", "#000000", "#ffffff", 16},
	}

	for _, tc := range testCases {
		t.Run(tc.id, func(t *testing.T) {
			t.Parallel()

			n := get(tc.id)
			if got := n.ResolvedColor(); got != tc.color {
				t.Errorf("ResolvedColor() = %q, expected %q", got, tc.color)
			}
			if got := n.ResolvedBackground(); got != tc.background {
				t.Errorf("ResolvedBackground() = %q, expected %q", got, tc.background)
			}
			if got := n.ResolvedFontSize(); got != tc.fontSize {
				t.Errorf("ResolvedFontSize() = %v, expected %v", got, tc.fontSize)
			}
		})
	}

	if _, ok := get("child").Style("color"); ok {
		t.Error("Style should not report inherited values")
	}
	if !get("note").DeclaresStyle("background-color", "color") {
		t.Error("DeclaresStyle should find color")
	}
	if px, ok := get("hero").DeclaredFontSize(); !ok || px != 32 {
		t.Errorf("DeclaredFontSize() = %v, %v", px, ok)
	}
	if _, ok := get("child").DeclaredFontSize(); ok {
		t.Error("child declares no font-size")
	}
}

// TestImportantOverridesInline tests that !important in a stylesheet beats
// a normal inline declaration.
func TestImportantOverridesInline(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `<style>p { color: #222222 !important }</style><p id="p" style="color: #999999">x</p>`)
	if got := doc.ElementByID("p").ResolvedColor(); got != "#222222" {
		t.Errorf("ResolvedColor() = %q", got)
	}
}

// TestParseInlineStyle tests the inline declaration parser.
func TestParseInlineStyle(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name  string
		input string
		want  map[string]string
	}{
		{"no trailing semicolon", "color:#777777;background-color:#ffffff;font-size:14px", map[string]string{
			"color": "#777777", "background-color": "#ffffff", "font-size": "14px",
		}},
		{"doubled semicolons", "color: red;; ; font-size: 1em;", map[string]string{
			"color": "red", "font-size": "1em",
		}},
		{"functional value", "background: rgb(1, 2, 3)", map[string]string{
			"background": "rgb(1, 2, 3)",
		}},
		{"empty", "  ", map[string]string{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := make(map[string]string)
			for _, d := range parseInlineStyle(tc.input) {
				got[strings.ToLower(d.Property)] = strings.TrimSpace(d.Value)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("got %v, expected %v", got, tc.want)
			}
			for k, v := range tc.want {
				if got[k] != v {
					t.Errorf("%s = %q, expected %q", k, got[k], v)
				}
			}
		})
	}
}

// TestParseFontSize tests unit conversion.
func TestParseFontSize(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		input    string
		parent   float64
		expected float64
		ok       bool
	}{
		{"14px", 16, 14, true},
		{"12pt", 16, 16, true},
		{"1.5em", 10, 15, true},
		{"2rem", 10, 32, true},
		{"50%", 20, 10, true},
		{"small", 16, 13, true},
		{"larger", 10, 12, true},
		{"13PX !important", 16, 13, true},
		{"calc(1em + 2px)", 16, 0, false},
		{"2vw", 16, 0, false},
		{"inherit", 16, 0, false},
		{"-3px", 16, 0, false},
		{"12", 16, 0, false},
		{"nanpx", 16, 0, false},
		{"NaNem", 16, 0, false},
		{"infpx", 16, 0, false},
		{"-Infrem", 16, 0, false},
		{"1e400px", 16, 0, false},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			t.Parallel()

			got, ok := parseFontSize(tc.input, tc.parent)
			if ok != tc.ok {
				t.Fatalf("parseFontSize(%q) ok = %v, expected %v", tc.input, ok, tc.ok)
			}
			if ok && (got-tc.expected > 1e-9 || tc.expected-got > 1e-9) {
				t.Errorf("parseFontSize(%q) = %v, expected %v", tc.input, got, tc.expected)
			}
		})
	}
}

// TestNonFiniteFontSize tests that NaN and infinite sizes are treated as absent.
func TestNonFiniteFontSize(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `<p id="p" style="font-size:nanpx">x<span id="s" style="font-size:2em">y</span></p>`+
		`<p id="inf" style="font-size:infpx">z</p>`)

	p := doc.ElementByID("p")
	if _, ok := p.DeclaredFontSize(); ok {
		t.Error("expected nanpx not to resolve")
	}
	if got := p.ResolvedFontSize(); got != 16 {
		t.Errorf("paragraph font size = %v, expected the inherited 16", got)
	}
	if got := doc.ElementByID("s").ResolvedFontSize(); got != 32 {
		t.Errorf("child font size = %v, expected 32", got)
	}
	if got := doc.ElementByID("inf").ResolvedFontSize(); got != 16 {
		t.Errorf("infpx font size = %v, expected 16", got)
	}
}
