package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/nao1215/a11yscan/internal/source"
)

// TestParser tests HTML parsing functionality.
func TestParser(t *testing.T) {
	t.Parallel()

	t.Run("extracts title", func(t *testing.T) {
		t.Parallel()

		html := `<html><head><title> Test Page </title></head><body></body></html>`
		parser, err := NewParser("https://example.com/page")
		if err != nil {
			t.Fatalf("failed to create parser: %v", err)
		}

		result, err := parser.Parse(strings.NewReader(html))
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}

		if result.Title != "Test Page" {
			t.Errorf("expected title 'Test Page', got %q", result.Title)
		}
	})

	t.Run("extracts links and classifies them", func(t *testing.T) {
		t.Parallel()

		html := `<html><body>
			<a href="/internal">Internal Link</a>
			<a href="https://EXAMPLE.com/same">Same Host</a>
			<a href="https://other.example.org/external">External</a>
			<map><area href="/area" alt="Area"></map>
		</body></html>`

		parser, err := NewParser("https://example.com/page")
		if err != nil {
			t.Fatalf("failed to create parser: %v", err)
		}

		result, err := parser.Parse(strings.NewReader(html))
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}

		if len(result.Links) != 4 {
			t.Errorf("expected 4 links, got %d: %v", len(result.Links), result.Links)
		}
		want := []string{"https://example.com/internal", "https://EXAMPLE.com/same", "https://example.com/area"}
		if !slices.Equal(result.InternalLinks, want) {
			t.Errorf("internal links = %v, expected %v", result.InternalLinks, want)
		}
		if !slices.Equal(result.ExternalLinks, []string{"https://other.example.org/external"}) {
			t.Errorf("external links = %v", result.ExternalLinks)
		}
	})

	t.Run("honors base href", func(t *testing.T) {
		t.Parallel()

		html := `<html><head><base href="/docs/"></head><body><a href="intro.html">Intro</a></body></html>`
		parser, err := NewParser("https://example.com/index.html")
		if err != nil {
			t.Fatalf("failed to create parser: %v", err)
		}

		result, err := parser.Parse(strings.NewReader(html))
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}
		if !slices.Equal(result.Links, []string{"https://example.com/docs/intro.html"}) {
			t.Errorf("links = %v", result.Links)
		}
	})

	t.Run("drops fragments and duplicates", func(t *testing.T) {
		t.Parallel()

		html := `<a href="/a#top">A</a><a href="/a#bottom">A again</a><a href="/a">A once more</a>`
		parser, err := NewParser("https://example.com/")
		if err != nil {
			t.Fatalf("failed to create parser: %v", err)
		}

		result, err := parser.Parse(strings.NewReader(html))
		if err != nil {
			t.Fatalf("failed to parse: %v", err)
		}
		if !slices.Equal(result.Links, []string{"https://example.com/a"}) {
			t.Errorf("links = %v", result.Links)
		}
	})
}

// TestResolveURL tests link resolution edge cases.
func TestResolveURL(t *testing.T) {
	t.Parallel()

	parser, err := NewParser("https://example.com/dir/page.html")
	if err != nil {
		t.Fatalf("failed to create parser: %v", err)
	}

	tests := []struct {
		name string
		href string
		want string
	}{
		{"relative", "other.html", "https://example.com/dir/other.html"},
		{"parent", "../up.html", "https://example.com/up.html"},
		{"absolute path", "/root.html", "https://example.com/root.html"},
		{"whitespace", "  /spaced.html \n", "https://example.com/spaced.html"},
		{"empty", "", ""},
		{"hash only", "#section", ""},
		{"mailto", "mailto:a11y@example.com", ""},
		{"tel", "tel:+1234567890", ""},
		{"javascript", "javascript:void(0)", ""},
		{"data", "data:text/html,<p>x</p>", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := parser.resolveURL(tt.href); got != tt.want {
				t.Errorf("resolveURL(%q) = %q, want %q", tt.href, got, tt.want)
			}
		})
	}
}

// TestParserErrorCases tests parser construction errors.
func TestParserErrorCases(t *testing.T) {
	t.Parallel()

	if _, err := NewParser("://missing-scheme"); err == nil {
		t.Error("expected error for invalid base URL")
	}
}

func htmlHandler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(body)) //nolint:errcheck
	}
}

func newLoader(server *httptest.Server) *source.Loader {
	return source.NewLoader(source.WithHTTPClient(server.Client()))
}

// TestSpider tests crawling against a local server.
func TestSpider(t *testing.T) {
	t.Parallel()

	t.Run("crawls single page", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(htmlHandler(`<html><head><title>Test</title></head><body><a href="/next">n</a></body></html>`))
		defer server.Close()

		spider := NewSpider(newLoader(server), WithMaxDepth(0), WithDelay(0))
		docs, err := spider.Crawl(context.Background(), server.URL, source.Request{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(docs) != 1 {
			t.Fatalf("expected 1 page, got %d", len(docs))
		}
		if docs[0].Target != server.URL {
			t.Errorf("expected target %q, got %q", server.URL, docs[0].Target)
		}
	})

	t.Run("follows links within depth limit", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/{$}", htmlHandler(`<a href="/page1">Page 1</a><a href="/page2">Page 2</a>`))
		mux.HandleFunc("/page1", htmlHandler(`<a href="/deep">Deep</a>`))
		mux.HandleFunc("/page2", htmlHandler(`<p>Page 2</p>`))
		mux.HandleFunc("/deep", htmlHandler(`<p>Too deep</p>`))

		server := httptest.NewServer(mux)
		defer server.Close()

		spider := NewSpider(newLoader(server), WithMaxDepth(1), WithDelay(0))
		docs, err := spider.Crawl(context.Background(), server.URL+"/", source.Request{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var targets []string
		for _, d := range docs {
			targets = append(targets, strings.TrimPrefix(d.Target, server.URL))
		}
		if !slices.Equal(targets, []string{"/", "/page1", "/page2"}) {
			t.Errorf("crawled %v", targets)
		}
	})

	t.Run("respects max pages limit", func(t *testing.T) {
		t.Parallel()

		var links strings.Builder
		for i := range 10 {
			fmt.Fprintf(&links, `<a href="/p%d">p</a>`, i)
		}
		server := httptest.NewServer(htmlHandler(links.String()))
		defer server.Close()

		spider := NewSpider(newLoader(server), WithMaxDepth(3), WithMaxPages(4), WithDelay(0))
		docs, err := spider.Crawl(context.Background(), server.URL, source.Request{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(docs) != 4 {
			t.Errorf("expected 4 pages, got %d", len(docs))
		}
		if stats := spider.Stats(); stats.PagesVisited != 4 {
			t.Errorf("stats = %+v", stats)
		}
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(htmlHandler(`<p>x</p>`))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		spider := NewSpider(newLoader(server), WithDelay(0))
		_, err := spider.Crawl(ctx, server.URL, source.Request{})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("avoids duplicate visits", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32
		mux := http.NewServeMux()
		mux.HandleFunc("/{$}", htmlHandler(`<a href="/a">a</a><a href="/a#x">a</a><a href="/">home</a>`))
		mux.HandleFunc("/a", func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			htmlHandler(`<a href="/">home</a><a href="/a">self</a>`)(w, r)
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		spider := NewSpider(newLoader(server), WithMaxDepth(5), WithDelay(0))
		docs, err := spider.Crawl(context.Background(), server.URL, source.Request{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(docs) != 2 || hits.Load() != 1 {
			t.Errorf("pages = %d, hits on /a = %d", len(docs), hits.Load())
		}
	})

	t.Run("stays on the starting host", func(t *testing.T) {
		t.Parallel()

		var external atomic.Int32
		other := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			external.Add(1)
			htmlHandler(`<p>elsewhere</p>`)(w, r)
		}))
		defer other.Close()

		server := httptest.NewServer(htmlHandler(`<a href="` + other.URL + `/x">away</a>`))
		defer server.Close()

		spider := NewSpider(newLoader(server), WithDelay(0))
		docs, err := spider.Crawl(context.Background(), server.URL, source.Request{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(docs) != 1 || external.Load() != 0 {
			t.Errorf("pages = %d, external hits = %d", len(docs), external.Load())
		}
	})

	t.Run("skips failing linked pages", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/{$}", htmlHandler(`<a href="/gone">gone</a><a href="/ok">ok</a><a href="/logo.png">logo</a>`))
		mux.HandleFunc("/ok", htmlHandler(`<p>ok</p>`))
		mux.HandleFunc("/logo.png", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write([]byte("\x89PNG")) //nolint:errcheck
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		spider := NewSpider(newLoader(server), WithDelay(0))
		docs, err := spider.Crawl(context.Background(), server.URL, source.Request{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(docs) != 2 {
			t.Errorf("expected 2 pages, got %d", len(docs))
		}
	})

	t.Run("returns error when start page fails", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.NotFoundHandler())
		defer server.Close()

		spider := NewSpider(newLoader(server), WithDelay(0))
		if _, err := spider.Crawl(context.Background(), server.URL, source.Request{}); !errors.Is(err, source.ErrHTTPStatus) {
			t.Errorf("expected ErrHTTPStatus, got %v", err)
		}
	})

	t.Run("rejects non-http start URL", func(t *testing.T) {
		t.Parallel()

		spider := NewSpider(source.NewLoader())
		if _, err := spider.Crawl(context.Background(), "file:///tmp/index.html", source.Request{}); !errors.Is(err, source.ErrUnsupportedScheme) {
			t.Errorf("expected ErrUnsupportedScheme, got %v", err)
		}
	})

	t.Run("applies ignore patterns", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/{$}", htmlHandler(`<a href="/admin/panel">admin</a><a href="/docs/a">docs</a>`))
		mux.HandleFunc("/admin/panel", htmlHandler(`<p>admin</p>`))
		mux.HandleFunc("/docs/a", htmlHandler(`<p>docs</p>`))
		server := httptest.NewServer(mux)
		defer server.Close()

		spider := NewSpider(newLoader(server), WithDelay(0), WithIgnorePatterns([]string{"/admin/*"}))
		docs, err := spider.Crawl(context.Background(), server.URL, source.Request{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, d := range docs {
			if strings.Contains(d.Target, "/admin/") {
				t.Errorf("ignored page was crawled: %s", d.Target)
			}
		}
		if len(docs) != 2 {
			t.Errorf("expected 2 pages, got %d", len(docs))
		}
	})
}

// TestSpiderOptions tests option application.
func TestSpiderOptions(t *testing.T) {
	t.Parallel()

	t.Run("WithMaxDepth sets depth", func(t *testing.T) {
		t.Parallel()

		s := NewSpider(nil, WithMaxDepth(3))
		if s.maxDepth != 3 {
			t.Errorf("expected maxDepth 3, got %d", s.maxDepth)
		}
		if s = NewSpider(nil, WithMaxDepth(-1)); s.maxDepth != 1 {
			t.Errorf("negative depth should keep default, got %d", s.maxDepth)
		}
	})

	t.Run("WithMaxPages sets limit", func(t *testing.T) {
		t.Parallel()

		s := NewSpider(nil, WithMaxPages(50))
		if s.maxPages != 50 {
			t.Errorf("expected maxPages 50, got %d", s.maxPages)
		}
		if s = NewSpider(nil, WithMaxPages(0)); s.maxPages != 20 {
			t.Errorf("zero limit should keep default, got %d", s.maxPages)
		}
	})

	t.Run("WithFollowPatterns sets follow patterns", func(t *testing.T) {
		t.Parallel()

		s := NewSpider(nil, WithFollowPatterns([]string{"/docs/*"}))
		if !slices.Equal(s.followPatterns, []string{"/docs/*"}) {
			t.Errorf("followPatterns = %v", s.followPatterns)
		}
	})
}

// TestMatchPattern tests glob pattern matching against URL paths.
func TestMatchPattern(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		pattern string
		path    string
		want    bool
	}{
		{"directory wildcard matches child", "/admin/*", "/admin/dashboard", true},
		{"directory wildcard matches nested", "/admin/*", "/admin/users/1", true},
		{"directory wildcard matches directory itself", "/admin/*", "/admin", true},
		{"directory wildcard rejects sibling", "/admin/*", "/administrator", false},
		{"extension pattern", "*.pdf", "/docs/file.pdf", true},
		{"extension pattern mismatch", "*.pdf", "/docs/file.html", false},
		{"single character", "/api/v?", "/api/v2", true},
		{"exact", "/logout", "/logout", true},
		{"prefix glob", "/logout*", "/logout-now", true},
		{"filename glob", "draft-*", "/posts/draft-1", true},
		{"malformed pattern", "[", "/x", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := matchPattern(tt.pattern, tt.path); got != tt.want {
				t.Errorf("matchPattern(%q, %q) = %v, want %v", tt.pattern, tt.path, got, tt.want)
			}
		})
	}
}

// TestShouldCrawl tests ignore and follow pattern precedence.
func TestShouldCrawl(t *testing.T) {
	t.Parallel()

	t.Run("no patterns allows all", func(t *testing.T) {
		t.Parallel()

		s := NewSpider(nil)
		if !s.shouldCrawl("https://example.com/anything") {
			t.Error("expected URL to be crawled")
		}
	})

	t.Run("follow patterns restrict to matching URLs", func(t *testing.T) {
		t.Parallel()

		s := NewSpider(nil, WithFollowPatterns([]string{"/docs/*"}))
		if !s.shouldCrawl("https://example.com/docs/intro") {
			t.Error("expected /docs/intro to be crawled")
		}
		if s.shouldCrawl("https://example.com/blog/post") {
			t.Error("expected /blog/post to be skipped")
		}
	})

	t.Run("ignore takes precedence over follow", func(t *testing.T) {
		t.Parallel()

		s := NewSpider(nil,
			WithFollowPatterns([]string{"/docs/*"}),
			WithIgnorePatterns([]string{"/docs/private/*"}),
		)
		if s.shouldCrawl("https://example.com/docs/private/key") {
			t.Error("expected ignored URL to be skipped")
		}
	})

	t.Run("empty path treated as root", func(t *testing.T) {
		t.Parallel()

		s := NewSpider(nil, WithFollowPatterns([]string{"/"}))
		if !s.shouldCrawl("https://example.com") {
			t.Error("expected root URL to be crawled")
		}
	})

	t.Run("invalid URL returns false", func(t *testing.T) {
		t.Parallel()

		s := NewSpider(nil)
		if s.shouldCrawl("http://[::1") {
			t.Error("expected invalid URL to be skipped")
		}
	})
}

// TestSpiderResetAndStats tests state bookkeeping.
func TestSpiderResetAndStats(t *testing.T) {
	t.Parallel()

	s := NewSpider(nil)
	s.markVisited("https://example.com/a")
	s.markVisited("https://example.com/a#frag")
	s.markVisited("https://example.com/b")

	if stats := s.Stats(); stats.URLsSeen != 2 || stats.PagesVisited != 0 {
		t.Errorf("stats = %+v", stats)
	}

	s.Reset()
	if s.isVisited("https://example.com/a") {
		t.Error("Reset should clear visited URLs")
	}
	if stats := s.Stats(); stats.URLsSeen != 0 {
		t.Errorf("stats after reset = %+v", stats)
	}
}

// TestNormalizeURL tests URL normalization for deduplication.
func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"removes fragment", "https://example.com/page#section", "https://example.com/page"},
		{"lowercases scheme and host", "HTTPS://Example.COM/Page", "https://example.com/Page"},
		{"adds root path", "https://example.com", "https://example.com/"},
		{"keeps query", "https://example.com/?q=1", "https://example.com/?q=1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := normalizeURL(tt.input); got != tt.want {
				t.Errorf("normalizeURL(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestIsSameService tests host comparison.
func TestIsSameService(t *testing.T) {
	t.Parallel()

	s := NewSpider(nil)
	tests := []struct {
		name string
		url  string
		want bool
	}{
		{"same host", "https://example.com/a", true},
		{"case-insensitive", "https://EXAMPLE.com/a", true},
		{"other host", "https://example.org/a", false},
		{"subdomain", "https://www.example.com/a", false},
		{"different port", "https://example.com:8443/a", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := s.isSameService("example.com", tt.url); got != tt.want {
				t.Errorf("isSameService(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}
