package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/transform"
)

const (
	// StdinTarget is the target name that reads the document from standard input.
	StdinTarget = "-"

	// DefaultMaxSize limits the size of a document. Larger documents are
	// rejected rather than truncated, because a truncated page would be
	// audited as if its closing markup were missing.
	DefaultMaxSize = 5 * 1024 * 1024 // 5MB

	// DefaultTimeout bounds a single HTTP fetch.
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent identifies a11yscan in HTTP requests.
	DefaultUserAgent = "a11yscan/1.0 (+https://github.com/nao1215/a11yscan)"
)

var (
	// ErrEmptyDocument is returned when the document has no content.
	ErrEmptyDocument = errors.New("empty document")

	// ErrDocumentTooLarge is returned when the document exceeds the size limit.
	ErrDocumentTooLarge = errors.New("document too large")

	// ErrUnsupportedScheme is returned for URLs that are neither http nor https.
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")

	// ErrNotHTML is returned when a server responds with a non-HTML media type.
	ErrNotHTML = errors.New("response is not HTML")

	// ErrHTTPStatus is returned when a server responds with a non-2xx status.
	ErrHTTPStatus = errors.New("unexpected HTTP status")
)

// Document is a loaded HTML document, decoded to UTF-8.
type Document struct {
	// Target is the file path, URL or "-" the document was loaded from.
	Target string

	// URL is the final URL after redirects. Empty for files and stdin.
	URL string

	// Body is the document markup in UTF-8.
	Body []byte

	// ContentType is the response Content-Type, empty for files and stdin.
	ContentType string

	// Charset is the encoding the raw bytes were decoded from.
	Charset string

	// StatusCode is the HTTP status, zero for files and stdin.
	StatusCode int

	// Size is the number of raw bytes read.
	Size int64

	// FetchedAt is when the document was loaded.
	FetchedAt time.Time
}

// Reader returns a reader over the document body.
func (d *Document) Reader() io.Reader {
	return bytes.NewReader(d.Body)
}

// IsRemote reports whether the document was fetched over HTTP.
func (d *Document) IsRemote() bool {
	return d.URL != ""
}

// Loader reads documents from files, standard input and http(s) URLs.
type Loader struct {
	client    *http.Client
	maxSize   int64
	userAgent string
	stdin     io.Reader
	now       func() time.Time
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithHTTPClient replaces the HTTP client used for URL targets.
func WithHTTPClient(c *http.Client) LoaderOption {
	return func(l *Loader) {
		if c != nil {
			l.client = c
		}
	}
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(d time.Duration) LoaderOption {
	return func(l *Loader) {
		if d > 0 {
			l.client = &http.Client{Timeout: d}
		}
	}
}

// WithMaxSize sets the document size limit in bytes.
func WithMaxSize(n int64) LoaderOption {
	return func(l *Loader) {
		if n > 0 {
			l.maxSize = n
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) LoaderOption {
	return func(l *Loader) {
		if ua != "" {
			l.userAgent = ua
		}
	}
}

// WithStdin sets the reader used for the "-" target.
func WithStdin(r io.Reader) LoaderOption {
	return func(l *Loader) {
		l.stdin = r
	}
}

// WithClock sets the time source for Document.FetchedAt.
func WithClock(now func() time.Time) LoaderOption {
	return func(l *Loader) {
		if now != nil {
			l.now = now
		}
	}
}

// NewLoader creates a Loader with default limits.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		client:    &http.Client{Timeout: DefaultTimeout},
		maxSize:   DefaultMaxSize,
		userAgent: DefaultUserAgent,
		stdin:     os.Stdin,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// MaxSize returns the document size limit in bytes.
func (l *Loader) MaxSize() int64 {
	return l.maxSize
}

// Request holds per-target request settings for URL targets.
type Request struct {
	// Headers are extra HTTP headers.
	Headers map[string]string

	// Cookie is sent as the Cookie header when set.
	Cookie string
}

// Load reads the target. "-" reads standard input, http and https URLs are
// fetched, file URLs and plain paths are read from disk.
func (l *Loader) Load(ctx context.Context, target string, req Request) (*Document, error) {
	if target == StdinTarget {
		return l.loadReader(target, l.stdin)
	}

	if u, err := url.Parse(target); err == nil && len(u.Scheme) > 1 {
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return l.fetch(ctx, target, req)
		case "file":
			return l.loadFile(target, u.Path)
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, u.Scheme)
		}
	}
	return l.loadFile(target, target)
}

func (l *Loader) loadReader(target string, r io.Reader) (*Document, error) {
	raw, err := l.readLimited(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", target, err)
	}
	return l.newDocument(target, raw, "")
}

func (l *Loader) loadFile(target, path string) (*Document, error) {
	f, err := os.Open(path) //nolint:gosec // reading user-supplied paths is the purpose
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", target, err)
	}
	defer f.Close()

	if info, err := f.Stat(); err == nil && info.Size() > l.maxSize {
		return nil, fmt.Errorf("%w: %s is %d bytes (limit %d)", ErrDocumentTooLarge, target, info.Size(), l.maxSize)
	}
	return l.loadReader(target, f)
}

func (l *Loader) fetch(ctx context.Context, target string, r Request) (*Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %s: %w", target, err)
	}
	req.Header.Set("User-Agent", l.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.5")
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}
	if r.Cookie != "" {
		req.Header.Set("Cookie", r.Cookie)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s returned %d", ErrHTTPStatus, target, resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if !isHTML(contentType) {
		return nil, fmt.Errorf("%w: %s is %s", ErrNotHTML, target, contentType)
	}
	if resp.ContentLength > l.maxSize {
		return nil, fmt.Errorf("%w: %s is %d bytes (limit %d)", ErrDocumentTooLarge, target, resp.ContentLength, l.maxSize)
	}

	raw, err := l.readLimited(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", target, err)
	}

	doc, err := l.newDocument(target, raw, contentType)
	if err != nil {
		return nil, err
	}
	doc.URL = resp.Request.URL.String()
	doc.StatusCode = resp.StatusCode
	doc.ContentType = contentType
	return doc, nil
}

// readLimited reads at most maxSize bytes and fails if more are available.
func (l *Loader) readLimited(r io.Reader) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(r, l.maxSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(raw)) > l.maxSize {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrDocumentTooLarge, l.maxSize)
	}
	return raw, nil
}

func (l *Loader) newDocument(target string, raw []byte, contentType string) (*Document, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyDocument, target)
	}

	body, name, err := decode(raw, contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s as %s: %w", target, name, err)
	}

	return &Document{
		Target:    target,
		Body:      body,
		Charset:   name,
		Size:      int64(len(raw)),
		FetchedAt: l.now(),
	}, nil
}

var utf8BOM = []byte("\xef\xbb\xbf")

// decode converts raw bytes to UTF-8 using the Content-Type charset, a byte
// order mark or a <meta> declaration. Undeclared input that is valid UTF-8 is
// kept as is, since the fallback guess only inspects the first kilobyte.
func decode(raw []byte, contentType string) ([]byte, string, error) {
	enc, name, certain := charset.DetermineEncoding(raw, contentType)
	if name == "utf-8" || (!certain && utf8.Valid(raw)) {
		return bytes.TrimPrefix(raw, utf8BOM), "utf-8", nil
	}

	out, _, err := transform.Bytes(enc.NewDecoder(), raw)
	if err != nil {
		return nil, name, err
	}
	return out, name, nil
}

// isHTML reports whether a Content-Type denotes an HTML document.
// A missing Content-Type is accepted.
func isHTML(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	switch mediaType {
	case "text/html", "application/xhtml+xml":
		return true
	default:
		return false
	}
}
