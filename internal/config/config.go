package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/a11yscan/internal/model"
	"github.com/nao1215/a11yscan/internal/source"
)

// Default configuration values.
const (
	// DefaultLevel is the WCAG conformance level audited when none is given.
	DefaultLevel = model.LevelAA

	// DefaultTimeout bounds a single URL fetch. Local files ignore it.
	DefaultTimeout = source.DefaultTimeout

	// DefaultBatchSize of 4 concurrent audits keeps remote servers from seeing
	// a burst of requests while still overlapping slow fetches.
	DefaultBatchSize = 4

	// DefaultMaxSize rejects documents larger than 5MB.
	DefaultMaxSize = source.DefaultMaxSize

	// DefaultCrawlDepth of 0 audits only the given URL. Crawling is opt-in.
	DefaultCrawlDepth = 0

	// DefaultMaxPages caps the pages audited per crawled URL target.
	DefaultMaxPages = 20

	// DefaultCrawlDelay is the politeness delay between crawled pages.
	DefaultCrawlDelay = 500 * time.Millisecond

	// DefaultUserAgent identifies a11yscan in HTTP requests.
	DefaultUserAgent = source.DefaultUserAgent

	// AppName is the application name used for XDG directory paths.
	AppName = "a11yscan"
)

// Config holds all configuration options for a11yscan.
// It is populated from CLI flags and the optional .a11yscan file, then
// passed down explicitly rather than kept in global state.
//
// Design decision: We use a single flat struct instead of nested structs
// for simplicity. The number of options is manageable.
type Config struct {
	// Targets are file paths, http(s) URLs or "-" for standard input.
	Targets []string

	// Level is the WCAG conformance level, "AA" or "AAA".
	Level model.Level

	// RulesFile is a YAML rule table override applied on top of the
	// built-in thresholds and any rules: section of the config file.
	RulesFile string

	// JSONReport, MarkdownReport and HTMLReport select the report format.
	// At most one may be set; the default is the human-readable text report.
	JSONReport     bool
	MarkdownReport bool
	HTMLReport     bool

	// ReportFile is the output file path for the report.
	// When empty, the report is written to stdout.
	ReportFile string

	// BatchSize is the number of targets audited concurrently.
	BatchSize int

	// Timeout bounds a single URL fetch.
	Timeout time.Duration

	// MaxSize is the document size limit in bytes.
	MaxSize int64

	// NoSave disables storing reports in the history database.
	NoSave bool

	// DBDir is the directory of the history database.
	// Defaults to the XDG data directory (~/.local/share/a11yscan on Linux).
	DBDir string

	// MetricsFile, when set, receives Prometheus metrics in text format
	// after the run.
	MetricsFile string

	// Recommend attaches a design recommendation to every report.
	Recommend bool

	// Industry and Tone select the design preset for recommendations.
	Industry string
	Tone     string

	// FailUnder makes the scan command fail when any score is below it.
	// Zero disables the check.
	FailUnder int

	// CrawlDepth is how many link levels to follow from URL targets.
	// 0 audits only the target itself.
	CrawlDepth int

	// MaxPages is the maximum number of pages audited per crawled target.
	MaxPages int

	// CrawlDelay is the delay between page fetches while crawling.
	CrawlDelay time.Duration

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, FindConfigFile searches the usual locations.
	ConfigFilePath string

	// File holds the loaded configuration file, nil when there is none.
	File *File
}

// NewConfig creates a new Config with default values.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., timeout, level).
func NewConfig() *Config {
	return &Config{
		Level:      DefaultLevel,
		BatchSize:  DefaultBatchSize,
		Timeout:    DefaultTimeout,
		MaxSize:    DefaultMaxSize,
		CrawlDepth: DefaultCrawlDepth,
		MaxPages:   DefaultMaxPages,
		CrawlDelay: DefaultCrawlDelay,
		UserAgent:  DefaultUserAgent,
		DBDir:      XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for a11yscan.
// On Linux: ~/.local/share/a11yscan
// On macOS: ~/Library/Application Support/a11yscan
// On Windows: %LOCALAPPDATA%\a11yscan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for a11yscan.
// On Linux: ~/.config/a11yscan
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// ReportFormat returns the selected report format name:
// "json", "markdown", "html" or "text".
func (c *Config) ReportFormat() string {
	switch {
	case c.JSONReport:
		return "json"
	case c.MarkdownReport:
		return "markdown"
	case c.HTMLReport:
		return "html"
	default:
		return "text"
	}
}

// Validate checks if the configuration is valid.
// It returns the first problem found as a sentinel error.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}

	if _, ok := model.ParseLevel(string(c.Level)); !ok {
		return ErrInvalidLevel
	}

	formats := 0
	for _, on := range []bool{c.JSONReport, c.MarkdownReport, c.HTMLReport} {
		if on {
			formats++
		}
	}
	if formats > 1 {
		return ErrConflictingReportFormats
	}

	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.MaxSize <= 0 {
		return ErrInvalidMaxSize
	}

	if c.FailUnder < 0 || c.FailUnder > model.MaxScore {
		return ErrInvalidFailUnder
	}

	if c.CrawlDepth < 0 {
		return ErrInvalidCrawlDepth
	}

	if c.CrawlDelay < 0 {
		return ErrInvalidCrawlDelay
	}

	return nil
}
