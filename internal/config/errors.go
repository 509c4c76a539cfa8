package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and the file loader, and
// callers use errors.Is() for programmatic handling.
var (
	// ErrNoTarget is returned when no file, URL or "-" target is given.
	ErrNoTarget = errors.New("no target specified: provide a file, URL or - for stdin")

	// ErrInvalidLevel is returned for a conformance level other than AA or AAA.
	ErrInvalidLevel = errors.New("invalid level: must be AA or AAA")

	// ErrConflictingReportFormats is returned when more than one of --json,
	// --markdown and --html is specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: choose one of --json, --markdown or --html")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxSize is returned when the document size limit is not positive.
	ErrInvalidMaxSize = errors.New("invalid max size: must be positive")

	// ErrInvalidFailUnder is returned when --fail-under is outside 0..100.
	ErrInvalidFailUnder = errors.New("invalid fail-under: must be between 0 and 100")

	// ErrInvalidCrawlDepth is returned when the crawl depth is negative.
	ErrInvalidCrawlDepth = errors.New("invalid crawl depth: must be non-negative")

	// ErrInvalidCrawlDelay is returned when the crawl delay is negative.
	ErrInvalidCrawlDelay = errors.New("invalid crawl delay: must be non-negative")
)
