package database

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/sha3"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/a11yscan/internal/model"
)

// FileName is the name of the history database file inside the data directory.
const FileName = "a11yscan.db"

// timestampLayout sorts lexically in chronological order.
const timestampLayout = "2006-01-02 15:04:05.000"

// ErrDatabaseNotFound is returned by Open when the database file does not
// exist and creation was not requested.
var ErrDatabaseNotFound = errors.New("history database not found")

// HistoryDB provides SQLite-based storage for audit reports.
// Every saved report gets a run ID, so repeated audits of the same target
// build a history that the compare command reads back.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a HistoryDB in the given directory.
// If CreateIfNotExists is false and the database doesn't exist,
// ErrDatabaseNotFound is returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w at %s", ErrDatabaseNotFound, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// mode=rw refuses to create a missing file; mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

// Path returns the database file path.
func (hdb *HistoryDB) Path() string {
	return hdb.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HistoryDB) createTables() error {
	schema := `
	-- Documents hold metadata of the last fetch of each target
	CREATE TABLE IF NOT EXISTS documents (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		target TEXT NOT NULL UNIQUE,
		fetched_at TEXT NOT NULL,
		status_code INTEGER,
		content_type TEXT,
		title TEXT,
		size INTEGER,
		content_hash TEXT
	);

	-- Reports store complete audit reports as JSON
	CREATE TABLE IF NOT EXISTS reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL UNIQUE,
		target TEXT NOT NULL,
		created_at TEXT NOT NULL,
		score INTEGER NOT NULL,
		grade TEXT NOT NULL,
		level TEXT,
		content_hash TEXT,
		report_json TEXT NOT NULL,
		summary_json TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_reports_target ON reports(target);
	CREATE INDEX IF NOT EXISTS idx_reports_created ON reports(created_at);

	-- Rule counts track how often each rule fired in a run
	CREATE TABLE IF NOT EXISTS rule_counts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		report_id INTEGER NOT NULL REFERENCES reports(id) ON DELETE CASCADE,
		rule TEXT NOT NULL,
		bucket TEXT NOT NULL,
		count INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_rule_counts_report ON rule_counts(report_id);
	CREATE INDEX IF NOT EXISTS idx_rule_counts_rule ON rule_counts(rule);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// ContentHash returns the hex SHA3-256 digest of a document body.
// Two runs with the same hash audited identical markup.
func ContentHash(data []byte) string {
	sum := sha3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// DocumentRecord describes the last fetch of a target.
type DocumentRecord struct {
	ID          int64
	Target      string
	FetchedAt   time.Time
	StatusCode  int
	ContentType string
	Title       string
	Size        int64
	ContentHash string
}

// UpsertDocument inserts or replaces the document record of a target.
func (hdb *HistoryDB) UpsertDocument(ctx context.Context, doc *DocumentRecord) error {
	query := `
	INSERT INTO documents (target, fetched_at, status_code, content_type, title, size, content_hash)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(target) DO UPDATE SET
		fetched_at = excluded.fetched_at,
		status_code = excluded.status_code,
		content_type = excluded.content_type,
		title = excluded.title,
		size = excluded.size,
		content_hash = excluded.content_hash
	`

	fetchedAt := doc.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now()
	}

	_, err := hdb.db.ExecContext(ctx, query,
		doc.Target,
		formatTimestamp(fetchedAt),
		doc.StatusCode,
		doc.ContentType,
		doc.Title,
		doc.Size,
		doc.ContentHash,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}
	return nil
}

// GetDocument retrieves the document record of a target.
// Returns nil without error when the target was never fetched.
func (hdb *HistoryDB) GetDocument(ctx context.Context, target string) (*DocumentRecord, error) {
	query := `
	SELECT id, target, fetched_at, status_code, content_type, title, size, content_hash
	FROM documents
	WHERE target = ?
	`

	var doc DocumentRecord
	var fetchedAt string
	err := hdb.db.QueryRowContext(ctx, query, target).Scan(
		&doc.ID,
		&doc.Target,
		&fetchedAt,
		&doc.StatusCode,
		&doc.ContentType,
		&doc.Title,
		&doc.Size,
		&doc.ContentHash,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	doc.FetchedAt = parseTimestamp(fetchedAt)
	return &doc, nil
}

// StoredReport is a report read back from the history.
type StoredReport struct {
	ID          int64
	RunID       string
	Target      string
	ContentHash string
	Report      *model.Report
}

// SaveReport stores a report for a target and returns the generated run ID.
// The per-rule counts are stored in the same transaction.
func (hdb *HistoryDB) SaveReport(ctx context.Context, target, contentHash string, r *model.Report) (string, error) {
	reportJSON, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("failed to serialize report: %w", err)
	}

	summary := map[string]int{
		"critical":   r.Summary.CriticalCount,
		"warning":    r.Summary.WarningCount,
		"suggestion": r.Summary.SuggestionCount,
	}
	summaryJSON, _ := json.Marshal(summary) //nolint:errcheck,errchkjson // a map of ints always marshals

	runID := uuid.NewString()

	tx, err := hdb.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }() //nolint:errcheck // no-op after commit

	res, err := tx.ExecContext(ctx, `
	INSERT INTO reports (run_id, target, created_at, score, grade, level, content_hash, report_json, summary_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		runID,
		target,
		formatTimestamp(r.Timestamp),
		r.Summary.Score,
		r.Summary.Grade,
		string(r.Level),
		contentHash,
		string(reportJSON),
		string(summaryJSON),
	)
	if err != nil {
		return "", fmt.Errorf("failed to save report: %w", err)
	}
	reportID, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("failed to read report id: %w", err)
	}

	for _, rc := range countRules(r) {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO rule_counts (report_id, rule, bucket, count) VALUES (?, ?, ?, ?)`,
			reportID, rc.Rule, rc.Bucket, rc.Count,
		)
		if err != nil {
			return "", fmt.Errorf("failed to save rule counts: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit report: %w", err)
	}
	return runID, nil
}

// countRules groups the findings of a report by rule in first-seen order.
func countRules(r *model.Report) []RuleCount {
	var out []RuleCount
	index := make(map[string]int)
	for _, f := range r.Findings() {
		i, ok := index[f.Rule]
		if !ok {
			i = len(out)
			index[f.Rule] = i
			out = append(out, RuleCount{Rule: f.Rule, Bucket: f.Kind().Bucket().String()})
		}
		out[i].Count++
	}
	return out
}

// GetLatestReport retrieves the most recent report for a target.
// Returns nil without error when the target has no history.
func (hdb *HistoryDB) GetLatestReport(ctx context.Context, target string) (*StoredReport, error) {
	query := `
	SELECT id, run_id, target, content_hash, report_json FROM reports
	WHERE target = ?
	ORDER BY created_at DESC, id DESC
	LIMIT 1
	`
	return hdb.getReport(ctx, query, target)
}

// GetReportByID retrieves a report by its database ID.
func (hdb *HistoryDB) GetReportByID(ctx context.Context, id int64) (*StoredReport, error) {
	query := `
	SELECT id, run_id, target, content_hash, report_json FROM reports
	WHERE id = ?
	`
	return hdb.getReport(ctx, query, id)
}

// GetReportByRunID retrieves a report by its run ID.
func (hdb *HistoryDB) GetReportByRunID(ctx context.Context, runID string) (*StoredReport, error) {
	query := `
	SELECT id, run_id, target, content_hash, report_json FROM reports
	WHERE run_id = ?
	`
	return hdb.getReport(ctx, query, runID)
}

func (hdb *HistoryDB) getReport(ctx context.Context, query string, arg any) (*StoredReport, error) {
	var sr StoredReport
	var contentHash sql.NullString
	var reportJSON string

	err := hdb.db.QueryRowContext(ctx, query, arg).Scan(&sr.ID, &sr.RunID, &sr.Target, &contentHash, &reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	var r model.Report
	if err := json.Unmarshal([]byte(reportJSON), &r); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	sr.ContentHash = contentHash.String
	sr.Report = &r
	return &sr, nil
}

// ListTargets returns all audited targets in sorted order.
func (hdb *HistoryDB) ListTargets(ctx context.Context) ([]string, error) {
	query := `
	SELECT DISTINCT target FROM reports
	ORDER BY target
	`

	rows, err := hdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list targets: %w", err)
	}
	defer rows.Close()

	var targets []string
	for rows.Next() {
		var target string
		if err := rows.Scan(&target); err != nil {
			return nil, fmt.Errorf("failed to scan target: %w", err)
		}
		targets = append(targets, target)
	}

	return targets, rows.Err()
}

// ReportMetadata contains summary information about a stored report.
// This is used for displaying history without loading the full report.
type ReportMetadata struct {
	// ID is the database identifier of the report.
	ID int64

	// RunID is the unique run identifier.
	RunID string

	// Target is the audited file or URL.
	Target string

	// Timestamp is when the audit ran.
	Timestamp time.Time

	// Score and Grade are copied from the report summary.
	Score int
	Grade string

	// ContentHash identifies the audited markup.
	ContentHash string

	// Summary contains finding counts by bucket.
	Summary map[string]int
}

// GetHistory retrieves report metadata for a target, newest first.
func (hdb *HistoryDB) GetHistory(ctx context.Context, target string) ([]ReportMetadata, error) {
	query := `
	SELECT id, run_id, target, created_at, score, grade, content_hash, summary_json
	FROM reports
	WHERE target = ?
	ORDER BY created_at DESC, id DESC
	`

	rows, err := hdb.db.QueryContext(ctx, query, target)
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	var results []ReportMetadata
	for rows.Next() {
		var meta ReportMetadata
		var createdAt string
		var contentHash, summaryJSON sql.NullString

		if err := rows.Scan(&meta.ID, &meta.RunID, &meta.Target, &createdAt,
			&meta.Score, &meta.Grade, &contentHash, &summaryJSON); err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}

		meta.Timestamp = parseTimestamp(createdAt)
		meta.ContentHash = contentHash.String
		meta.Summary = make(map[string]int)
		if summaryJSON.Valid && summaryJSON.String != "" {
			_ = json.Unmarshal([]byte(summaryJSON.String), &meta.Summary) //nolint:errcheck // a broken summary leaves the map empty
		}

		results = append(results, meta)
	}

	return results, rows.Err()
}

// RuleCount is the number of findings of one rule in one run.
type RuleCount struct {
	RunID     string
	Timestamp time.Time
	Rule      string
	Bucket    string
	Count     int
}

// RuleTrend returns the count of a rule for every run of a target, newest
// first. Runs where the rule did not fire are reported with a zero count.
func (hdb *HistoryDB) RuleTrend(ctx context.Context, target, rule string) ([]RuleCount, error) {
	query := `
	SELECT r.run_id, r.created_at, COALESCE(rc.bucket, ''), COALESCE(rc.count, 0)
	FROM reports r
	LEFT JOIN rule_counts rc ON rc.report_id = r.id AND rc.rule = ?
	WHERE r.target = ?
	ORDER BY r.created_at DESC, r.id DESC
	`

	rows, err := hdb.db.QueryContext(ctx, query, rule, target)
	if err != nil {
		return nil, fmt.Errorf("failed to query rule trend: %w", err)
	}
	defer rows.Close()

	var results []RuleCount
	for rows.Next() {
		rc := RuleCount{Rule: rule}
		var createdAt string
		if err := rows.Scan(&rc.RunID, &createdAt, &rc.Bucket, &rc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan rule count: %w", err)
		}
		rc.Timestamp = parseTimestamp(createdAt)
		results = append(results, rc)
	}

	return results, rows.Err()
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// timestampFormats contains the timestamp formats the database may hold.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	timestampLayout,
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	time.RFC3339,
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
