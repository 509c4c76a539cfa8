package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/nao1215/a11yscan/internal/model"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *HistoryDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

var baseTime = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

// testReport builds a report at baseTime plus the given offset.
func testReport(offset time.Duration, score int, critical ...model.Finding) *model.Report {
	return model.BuildReport(
		critical,
		[]model.Finding{model.NewFinding(model.RuleMultipleH1, "Page has 2 h1 elements", "")},
		nil,
		score,
		baseTime.Add(offset),
		model.WithLevel(model.LevelAA),
	)
}

func missingAlt(src string) model.Finding {
	return model.NewFinding(model.RuleMissingAlt, "Image is missing alt text", `<img src="`+src+`">`)
}

// TestOpen tests database opening and creation.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if _, err := os.Stat(filepath.Join(dbDir, FileName)); err != nil {
			t.Errorf("database file was not created: %v", err)
		}
		if db.Path() != filepath.Join(dbDir, FileName) {
			t.Errorf("Path() = %q", db.Path())
		}
	})

	t.Run("CreateIfNotExists=false returns error when database does not exist", func(t *testing.T) {
		t.Parallel()

		_, err := Open(filepath.Join(t.TempDir(), "missing"), Options{CreateIfNotExists: false})
		if !errors.Is(err, ErrDatabaseNotFound) {
			t.Errorf("expected ErrDatabaseNotFound, got %v", err)
		}
	})

	t.Run("CreateIfNotExists=false opens existing database", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		db, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		_ = db.Close()

		db, err = Open(dir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("failed to reopen database: %v", err)
		}
		_ = db.Close()
	})
}

// TestSaveAndGetReport tests the report round trip.
func TestSaveAndGetReport(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	r := testReport(0, 76, missingAlt("a.png"))
	runID, err := db.SaveReport(ctx, "site/index.html", ContentHash([]byte("<html>")), r)
	if err != nil {
		t.Fatalf("SaveReport failed: %v", err)
	}
	if len(runID) != 36 {
		t.Errorf("run ID %q is not a UUID", runID)
	}

	got, err := db.GetLatestReport(ctx, "site/index.html")
	if err != nil {
		t.Fatalf("GetLatestReport failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected a stored report")
	}
	if got.RunID != runID || got.Target != "site/index.html" {
		t.Errorf("unexpected metadata: %+v", got)
	}
	if got.ContentHash != ContentHash([]byte("<html>")) {
		t.Errorf("content hash not stored: %q", got.ContentHash)
	}
	if got.Report.Summary.Score != 76 || len(got.Report.Critical) != 1 || got.Report.Level != model.LevelAA {
		t.Errorf("report did not round trip: %+v", got.Report)
	}
	if !got.Report.Timestamp.Equal(r.Timestamp) {
		t.Errorf("timestamp = %v, expected %v", got.Report.Timestamp, r.Timestamp)
	}

	byID, err := db.GetReportByID(ctx, got.ID)
	if err != nil || byID == nil || byID.RunID != runID {
		t.Errorf("GetReportByID = %+v, %v", byID, err)
	}
	byRun, err := db.GetReportByRunID(ctx, runID)
	if err != nil || byRun == nil || byRun.ID != got.ID {
		t.Errorf("GetReportByRunID = %+v, %v", byRun, err)
	}
}

// TestGetMissingReport tests that lookups of unknown rows return nil.
func TestGetMissingReport(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	if r, err := db.GetLatestReport(ctx, "nowhere.html"); r != nil || err != nil {
		t.Errorf("GetLatestReport = %v, %v", r, err)
	}
	if r, err := db.GetReportByID(ctx, 42); r != nil || err != nil {
		t.Errorf("GetReportByID = %v, %v", r, err)
	}
	if r, err := db.GetReportByRunID(ctx, "nope"); r != nil || err != nil {
		t.Errorf("GetReportByRunID = %v, %v", r, err)
	}
	if d, err := db.GetDocument(ctx, "nowhere.html"); d != nil || err != nil {
		t.Errorf("GetDocument = %v, %v", d, err)
	}
}

// TestHistory tests history ordering, metadata and target listing.
func TestHistory(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	saves := []struct {
		target string
		offset time.Duration
		score  int
	}{
		{"b.html", 0, 70},
		{"a.html", time.Hour, 88},
		{"b.html", 2 * time.Hour, 82},
		{"b.html", time.Hour, 76},
	}
	for _, s := range saves {
		if _, err := db.SaveReport(ctx, s.target, "", testReport(s.offset, s.score, missingAlt("x.png"))); err != nil {
			t.Fatalf("SaveReport failed: %v", err)
		}
	}

	history, err := db.GetHistory(ctx, "b.html")
	if err != nil {
		t.Fatalf("GetHistory failed: %v", err)
	}
	var scores []int
	for _, h := range history {
		scores = append(scores, h.Score)
	}
	if !slices.Equal(scores, []int{82, 76, 70}) {
		t.Errorf("history scores = %v, expected newest first", scores)
	}

	first := history[0]
	if first.Grade != "AA" || first.Summary["critical"] != 1 || first.Summary["warning"] != 1 {
		t.Errorf("unexpected metadata: %+v", first)
	}
	if !first.Timestamp.Equal(baseTime.Add(2 * time.Hour)) {
		t.Errorf("timestamp = %v", first.Timestamp)
	}

	latest, err := db.GetLatestReport(ctx, "b.html")
	if err != nil || latest == nil || latest.Report.Summary.Score != 82 {
		t.Errorf("GetLatestReport = %+v, %v", latest, err)
	}

	targets, err := db.ListTargets(ctx)
	if err != nil {
		t.Fatalf("ListTargets failed: %v", err)
	}
	if !slices.Equal(targets, []string{"a.html", "b.html"}) {
		t.Errorf("targets = %v", targets)
	}
}

// TestRuleTrend tests per-rule counts across runs.
func TestRuleTrend(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	runs := []*model.Report{
		testReport(0, 64, missingAlt("a.png"), missingAlt("b.png")),
		testReport(time.Hour, 88),
		testReport(2*time.Hour, 76, missingAlt("a.png")),
	}
	for _, r := range runs {
		if _, err := db.SaveReport(ctx, "page.html", "", r); err != nil {
			t.Fatalf("SaveReport failed: %v", err)
		}
	}

	trend, err := db.RuleTrend(ctx, "page.html", model.RuleMissingAlt.Key())
	if err != nil {
		t.Fatalf("RuleTrend failed: %v", err)
	}
	var counts []int
	for _, rc := range trend {
		counts = append(counts, rc.Count)
	}
	if !slices.Equal(counts, []int{1, 0, 2}) {
		t.Errorf("counts = %v, expected [1 0 2]", counts)
	}
	if trend[0].Bucket != "critical" || trend[1].Bucket != "" {
		t.Errorf("unexpected buckets: %+v", trend)
	}
}

// TestUpsertDocument tests document metadata storage.
func TestUpsertDocument(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	doc := &DocumentRecord{
		Target:      "https://example.com/",
		FetchedAt:   baseTime,
		StatusCode:  200,
		ContentType: "text/html; charset=utf-8",
		Title:       "Example",
		Size:        1024,
		ContentHash: ContentHash([]byte("v1")),
	}
	if err := db.UpsertDocument(ctx, doc); err != nil {
		t.Fatalf("UpsertDocument failed: %v", err)
	}

	doc.Title = "Example v2"
	doc.ContentHash = ContentHash([]byte("v2"))
	doc.FetchedAt = baseTime.Add(time.Minute)
	if err := db.UpsertDocument(ctx, doc); err != nil {
		t.Fatalf("second UpsertDocument failed: %v", err)
	}

	got, err := db.GetDocument(ctx, "https://example.com/")
	if err != nil || got == nil {
		t.Fatalf("GetDocument = %v, %v", got, err)
	}
	if got.Title != "Example v2" || got.ContentHash != ContentHash([]byte("v2")) || got.Size != 1024 {
		t.Errorf("document not updated: %+v", got)
	}
	if !got.FetchedAt.Equal(baseTime.Add(time.Minute)) {
		t.Errorf("FetchedAt = %v", got.FetchedAt)
	}
}

// TestContentHash tests the SHA3-256 digest helper.
func TestContentHash(t *testing.T) {
	t.Parallel()

	const empty = "a7ffc6f8bf1ed76651c14756a061d662f580ff4de43b49fa82d80a4b80f8434a"
	if got := ContentHash(nil); got != empty {
		t.Errorf("ContentHash(nil) = %s", got)
	}
	if ContentHash([]byte("a")) == ContentHash([]byte("b")) {
		t.Error("different content must hash differently")
	}
}

// TestParseTimestamp tests the timestamp fallbacks.
func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  time.Time
	}{
		{"2026-05-01 12:00:00.250", baseTime.Add(250 * time.Millisecond)},
		{"2026-05-01 12:00:00", baseTime},
		{"2026-05-01T12:00:00Z", baseTime},
		{"garbage", time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			if got := parseTimestamp(tt.input); !got.Equal(tt.want) {
				t.Errorf("parseTimestamp(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
