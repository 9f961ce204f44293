package history

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestInsertAndGetRun(t *testing.T) {
	db := openTestDB(t)
	run := &Run{
		StartedAt:   base,
		FinishedAt:  base.Add(95 * time.Second),
		Username:    "octo",
		Total:       10,
		Hot:         2,
		Active:      4,
		Dormant:     3,
		LongDormant: 2,
		Unknown:     1,
		CSVPath:     "csv_output/github_stars_20260301_120000.csv",
		ReportPath:  "reports/analysis_report_20260301_120000.md",
		Report:      "# Report",
	}

	id, err := db.InsertRun(run)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == "" || run.ID != id {
		t.Fatalf("expected generated ID, got %q", id)
	}

	got, err := db.GetRun(id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil {
		t.Fatal("expected run")
	}
	if got.Username != "octo" || got.Total != 10 || got.LongDormant != 2 || got.Report != "# Report" {
		t.Errorf("unexpected run: %+v", got)
	}
	if !got.StartedAt.Equal(base) || got.Duration() != 95*time.Second {
		t.Errorf("unexpected times: %v / %v", got.StartedAt, got.Duration())
	}
}

func TestGetRunMissing(t *testing.T) {
	db := openTestDB(t)

	got, err := db.GetRun("nope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	db := openTestDB(t)
	for i, offset := range []time.Duration{0, 2 * time.Hour, 500 * time.Millisecond} {
		_, err := db.InsertRun(&Run{
			ID:         string(rune('a' + i)),
			StartedAt:  base.Add(offset),
			FinishedAt: base.Add(offset + time.Minute),
			Username:   "octo",
		})
		if err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	runs, err := db.ListRuns(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}
	if runs[0].ID != "b" || runs[1].ID != "c" || runs[2].ID != "a" {
		t.Errorf("unexpected order: %s %s %s", runs[0].ID, runs[1].ID, runs[2].ID)
	}

	limited, err := db.ListRuns(2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("expected 2 runs, got %d", len(limited))
	}
}

func TestMigrateNewDB(t *testing.T) {
	db := openTestDB(t)

	version, err := getSchemaVersion(db.conn)
	if err != nil {
		t.Fatalf("getSchemaVersion: %v", err)
	}
	if version != latestVersion() {
		t.Errorf("expected version %d, got %d", latestVersion(), version)
	}
}

func TestMigrateFromVersion1(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "v1.db")

	raw, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	tx, err := raw.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := migrations[0].Up(tx); err != nil {
		t.Fatalf("apply v1: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if _, err := raw.Exec("PRAGMA user_version = 1"); err != nil {
		t.Fatalf("stamp v1: %v", err)
	}
	if _, err := raw.Exec(`INSERT INTO runs (id, started_at, finished_at, username)
		VALUES ('old', '2026-01-01T00:00:00.000000Z', '2026-01-01T00:01:00.000000Z', 'octo')`); err != nil {
		t.Fatalf("seed: %v", err)
	}
	raw.Close()

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	run, err := db.GetRun("old")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run == nil || run.Report != "" || run.HTMLPath != "" {
		t.Errorf("expected migrated run with empty new columns, got %+v", run)
	}
}

func TestMigrateIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "idem.db")

	db1, err := Open(dbPath)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	db1.Close()

	db2, err := Open(dbPath)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer db2.Close()

	version, err := getSchemaVersion(db2.conn)
	if err != nil {
		t.Fatalf("getSchemaVersion: %v", err)
	}
	if version != latestVersion() {
		t.Errorf("expected version %d, got %d", latestVersion(), version)
	}
}
