package server

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/TobiSchelling/startracker/internal/history"
)

func openTestDB(t *testing.T) *history.DB {
	t.Helper()
	db, err := history.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestServer(t *testing.T, db *history.DB) *Server {
	t.Helper()
	srv, err := New(db)
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	return srv
}

func get(srv *Server, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", path, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func insertRun(t *testing.T, db *history.DB, report string) string {
	t.Helper()
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	id, err := db.InsertRun(&history.Run{
		StartedAt:   start,
		FinishedAt:  start.Add(2 * time.Minute),
		Username:    "octo",
		Total:       12,
		Active:      7,
		Hot:         3,
		Dormant:     2,
		LongDormant: 2,
		Unknown:     1,
		CSVPath:     "/tmp/csv_output/github_stars_20260301_120000.csv",
		Report:      report,
	})
	if err != nil {
		t.Fatalf("insert run: %v", err)
	}
	return id
}

func TestIndexRouteEmpty(t *testing.T) {
	srv := newTestServer(t, openTestDB(t))

	rec := get(srv, "/")

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No runs recorded yet") {
		t.Error("expected empty-state message")
	}
}

func TestIndexListsRuns(t *testing.T) {
	db := openTestDB(t)
	id := insertRun(t, db, "# Report")
	srv := newTestServer(t, db)

	body := get(srv, "/").Body.String()

	if !strings.Contains(body, "/runs/"+id) {
		t.Error("expected link to run")
	}
	if !strings.Contains(body, "octo") {
		t.Error("expected username in listing")
	}
}

func TestRunRouteRendersReport(t *testing.T) {
	db := openTestDB(t)
	id := insertRun(t, db, "# Health\n\nScore **7/10**")
	srv := newTestServer(t, db)

	rec := get(srv, "/runs/"+id)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<h1>Health</h1>") {
		t.Error("expected rendered markdown heading")
	}
	if !strings.Contains(body, "<strong>7/10</strong>") {
		t.Error("expected rendered emphasis")
	}
	if !strings.Contains(body, "github_stars_20260301_120000.csv") {
		t.Error("expected CSV output path")
	}
}

func TestRunRouteWithoutReport(t *testing.T) {
	db := openTestDB(t)
	id := insertRun(t, db, "")
	srv := newTestServer(t, db)

	if body := get(srv, "/runs/"+id).Body.String(); !strings.Contains(body, "No report was generated") {
		t.Error("expected no-report message")
	}
	if rec := get(srv, "/runs/"+id+"/report.md"); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for missing report, got %d", rec.Code)
	}
}

func TestReportMarkdownRoute(t *testing.T) {
	db := openTestDB(t)
	id := insertRun(t, db, "# Raw")
	srv := newTestServer(t, db)

	rec := get(srv, "/runs/"+id+"/report.md")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "# Raw" {
		t.Errorf("expected raw markdown, got %q", rec.Body.String())
	}
}

func TestUnknownRun(t *testing.T) {
	srv := newTestServer(t, openTestDB(t))

	if rec := get(srv, "/runs/does-not-exist"); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestHealthAndStatic(t *testing.T) {
	srv := newTestServer(t, openTestDB(t))

	if rec := get(srv, "/health"); rec.Code != http.StatusOK {
		t.Errorf("health: expected 200, got %d", rec.Code)
	}
	if rec := get(srv, "/static/style.css"); rec.Code != http.StatusOK {
		t.Errorf("static: expected 200, got %d", rec.Code)
	}
}
