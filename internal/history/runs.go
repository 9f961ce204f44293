package history

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Run summarizes one completed tracker run. Fetched repository data is
// never stored; only counts, output locations and the generated report.
type Run struct {
	ID          string
	StartedAt   time.Time
	FinishedAt  time.Time
	Username    string
	Total       int
	Hot         int
	Active      int
	Dormant     int
	LongDormant int
	Unknown     int
	CSVPath     string
	SummaryPath string
	ReportPath  string
	HTMLPath    string
	XLSXPath    string
	Report      string
}

// Duration is the wall-clock time the run took.
func (r Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// timeLayout has fixed-width fractions so stored values sort as text.
const timeLayout = "2006-01-02T15:04:05.000000Z07:00"

const runColumns = `id, started_at, finished_at, username, total, hot, active, dormant,
long_dormant, unknown, csv_path, summary_path, report_path, html_path, xlsx_path, report`

// InsertRun stores a run, assigning a new ID when r.ID is empty.
func (db *DB) InsertRun(r *Run) (string, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}

	_, err := db.conn.Exec(
		`INSERT INTO runs (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, formatTime(r.StartedAt), formatTime(r.FinishedAt), r.Username,
		r.Total, r.Hot, r.Active, r.Dormant, r.LongDormant, r.Unknown,
		r.CSVPath, r.SummaryPath, r.ReportPath, r.HTMLPath, r.XLSXPath, r.Report,
	)
	if err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}
	return r.ID, nil
}

// ListRuns returns the most recent runs first, at most limit (0 = all).
func (db *DB) ListRuns(limit int) ([]Run, error) {
	query := "SELECT " + runColumns + " FROM runs ORDER BY started_at DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// GetRun returns the run with the given ID, or nil if there is none.
func (db *DB) GetRun(id string) (*Run, error) {
	row := db.conn.QueryRow("SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return r, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	var r Run
	var started, finished string
	if err := s.Scan(&r.ID, &started, &finished, &r.Username,
		&r.Total, &r.Hot, &r.Active, &r.Dormant, &r.LongDormant, &r.Unknown,
		&r.CSVPath, &r.SummaryPath, &r.ReportPath, &r.HTMLPath, &r.XLSXPath, &r.Report); err != nil {
		return nil, err
	}

	var err error
	if r.StartedAt, err = time.Parse(timeLayout, started); err != nil {
		return nil, fmt.Errorf("run %s: parsing started_at: %w", r.ID, err)
	}
	if r.FinishedAt, err = time.Parse(timeLayout, finished); err != nil {
		return nil, fmt.Errorf("run %s: parsing finished_at: %w", r.ID, err)
	}
	return &r, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
