package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/TobiSchelling/startracker/internal/model"
)

const (
	starsSheet     = "Stars"
	languagesSheet = "Languages"
)

// WriteXLSX writes <dir>/github_stars_<ts>.xlsx with a Stars sheet holding
// the same columns as the CSV and a Languages sheet with the breakdown.
func WriteXLSX(dir string, rows []model.Row, ts, locale string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", starsSheet); err != nil {
		return "", fmt.Errorf("naming sheet: %w", err)
	}
	if err := writeRow(f, starsSheet, 1, toCells(Headers(locale))); err != nil {
		return "", err
	}
	for i, r := range rows {
		if err := writeRow(f, starsSheet, i+2, rowCells(r)); err != nil {
			return "", err
		}
	}
	if err := f.SetPanes(starsSheet, &excelize.Panes{
		Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
	}); err != nil {
		return "", fmt.Errorf("freezing header: %w", err)
	}

	if _, err := f.NewSheet(languagesSheet); err != nil {
		return "", fmt.Errorf("adding sheet: %w", err)
	}
	if err := writeRow(f, languagesSheet, 1, []any{"Language", "Repositories", "Percent"}); err != nil {
		return "", err
	}
	for i, lc := range LanguageBreakdown(rows) {
		if err := writeRow(f, languagesSheet, i+2, []any{lc.Language, lc.Count, fmt.Sprintf("%.1f%%", lc.Percent)}); err != nil {
			return "", err
		}
	}

	path := filepath.Join(dir, fmt.Sprintf("github_stars_%s.xlsx", ts))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("saving workbook: %w", err)
	}
	return path, nil
}

func writeRow(f *excelize.File, sheet string, n int, cells []any) error {
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("writing %s row %d: %w", sheet, n, err)
	}
	return nil
}

func toCells(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func rowCells(r model.Row) []any {
	return []any{
		r.FullName, r.Language, r.Description, r.HTMLURL, r.Stars, r.LastPushed,
		r.DaysInactive, r.AnnualCommits, r.LatestCommit, string(r.Status), r.ProjectAge,
		r.Watchers, r.Subscribers, r.Forks, r.OpenIssues,
		strings.Join(r.Topics, topicSeparator), r.LatestRelease,
	}
}
