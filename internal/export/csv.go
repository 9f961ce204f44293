package export

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/TobiSchelling/startracker/internal/model"
)

// TimestampLayout is the run timestamp embedded in output filenames.
const TimestampLayout = "20060102_150405"

const topicSeparator = ", "

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteCSV writes rows to <dir>/github_stars_<ts>.csv as UTF-8 with a BOM
// and localized headers. It returns the file path.
func WriteCSV(dir string, rows []model.Row, ts, locale string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("github_stars_%s.csv", ts))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating CSV file: %w", err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if _, err := bw.Write(utf8BOM); err != nil {
		return "", fmt.Errorf("writing BOM: %w", err)
	}

	w := csv.NewWriter(bw)
	if err := w.Write(Headers(locale)); err != nil {
		return "", fmt.Errorf("writing CSV header: %w", err)
	}
	for _, r := range rows {
		if err := w.Write(recordOf(r)); err != nil {
			return "", fmt.Errorf("writing CSV row %s: %w", r.FullName, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flushing CSV: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return "", fmt.Errorf("flushing CSV: %w", err)
	}
	return path, f.Close()
}

// ReadCSV loads rows previously written by WriteCSV, in either locale.
func ReadCSV(path string) ([]model.Row, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	return parseCSV(bytes.TrimPrefix(data, utf8BOM))
}

func parseCSV(data []byte) ([]model.Row, error) {
	r := csv.NewReader(bytes.NewReader(data))

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	known := headerIndex()
	cols := make([]int, len(header))
	for i, h := range header {
		col, ok := known[h]
		if !ok {
			return nil, fmt.Errorf("unknown CSV column %q", h)
		}
		cols[i] = col
	}

	var rows []model.Row
	for line := 2; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV line %d: %w", line, err)
		}

		var fields [numColumns]string
		for i, v := range rec {
			fields[cols[i]] = v
		}
		row, err := rowOf(fields)
		if err != nil {
			return nil, fmt.Errorf("CSV line %d: %w", line, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func recordOf(r model.Row) []string {
	var rec [numColumns]string
	rec[colName] = r.FullName
	rec[colLanguage] = r.Language
	rec[colDescription] = r.Description
	rec[colURL] = r.HTMLURL
	rec[colStars] = strconv.Itoa(r.Stars)
	rec[colLastPushed] = r.LastPushed
	rec[colDaysInactive] = strconv.Itoa(r.DaysInactive)
	rec[colAnnualCommits] = strconv.Itoa(r.AnnualCommits)
	rec[colLatestCommit] = r.LatestCommit
	rec[colStatus] = string(r.Status)
	rec[colProjectAge] = r.ProjectAge
	rec[colWatchers] = strconv.Itoa(r.Watchers)
	rec[colSubscribers] = strconv.Itoa(r.Subscribers)
	rec[colForks] = strconv.Itoa(r.Forks)
	rec[colOpenIssues] = strconv.Itoa(r.OpenIssues)
	rec[colTopics] = strings.Join(r.Topics, topicSeparator)
	rec[colLatestRelease] = r.LatestRelease
	return rec[:]
}

func rowOf(f [numColumns]string) (model.Row, error) {
	ints := map[int]*int{}
	var row model.Row
	ints[colStars] = &row.Stars
	ints[colDaysInactive] = &row.DaysInactive
	ints[colAnnualCommits] = &row.AnnualCommits
	ints[colWatchers] = &row.Watchers
	ints[colSubscribers] = &row.Subscribers
	ints[colForks] = &row.Forks
	ints[colOpenIssues] = &row.OpenIssues

	for col, dst := range ints {
		if f[col] == "" {
			continue
		}
		n, err := strconv.Atoi(f[col])
		if err != nil {
			return model.Row{}, fmt.Errorf("column %q: %w", englishHeaders[col], err)
		}
		*dst = n
	}

	row.FullName = f[colName]
	row.Language = f[colLanguage]
	row.Description = f[colDescription]
	row.HTMLURL = f[colURL]
	row.LastPushed = f[colLastPushed]
	row.LatestCommit = f[colLatestCommit]
	row.Status = model.Status(f[colStatus])
	row.ProjectAge = f[colProjectAge]
	row.LatestRelease = f[colLatestRelease]
	if f[colTopics] != "" {
		row.Topics = strings.Split(f[colTopics], topicSeparator)
	}
	return row, nil
}
