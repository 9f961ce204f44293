package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/TobiSchelling/startracker/internal/model"
)

// LanguageCount is the number of repositories written in one language.
type LanguageCount struct {
	Language string
	Count    int
	Percent  float64
}

// LanguageBreakdown counts rows per language, most common first; ties are
// ordered by name.
func LanguageBreakdown(rows []model.Row) []LanguageCount {
	counts := map[string]int{}
	for _, r := range rows {
		lang := r.Language
		if lang == "" {
			lang = model.UnknownLanguage
		}
		counts[lang]++
	}

	out := make([]LanguageCount, 0, len(counts))
	for lang, n := range counts {
		out = append(out, LanguageCount{
			Language: lang,
			Count:    n,
			Percent:  float64(n) / float64(len(rows)) * 100,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Language < out[j].Language
	})
	return out
}

// WriteLanguageSummary writes <dir>/language_summary_<ts>.txt.
func WriteLanguageSummary(dir string, rows []model.Row, ts string, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	var b strings.Builder
	b.WriteString("GitHub Stars Language Summary\n")
	b.WriteString(strings.Repeat("=", 50) + "\n\n")
	fmt.Fprintf(&b, "Analysis time: %s\n", now.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Total repositories: %d\n\n", len(rows))
	b.WriteString("Languages:\n")
	for _, lc := range LanguageBreakdown(rows) {
		fmt.Fprintf(&b, "  %s: %d repos (%.1f%%)\n", lc.Language, lc.Count, lc.Percent)
	}

	path := filepath.Join(dir, fmt.Sprintf("language_summary_%s.txt", ts))
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("writing language summary: %w", err)
	}
	return path, nil
}
