package describe

import (
	"strings"
	"unicode/utf8"

	"github.com/TobiSchelling/startracker/internal/model"
)

const (
	scanLines         = 30
	maxTitle          = 100
	minLineLength     = 30
	descCandidates    = 3
	minDescription    = 20
	maxDescription    = 150
	maxHeuristicTotal = 200
)

// Heuristic extracts a description from the first lines of a README: the
// first heading plus the first reasonably sized prose line, joined by " | ".
func Heuristic(readme string) string {
	lines := strings.Split(readme, "\n")
	if len(lines) > scanLines {
		lines = lines[:scanLines]
	}

	var titles, descs []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "#"):
			if title := strings.TrimSpace(strings.TrimLeft(line, "#")); title != "" {
				titles = append(titles, title)
			}
		case utf8.RuneCountInString(line) > minLineLength && !strings.HasPrefix(line, "!["):
			descs = append(descs, line)
		}
	}

	var parts []string
	if len(titles) > 0 && utf8.RuneCountInString(titles[0]) < maxTitle {
		parts = append(parts, titles[0])
	}

	if len(descs) > descCandidates {
		descs = descs[:descCandidates]
	}
	for _, d := range descs {
		if n := utf8.RuneCountInString(d); n > minDescription && n < maxDescription {
			parts = append(parts, d)
			break
		}
	}

	if len(parts) == 0 {
		return model.NoDescription
	}

	result := strings.Join(parts, " | ")
	if utf8.RuneCountInString(result) > maxHeuristicTotal {
		result = truncateRunes(result, maxHeuristicTotal) + "..."
	}
	return result
}
