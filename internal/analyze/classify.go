package analyze

import (
	"sort"

	"github.com/TobiSchelling/startracker/internal/model"
)

// Bands holds the staleness boundaries in days. Active is exclusive, Dormant
// inclusive: active is [0, Active), dormant is [Active, Dormant] and
// long-dormant is everything above Dormant. Hot is a sub-band of active.
type Bands struct {
	Hot     int
	Active  int
	Dormant int
}

// DefaultBands returns the {30, 180, 365} day boundaries.
func DefaultBands() Bands {
	return Bands{Hot: 30, Active: 180, Dormant: 365}
}

// Band is one staleness group with its representative rows.
type Band struct {
	Count int
	Top   []model.Row
}

// Classification partitions a run's rows by staleness.
type Classification struct {
	Total       int
	Hot         int
	Active      Band
	Dormant     Band
	LongDormant Band
	// Unknown counts rows without a push timestamp; they belong to no band.
	Unknown int
}

// Classify partitions rows into bands and picks up to topN representatives
// per band: active rows by most recent push, the others by most stars.
func Classify(rows []model.Row, bands Bands, topN int) Classification {
	c := Classification{Total: len(rows)}
	var active, dormant, longDormant []model.Row

	for _, r := range rows {
		d := r.DaysInactive
		switch {
		case !r.HasKnownActivity():
			c.Unknown++
		case d < bands.Active:
			active = append(active, r)
			if d < bands.Hot {
				c.Hot++
			}
		case d <= bands.Dormant:
			dormant = append(dormant, r)
		default:
			longDormant = append(longDormant, r)
		}
	}

	sort.SliceStable(active, func(i, j int) bool {
		return active[i].DaysInactive < active[j].DaysInactive
	})
	byStars := func(rs []model.Row) {
		sort.SliceStable(rs, func(i, j int) bool { return rs[i].Stars > rs[j].Stars })
	}
	byStars(dormant)
	byStars(longDormant)

	c.Active = Band{Count: len(active), Top: head(active, topN)}
	c.Dormant = Band{Count: len(dormant), Top: head(dormant, topN)}
	c.LongDormant = Band{Count: len(longDormant), Top: head(longDormant, topN)}
	return c
}

func head(rows []model.Row, n int) []model.Row {
	if n >= 0 && len(rows) > n {
		return rows[:n]
	}
	return rows
}
