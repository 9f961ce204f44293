package model

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const hoursPerDay = 24

// DaysInactive returns whole days elapsed between the last push and now.
// A missing push timestamp yields -1, as does a push recorded in the future.
func (r *Repository) DaysInactive(now time.Time) int {
	if r.PushedAt == nil {
		return -1
	}
	days := int(math.Floor(now.UTC().Sub(r.PushedAt.UTC()).Hours() / hoursPerDay))
	if days < -1 {
		return -1
	}
	return days
}

// Status derives the maintenance state. Precedence is
// disabled > archived > has issues > unknown.
func (r *Repository) Status() Status {
	switch {
	case r.Disabled:
		return StatusDisabled
	case r.Archived:
		return StatusArchived
	case r.HasIssues:
		return StatusActive
	default:
		return StatusUnknown
	}
}

// ProjectAge buckets the time since creation into days, months, or
// years plus remaining months.
func (r *Repository) ProjectAge(now time.Time) string {
	if r.CreatedAt == nil {
		return NotAvailable
	}
	days := int(math.Floor(now.UTC().Sub(r.CreatedAt.UTC()).Hours() / hoursPerDay))
	if days < 0 {
		days = 0
	}
	switch {
	case days < 30:
		return plural(days, "day")
	case days < 365:
		return plural(monthsOf(days), "month")
	default:
		years := plural(days/365, "year")
		months := monthsOf(days % 365)
		if months == 0 {
			return years
		}
		return years + " " + plural(months, "month")
	}
}

// monthsOf counts 30-day months, capped at 11 so days just short of a year
// never read as "12 months".
func monthsOf(days int) int {
	return min(days/30, 11)
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// LastPushed formats the push date as YYYY-MM-DD, or N/A when unknown.
func (r *Repository) LastPushed() string {
	if r.PushedAt == nil {
		return NotAvailable
	}
	return r.PushedAt.UTC().Format("2006-01-02")
}

// LanguageOrUnknown returns the primary language or "Unknown".
func (r *Repository) LanguageOrUnknown() string {
	if r.Language == nil || *r.Language == "" {
		return UnknownLanguage
	}
	return *r.Language
}

// NeedsDescription reports whether the description is missing or the placeholder.
func (r *Repository) NeedsDescription() bool {
	return r.Description == nil || *r.Description == "" || *r.Description == NoDescription
}

// OwnerAndName splits FullName at the first slash.
func (r *Repository) OwnerAndName() (string, string) {
	owner, name, _ := strings.Cut(r.FullName, "/")
	return owner, name
}
