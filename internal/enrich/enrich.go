package enrich

import (
	"context"
	"time"

	"github.com/TobiSchelling/startracker/internal/logger"
	"github.com/TobiSchelling/startracker/internal/model"
)

// DefaultActiveDays is the staleness cutoff below which activity is fetched.
const DefaultActiveDays = 180

// Describer supplies a description for a repository that has none.
type Describer interface {
	Enrich(ctx context.Context, repo model.Repository) string
}

// ActivityFetcher retrieves best-effort commit activity for a repository.
type ActivityFetcher interface {
	CommitActivity(ctx context.Context, repo model.Repository) int
	LatestCommit(ctx context.Context, repo model.Repository, branch string) string
}

// ReleaseLookup returns the latest release of a repository, or "".
type ReleaseLookup interface {
	Latest(ctx context.Context, fullName string) string
}

// Pipeline turns Repository records into enriched rows.
type Pipeline struct {
	activeDays int
	releases   ReleaseLookup
	now        func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithReleases enables the latest-release lookup for active repositories.
func WithReleases(r ReleaseLookup) Option {
	return func(p *Pipeline) { p.releases = r }
}

// WithClock overrides the reference clock.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// NewPipeline creates a Pipeline that fetches activity for repositories
// pushed within the last activeDays days.
func NewPipeline(activeDays int, opts ...Option) *Pipeline {
	if activeDays <= 0 {
		activeDays = DefaultActiveDays
	}
	p := &Pipeline{activeDays: activeDays, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process enriches records in order, one row per record. The reference time
// is sampled once so every row of a run is computed against the same instant.
// Cancelling ctx stops processing and returns ctx.Err() with no rows, since
// lookups made after cancellation would only yield fallback values.
func (p *Pipeline) Process(ctx context.Context, records []model.Repository, describer Describer, activity ActivityFetcher) ([]model.Row, error) {
	now := p.now().UTC()
	rows := make([]model.Row, 0, len(records))

	for i := range records {
		if err := ctx.Err(); err != nil {
			logger.Warnf("Enrichment cancelled after %d/%d repositories", i, len(records))
			return nil, err
		}
		rows = append(rows, p.processOne(ctx, &records[i], now, describer, activity))
		if (i+1)%25 == 0 {
			logger.Infof("Enriched %d/%d repositories", i+1, len(records))
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger.Infof("Enrichment complete: %d repositories", len(rows))
	return rows, nil
}

func (p *Pipeline) processOne(ctx context.Context, rec *model.Repository, now time.Time, describer Describer, activity ActivityFetcher) model.Row {
	days := rec.DaysInactive(now)
	if days == -1 && rec.PushedAt != nil {
		logger.WithFields(map[string]any{
			"repo":      rec.FullName,
			"pushed_at": rec.PushedAt.UTC().Format(time.RFC3339),
		}).Debugf("Push timestamp is in the future, activity counted as unknown")
	}

	row := model.Row{
		FullName:     rec.FullName,
		Language:     rec.LanguageOrUnknown(),
		HTMLURL:      rec.HTMLURL,
		Stars:        rec.StargazersCount,
		LastPushed:   rec.LastPushed(),
		DaysInactive: days,
		Status:       rec.Status(),
		ProjectAge:   rec.ProjectAge(now),
		Watchers:     rec.WatchersCount,
		Subscribers:  rec.SubscribersCount,
		Forks:        rec.ForksCount,
		OpenIssues:   rec.OpenIssuesCount,
		Topics:       rec.Topics,
	}

	if p.inGate(days) {
		row.AnnualCommits = activity.CommitActivity(ctx, *rec)
		row.LatestCommit = activity.LatestCommit(ctx, *rec, rec.DefaultBranch)
		if p.releases != nil {
			row.LatestRelease = p.releases.Latest(ctx, rec.FullName)
		}
	}

	if rec.NeedsDescription() {
		row.Description = describer.Enrich(ctx, *rec)
	} else {
		row.Description = *rec.Description
	}

	return row
}

func (p *Pipeline) inGate(days int) bool {
	return days >= 0 && days < p.activeDays
}
