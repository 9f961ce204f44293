package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/TobiSchelling/startracker/internal/analyze"
	"github.com/TobiSchelling/startracker/internal/config"
	"github.com/TobiSchelling/startracker/internal/describe"
	"github.com/TobiSchelling/startracker/internal/enrich"
	"github.com/TobiSchelling/startracker/internal/export"
	"github.com/TobiSchelling/startracker/internal/github"
	"github.com/TobiSchelling/startracker/internal/history"
	"github.com/TobiSchelling/startracker/internal/llm"
	"github.com/TobiSchelling/startracker/internal/logger"
	"github.com/TobiSchelling/startracker/internal/model"
	"github.com/TobiSchelling/startracker/internal/releases"
)

// Lister pages through a user's starred repositories.
type Lister interface {
	ListStarred(ctx context.Context, username string) []model.Repository
}

// Deps are the collaborators a Pipeline runs against.
type Deps struct {
	Lister    Lister
	Activity  enrich.ActivityFetcher
	Describer enrich.Describer
	// Releases is optional; nil disables the latest-release lookup.
	Releases enrich.ReleaseLookup
	Provider llm.Provider
	// History is optional; nil disables run recording.
	History *history.DB
}

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Options tune a single run.
type Options struct {
	// Limit processes only the first N starred repositories; 0 means all.
	Limit      int
	SkipReport bool
}

// Result holds the results of a full pipeline run.
type Result struct {
	RunID     string
	Timestamp string
	Steps     []StepResult
	// Empty is set when no starred repositories were found; the run stops
	// early without error.
	Empty          bool
	Rows           []model.Row
	Classification analyze.Classification
	Report         string

	CSVPath     string
	SummaryPath string
	XLSXPath    string
	ReportPath  string
	HTMLPath    string
}

// Pipeline orchestrates fetch, enrich, export, report and record.
type Pipeline struct {
	cfg  *config.Config
	deps Deps
	now  func() time.Time
}

// New creates a pipeline from explicit collaborators.
func New(cfg *config.Config, deps Deps) *Pipeline {
	return &Pipeline{cfg: cfg, deps: deps, now: time.Now}
}

// NewFromConfig wires the GitHub client, LLM provider and optional release
// lookup described by cfg. db may be nil.
func NewFromConfig(cfg *config.Config, db *history.DB) (*Pipeline, error) {
	gh, err := github.NewClient(github.Options{
		Token:      cfg.GitHub.Token,
		APIURL:     cfg.GitHub.APIURL,
		Delay:      cfg.GitHub.RequestDelay,
		MaxRetries: cfg.GitHub.MaxRetries,
	})
	if err != nil {
		return nil, err
	}

	l := cfg.LLM
	provider := llm.CreateProvider(l.Provider, l.Model, l.BaseURL, l.APIKey, l.OllamaURL)

	deps := Deps{
		Lister:    gh,
		Activity:  gh,
		Describer: describe.NewEnricher(gh, provider, l.SummaryTemperature),
		Provider:  provider,
		History:   db,
	}
	if cfg.Enrichment.Releases {
		deps.Releases = releases.NewFeedLookup(releases.FeedBaseURL(cfg.GitHub.APIURL))
	}
	return New(cfg, deps), nil
}

func (p *Pipeline) bands() analyze.Bands {
	b := p.cfg.Report.Bands
	return analyze.Bands{Hot: b.Hot, Active: b.Active, Dormant: b.Dormant}
}

// Run executes the pipeline. Per-repository failures degrade fields and
// never fail the run; export and report failures are returned.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Result, error) {
	started := p.now()
	r := &Result{}

	// Step 1: Fetch
	logger.Infof("Step 1/5: Fetching starred repositories...")
	repos := p.deps.Lister.ListStarred(ctx, p.cfg.GitHub.Username)
	if err := ctx.Err(); err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Fetch", Err: err})
		return r, err
	}
	if opts.Limit > 0 && len(repos) > opts.Limit {
		repos = repos[:opts.Limit]
	}
	r.Steps = append(r.Steps, StepResult{
		Name:    "Fetch",
		Summary: fmt.Sprintf("Found %d starred repositories", len(repos)),
	})
	if len(repos) == 0 {
		logger.Warnf("No starred repositories found, stopping")
		r.Empty = true
		return r, nil
	}

	// Step 2: Enrich
	logger.Infof("Step 2/5: Enriching %d repositories...", len(repos))
	rows, err := p.enrichRows(ctx, repos)
	if err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Enrich", Err: err})
		return r, err
	}
	r.Rows = rows
	r.Classification = analyze.Classify(r.Rows, p.bands(), p.cfg.Report.TopN)
	c := r.Classification
	r.Steps = append(r.Steps, StepResult{
		Name: "Enrich",
		Summary: fmt.Sprintf("%d active (%d hot), %d dormant, %d long-dormant, %d unknown",
			c.Active.Count, c.Hot, c.Dormant.Count, c.LongDormant.Count, c.Unknown),
	})

	// Step 3: Export
	logger.Infof("Step 3/5: Exporting data...")
	r.Timestamp = p.now().Format(export.TimestampLayout)
	step := p.runExport(r)
	r.Steps = append(r.Steps, step)
	if step.Err != nil {
		return r, step.Err
	}

	// Step 4: Report
	if opts.SkipReport {
		r.Steps = append(r.Steps, StepResult{Name: "Report", Summary: "Skipped"})
	} else {
		logger.Infof("Step 4/5: Generating analysis report...")
		step = p.runReport(ctx, r)
		r.Steps = append(r.Steps, step)
		if step.Err != nil {
			return r, step.Err
		}
	}

	// Step 5: Record
	if err := ctx.Err(); err != nil {
		return r, err
	}
	r.Steps = append(r.Steps, p.runRecord(r, started))
	return r, nil
}

func (p *Pipeline) enrichRows(ctx context.Context, repos []model.Repository) ([]model.Row, error) {
	var opts []enrich.Option
	if p.deps.Releases != nil {
		opts = append(opts, enrich.WithReleases(p.deps.Releases))
	}
	opts = append(opts, enrich.WithClock(p.now))
	return enrich.NewPipeline(p.cfg.Report.Bands.Active, opts...).
		Process(ctx, repos, p.deps.Describer, p.deps.Activity)
}

func (p *Pipeline) runExport(r *Result) StepResult {
	out := p.cfg.Output
	var err error

	if r.CSVPath, err = export.WriteCSV(out.CSVDir, r.Rows, r.Timestamp, out.Locale); err != nil {
		return StepResult{Name: "Export", Err: err}
	}
	if r.SummaryPath, err = export.WriteLanguageSummary(out.CSVDir, r.Rows, r.Timestamp, p.now()); err != nil {
		return StepResult{Name: "Export", Err: err}
	}
	if out.XLSX {
		if r.XLSXPath, err = export.WriteXLSX(out.CSVDir, r.Rows, r.Timestamp, out.Locale); err != nil {
			return StepResult{Name: "Export", Err: err}
		}
	}

	return StepResult{
		Name:    "Export",
		Summary: fmt.Sprintf("Wrote %d rows to %s", len(r.Rows), r.CSVPath),
	}
}

func (p *Pipeline) runReport(ctx context.Context, r *Result) StepResult {
	l := p.cfg.LLM
	analyzer := analyze.NewAnalyzer(p.deps.Provider, p.bands(), p.cfg.Report.TopN, l.ReportTemperature, l.MaxTokens)

	report, err := analyzer.Analyze(ctx, r.Rows)
	if err != nil {
		return StepResult{Name: "Report", Err: err}
	}
	r.Report = report

	dir := p.cfg.Output.ReportDir
	if r.ReportPath, err = export.WriteReport(dir, report, r.Timestamp); err != nil {
		return StepResult{Name: "Report", Err: err}
	}
	if p.cfg.Output.HTML {
		if r.HTMLPath, err = export.WriteReportHTML(dir, report, r.Timestamp); err != nil {
			return StepResult{Name: "Report", Err: err}
		}
	}

	return StepResult{
		Name:    "Report",
		Summary: fmt.Sprintf("Report written to %s", r.ReportPath),
	}
}

func (p *Pipeline) runRecord(r *Result, started time.Time) StepResult {
	if p.deps.History == nil {
		return StepResult{Name: "Record", Summary: "History disabled"}
	}

	c := r.Classification
	run := &history.Run{
		StartedAt:   started,
		FinishedAt:  p.now(),
		Username:    p.cfg.GitHub.Username,
		Total:       c.Total,
		Hot:         c.Hot,
		Active:      c.Active.Count,
		Dormant:     c.Dormant.Count,
		LongDormant: c.LongDormant.Count,
		Unknown:     c.Unknown,
		CSVPath:     absPath(r.CSVPath),
		SummaryPath: absPath(r.SummaryPath),
		ReportPath:  absPath(r.ReportPath),
		HTMLPath:    absPath(r.HTMLPath),
		XLSXPath:    absPath(r.XLSXPath),
		Report:      r.Report,
	}

	id, err := p.deps.History.InsertRun(run)
	if err != nil {
		logger.WithError(err).Warnf("Could not record run history")
		return StepResult{Name: "Record", Err: err}
	}
	r.RunID = id
	return StepResult{Name: "Record", Summary: fmt.Sprintf("Recorded run %s", id)}
}

func absPath(p string) string {
	if p == "" {
		return ""
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
