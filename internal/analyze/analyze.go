package analyze

import (
	"context"
	"fmt"
	"strings"

	"github.com/TobiSchelling/startracker/internal/llm"
	"github.com/TobiSchelling/startracker/internal/logger"
	"github.com/TobiSchelling/startracker/internal/model"
)

const reportPrompt = `You are a technology asset management expert. Based on the user's GitHub star data, write a detailed analysis report.

[Overview]
- Total starred projects: %d
- Active projects (updated within %d days): %d
  - of which extremely active (updated within %d days): %d
- Dormant projects (%d-%d days without updates): %d
- Long-dormant projects (more than %d days without updates): %d

[Recently active projects]
%s

[Dormant projects - watch closely]
%s

[Long-dormant projects - high risk]
%s

[Task]
Write a detailed report in Markdown with the following sections:

1. Overall health assessment
   - Give a health score (0-10) for the user's followed technology stack with a short verdict
   - Analyze the share of active projects and the share of at-risk projects

2. Active project analysis
   - For each recently active project, explain what kind of project it is based on its language and description
   - Interpret its latest change technically (bug fix, release, feature work, etc.)
   - Assess its potential value in the user's workflow

3. Dormant project analysis
   - Discuss likely reasons these projects stopped receiving updates
   - Assess whether they are still worth using
   - Recommend concretely: find a replacement, keep using, or migrate
   - Pay special attention to projects with many stars, since they may be important dependencies

4. Long-dormant project analysis (high-risk assessment)
   - Give a clear recommendation for each project
   - Strongly recommend replacements or a migration plan
   - Explain what to do if a project is important to the user's work (fork it, find an alternative, contact the maintainers, etc.)
   - Assess security risk and technical debt

5. Action plan
   - Provide a priority list ordered from highest to lowest risk
   - Give concrete next steps for each category

Requirements:
- Keep the tone professional and objective
- Every recommendation must be specific and actionable
- Mention programming languages where relevant
- Focus on security and long-term maintainability`

const emptyBand = "(none)"

// Analyzer generates the staleness report with an LLM.
type Analyzer struct {
	provider    llm.Provider
	bands       Bands
	topN        int
	temperature float64
	maxTokens   int
}

// NewAnalyzer creates a new report analyzer.
func NewAnalyzer(provider llm.Provider, bands Bands, topN int, temperature float64, maxTokens int) *Analyzer {
	return &Analyzer{
		provider:    provider,
		bands:       bands,
		topN:        topN,
		temperature: temperature,
		maxTokens:   maxTokens,
	}
}

// Analyze classifies rows and returns the generated report verbatim.
// Generation failures are returned to the caller.
func (a *Analyzer) Analyze(ctx context.Context, rows []model.Row) (string, error) {
	if a.provider == nil {
		return "", fmt.Errorf("no LLM provider available for report generation")
	}

	c := Classify(rows, a.bands, a.topN)
	logger.WithFields(map[string]any{
		"active":       c.Active.Count,
		"dormant":      c.Dormant.Count,
		"long_dormant": c.LongDormant.Count,
		"unknown":      c.Unknown,
	}).Info("Classified repositories")

	report, err := a.provider.Generate(ctx, RenderPrompt(c, a.bands), llm.Options{
		Temperature: a.temperature,
		MaxTokens:   a.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("generating report: %w", err)
	}
	return report, nil
}

// RenderPrompt embeds the classification into the report prompt.
func RenderPrompt(c Classification, bands Bands) string {
	return fmt.Sprintf(reportPrompt,
		c.Total,
		bands.Active, c.Active.Count,
		bands.Hot, c.Hot,
		bands.Active, bands.Dormant, c.Dormant.Count,
		bands.Dormant, c.LongDormant.Count,
		formatActive(c.Active.Top),
		formatDormant(c.Dormant.Top),
		formatDormant(c.LongDormant.Top),
	)
}

func formatActive(rows []model.Row) string {
	if len(rows) == 0 {
		return emptyBand
	}
	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, fmt.Sprintf("%s\n  Updated on %s, latest change: %s", headline(r), r.LastPushed, r.LatestCommit))
	}
	return strings.Join(lines, "\n")
}

func formatDormant(rows []model.Row) string {
	if len(rows) == 0 {
		return emptyBand
	}
	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, fmt.Sprintf("%s\n  Dormant for %d days (Stars: %d)", headline(r), r.DaysInactive, r.Stars))
	}
	return strings.Join(lines, "\n")
}

func headline(r model.Row) string {
	return fmt.Sprintf("- [%s](%s) - [%s] - %s", r.FullName, r.HTMLURL, r.Language, r.Description)
}
