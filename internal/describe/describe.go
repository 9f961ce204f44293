package describe

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/TobiSchelling/startracker/internal/llm"
	"github.com/TobiSchelling/startracker/internal/logger"
	"github.com/TobiSchelling/startracker/internal/model"
)

// readmeExcerpt bounds how much README text is sent for summarization.
const readmeExcerpt = 1500

const summaryPrompt = `Read the following README of a GitHub project and summarize the project's main purpose and functionality in 1-2 sentences.
Requirements:
1. Be concise and lead with the core functionality
2. Keep it under 50 words
3. State what the project is or does; do not explain how to use it

README:
%s

Summary:`

// ReadmeSource retrieves the decoded README of a repository.
type ReadmeSource interface {
	Readme(ctx context.Context, fullName string) (string, error)
}

// Enricher produces a description for repositories that have none.
type Enricher struct {
	source      ReadmeSource
	provider    llm.Provider
	temperature float64
}

// NewEnricher creates an Enricher. provider may be nil, in which case only
// the local heuristic is used.
func NewEnricher(source ReadmeSource, provider llm.Provider, temperature float64) *Enricher {
	return &Enricher{source: source, provider: provider, temperature: temperature}
}

// Enrich returns a short description derived from the README. It never
// fails: README errors yield the "No description" sentinel and summarization
// errors fall back to a local heuristic.
func (e *Enricher) Enrich(ctx context.Context, repo model.Repository) string {
	readme, err := e.source.Readme(ctx, repo.FullName)
	if err != nil {
		logger.WithField("repo", repo.FullName).Debugf("README unavailable: %v", err)
		return model.NoDescription
	}

	excerpt := truncateRunes(readme, readmeExcerpt)

	summary, err := e.summarize(ctx, excerpt)
	if err != nil {
		logger.WithField("repo", repo.FullName).Warnf("LLM summary failed, using README heuristic: %v", err)
		return Heuristic(excerpt)
	}
	return summary
}

func (e *Enricher) summarize(ctx context.Context, excerpt string) (string, error) {
	if e.provider == nil {
		return "", fmt.Errorf("no LLM provider configured")
	}

	out, err := e.provider.Generate(ctx, fmt.Sprintf(summaryPrompt, excerpt), llm.Options{Temperature: e.temperature})
	if err != nil {
		return "", err
	}

	out = strings.TrimSpace(out)
	if utf8.RuneCountInString(out) <= 5 {
		return "", fmt.Errorf("summary too short: %q", out)
	}
	return out, nil
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
