package github

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/go-github/v62/github"

	"github.com/TobiSchelling/startracker/internal/logger"
	"github.com/TobiSchelling/startracker/internal/model"
)

const maxCommitSummary = 100

// CommitActivity sums the weekly commit counts of the trailing year.
// It returns 0 when the statistics are unavailable or still being computed.
func (c *Client) CommitActivity(ctx context.Context, repo model.Repository) int {
	owner, name, err := splitFullName(repo.FullName)
	if err != nil {
		return 0
	}

	participation, err := withRetry(ctx, c.maxRetries, c.delay, func() (*github.RepositoryParticipation, *github.Response, error) {
		return c.gh.Repositories.ListParticipation(ctx, owner, name)
	})
	if err != nil {
		logger.WithField("repo", repo.FullName).Debugf("Commit activity unavailable: %v", err)
		return 0
	}

	total := 0
	for _, n := range participation.All {
		total += n
	}
	return total
}

// LatestCommit returns the first line of the newest commit message on
// branch, capped at 100 characters, or the "unavailable" placeholder.
func (c *Client) LatestCommit(ctx context.Context, repo model.Repository, branch string) string {
	owner, name, err := splitFullName(repo.FullName)
	if err != nil {
		return model.CommitUnavailable
	}
	if branch == "" {
		branch = "main"
	}

	commit, err := withRetry(ctx, c.maxRetries, c.delay, func() (*github.RepositoryCommit, *github.Response, error) {
		return c.gh.Repositories.GetCommit(ctx, owner, name, branch, nil)
	})
	if err != nil {
		logger.WithField("repo", repo.FullName).Debugf("Latest commit unavailable: %v", err)
		return model.CommitUnavailable
	}

	return firstLine(commit.GetCommit().GetMessage(), maxCommitSummary)
}

func firstLine(msg string, limit int) string {
	line, _, _ := strings.Cut(msg, "\n")
	line = strings.TrimRight(line, "\r")
	if utf8.RuneCountInString(line) <= limit {
		return line
	}
	return string([]rune(line)[:limit])
}
