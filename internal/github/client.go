package github

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	"github.com/TobiSchelling/startracker/internal/logger"
	"github.com/TobiSchelling/startracker/internal/model"
)

const starredPageSize = 100

// Options configures a Client.
type Options struct {
	Token string
	// APIURL points at a GitHub Enterprise API root; empty means github.com.
	APIURL string
	// Delay is the pause between paginated requests and between retries.
	Delay      time.Duration
	MaxRetries int
}

// Client is a wrapper around the go-github client.
type Client struct {
	gh         *github.Client
	delay      time.Duration
	maxRetries int
}

// NewClient creates a Client authenticated with a bearer token.
func NewClient(opts Options) (*Client, error) {
	var httpClient *http.Client
	if opts.Token != "" {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: opts.Token},
		)
		httpClient = oauth2.NewClient(context.Background(), ts)
	}

	gh := github.NewClient(httpClient)
	if opts.APIURL != "" {
		var err error
		gh, err = gh.WithEnterpriseURLs(opts.APIURL, opts.APIURL)
		if err != nil {
			return nil, fmt.Errorf("configuring GitHub API URL: %w", err)
		}
	}
	return newClient(gh, opts), nil
}

func newClient(gh *github.Client, opts Options) *Client {
	return &Client{
		gh:         gh,
		delay:      opts.Delay,
		maxRetries: opts.MaxRetries,
	}
}

// ListStarred pages through the user's starred repositories, 100 per page,
// until a page comes back empty. A failed request ends pagination early and
// whatever was collected so far is returned.
func (c *Client) ListStarred(ctx context.Context, username string) []model.Repository {
	var repos []model.Repository
	logger.Infof("Fetching starred repositories for %s...", username)

	for page := 1; ; page++ {
		opts := &github.ActivityListStarredOptions{
			ListOptions: github.ListOptions{Page: page, PerPage: starredPageSize},
		}
		starred, err := withRetry(ctx, c.maxRetries, c.delay, func() ([]*github.StarredRepository, *github.Response, error) {
			return c.gh.Activity.ListStarred(ctx, username, opts)
		})
		if err != nil {
			logger.WithError(err).Warnf("Starred request failed on page %d, keeping %d repositories", page, len(repos))
			return repos
		}
		if len(starred) == 0 {
			break
		}

		for _, s := range starred {
			repo, err := toRepository(s.GetRepository())
			if err != nil {
				logger.WithError(err).Warnf("Malformed starred entry on page %d, keeping %d repositories", page, len(repos))
				return repos
			}
			repos = append(repos, repo)
		}

		logger.Infof("Loaded page %d, %d repositories so far", page, len(repos))
		if !pause(ctx, c.delay) {
			return repos
		}
	}

	return repos
}

// Readme returns the decoded README text of a repository.
func (c *Client) Readme(ctx context.Context, fullName string) (string, error) {
	owner, name, err := splitFullName(fullName)
	if err != nil {
		return "", err
	}

	content, err := withRetry(ctx, c.maxRetries, c.delay, func() (*github.RepositoryContent, *github.Response, error) {
		return c.gh.Repositories.GetReadme(ctx, owner, name, nil)
	})
	if err != nil {
		return "", fmt.Errorf("fetching README for %s: %w", fullName, err)
	}

	text, err := content.GetContent()
	if err != nil {
		return "", fmt.Errorf("decoding README for %s: %w", fullName, err)
	}
	return text, nil
}

// toRepository translates a github.Repository to the internal record.
func toRepository(r *github.Repository) (model.Repository, error) {
	if r == nil || r.GetFullName() == "" || r.GetHTMLURL() == "" {
		return model.Repository{}, fmt.Errorf("repository entry without full_name or html_url")
	}

	branch := r.GetDefaultBranch()
	if branch == "" {
		branch = "main"
	}

	return model.Repository{
		FullName:         r.GetFullName(),
		Description:      r.Description,
		HTMLURL:          r.GetHTMLURL(),
		Language:         r.Language,
		Topics:           r.Topics,
		StargazersCount:  r.GetStargazersCount(),
		WatchersCount:    r.GetWatchersCount(),
		SubscribersCount: r.GetSubscribersCount(),
		ForksCount:       r.GetForksCount(),
		OpenIssuesCount:  r.GetOpenIssuesCount(),
		PushedAt:         timePtr(r.PushedAt),
		UpdatedAt:        timePtr(r.UpdatedAt),
		CreatedAt:        timePtr(r.CreatedAt),
		DefaultBranch:    branch,
		Archived:         r.GetArchived(),
		Disabled:         r.GetDisabled(),
		HasIssues:        r.GetHasIssues(),
	}, nil
}

func timePtr(ts *github.Timestamp) *time.Time {
	if ts == nil || ts.Time.IsZero() {
		return nil
	}
	t := ts.Time.UTC()
	return &t
}

func splitFullName(fullName string) (string, string, error) {
	r := model.Repository{FullName: fullName}
	owner, name := r.OwnerAndName()
	if owner == "" || name == "" {
		return "", "", fmt.Errorf("invalid repository name %q, expected 'owner/name'", fullName)
	}
	return owner, name, nil
}

// pause waits for d or until ctx is done; it reports whether to continue.
func pause(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
