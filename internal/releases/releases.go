package releases

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/TobiSchelling/startracker/internal/logger"
)

// DefaultBaseURL is where public release feeds live.
const DefaultBaseURL = "https://github.com"

// Release is the newest entry of a repository's release feed.
type Release struct {
	Title         string
	PublishedDate string // YYYY-MM-DD or empty
}

// String renders the release as "title (date)".
func (r Release) String() string {
	if r.PublishedDate == "" {
		return r.Title
	}
	return fmt.Sprintf("%s (%s)", r.Title, r.PublishedDate)
}

// FeedBaseURL returns the web host serving release feeds for a REST API
// URL. An empty or api.github.com URL maps to DefaultBaseURL; an Enterprise
// URL such as https://ghe.example.com/api/v3/ maps to its scheme and host.
func FeedBaseURL(apiURL string) string {
	if apiURL == "" {
		return DefaultBaseURL
	}
	u, err := url.Parse(apiURL)
	if err != nil || u.Host == "" || u.Host == "api.github.com" {
		return DefaultBaseURL
	}
	scheme := u.Scheme
	if scheme == "" {
		scheme = "https"
	}
	return scheme + "://" + u.Host
}

// FeedLookup reads the Atom release feed of a repository.
type FeedLookup struct {
	baseURL string
	parser  *gofeed.Parser
}

// NewFeedLookup creates a lookup against baseURL (DefaultBaseURL when empty).
func NewFeedLookup(baseURL string) *FeedLookup {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: 15 * time.Second}
	return &FeedLookup{baseURL: strings.TrimRight(baseURL, "/"), parser: parser}
}

// Latest returns the newest release rendered as text, or "" when the feed is
// empty or cannot be read.
func (f *FeedLookup) Latest(ctx context.Context, fullName string) string {
	rel, err := f.latest(ctx, fullName)
	if err != nil {
		logger.WithField("repo", fullName).Debugf("Release feed unavailable: %v", err)
		return ""
	}
	if rel == nil {
		return ""
	}
	return rel.String()
}

func (f *FeedLookup) latest(ctx context.Context, fullName string) (*Release, error) {
	feedURL := fmt.Sprintf("%s/%s/releases.atom", f.baseURL, fullName)
	feed, err := f.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, err
	}

	for _, item := range feed.Items {
		if rel := parseItem(item); rel != nil {
			return rel, nil
		}
	}
	return nil, nil
}

func parseItem(item *gofeed.Item) *Release {
	title := strings.TrimSpace(item.Title)
	if title == "" {
		return nil
	}

	var published string
	if item.UpdatedParsed != nil {
		published = item.UpdatedParsed.Format("2006-01-02")
	} else if item.PublishedParsed != nil {
		published = item.PublishedParsed.Format("2006-01-02")
	}

	return &Release{Title: title, PublishedDate: published}
}
