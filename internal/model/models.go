package model

import "time"

// Placeholder values standing in for unknown or unavailable data.
const (
	NoDescription     = "No description"
	CommitUnavailable = "unavailable"
	UnknownLanguage   = "Unknown"
	NotAvailable      = "N/A"
)

// Repository is one starred repository as returned by the hosting platform.
// Optional fields are pointers so that "unknown" stays distinct from "empty".
type Repository struct {
	FullName    string
	Description *string
	HTMLURL     string
	Language    *string
	Topics      []string

	StargazersCount  int
	WatchersCount    int
	SubscribersCount int
	ForksCount       int
	OpenIssuesCount  int

	PushedAt      *time.Time
	UpdatedAt     *time.Time
	CreatedAt     *time.Time
	DefaultBranch string

	Archived  bool
	Disabled  bool
	HasIssues bool
}

// Status is the maintenance state derived from repository flags.
type Status string

const (
	StatusDisabled Status = "disabled"
	StatusArchived Status = "archived"
	StatusActive   Status = "actively-maintained"
	StatusUnknown  Status = "unknown"
)

// Row is the enriched, export-ready view of a Repository.
type Row struct {
	FullName      string
	Language      string
	Description   string
	HTMLURL       string
	Stars         int
	LastPushed    string
	DaysInactive  int
	AnnualCommits int
	LatestCommit  string
	Status        Status
	ProjectAge    string
	Watchers      int
	Subscribers   int
	Forks         int
	OpenIssues    int
	Topics        []string
	LatestRelease string
}

// HasKnownActivity reports whether the row carries a push timestamp.
func (r Row) HasKnownActivity() bool {
	return r.DaysInactive >= 0
}
