package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/go-github/v62/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TobiSchelling/startracker/internal/model"
)

// setupTestClient points a Client at an httptest server.
func setupTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	gh := github.NewClient(server.Client())
	base, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	gh.BaseURL = base

	return newClient(gh, Options{MaxRetries: 3})
}

func starredEntry(name string, stars int) string {
	return fmt.Sprintf(`{"starred_at":"2025-01-01T00:00:00Z","repo":{"full_name":%q,"html_url":"https://github.com/%s","stargazers_count":%d,"pushed_at":"2026-02-20T10:00:00Z","default_branch":"develop","has_issues":true,"topics":["cli","go"]}}`, name, name, stars)
}

func TestListStarred_Paginates(t *testing.T) {
	var requests int32
	client := setupTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		assert.Equal(t, "/users/octo/starred", r.URL.Path)
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))

		switch r.URL.Query().Get("page") {
		case "1":
			fmt.Fprintf(w, "[%s,%s]", starredEntry("a/one", 10), starredEntry("b/two", 20))
		case "2":
			fmt.Fprintf(w, "[%s]", starredEntry("c/three", 30))
		default:
			fmt.Fprint(w, "[]")
		}
	}))

	repos := client.ListStarred(context.Background(), "octo")

	require.Len(t, repos, 3)
	assert.Equal(t, int32(3), atomic.LoadInt32(&requests))
	assert.Equal(t, "a/one", repos[0].FullName)
	assert.Equal(t, "c/three", repos[2].FullName)
	assert.Equal(t, 30, repos[2].StargazersCount)
	assert.Equal(t, "develop", repos[0].DefaultBranch)
	assert.True(t, repos[0].HasIssues)
	assert.Equal(t, []string{"cli", "go"}, repos[0].Topics)
	require.NotNil(t, repos[0].PushedAt)
	assert.Equal(t, 20, repos[0].PushedAt.Day())
	assert.Nil(t, repos[0].Description)
}

func TestListStarred_PartialOnFailure(t *testing.T) {
	var requests int32
	client := setupTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		if r.URL.Query().Get("page") == "1" {
			fmt.Fprintf(w, "[%s]", starredEntry("a/one", 1))
			return
		}
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message":"Not Found"}`)
	}))

	repos := client.ListStarred(context.Background(), "octo")

	require.Len(t, repos, 1)
	assert.Equal(t, "a/one", repos[0].FullName)
	assert.Equal(t, int32(2), atomic.LoadInt32(&requests), "4xx must not be retried")
}

func TestListStarred_MalformedEntryKeepsPartial(t *testing.T) {
	var requests int32
	client := setupTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		switch r.URL.Query().Get("page") {
		case "1":
			fmt.Fprintf(w, "[%s,%s]", starredEntry("a/one", 1), starredEntry("b/two", 2))
		case "2":
			fmt.Fprint(w, `[{"starred_at":"2025-01-01T00:00:00Z","repo":{"full_name":"c/three","stargazers_count":3}}]`)
		default:
			fmt.Fprintf(w, "[%s]", starredEntry("d/four", 4))
		}
	}))

	repos := client.ListStarred(context.Background(), "octo")

	require.Len(t, repos, 2)
	assert.Equal(t, "a/one", repos[0].FullName)
	assert.Equal(t, "b/two", repos[1].FullName)
	assert.Equal(t, int32(2), atomic.LoadInt32(&requests), "pagination must stop at the malformed page")
}

func TestListStarred_RetriesServerErrors(t *testing.T) {
	var requests int32
	client := setupTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&requests, 1)
		if n == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		if r.URL.Query().Get("page") == "1" {
			fmt.Fprintf(w, "[%s]", starredEntry("a/one", 1))
			return
		}
		fmt.Fprint(w, "[]")
	}))

	repos := client.ListStarred(context.Background(), "octo")

	require.Len(t, repos, 1)
	assert.Equal(t, int32(3), atomic.LoadInt32(&requests))
}

func TestListStarred_GivesUpAfterMaxRetries(t *testing.T) {
	var requests int32
	client := setupTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))

	repos := client.ListStarred(context.Background(), "octo")

	assert.Empty(t, repos)
	assert.Equal(t, int32(3), atomic.LoadInt32(&requests))
}

func TestReadme(t *testing.T) {
	body := "# Tool\n\nA small tool."
	client := setupTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/a/one/readme", r.URL.Path)
		fmt.Fprintf(w, `{"type":"file","encoding":"base64","content":%q}`, base64.StdEncoding.EncodeToString([]byte(body)))
	}))

	text, err := client.Readme(context.Background(), "a/one")

	require.NoError(t, err)
	assert.Equal(t, body, text)
}

func TestReadme_Errors(t *testing.T) {
	client := setupTestClient(t, http.NotFoundHandler())

	_, err := client.Readme(context.Background(), "a/one")
	assert.Error(t, err)

	_, err = client.Readme(context.Background(), "no-slash")
	assert.Error(t, err)
}

func TestCommitActivity(t *testing.T) {
	repo := model.Repository{FullName: "a/one"}

	t.Run("sums weekly counts", func(t *testing.T) {
		client := setupTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/repos/a/one/stats/participation", r.URL.Path)
			fmt.Fprint(w, `{"all":[1,2,3,0,4],"owner":[0,0,0,0,0]}`)
		}))
		assert.Equal(t, 10, client.CommitActivity(context.Background(), repo))
	})

	t.Run("202 while stats are computed", func(t *testing.T) {
		var requests int32
		client := setupTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&requests, 1)
			w.WriteHeader(http.StatusAccepted)
			fmt.Fprint(w, `{}`)
		}))
		assert.Equal(t, 0, client.CommitActivity(context.Background(), repo))
		assert.Equal(t, int32(1), atomic.LoadInt32(&requests))
	})

	t.Run("not found", func(t *testing.T) {
		client := setupTestClient(t, http.NotFoundHandler())
		assert.Equal(t, 0, client.CommitActivity(context.Background(), repo))
	})
}

func TestLatestCommit(t *testing.T) {
	repo := model.Repository{FullName: "a/one"}

	t.Run("first line of message", func(t *testing.T) {
		client := setupTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/repos/a/one/commits/develop", r.URL.Path)
			fmt.Fprint(w, `{"sha":"abc","commit":{"message":"Fix parser crash\n\nLonger body"}}`)
		}))
		assert.Equal(t, "Fix parser crash", client.LatestCommit(context.Background(), repo, "develop"))
	})

	t.Run("truncated to 100 characters", func(t *testing.T) {
		long := strings.Repeat("é", 150)
		client := setupTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintf(w, `{"sha":"abc","commit":{"message":%q}}`, long)
		}))
		got := client.LatestCommit(context.Background(), repo, "main")
		assert.Equal(t, strings.Repeat("é", 100), got)
	})

	t.Run("unavailable on error", func(t *testing.T) {
		client := setupTestClient(t, http.NotFoundHandler())
		assert.Equal(t, model.CommitUnavailable, client.LatestCommit(context.Background(), repo, "main"))
	})
}
