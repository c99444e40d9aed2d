package githubapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thep200/solidity-crawler/cfg"
	"github.com/thep200/solidity-crawler/internal/limiter"
	"github.com/thep200/solidity-crawler/pkg/log"
)

func testCaller(t *testing.T, handler http.Handler) (*Caller, *httptest.Server) {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	loader, _ := cfg.NewMockLoader()
	config, err := loader.Load()
	require.NoError(t, err)
	config.GithubApi.AccessToken = "test-token"
	config.GithubApi.SearchApiUrl = ts.URL + "/search"
	config.GithubApi.TreeApiUrl = ts.URL + "/repos/{repo}/git/trees/{branch}?recursive=1"
	config.GithubApi.CommitsApiUrl = ts.URL + "/repos/{repo}/commits"
	config.GithubApi.RawContentUrl = ts.URL + "/raw/{repo}/{sha}/{path}"
	config.Crawler.Throttle = false

	logger, _ := log.NewCslLogger()
	return NewCaller(logger, config, limiter.NewScheduler(logger, config)), ts
}

func TestSearchSendsQueryAndAuth(t *testing.T) {
	var got *http.Request
	caller, _ := testCaller(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(r.Context())
		json.NewEncoder(w).Encode(SearchResponse{TotalCount: 2, Items: []RepoResponse{{Id: 1}, {Id: 2}}})
	}))

	res, err := caller.Search(context.Background(), "language:Solidity size:1..4 fork:false", 3, 100)
	require.NoError(t, err)
	assert.Equal(t, 2, res.TotalCount)
	assert.Len(t, res.Items, 2)

	require.NotNil(t, got)
	q := got.URL.Query()
	assert.Equal(t, "language:Solidity size:1..4 fork:false", q.Get("q"))
	assert.Equal(t, "3", q.Get("page"))
	assert.Equal(t, "100", q.Get("per_page"))
	assert.Equal(t, "updated", q.Get("sort"))
	assert.Equal(t, "asc", q.Get("order"))
	assert.Equal(t, "token test-token", got.Header.Get("Authorization"))
	assert.Equal(t, "application/vnd.github.v3+json", got.Header.Get("Accept"))
}

func TestListTreeResolvesTemplate(t *testing.T) {
	caller, _ := testCaller(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/alice/token/git/trees/main", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("recursive"))
		json.NewEncoder(w).Encode(TreeResponse{Tree: []TreeEntry{{Path: "a.sol", Type: "blob"}}})
	}))

	tree, err := caller.ListTree(context.Background(), "alice/token", "main")
	require.NoError(t, err)
	require.Len(t, tree.Tree, 1)
	assert.Equal(t, "a.sol", tree.Tree[0].Path)
}

func TestListCommitsVanishedRepoIsEmpty(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusConflict} {
		caller, _ := testCaller(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		commits, err := caller.ListCommits(context.Background(), "alice/gone", "a.sol", 1, 100)
		require.NoError(t, err)
		assert.Empty(t, commits)
	}
}

func TestFetchContentUnavailable(t *testing.T) {
	caller, _ := testCaller(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))

	_, err := caller.FetchContent(context.Background(), "alice/token", "c1", "a.sol")
	assert.ErrorIs(t, err, ErrContentUnavailable)
}

func TestFetchContentReturnsRawBytes(t *testing.T) {
	caller, _ := testCaller(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/raw/alice/token/c1/contracts/Token.sol", r.URL.Path)
		w.Write([]byte("pragma solidity ^0.8.0;"))
	}))

	content, err := caller.FetchContent(context.Background(), "alice/token", "c1", "contracts/Token.sol")
	require.NoError(t, err)
	assert.Equal(t, "pragma solidity ^0.8.0;", string(content))
}
