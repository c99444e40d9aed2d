package crawler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thep200/solidity-crawler/cfg"
	"github.com/thep200/solidity-crawler/internal/githubapi"
	"github.com/thep200/solidity-crawler/internal/model"
	"github.com/thep200/solidity-crawler/internal/stratum"
	"github.com/thep200/solidity-crawler/pkg/db"
	"github.com/thep200/solidity-crawler/pkg/log"
)

// memStore cài đặt model.Store trong bộ nhớ với đúng ngữ nghĩa
// insert-if-absent của MysqlStore
type memStore struct {
	repos   map[int64]*model.Repo
	files   map[string]*model.File
	commits map[string]*model.Commit
	nextID  int64
}

func newMemStore() *memStore {
	return &memStore{
		repos:   map[int64]*model.Repo{},
		files:   map[string]*model.File{},
		commits: map[string]*model.Commit{},
	}
}

func fileKey(repoID int64, path string) string  { return fmt.Sprintf("%d|%s", repoID, path) }
func commitKey(fileID int64, sha string) string { return fmt.Sprintf("%d|%s", fileID, sha) }

func (m *memStore) UpsertRepo(ctx context.Context, repo *model.Repo) (bool, error) {
	if _, ok := m.repos[repo.ID]; ok {
		return false, nil
	}
	m.repos[repo.ID] = repo
	return true, nil
}

func (m *memStore) RepoExists(ctx context.Context, id int64) (bool, error) {
	_, ok := m.repos[id]
	return ok, nil
}

func (m *memStore) UpsertFile(ctx context.Context, file *model.File) (bool, error) {
	if _, ok := m.repos[file.RepoID]; !ok {
		return false, &model.IntegrityError{Table: "files", Detail: fmt.Sprintf("repo %d not persisted yet", file.RepoID)}
	}
	if existing, ok := m.files[fileKey(file.RepoID, file.Path)]; ok {
		file.ID = existing.ID
		return false, nil
	}
	m.nextID++
	file.ID = m.nextID
	m.files[fileKey(file.RepoID, file.Path)] = file
	return true, nil
}

func (m *memStore) FindFile(ctx context.Context, repoID int64, path string) (*model.File, error) {
	f, ok := m.files[fileKey(repoID, path)]
	if !ok {
		return nil, nil
	}
	return f, nil
}

func (m *memStore) UpsertCommit(ctx context.Context, file *model.File, commit *model.Commit) (bool, error) {
	if file == nil || file.ID == 0 {
		return false, &model.IntegrityError{Table: "commits", Detail: "file not persisted yet"}
	}
	commit.FileID = file.ID
	if _, ok := m.commits[commitKey(file.ID, commit.Sha)]; ok {
		return false, nil
	}
	m.commits[commitKey(file.ID, commit.Sha)] = commit
	return true, nil
}

func (m *memStore) CommitExists(ctx context.Context, fileID int64, sha string) (bool, error) {
	_, ok := m.commits[commitKey(fileID, sha)]
	return ok, nil
}

// fakeGithub giả lập các endpoint GitHub mà crawler gọi tới.
// Kết quả search được tra theo khoảng size trong query.
type fakeSearch struct {
	total int
	items []githubapi.RepoResponse
}

type fakeGithub struct {
	mu       sync.Mutex
	searches []string
	results  map[string]fakeSearch
	trees    map[string][]githubapi.TreeEntry
	commits  map[string][]githubapi.CommitResponse
	contents map[string]string // theo sha
}

func newFakeGithub() *fakeGithub {
	return &fakeGithub{
		results:  map[string]fakeSearch{},
		trees:    map[string][]githubapi.TreeEntry{},
		commits:  map[string][]githubapi.CommitResponse{},
		contents: map[string]string{},
	}
}

func (f *fakeGithub) searchedSizes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var sizes []string
	for _, q := range f.searches {
		sizes = append(sizes, sizeOfQuery(q))
	}
	return sizes
}

func sizeOfQuery(q string) string {
	for _, token := range strings.Fields(q) {
		if strings.HasPrefix(token, "size:") {
			return strings.TrimPrefix(token, "size:")
		}
	}
	return ""
}

func (f *fakeGithub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	switch {
	case r.URL.Path == "/search":
		q := r.URL.Query().Get("q")
		f.mu.Lock()
		f.searches = append(f.searches, q)
		res := f.results[sizeOfQuery(q)]
		f.mu.Unlock()

		items := res.items
		if page > 1 {
			items = nil
		}
		json.NewEncoder(w).Encode(githubapi.SearchResponse{TotalCount: res.total, Items: items})

	case strings.Contains(r.URL.Path, "/git/trees/"):
		fullName := strings.TrimPrefix(r.URL.Path[:strings.Index(r.URL.Path, "/git/trees/")], "/repos/")
		json.NewEncoder(w).Encode(githubapi.TreeResponse{Tree: f.trees[fullName]})

	case strings.HasSuffix(r.URL.Path, "/commits"):
		fullName := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/repos/"), "/commits")
		list := f.commits[fullName+"|"+r.URL.Query().Get("path")]
		if page > 1 {
			list = nil
		}
		if list == nil {
			list = []githubapi.CommitResponse{}
		}
		json.NewEncoder(w).Encode(list)

	case strings.HasPrefix(r.URL.Path, "/raw/"):
		parts := strings.SplitN(strings.TrimPrefix(r.URL.Path, "/raw/"), "/", 4)
		if len(parts) < 4 {
			http.NotFound(w, r)
			return
		}
		content, ok := f.contents[parts[2]]
		if !ok {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, content)

	default:
		http.NotFound(w, r)
	}
}

func newTestCrawler(t *testing.T, fake *fakeGithub, minSize, maxSize, width int, statsFile string) (*CrawlerV1, *memStore) {
	t.Helper()
	ts := httptest.NewServer(fake)
	t.Cleanup(ts.Close)

	loader, _ := cfg.NewMockLoader()
	config, err := loader.Load()
	require.NoError(t, err)
	config.GithubApi.SearchApiUrl = ts.URL + "/search"
	config.GithubApi.TreeApiUrl = ts.URL + "/repos/{repo}/git/trees/{branch}?recursive=1"
	config.GithubApi.CommitsApiUrl = ts.URL + "/repos/{repo}/commits"
	config.GithubApi.RawContentUrl = ts.URL + "/raw/{repo}/{sha}/{path}"
	config.GithubApi.BackoffBaseMs = 1
	config.Crawler.Throttle = false
	config.Crawler.MinSize = minSize
	config.Crawler.MaxSize = maxSize
	config.Crawler.StratumSize = width
	config.Crawler.StatsFile = statsFile

	logger, _ := log.NewCslLogger()
	mysql, err := db.NewMysql(config)
	require.NoError(t, err)

	crawler, err := NewCrawlerV1(logger, config, mysql)
	require.NoError(t, err)

	store := newMemStore()
	crawler.Store = store
	return crawler, store
}

func sampleRepo() githubapi.RepoResponse {
	return githubapi.RepoResponse{
		Id:            101,
		Name:          "token",
		FullName:      "alice/token",
		Description:   "ERC20 token",
		Url:           "https://github.com/alice/token",
		DefaultBranch: "main",
		Owner:         githubapi.Owner{Login: "alice", ID: 7},
		License:       &githubapi.License{Key: "mit"},
	}
}

func TestCrawlSplitsCappedStratumAndIngests(t *testing.T) {
	fake := newFakeGithub()

	// Tầng [1,5) vượt cửa sổ 1000 kết quả, hai tầng con thì không
	fake.results["1..4"] = fakeSearch{total: 1200}
	fake.results["1..2"] = fakeSearch{total: 1, items: []githubapi.RepoResponse{sampleRepo()}}
	fake.results["3..4"] = fakeSearch{total: 0}

	fake.trees["alice/token"] = []githubapi.TreeEntry{
		{Path: "contracts/Token.sol", Type: "blob", Sha: "f1", Size: 3},
		{Path: "README.md", Type: "blob", Sha: "f2", Size: 1},
		{Path: "contracts", Type: "tree", Sha: "d1"},
	}
	fake.commits["alice/token|contracts/Token.sol"] = []githubapi.CommitResponse{
		{
			Sha:     "c1",
			Commit:  githubapi.CommitDetail{Message: "add token", Committer: githubapi.CommitAuthor{Date: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}},
			Parents: []githubapi.CommitParent{{Sha: "c0"}},
		},
		{
			Sha:    "c2",
			Commit: githubapi.CommitDetail{Message: "fix overflow", Committer: githubapi.CommitAuthor{Date: time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)}},
		},
	}
	fake.contents["c1"] = "pragma solidity ^0.8.19;\ncontract Token {}\n"
	// sha c2 không có nội dung: commit vẫn lưu được với content NULL

	statsFile := filepath.Join(t.TempDir(), "sampling.csv")
	crawler, store := newTestCrawler(t, fake, 1, 5, 4, statsFile)
	require.True(t, crawler.Crawl())

	// Tầng gốc bị tách, hai tầng con được query tiếp
	assert.Equal(t, []string{"1..4", "1..2", "3..4"}, fake.searchedSizes())

	// Repo
	require.Len(t, store.repos, 1)
	repo := store.repos[101]
	require.NotNil(t, repo)
	assert.Equal(t, "alice/token", repo.FullName)
	assert.Equal(t, "alice", repo.OwnerLogin)
	require.NotNil(t, repo.License)
	assert.Equal(t, "mit", *repo.License)
	assert.False(t, repo.IsFork)

	// Chỉ file .sol được lưu, không lấy README hay tree entry
	require.Len(t, store.files, 1)
	file := store.files[fileKey(101, "contracts/Token.sol")]
	require.NotNil(t, file)
	assert.Equal(t, "Token", file.Name)
	assert.Equal(t, "f1", file.Sha)

	// Commit có nội dung và commit content NULL đều được lưu
	require.Len(t, store.commits, 2)
	c1 := store.commits[commitKey(file.ID, "c1")]
	require.NotNil(t, c1)
	require.NotNil(t, c1.Content)
	assert.Equal(t, "0.8.19", c1.CompilerVersion)
	assert.Equal(t, "c0", c1.Parents)
	assert.Equal(t, int64(len(*c1.Content)), c1.Size)

	c2 := store.commits[commitKey(file.ID, "c2")]
	require.NotNil(t, c2)
	assert.Nil(t, c2.Content)
	assert.Equal(t, "", c2.CompilerVersion)
	assert.Equal(t, int64(0), c2.Size)

	// Số liệu tổng hợp
	repos, files, commits := crawler.Planner.Totals()
	assert.Equal(t, 1, repos)
	assert.Equal(t, 1, files)
	assert.Equal(t, 2, commits)

	// Snapshot cuối cùng ghi đủ ba tầng và đều exhausted
	strata, err := stratum.NewCsvStore(statsFile).Load()
	require.NoError(t, err)
	require.Len(t, strata, 3)
	for _, s := range strata {
		assert.True(t, s.Exhausted)
	}
}

func TestRecrawlIsIdempotent(t *testing.T) {
	fake := newFakeGithub()
	fake.results["1..4"] = fakeSearch{total: 1, items: []githubapi.RepoResponse{sampleRepo()}}
	fake.trees["alice/token"] = []githubapi.TreeEntry{
		{Path: "contracts/Token.sol", Type: "blob", Sha: "f1", Size: 3},
	}
	fake.commits["alice/token|contracts/Token.sol"] = []githubapi.CommitResponse{
		{Sha: "c1", Commit: githubapi.CommitDetail{Message: "add token"}},
	}
	fake.contents["c1"] = "pragma solidity 0.8.0;"

	dir := t.TempDir()
	first, store := newTestCrawler(t, fake, 1, 5, 4, filepath.Join(dir, "run1.csv"))
	require.True(t, first.Crawl())
	require.Len(t, store.repos, 1)
	require.Len(t, store.files, 1)
	require.Len(t, store.commits, 1)

	// Run thứ hai với file thống kê mới nhưng cùng database: mọi thứ đã
	// tồn tại nên không có dòng mới, file trùng sha không lấy lại lịch sử
	second, _ := newTestCrawler(t, fake, 1, 5, 4, filepath.Join(dir, "run2.csv"))
	second.Store = store
	require.True(t, second.Crawl())

	assert.Len(t, store.repos, 1)
	assert.Len(t, store.files, 1)
	assert.Len(t, store.commits, 1)

	repos, files, commits := second.Planner.Totals()
	assert.Equal(t, 0, repos)
	assert.Equal(t, 0, files)
	assert.Equal(t, 0, commits)
}

func TestResumeSkipsExhaustedStrata(t *testing.T) {
	fake := newFakeGithub()
	statsFile := filepath.Join(t.TempDir(), "sampling.csv")

	first, _ := newTestCrawler(t, fake, 1, 11, 5, statsFile)
	require.True(t, first.Crawl())
	require.NotEmpty(t, fake.searchedSizes())

	// Run mới cùng file thống kê: mọi tầng đã exhausted, không query gì thêm
	fake.mu.Lock()
	fake.searches = nil
	fake.mu.Unlock()

	resumed, _ := newTestCrawler(t, fake, 1, 11, 5, statsFile)
	require.True(t, resumed.Crawl())
	assert.Empty(t, fake.searchedSizes())
}

func TestLicenseFilterQueriesEachLicense(t *testing.T) {
	fake := newFakeGithub()
	statsFile := filepath.Join(t.TempDir(), "sampling.csv")

	crawler, _ := newTestCrawler(t, fake, 1, 2, 1, statsFile)
	crawler.Config.Crawler.LicenseFilter = true
	require.True(t, crawler.Crawl())

	fake.mu.Lock()
	queries := append([]string(nil), fake.searches...)
	fake.mu.Unlock()

	require.Len(t, queries, len(licenses))
	for i, q := range queries {
		assert.Contains(t, q, "license:"+licenses[i])
		assert.Contains(t, q, "size:1")
	}
}

func TestMissingFileContentDoesNotBlockLaterCommits(t *testing.T) {
	fake := newFakeGithub()
	fake.results["1..4"] = fakeSearch{total: 1, items: []githubapi.RepoResponse{sampleRepo()}}
	fake.trees["alice/token"] = []githubapi.TreeEntry{
		{Path: "a.sol", Type: "blob", Sha: "fa", Size: 1},
		{Path: "b.sol", Type: "blob", Sha: "fb", Size: 2},
	}
	fake.commits["alice/token|a.sol"] = []githubapi.CommitResponse{
		{Sha: "ca1", Commit: githubapi.CommitDetail{Message: "deleted later"}},
	}
	fake.commits["alice/token|b.sol"] = []githubapi.CommitResponse{
		{Sha: "cb1", Commit: githubapi.CommitDetail{Message: "still here"}},
	}
	// Chỉ cb1 có nội dung, ca1 trả 404
	fake.contents["cb1"] = "pragma solidity >=0.7.6;"

	crawler, store := newTestCrawler(t, fake, 1, 5, 4, filepath.Join(t.TempDir(), "sampling.csv"))
	require.True(t, crawler.Crawl())

	require.Len(t, store.files, 2)
	require.Len(t, store.commits, 2)

	fa := store.files[fileKey(101, "a.sol")]
	fb := store.files[fileKey(101, "b.sol")]
	assert.Nil(t, store.commits[commitKey(fa.ID, "ca1")].Content)
	require.NotNil(t, store.commits[commitKey(fb.ID, "cb1")].Content)
	assert.Equal(t, "0.7.6", store.commits[commitKey(fb.ID, "cb1")].CompilerVersion)
}
