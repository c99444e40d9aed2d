// Gói githubapi cung cấp caller cho GitHub API: tìm kiếm repository theo
// query phân tầng, liệt kê cây file, lấy lịch sử commit theo file và tải
// nội dung file thô. Mọi request đều đi qua limiter.Scheduler.

package githubapi

import "time"

type Owner struct {
	Login string `json:"login"`
	ID    int64  `json:"id"`
}

type License struct {
	Key string `json:"key"`
}

type RepoResponse struct {
	Id            int64    `json:"id"`
	Name          string   `json:"name"`
	FullName      string   `json:"full_name"`
	Description   string   `json:"description"`
	Url           string   `json:"html_url"`
	Fork          bool     `json:"fork"`
	Size          int64    `json:"size"`
	DefaultBranch string   `json:"default_branch"`
	Owner         Owner    `json:"owner"`
	License       *License `json:"license"`
}

// SearchResponse là response của search API, TotalCount là population
// của stratum đang query (có thể vượt cửa sổ 1000 kết quả)
type SearchResponse struct {
	TotalCount        int            `json:"total_count"`
	IncompleteResults bool           `json:"incomplete_results"`
	Items             []RepoResponse `json:"items"`
}

type TreeEntry struct {
	Path string `json:"path"`
	Type string `json:"type"`
	Sha  string `json:"sha"`
	Size int64  `json:"size"`
}

type TreeResponse struct {
	Sha       string      `json:"sha"`
	Tree      []TreeEntry `json:"tree"`
	Truncated bool        `json:"truncated"`
}

type CommitAuthor struct {
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Date  time.Time `json:"date"`
}

type CommitDetail struct {
	Message   string       `json:"message"`
	Author    CommitAuthor `json:"author"`
	Committer CommitAuthor `json:"committer"`
}

type CommitParent struct {
	Sha string `json:"sha"`
}

type CommitResponse struct {
	Sha     string         `json:"sha"`
	Commit  CommitDetail   `json:"commit"`
	Parents []CommitParent `json:"parents"`
}
