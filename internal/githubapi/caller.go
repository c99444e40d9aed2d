package githubapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/thep200/solidity-crawler/cfg"
	"github.com/thep200/solidity-crawler/internal/limiter"
	"github.com/thep200/solidity-crawler/pkg/log"
)

// ErrContentUnavailable báo nội dung file không lấy được ở revision đó
// (file đã bị xoá, blob quá lớn...). Đây là trường hợp bình thường,
// commit vẫn được lưu với content NULL.
var ErrContentUnavailable = errors.New("content unavailable")

type Caller struct {
	Logger    log.Logger
	Config    *cfg.Config
	Scheduler *limiter.Scheduler
}

func NewCaller(logger log.Logger, config *cfg.Config, scheduler *limiter.Scheduler) *Caller {
	return &Caller{
		Logger:    logger,
		Config:    config,
		Scheduler: scheduler,
	}
}

// Search gọi search API với query đã dựng sẵn (language, size, fork, license)
func (c *Caller) Search(ctx context.Context, query string, page, perPage int) (*SearchResponse, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("sort", "updated")
	params.Set("order", "asc")
	params.Set("per_page", fmt.Sprintf("%d", perPage))
	params.Set("page", fmt.Sprintf("%d", page))

	fullUrl := c.Config.GithubApi.SearchApiUrl + "?" + params.Encode()
	c.Logger.Debug(ctx, "Calling search API: %s", fullUrl)

	resp, err := c.doApi(ctx, fullUrl)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	searchResponse := &SearchResponse{}
	if err := json.NewDecoder(resp.Body).Decode(searchResponse); err != nil {
		return nil, fmt.Errorf("cannot decode search response: %w", err)
	}

	c.Logger.Info(ctx, "Total repositories found: %d, page: %d, items received: %d",
		searchResponse.TotalCount, page, len(searchResponse.Items))

	return searchResponse, nil
}

// ListTree lấy toàn bộ cây file của branch mặc định (recursive).
// GitHub giới hạn cây ở 100.000 entry / 7 MB, khi vượt thì Truncated = true.
func (c *Caller) ListTree(ctx context.Context, fullName, branch string) (*TreeResponse, error) {
	treeUrl := strings.ReplaceAll(c.Config.GithubApi.TreeApiUrl, "{repo}", fullName)
	treeUrl = strings.ReplaceAll(treeUrl, "{branch}", branch)

	resp, err := c.doApi(ctx, treeUrl)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	treeResponse := &TreeResponse{}
	if err := json.NewDecoder(resp.Body).Decode(treeResponse); err != nil {
		return nil, fmt.Errorf("cannot decode tree response: %w", err)
	}

	if treeResponse.Truncated {
		c.Logger.Warn(ctx, "Tree listing for %s is truncated, some files will be missed", fullName)
	}

	return treeResponse, nil
}

// ListCommits lấy một trang lịch sử commit của một file cụ thể
func (c *Caller) ListCommits(ctx context.Context, fullName, path string, page, perPage int) ([]CommitResponse, error) {
	commitsUrl := strings.ReplaceAll(c.Config.GithubApi.CommitsApiUrl, "{repo}", fullName)

	params := url.Values{}
	params.Set("path", path)
	params.Set("per_page", fmt.Sprintf("%d", perPage))
	params.Set("page", fmt.Sprintf("%d", page))

	resp, err := c.doApi(ctx, commitsUrl+"?"+params.Encode())
	if err != nil {
		// Repository biến mất giữa chừng trả 404/409, coi như không có commit
		var invalid *limiter.InvalidRequestError
		if errors.As(err, &invalid) && (invalid.StatusCode == http.StatusNotFound || invalid.StatusCode == http.StatusConflict) {
			return []CommitResponse{}, nil
		}
		return nil, err
	}
	defer resp.Body.Close()

	var commits []CommitResponse
	if err := json.NewDecoder(resp.Body).Decode(&commits); err != nil {
		return nil, fmt.Errorf("cannot decode commits response: %w", err)
	}

	return commits, nil
}

// FetchContent tải nội dung file thô tại một commit từ raw content API.
// Host raw không trả header rate limit nên không trừ vào ngân sách.
func (c *Caller) FetchContent(ctx context.Context, fullName, sha, path string) ([]byte, error) {
	contentUrl := strings.ReplaceAll(c.Config.GithubApi.RawContentUrl, "{repo}", fullName)
	contentUrl = strings.ReplaceAll(contentUrl, "{sha}", sha)
	contentUrl = strings.ReplaceAll(contentUrl, "{path}", path)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, contentUrl, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.Scheduler.Execute(ctx, req)
	if err != nil {
		if limiter.IsInvalidRequest(err) {
			return nil, ErrContentUnavailable
		}
		return nil, err
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("cannot read content: %w", err)
	}

	return content, nil
}

// doApi dựng request có header xác thực và đẩy qua scheduler
func (c *Caller) doApi(ctx context.Context, fullUrl string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullUrl, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if c.Config.GithubApi.AccessToken != "" {
		req.Header.Set("Authorization", fmt.Sprintf("token %s", c.Config.GithubApi.AccessToken))
	}

	return c.Scheduler.Execute(ctx, req)
}
