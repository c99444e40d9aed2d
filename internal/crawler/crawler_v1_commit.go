package crawler

import (
	"context"
	"errors"
	"strings"

	"github.com/thep200/solidity-crawler/internal/githubapi"
	"github.com/thep200/solidity-crawler/internal/model"
)

// ingestCommits phân trang qua lịch sử commit của một file và lưu từng
// commit kèm nội dung tại revision đó. Commit đã có theo (file_id, sha)
// được bỏ qua, nội dung không tải được thì lưu NULL và đi tiếp.
func (c *CrawlerV1) ingestCommits(ctx context.Context, repo githubapi.RepoResponse, file *model.File) int {
	perPage := c.Config.Crawler.PerPage
	count := 0

	page := 1
	for {
		commits, err := c.Caller.ListCommits(ctx, repo.FullName, file.Path, page, perPage)
		if err != nil {
			c.Logger.Warn(ctx, "Không thể lấy lịch sử commit của %s/%s, bỏ qua phần còn lại: %v",
				repo.FullName, file.Path, err)
			return count
		}
		if len(commits) == 0 {
			return count
		}

		for _, cm := range commits {
			saved, err := c.saveCommit(ctx, repo, file, cm)
			if err != nil {
				var integrity *model.IntegrityError
				if errors.As(err, &integrity) {
					c.Logger.Error(ctx, "Lỗi ràng buộc khi lưu commit %s: %v", cm.Sha, err)
					return count
				}
				c.Logger.Warn(ctx, "Không thể lưu commit %s của %s/%s, bỏ qua: %v",
					cm.Sha, repo.FullName, file.Path, err)
				c.skippedCommits++
				continue
			}
			if saved {
				count++
			}
		}

		if len(commits) < perPage {
			return count
		}
		page++
	}
}

func (c *CrawlerV1) saveCommit(ctx context.Context, repo githubapi.RepoResponse, file *model.File, cm githubapi.CommitResponse) (bool, error) {
	exists, err := c.Store.CommitExists(ctx, file.ID, cm.Sha)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	// Nội dung không lấy được (file đã xóa ở revision đó, blob quá
	// lớn...) không chặn việc lưu commit, content để NULL
	var content *string
	var size int64
	compilerVersion := ""
	raw, err := c.Caller.FetchContent(ctx, repo.FullName, cm.Sha, file.Path)
	if err != nil {
		if !errors.Is(err, githubapi.ErrContentUnavailable) {
			c.Logger.Warn(ctx, "Không tải được nội dung %s@%s: %v", file.Path, cm.Sha, err)
		}
		c.nullContents++
	} else {
		text := string(raw)
		content = &text
		size = int64(len(raw))
		compilerVersion = model.FindCompilerVersion(text)
	}

	parents := make([]string, 0, len(cm.Parents))
	for _, p := range cm.Parents {
		parents = append(parents, p.Sha)
	}

	commitModel := &model.Commit{
		Sha:             model.TruncateString(cm.Sha, 64),
		Message:         model.TruncateString(cm.Commit.Message, 65000),
		AuthoredAt:      cm.Commit.Committer.Date,
		Size:            size,
		Content:         content,
		CompilerVersion: model.TruncateString(compilerVersion, 32),
		Parents:         strings.Join(parents, ","),
	}

	return c.Store.UpsertCommit(ctx, file, commitModel)
}
