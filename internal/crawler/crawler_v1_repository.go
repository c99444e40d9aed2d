package crawler

import (
	"context"
	"errors"

	"github.com/thep200/solidity-crawler/internal/githubapi"
	"github.com/thep200/solidity-crawler/internal/model"
)

// ingestRepo chạy pipeline cho một repository: upsert repo, liệt kê cây
// file lọc ra file Solidity, rồi thu thập lịch sử commit cho từng file.
// Mọi lỗi trong một repository chỉ làm repository đó bị bỏ qua, run
// tổng thể vẫn tiếp tục. Trả về số repo/file/commit mới được lưu.
func (c *CrawlerV1) ingestRepo(ctx context.Context, repo githubapi.RepoResponse) (int, int, int) {
	ownerLogin := repo.Owner.Login
	if ownerLogin == "" {
		ownerLogin, _ = extractUserAndRepo(repo.FullName)
		if ownerLogin == "" {
			ownerLogin = "unknown"
		}
	}

	var license *string
	if repo.License != nil && repo.License.Key != "" {
		key := repo.License.Key
		license = &key
	}

	repoModel := &model.Repo{
		ID:            repo.Id,
		Name:          model.TruncateString(repo.Name, 250),
		FullName:      model.TruncateString(repo.FullName, 500),
		Description:   model.TruncateString(repo.Description, 65000),
		Url:           model.TruncateString(repo.Url, 500),
		OwnerID:       repo.Owner.ID,
		OwnerLogin:    model.TruncateString(ownerLogin, 250),
		DefaultBranch: model.TruncateString(repo.DefaultBranch, 250),
		License:       license,
		IsFork:        repo.Fork,
	}

	inserted, err := c.Store.UpsertRepo(ctx, repoModel)
	if err != nil {
		c.Logger.Error(ctx, "Không thể lưu repository %s, bỏ qua: %v", repo.FullName, err)
		c.skippedRepos++
		return 0, 0, 0
	}

	repoCount := 0
	if inserted {
		repoCount = 1
	}

	branch := repo.DefaultBranch
	if branch == "" {
		branch = "master"
	}

	tree, err := c.Caller.ListTree(ctx, repo.FullName, branch)
	if err != nil {
		// Repository bị xóa hoặc private giữa chừng, bỏ qua
		c.Logger.Warn(ctx, "Không thể liệt kê cây file của %s, bỏ qua: %v", repo.FullName, err)
		c.skippedRepos++
		return repoCount, 0, 0
	}

	fileCount := 0
	commitCount := 0
	for _, entry := range tree.Tree {
		if entry.Type != "blob" || !isSolidityFile(entry.Path) {
			continue
		}

		files, commits, err := c.ingestFile(ctx, repo, entry)
		fileCount += files
		commitCount += commits
		if err != nil {
			var integrity *model.IntegrityError
			if errors.As(err, &integrity) {
				// Thứ tự ghi bị sai là bug pipeline, dừng repository này
				c.Logger.Error(ctx, "Lỗi ràng buộc khi lưu %s/%s: %v", repo.FullName, entry.Path, err)
				return repoCount, fileCount, commitCount
			}
			c.Logger.Warn(ctx, "Không thể xử lý file %s/%s, bỏ qua: %v", repo.FullName, entry.Path, err)
			c.skippedFiles++
		}
	}

	return repoCount, fileCount, commitCount
}

// ingestFile upsert một file Solidity và thu thập commit của nó. File đã
// tồn tại với đúng sha thì không lấy lại lịch sử commit nữa.
func (c *CrawlerV1) ingestFile(ctx context.Context, repo githubapi.RepoResponse, entry githubapi.TreeEntry) (int, int, error) {
	existing, err := c.Store.FindFile(ctx, repo.Id, entry.Path)
	if err != nil {
		return 0, 0, err
	}
	if existing != nil && existing.Sha == entry.Sha {
		return 0, 0, nil
	}

	fileModel := &model.File{
		RepoID: repo.Id,
		Name:   model.TruncateString(model.FileBaseName(entry.Path), 250),
		Path:   model.TruncateString(entry.Path, 500),
		Sha:    model.TruncateString(entry.Sha, 64),
		Size:   entry.Size,
	}

	inserted, err := c.Store.UpsertFile(ctx, fileModel)
	if err != nil {
		return 0, 0, err
	}

	fileCount := 0
	if inserted {
		fileCount = 1
	}

	commits := c.ingestCommits(ctx, repo, fileModel)
	return fileCount, commits, nil
}
