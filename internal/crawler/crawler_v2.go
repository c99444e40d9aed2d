// Crawler version 2
// Dùng lại engine lấy mẫu của version 1 nhưng thay vì ghi thẳng vào MySQL
// thì publish dữ liệu vào các Kafka topic, consumer riêng sẽ ghi xuống
// database theo batch. Các existence check vẫn đọc từ MySQL để run sau
// không phải tải lại những gì consumer đã ghi.

package crawler

import (
	"context"

	"github.com/thep200/solidity-crawler/cfg"
	"github.com/thep200/solidity-crawler/internal/model"
	"github.com/thep200/solidity-crawler/pkg/db"
	kafkapkg "github.com/thep200/solidity-crawler/pkg/kafka"
	"github.com/thep200/solidity-crawler/pkg/log"
)

type CrawlerV2 struct {
	*CrawlerV1
	repoProducer   *kafkapkg.Producer
	fileProducer   *kafkapkg.Producer
	commitProducer *kafkapkg.Producer
}

func NewCrawlerV2(logger log.Logger, config *cfg.Config, mysql *db.Mysql) (*CrawlerV2, error) {
	v1, err := NewCrawlerV1(logger, config, mysql)
	if err != nil {
		return nil, err
	}

	mysqlStore, err := model.NewMysqlStore(config, logger, mysql)
	if err != nil {
		return nil, err
	}

	repoProducer := kafkapkg.NewProducer(config, logger, config.Kafka.Producer.TopicRepo)
	fileProducer := kafkapkg.NewProducer(config, logger, config.Kafka.Producer.TopicFile)
	commitProducer := kafkapkg.NewProducer(config, logger, config.Kafka.Producer.TopicCommit)

	v1.Store = &kafkaStore{
		db:             mysqlStore,
		repoProducer:   repoProducer,
		fileProducer:   fileProducer,
		commitProducer: commitProducer,
	}

	return &CrawlerV2{
		CrawlerV1:      v1,
		repoProducer:   repoProducer,
		fileProducer:   fileProducer,
		commitProducer: commitProducer,
	}, nil
}

func (c *CrawlerV2) Crawl() bool {
	defer c.repoProducer.Close()
	defer c.fileProducer.Close()
	defer c.commitProducer.Close()
	return c.CrawlerV1.Crawl()
}

// kafkaStore cài đặt model.Store bằng cách publish message thay vì insert.
// Idempotency vẫn được bảo toàn vì consumer ghi xuống database bằng đúng
// các upsert insert-if-absent.
type kafkaStore struct {
	db             *model.MysqlStore
	repoProducer   *kafkapkg.Producer
	fileProducer   *kafkapkg.Producer
	commitProducer *kafkapkg.Producer
}

func (k *kafkaStore) UpsertRepo(ctx context.Context, repo *model.Repo) (bool, error) {
	exists, err := k.db.RepoExists(ctx, repo.ID)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	msg := model.RepoMessage{
		ID:            repo.ID,
		Name:          repo.Name,
		FullName:      repo.FullName,
		Description:   repo.Description,
		Url:           repo.Url,
		OwnerID:       repo.OwnerID,
		OwnerLogin:    repo.OwnerLogin,
		DefaultBranch: repo.DefaultBranch,
		License:       repo.License,
		IsFork:        repo.IsFork,
	}
	if err := k.repoProducer.Publish(ctx, "repo", msg); err != nil {
		return false, err
	}
	return true, nil
}

func (k *kafkaStore) RepoExists(ctx context.Context, id int64) (bool, error) {
	return k.db.RepoExists(ctx, id)
}

func (k *kafkaStore) UpsertFile(ctx context.Context, file *model.File) (bool, error) {
	existing, err := k.db.FindFile(ctx, file.RepoID, file.Path)
	if err != nil {
		return false, err
	}
	if existing != nil {
		file.ID = existing.ID
	}

	msg := model.FileMessage{
		RepoID: file.RepoID,
		Name:   file.Name,
		Path:   file.Path,
		Sha:    file.Sha,
		Size:   file.Size,
	}
	if err := k.fileProducer.Publish(ctx, "file", msg); err != nil {
		return false, err
	}
	return existing == nil, nil
}

func (k *kafkaStore) FindFile(ctx context.Context, repoID int64, path string) (*model.File, error) {
	return k.db.FindFile(ctx, repoID, path)
}

func (k *kafkaStore) UpsertCommit(ctx context.Context, file *model.File, commit *model.Commit) (bool, error) {
	msg := model.CommitMessage{
		RepoID:          file.RepoID,
		Path:            file.Path,
		Sha:             commit.Sha,
		Message:         commit.Message,
		AuthoredAt:      commit.AuthoredAt,
		Size:            commit.Size,
		Content:         commit.Content,
		CompilerVersion: commit.CompilerVersion,
		Parents:         commit.Parents,
	}
	if err := k.commitProducer.Publish(ctx, "commit", msg); err != nil {
		return false, err
	}
	return true, nil
}

func (k *kafkaStore) CommitExists(ctx context.Context, fileID int64, sha string) (bool, error) {
	// File chưa được consumer ghi xuống thì chưa thể có commit nào
	if fileID == 0 {
		return false, nil
	}
	return k.db.CommitExists(ctx, fileID, sha)
}
