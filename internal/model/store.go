package model

import (
	"context"
	"fmt"

	"github.com/thep200/solidity-crawler/cfg"
	"github.com/thep200/solidity-crawler/pkg/db"
	"github.com/thep200/solidity-crawler/pkg/log"
	"gorm.io/gorm/clause"
)

// IntegrityError báo một lần ghi vi phạm thứ tự FK (file trước repo,
// commit trước file). Đây là bug thứ tự trong pipeline, không retry.
type IntegrityError struct {
	Table  string
	Detail string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity error on %s: %s", e.Table, e.Detail)
}

// Store là hợp đồng persistence của crawl pipeline. Upsert nghĩa là
// insert-if-absent theo khóa tự nhiên: gặp lại khóa đã có là no-op,
// dòng cũ giữ nguyên. Giá trị bool trả về cho biết dòng mới được insert
// hay đã tồn tại từ trước.
type Store interface {
	UpsertRepo(ctx context.Context, repo *Repo) (bool, error)
	RepoExists(ctx context.Context, id int64) (bool, error)
	UpsertFile(ctx context.Context, file *File) (bool, error)
	FindFile(ctx context.Context, repoID int64, path string) (*File, error)
	UpsertCommit(ctx context.Context, file *File, commit *Commit) (bool, error)
	CommitExists(ctx context.Context, fileID int64, sha string) (bool, error)
}

// MysqlStore cài đặt Store trên MySQL qua gorm
type MysqlStore struct {
	Config *cfg.Config
	Logger log.Logger
	Mysql  *db.Mysql
}

func NewMysqlStore(config *cfg.Config, logger log.Logger, mysql *db.Mysql) (*MysqlStore, error) {
	return &MysqlStore{
		Config: config,
		Logger: logger,
		Mysql:  mysql,
	}, nil
}

func (s *MysqlStore) UpsertRepo(ctx context.Context, repo *Repo) (bool, error) {
	db, err := s.Mysql.Db()
	if err != nil {
		return false, err
	}

	result := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(repo)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (s *MysqlStore) RepoExists(ctx context.Context, id int64) (bool, error) {
	db, err := s.Mysql.Db()
	if err != nil {
		return false, err
	}

	var count int64
	if err := db.WithContext(ctx).Model(&Repo{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *MysqlStore) UpsertFile(ctx context.Context, file *File) (bool, error) {
	exists, err := s.RepoExists(ctx, file.RepoID)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, &IntegrityError{Table: "files", Detail: fmt.Sprintf("repo %d not persisted yet", file.RepoID)}
	}

	db, err := s.Mysql.Db()
	if err != nil {
		return false, err
	}

	result := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "repo_id"}, {Name: "path"}},
		DoNothing: true,
	}).Create(file)
	if result.Error != nil {
		return false, result.Error
	}

	// Đã tồn tại từ trước thì lấy lại ID của dòng cũ cho các commit dùng
	if result.RowsAffected == 0 {
		existing, err := s.FindFile(ctx, file.RepoID, file.Path)
		if err != nil {
			return false, err
		}
		if existing != nil {
			file.ID = existing.ID
		}
		return false, nil
	}

	return true, nil
}

func (s *MysqlStore) FindFile(ctx context.Context, repoID int64, path string) (*File, error) {
	db, err := s.Mysql.Db()
	if err != nil {
		return nil, err
	}

	var files []File
	if err := db.WithContext(ctx).Where("repo_id = ? AND path = ?", repoID, path).Limit(1).Find(&files).Error; err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, nil
	}
	return &files[0], nil
}

func (s *MysqlStore) UpsertCommit(ctx context.Context, file *File, commit *Commit) (bool, error) {
	if file == nil || file.ID == 0 {
		return false, &IntegrityError{Table: "commits", Detail: "file not persisted yet"}
	}
	commit.FileID = file.ID

	db, err := s.Mysql.Db()
	if err != nil {
		return false, err
	}

	result := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "file_id"}, {Name: "sha"}},
		DoNothing: true,
	}).Create(commit)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (s *MysqlStore) CommitExists(ctx context.Context, fileID int64, sha string) (bool, error) {
	db, err := s.Mysql.Db()
	if err != nil {
		return false, err
	}

	var count int64
	if err := db.WithContext(ctx).Model(&Commit{}).Where("file_id = ? AND sha = ?", fileID, sha).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
