package model

import (
	"github.com/thep200/solidity-crawler/cfg"
	"github.com/thep200/solidity-crawler/pkg/db"
	"github.com/thep200/solidity-crawler/pkg/log"
)

// File là một file Solidity trong cây của repository.
// Khóa tự nhiên là (repo_id, path).
type File struct {
	Model
	ID     int64  `json:"id" gorm:"column:id;primaryKey;autoIncrement"`
	RepoID int64  `json:"repo_id" gorm:"column:repo_id;not null;uniqueIndex:idx_file_repo_path,priority:1"`
	Name   string `json:"name" gorm:"column:name;type:varchar(255);not null"`
	Path   string `json:"path" gorm:"column:path;type:varchar(512);not null;uniqueIndex:idx_file_repo_path,priority:2"`
	Sha    string `json:"sha" gorm:"column:sha;type:varchar(64);not null"`
	Size   int64  `json:"size" gorm:"column:size;not null;default:0"`
}

func NewFile(config *cfg.Config, logger log.Logger, db *db.Mysql) (*File, error) {
	file := &File{
		Model: Model{
			Config: config,
			Logger: logger,
			Mysql:  db,
		},
	}
	return file, nil
}

func (f *File) TableName() string {
	return "files"
}
