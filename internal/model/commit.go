package model

import (
	"time"

	"github.com/thep200/solidity-crawler/cfg"
	"github.com/thep200/solidity-crawler/pkg/db"
	"github.com/thep200/solidity-crawler/pkg/log"
)

// Commit là một revision của một file cụ thể. Khóa tự nhiên là
// (file_id, sha). Content là NULL khi không tải được nội dung ở
// revision đó, đây là trạng thái hợp lệ chứ không phải lỗi.
type Commit struct {
	Model
	ID              int64     `json:"id" gorm:"column:id;primaryKey;autoIncrement"`
	FileID          int64     `json:"file_id" gorm:"column:file_id;not null;uniqueIndex:idx_commit_file_sha,priority:1"`
	Sha             string    `json:"sha" gorm:"column:sha;type:varchar(64);not null;uniqueIndex:idx_commit_file_sha,priority:2"`
	Message         string    `json:"message" gorm:"column:message;type:text"`
	AuthoredAt      time.Time `json:"authored_at" gorm:"column:authored_at"`
	Size            int64     `json:"size" gorm:"column:size;not null;default:0"`
	Content         *string   `json:"content" gorm:"column:content;type:longtext"`
	CompilerVersion string    `json:"compiler_version" gorm:"column:compiler_version;type:varchar(32)"`
	Parents         string    `json:"parents" gorm:"column:parents;type:text"`
}

func NewCommit(config *cfg.Config, logger log.Logger, db *db.Mysql) (*Commit, error) {
	commit := &Commit{
		Model: Model{
			Config: config,
			Logger: logger,
			Mysql:  db,
		},
	}
	return commit, nil
}

func (c *Commit) TableName() string {
	return "commits"
}
