package model

import (
	"github.com/thep200/solidity-crawler/cfg"
	"github.com/thep200/solidity-crawler/pkg/db"
	"github.com/thep200/solidity-crawler/pkg/log"
)

// Repo là một repository đã phát hiện qua search. Khóa tự nhiên là ID
// do GitHub cấp, các dòng không bao giờ bị update sau khi insert.
type Repo struct {
	Model
	ID            int64   `json:"id" gorm:"column:id;primaryKey;autoIncrement:false"`
	Name          string  `json:"name" gorm:"column:name;type:varchar(255);not null"`
	FullName      string  `json:"full_name" gorm:"column:full_name;type:varchar(512);not null;index"`
	Description   string  `json:"description" gorm:"column:description;type:text"`
	Url           string  `json:"url" gorm:"column:url;type:varchar(512);not null"`
	OwnerID       int64   `json:"owner_id" gorm:"column:owner_id;not null"`
	OwnerLogin    string  `json:"owner_login" gorm:"column:owner_login;type:varchar(255);not null"`
	DefaultBranch string  `json:"default_branch" gorm:"column:default_branch;type:varchar(255);not null"`
	License       *string `json:"license" gorm:"column:license;type:varchar(64)"`
	IsFork        bool    `json:"is_fork" gorm:"column:is_fork;not null;default:false"`
}

func NewRepo(config *cfg.Config, logger log.Logger, db *db.Mysql) (*Repo, error) {
	repo := &Repo{
		Model: Model{
			Config: config,
			Logger: logger,
			Mysql:  db,
		},
	}
	return repo, nil
}

func (r *Repo) TableName() string {
	return "repos"
}
