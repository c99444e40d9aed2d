package model

import "time"

// RepoMessage là cấu trúc dữ liệu Repository gửi tới Kafka
type RepoMessage struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	FullName      string  `json:"full_name"`
	Description   string  `json:"description"`
	Url           string  `json:"url"`
	OwnerID       int64   `json:"owner_id"`
	OwnerLogin    string  `json:"owner_login"`
	DefaultBranch string  `json:"default_branch"`
	License       *string `json:"license"`
	IsFork        bool    `json:"is_fork"`
}

// FileMessage là cấu trúc dữ liệu File gửi tới Kafka, file được
// định danh bằng khóa tự nhiên (repo_id, path)
type FileMessage struct {
	RepoID int64  `json:"repo_id"`
	Name   string `json:"name"`
	Path   string `json:"path"`
	Sha    string `json:"sha"`
	Size   int64  `json:"size"`
}

// CommitMessage là cấu trúc dữ liệu Commit gửi tới Kafka, consumer
// resolve file_id từ (repo_id, path) khi ghi xuống database
type CommitMessage struct {
	RepoID          int64     `json:"repo_id"`
	Path            string    `json:"path"`
	Sha             string    `json:"sha"`
	Message         string    `json:"message"`
	AuthoredAt      time.Time `json:"authored_at"`
	Size            int64     `json:"size"`
	Content         *string   `json:"content"`
	CompilerVersion string    `json:"compiler_version"`
	Parents         string    `json:"parents"`
}
