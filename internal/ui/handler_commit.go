package ui

import (
	"net/http"
	"strconv"

	"github.com/thep200/solidity-crawler/internal/model"
)

//
type FileCommit struct {
	ID              int64  `json:"id"`
	FileID          int64  `json:"fileId"`
	Sha             string `json:"sha"`
	Message         string `json:"message"`
	AuthoredAt      string `json:"authoredAt"`
	Size            int64  `json:"size"`
	HasContent      bool   `json:"hasContent"`
	CompilerVersion string `json:"compilerVersion"`
}

//
func (h *Handler) getCommits(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pagination(r)
	offset := (page - 1) * pageSize
	query := h.db.Offset(offset).Limit(pageSize).Order("id ASC")

	// Lọc theo file nếu có
	if fileIdStr := r.URL.Query().Get("fileId"); fileIdStr != "" {
		fileId, err := strconv.ParseInt(fileIdStr, 10, 64)
		if err != nil {
			http.Error(w, "Invalid fileId", http.StatusBadRequest)
			return
		}
		query = query.Where("file_id = ?", fileId)
	}

	var commits []model.Commit
	result := query.Find(&commits)
	if result.Error != nil {
		h.Logger.Error(r.Context(), "Failed to fetch commits: %v", result.Error)
		http.Error(w, "Failed to fetch commits", http.StatusInternalServerError)
		return
	}

	// Không trả content trong danh sách, chỉ báo có hay không
	var response []FileCommit
	for _, c := range commits {
		response = append(response, FileCommit{
			ID:              c.ID,
			FileID:          c.FileID,
			Sha:             c.Sha,
			Message:         c.Message,
			AuthoredAt:      c.AuthoredAt.Format("2006-01-02 15:04:05"),
			Size:            c.Size,
			HasContent:      c.Content != nil,
			CompilerVersion: c.CompilerVersion,
		})
	}

	writeJson(w, map[string]interface{}{
		"commits":  response,
		"page":     page,
		"pageSize": pageSize,
	})
}
