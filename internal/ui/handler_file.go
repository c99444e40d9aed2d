package ui

import (
	"net/http"
	"strconv"

	"github.com/thep200/solidity-crawler/internal/model"
)

//
type SolidityFile struct {
	ID     int64  `json:"id"`
	RepoID int64  `json:"repoId"`
	Name   string `json:"name"`
	Path   string `json:"path"`
	Sha    string `json:"sha"`
	Size   int64  `json:"size"`
}

//
func (h *Handler) getFiles(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pagination(r)
	offset := (page - 1) * pageSize
	query := h.db.Offset(offset).Limit(pageSize).Order("id ASC")

	// Lọc theo repository nếu có
	if repoIdStr := r.URL.Query().Get("repoId"); repoIdStr != "" {
		repoId, err := strconv.ParseInt(repoIdStr, 10, 64)
		if err != nil {
			http.Error(w, "Invalid repoId", http.StatusBadRequest)
			return
		}
		query = query.Where("repo_id = ?", repoId)
	}

	var files []model.File
	result := query.Find(&files)
	if result.Error != nil {
		h.Logger.Error(r.Context(), "Failed to fetch files: %v", result.Error)
		http.Error(w, "Failed to fetch files", http.StatusInternalServerError)
		return
	}

	//
	var response []SolidityFile
	for _, f := range files {
		response = append(response, SolidityFile{
			ID:     f.ID,
			RepoID: f.RepoID,
			Name:   f.Name,
			Path:   f.Path,
			Sha:    f.Sha,
			Size:   f.Size,
		})
	}

	writeJson(w, map[string]interface{}{
		"files":    response,
		"page":     page,
		"pageSize": pageSize,
	})
}
