package ui

import (
	"net/http"

	"github.com/thep200/solidity-crawler/internal/model"
)

//
type Repository struct {
	ID            int64   `json:"id"`
	FullName      string  `json:"fullName"`
	Url           string  `json:"url"`
	OwnerLogin    string  `json:"ownerLogin"`
	DefaultBranch string  `json:"defaultBranch"`
	License       *string `json:"license"`
	IsFork        bool    `json:"isFork"`
	CreatedAt     string  `json:"createdAt"`
}

//
func (h *Handler) getRepos(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pagination(r)
	offset := (page - 1) * pageSize
	query := h.db.Offset(offset).Limit(pageSize).Order("id ASC")

	// Search query
	search := r.URL.Query().Get("search")
	if search != "" {
		search = "%" + search + "%"
		query = query.Where("full_name LIKE ? OR owner_login LIKE ?", search, search)
	}

	var repos []model.Repo
	result := query.Find(&repos)
	if result.Error != nil {
		h.Logger.Error(r.Context(), "Failed to fetch repositories: %v", result.Error)
		http.Error(w, "Failed to fetch repositories", http.StatusInternalServerError)
		return
	}

	//
	var totalCount int64
	countQuery := h.db.Model(&model.Repo{})
	if search != "" {
		countQuery = countQuery.Where("full_name LIKE ? OR owner_login LIKE ?", search, search)
	}
	countQuery.Count(&totalCount)

	// Response format
	var repositories []Repository
	for _, repo := range repos {
		repositories = append(repositories, Repository{
			ID:            repo.ID,
			FullName:      repo.FullName,
			Url:           repo.Url,
			OwnerLogin:    repo.OwnerLogin,
			DefaultBranch: repo.DefaultBranch,
			License:       repo.License,
			IsFork:        repo.IsFork,
			CreatedAt:     repo.CreatedAt.Format("2006-01-02"),
		})
	}

	writeJson(w, map[string]interface{}{
		"repositories": repositories,
		"totalCount":   totalCount,
		"page":         page,
		"pageSize":     pageSize,
	})
}
