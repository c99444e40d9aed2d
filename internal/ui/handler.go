package ui

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/thep200/solidity-crawler/cfg"
	"github.com/thep200/solidity-crawler/pkg/db"
	"github.com/thep200/solidity-crawler/pkg/log"
	"gorm.io/gorm"
)

// Handler manages HTTP requests for the UI
type Handler struct {
	Logger log.Logger
	Config *cfg.Config
	MySQL  *db.Mysql
	db     *gorm.DB
}

// NewHandler creates a new UI handler
func NewHandler(logger log.Logger, config *cfg.Config, mysql *db.Mysql) (*Handler, error) {
	db, err := mysql.Db()
	if err != nil {
		return nil, err
	}

	return &Handler{
		Logger: logger,
		Config: config,
		MySQL:  mysql,
		db:     db,
	}, nil
}

// RegisterRoutes sets up the HTTP routes for the UI
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/repos", h.getRepos)
	mux.HandleFunc("/api/files", h.getFiles)
	mux.HandleFunc("/api/commits", h.getCommits)
	mux.HandleFunc("/api/sampling", h.getSampling)
	mux.HandleFunc("/", h.showIndex)
}

func (h *Handler) showIndex(w http.ResponseWriter, r *http.Request) {
	writeJson(w, map[string]interface{}{
		"name": h.Config.App.Name,
		"endpoints": []string{
			"/api/repos?page=&pageSize=&search=",
			"/api/files?repoId=&page=&pageSize=",
			"/api/commits?fileId=&page=&pageSize=",
			"/api/sampling",
		},
	})
}

// pagination đọc page/pageSize từ query string với các giá trị mặc định
func pagination(r *http.Request) (int, int) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	pageSize, err := strconv.Atoi(r.URL.Query().Get("pageSize"))
	if err != nil || pageSize < 1 || pageSize > 100 {
		pageSize = 50
	}

	return page, pageSize
}

func writeJson(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
