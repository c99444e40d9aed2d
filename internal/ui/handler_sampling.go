package ui

import (
	"net/http"

	"github.com/thep200/solidity-crawler/internal/stratum"
)

//
type SamplingRow struct {
	Lower          int  `json:"lower"`
	Upper          int  `json:"upper"`
	Population     int  `json:"population"`
	SampledRepos   int  `json:"sampledRepos"`
	SampledFiles   int  `json:"sampledFiles"`
	SampledCommits int  `json:"sampledCommits"`
	Exhausted      bool `json:"exhausted"`
}

// getSampling đọc bảng thống kê lấy mẫu từ file CSV của run hiện tại
func (h *Handler) getSampling(w http.ResponseWriter, r *http.Request) {
	store := stratum.NewCsvStore(h.Config.Crawler.StatsFile)
	if !store.Exists() {
		writeJson(w, map[string]interface{}{"strata": []SamplingRow{}})
		return
	}

	strata, err := store.Load()
	if err != nil {
		h.Logger.Error(r.Context(), "Failed to load sampling statistics: %v", err)
		http.Error(w, "Failed to load sampling statistics", http.StatusInternalServerError)
		return
	}

	var rows []SamplingRow
	for _, s := range strata {
		rows = append(rows, SamplingRow{
			Lower:          s.Lower,
			Upper:          s.Upper,
			Population:     s.Population,
			SampledRepos:   s.SampledRepos,
			SampledFiles:   s.SampledFiles,
			SampledCommits: s.SampledCommits,
			Exhausted:      s.Exhausted,
		})
	}

	writeJson(w, map[string]interface{}{"strata": rows})
}
