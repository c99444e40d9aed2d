package stratum

import (
	"context"
	"fmt"

	"github.com/thep200/solidity-crawler/cfg"
	"github.com/thep200/solidity-crawler/pkg/log"
)

// Planner quản lý hàng đợi các tầng và trạng thái lấy mẫu. Toàn bộ sequence
// cùng con trỏ tầng đang xử lý được lưu xuống statistics store sau mỗi lần
// chuyển tầng, nhờ đó một run bị ngắt có thể chạy tiếp từ tầng đầu tiên
// chưa exhausted.
type Planner struct {
	Logger log.Logger
	Config *cfg.Config

	store  *CsvStore
	strata []*Stratum
	cursor int
	window int // cửa sổ kết quả tối đa của platform, thường là 1000
}

func NewPlanner(logger log.Logger, config *cfg.Config, store *CsvStore) (*Planner, error) {
	if config.Crawler.MinSize < 1 {
		return nil, fmt.Errorf("min size must be positive")
	}
	if config.Crawler.MinSize >= config.Crawler.MaxSize {
		return nil, fmt.Errorf("min size must be less than max size")
	}
	if config.Crawler.StratumSize < 1 {
		return nil, fmt.Errorf("stratum size must be positive")
	}

	p := &Planner{
		Logger: logger,
		Config: config,
		store:  store,
		window: config.Crawler.MaxResultWindow,
	}

	// Có file thống kê từ run trước thì resume, không thì sinh tầng mới
	if store != nil && store.Exists() {
		if err := p.Load(); err != nil {
			return nil, err
		}
		logger.Info(context.Background(), "Continuing previous search with %d strata", len(p.strata))
	} else {
		p.generate()
	}

	return p, nil
}

// generate chia [minSize, maxSize) thành các tầng kề nhau, không chồng lấn,
// mỗi tầng rộng tối đa stratumSize
func (p *Planner) generate() {
	minSize := p.Config.Crawler.MinSize
	maxSize := p.Config.Crawler.MaxSize
	width := p.Config.Crawler.StratumSize

	p.strata = make([]*Stratum, 0, (maxSize-minSize)/width+1)
	for lo := minSize; lo < maxSize; lo += width {
		hi := lo + width
		if hi > maxSize {
			hi = maxSize
		}
		p.strata = append(p.strata, &Stratum{Lower: lo, Upper: hi, Population: -1})
	}
	p.cursor = 0
}

// Next trả về tầng chưa exhausted tiếp theo, nil khi đã duyệt hết
func (p *Planner) Next() *Stratum {
	for p.cursor < len(p.strata) {
		s := p.strata[p.cursor]
		if !s.Exhausted {
			return s
		}
		p.cursor++
	}
	return nil
}

// Strata trả về toàn bộ sequence theo thứ tự hàng đợi
func (p *Planner) Strata() []*Stratum {
	return p.strata
}

// RecordPage cập nhật số liệu sau mỗi trang kết quả. Population lấy max của
// các lần quan sát vì search API có thể trả count khác nhau giữa các query.
func (p *Planner) RecordPage(s *Stratum, repos, files, commits, population int) {
	if population > s.Population {
		s.Population = population
	}
	s.SampledRepos += repos
	s.SampledFiles += files
	s.SampledCommits += commits
}

// SplitIfCapped tách một tầng bị cửa sổ kết quả che khuất thành hai tầng con
// phủ đúng nửa dưới và nửa trên, xếp vào hàng đợi ngay trước các tầng còn
// lại. Tầng gốc được đánh dấu exhausted. Tầng rộng 1 byte không tách được
// nữa, chấp nhận lấy mẫu thiếu.
func (p *Planner) SplitIfCapped(s *Stratum) (*Stratum, *Stratum, bool) {
	if s.Population <= p.window || s.Width() <= 1 {
		return nil, nil, false
	}

	mid := s.Lower + s.Width()/2
	lower := &Stratum{Lower: s.Lower, Upper: mid, Population: -1}
	upper := &Stratum{Lower: mid, Upper: s.Upper, Population: -1}
	s.Exhausted = true

	idx := p.indexOf(s)
	rest := make([]*Stratum, 0, len(p.strata)+2)
	rest = append(rest, p.strata[:idx+1]...)
	rest = append(rest, lower, upper)
	rest = append(rest, p.strata[idx+1:]...)
	p.strata = rest

	p.Logger.Info(context.Background(), "Stratum %s capped (population=%d), split into %s and %s",
		s, s.Population, lower, upper)

	return lower, upper, true
}

// MarkExhausted đánh dấu tầng đã lấy mẫu xong
func (p *Planner) MarkExhausted(s *Stratum) {
	s.Exhausted = true
}

// Totals trả về tổng số repo/file/commit đã lấy mẫu trên mọi tầng
func (p *Planner) Totals() (int, int, int) {
	var repos, files, commits int
	for _, s := range p.strata {
		repos += s.SampledRepos
		files += s.SampledFiles
		commits += s.SampledCommits
	}
	return repos, files, commits
}

// Save ghi snapshot toàn bộ sequence xuống statistics store
func (p *Planner) Save() error {
	if p.store == nil {
		return nil
	}
	return p.store.Save(p.strata)
}

// Load khôi phục sequence từ statistics store, con trỏ quay về đầu hàng đợi
// và Next sẽ tự nhảy qua các tầng đã exhausted
func (p *Planner) Load() error {
	strata, err := p.store.Load()
	if err != nil {
		return err
	}
	p.strata = strata
	p.cursor = 0
	return nil
}

func (p *Planner) indexOf(s *Stratum) int {
	for i, st := range p.strata {
		if st == s {
			return i
		}
	}
	return len(p.strata) - 1
}
