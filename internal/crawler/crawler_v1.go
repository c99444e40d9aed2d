// Crawler version 1
// Lấy mẫu phân tầng tuần tự và ghi thẳng vào MySQL. Chỉ có một request
// ngoài luồng tại một thời điểm vì ngân sách rate limit là một bộ đếm
// toàn cục, mọi việc chờ đợi đều nằm trong scheduler.

package crawler

import (
	"context"
	"time"

	"github.com/thep200/solidity-crawler/cfg"
	"github.com/thep200/solidity-crawler/internal/githubapi"
	"github.com/thep200/solidity-crawler/internal/limiter"
	"github.com/thep200/solidity-crawler/internal/model"
	"github.com/thep200/solidity-crawler/internal/stratum"
	"github.com/thep200/solidity-crawler/pkg/db"
	"github.com/thep200/solidity-crawler/pkg/log"
)

type CrawlerV1 struct {
	Logger    log.Logger
	Config    *cfg.Config
	Mysql     *db.Mysql
	Store     model.Store
	Caller    *githubapi.Caller
	Scheduler *limiter.Scheduler
	Planner   *stratum.Planner

	skippedRepos   int
	skippedFiles   int
	skippedCommits int
	nullContents   int
}

func NewCrawlerV1(logger log.Logger, config *cfg.Config, mysql *db.Mysql) (*CrawlerV1, error) {
	scheduler := limiter.NewScheduler(logger, config)
	caller := githubapi.NewCaller(logger, config, scheduler)

	statsStore := stratum.NewCsvStore(config.Crawler.StatsFile)
	planner, err := stratum.NewPlanner(logger, config, statsStore)
	if err != nil {
		return nil, err
	}

	store, err := model.NewMysqlStore(config, logger, mysql)
	if err != nil {
		return nil, err
	}

	return &CrawlerV1{
		Logger:    logger,
		Config:    config,
		Mysql:     mysql,
		Store:     store,
		Caller:    caller,
		Scheduler: scheduler,
		Planner:   planner,
	}, nil
}

func (c *CrawlerV1) Crawl() bool {
	ctx := context.Background()
	startTime := time.Now()
	c.Logger.Info(ctx, "Bắt đầu lấy mẫu phân tầng Solidity repositories vào %s", startTime.Format(time.RFC3339))

	for st := c.Planner.Next(); st != nil; st = c.Planner.Next() {
		c.sampleStratum(ctx, st)

		// Chuyển tầng: lưu snapshot để run sau resume đúng chỗ
		if err := c.Planner.Save(); err != nil {
			c.Logger.Error(ctx, "Không thể lưu file thống kê: %v", err)
			return false
		}
	}

	c.logCrawlResults(ctx, startTime)
	return true
}

// sampleStratum lấy mẫu một tầng. Tầng bị tách sẽ được đánh dấu exhausted
// ngay trong SplitIfCapped, các tầng con nằm sẵn trong hàng đợi.
func (c *CrawlerV1) sampleStratum(ctx context.Context, st *stratum.Stratum) {
	c.Logger.Info(ctx, "Sampling stratum %s", st)

	if c.Config.Crawler.LicenseFilter {
		for _, license := range licenses {
			split, err := c.sampleQuery(ctx, st, license)
			if err != nil {
				c.Logger.Error(ctx, "Query lỗi cho tầng %s license %s, bỏ qua: %v", st, license, err)
				continue
			}
			if split {
				return
			}
		}
	} else {
		split, err := c.sampleQuery(ctx, st, "")
		if err != nil {
			c.Logger.Error(ctx, "Query lỗi cho tầng %s, bỏ qua: %v", st, err)
		}
		if split {
			return
		}
	}

	c.Planner.MarkExhausted(st)
}

// sampleQuery phân trang qua một search query trong tầng. Trả về true nếu
// tầng đã bị tách và việc lấy mẫu chuyển sang các tầng con.
func (c *CrawlerV1) sampleQuery(ctx context.Context, st *stratum.Stratum, license string) (bool, error) {
	perPage := c.Config.Crawler.PerPage
	window := c.Config.Crawler.MaxResultWindow
	query := buildQuery(st, license, c.Config.Crawler.SearchForks)

	page := 1
	for {
		res, err := c.Caller.Search(ctx, query, page, perPage)
		if err != nil {
			return false, err
		}

		c.Planner.RecordPage(st, 0, 0, 0, res.TotalCount)

		// Population vượt cửa sổ kết quả: tách tầng thay vì chấp nhận
		// phần bị che khuất. Tầng rộng 1 byte thì đành lấy mẫu thiếu.
		if page == 1 {
			if _, _, ok := c.Planner.SplitIfCapped(st); ok {
				return true, nil
			}
			if st.Population > window && st.Width() <= 1 {
				c.Logger.Warn(ctx, "Stratum %s capped (population=%d) but cannot split further, sampling will be lossy",
					st, st.Population)
			}
		}

		if len(res.Items) == 0 {
			return false, nil
		}

		for _, repo := range res.Items {
			repos, files, commits := c.ingestRepo(ctx, repo)
			c.Planner.RecordPage(st, repos, files, commits, res.TotalCount)
		}

		if page*perPage >= res.TotalCount || page*perPage >= window {
			return false, nil
		}
		page++
	}
}

func (c *CrawlerV1) logCrawlResults(ctx context.Context, startTime time.Time) {
	endTime := time.Now()
	repos, files, commits := c.Planner.Totals()

	c.Logger.Info(ctx, "==== KẾT QUẢ CRAWL ====")
	c.Logger.Info(ctx, "Thời gian bắt đầu: %s", startTime.Format(time.RFC3339))
	c.Logger.Info(ctx, "Thời gian kết thúc: %s", endTime.Format(time.RFC3339))
	c.Logger.Info(ctx, "Tổng thời gian thực hiện: %v", endTime.Sub(startTime))
	c.Logger.Info(ctx, "Tổng số API call: %d", c.Scheduler.ApiCalls())
	c.Logger.Info(ctx, "Tổng số repository đã lưu: %d", repos)
	c.Logger.Info(ctx, "Tổng số file đã lưu: %d", files)
	c.Logger.Info(ctx, "Tổng số commit đã lưu: %d", commits)
	c.Logger.Info(ctx, "Bỏ qua: %d repo, %d file, %d commit, %d content không tải được",
		c.skippedRepos, c.skippedFiles, c.skippedCommits, c.nullContents)
}
