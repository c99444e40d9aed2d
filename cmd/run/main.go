package main

import (
	"context"

	"github.com/thep200/solidity-crawler/cfg"
	"github.com/thep200/solidity-crawler/internal/crawler"
	"github.com/thep200/solidity-crawler/internal/model"
	"github.com/thep200/solidity-crawler/pkg/db"
	"github.com/thep200/solidity-crawler/pkg/log"
)

type Handler struct {
	Crawler crawler.Crawler
	Logger  log.Logger
}

func NewHandler(crawler crawler.Crawler, logger log.Logger) *Handler {
	return &Handler{
		Crawler: crawler,
		Logger:  logger,
	}
}

func main() {
	ctx := context.Background()
	// loader, _ := cfg.NewMockLoader()
	loader, _ := cfg.NewViperLoader()
	config, err := loader.Load()
	if err != nil {
		panic(err)
	}
	mysql, _ := db.NewMysql(config)
	logger, _ := log.NewCslLogger()
	repoMd, _ := model.NewRepo(config, logger, mysql)
	fileMd, _ := model.NewFile(config, logger, mysql)
	commitMd, _ := model.NewCommit(config, logger, mysql)

	// Migrate database
	if err := mysql.Migrate(repoMd, fileMd, commitMd); err != nil {
		logger.Error(ctx, "Không thể migrate database: %v", err)
		return
	}

	crawlerIns, err := crawler.FactoryCrawler(config.Crawler.Version, logger, config, mysql)
	if err != nil {
		logger.Error(ctx, "Không thể khởi tạo crawler: %v", err)
		return
	}

	//
	logger.Info(ctx, "Starting Solidity crawler version %s", config.Crawler.Version)
	handler := NewHandler(crawlerIns, logger)
	if handler.Crawler.Crawl() {
		logger.Info(ctx, "Successfully!")
	} else {
		logger.Error(ctx, "Failed!")
	}
}
