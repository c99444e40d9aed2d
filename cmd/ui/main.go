package main

import (
	"context"
	"flag"

	"github.com/thep200/solidity-crawler/cfg"
	"github.com/thep200/solidity-crawler/internal/ui"
	"github.com/thep200/solidity-crawler/pkg/db"
	"github.com/thep200/solidity-crawler/pkg/log"
)

func main() {
	port := flag.Int("port", 8080, "Port for the UI server")
	flag.Parse()

	ctx := context.Background()
	loader, _ := cfg.NewViperLoader()
	config, err := loader.Load()
	if err != nil {
		panic(err)
	}
	logger, _ := log.NewCslLogger()
	mysql, _ := db.NewMysql(config)

	server, err := ui.NewServer(logger, config, mysql, *port)
	if err != nil {
		logger.Error(ctx, "Không thể khởi tạo UI server: %v", err)
		return
	}

	if err := server.Start(); err != nil {
		logger.Error(ctx, "UI server dừng với lỗi: %v", err)
	}
}
