package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/thep200/solidity-crawler/cfg"
	"github.com/thep200/solidity-crawler/internal/model"
	"github.com/thep200/solidity-crawler/pkg/db"
	"github.com/thep200/solidity-crawler/pkg/kafka"
	"github.com/thep200/solidity-crawler/pkg/log"
)

func main() {
	// Parse command line arguments
	consumerType := flag.String("type", "", "Type of consumer to run (repo, file, commit)")
	flag.Parse()

	if *consumerType == "" {
		fmt.Println("Please specify a consumer type: -type=[repo|file|commit]")
		os.Exit(1)
	}

	// Load configuration
	loader, _ := cfg.NewViperLoader()
	config, err := loader.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	logger, _ := log.NewCslLogger()

	// Setup database
	mysql, _ := db.NewMysql(config)
	store, err := model.NewMysqlStore(config, logger, mysql)
	if err != nil {
		logger.Error(context.Background(), "Failed to create store: %v", err)
		os.Exit(1)
	}

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Start the appropriate consumer based on type
	switch *consumerType {
	case "repo":
		startRepoConsumer(ctx, config, logger, store)
	case "file":
		startFileConsumer(ctx, config, logger, store)
	case "commit":
		startCommitConsumer(ctx, config, logger, store)
	default:
		logger.Error(ctx, "Unknown consumer type: %s", *consumerType)
		os.Exit(1)
	}

	// Wait for termination signal
	<-sigCh
	logger.Info(ctx, "Received shutdown signal, gracefully shutting down...")
	cancel()
}

func startRepoConsumer(ctx context.Context, config *cfg.Config, logger log.Logger, store *model.MysqlStore) {
	consumer := kafka.NewConsumer(config, logger, config.Kafka.Producer.TopicRepo, config.Kafka.ConsumerGroup+"-repo")

	consumer.RegisterHandler("repo", func(data []byte) error {
		var msg model.RepoMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return fmt.Errorf("failed to unmarshal repo message: %w", err)
		}

		repo := &model.Repo{
			ID:            msg.ID,
			Name:          msg.Name,
			FullName:      msg.FullName,
			Description:   msg.Description,
			Url:           msg.Url,
			OwnerID:       msg.OwnerID,
			OwnerLogin:    msg.OwnerLogin,
			DefaultBranch: msg.DefaultBranch,
			License:       msg.License,
			IsFork:        msg.IsFork,
		}
		_, err := store.UpsertRepo(ctx, repo)
		return err
	})

	go func() {
		if err := consumer.Start(ctx); err != nil {
			logger.Error(ctx, "Repo consumer error: %v", err)
		}
	}()

	logger.Info(ctx, "Repository consumer started successfully")
}

func startFileConsumer(ctx context.Context, config *cfg.Config, logger log.Logger, store *model.MysqlStore) {
	consumer := kafka.NewConsumer(config, logger, config.Kafka.Producer.TopicFile, config.Kafka.ConsumerGroup+"-file")

	consumer.RegisterHandler("file", func(data []byte) error {
		var msg model.FileMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return fmt.Errorf("failed to unmarshal file message: %w", err)
		}

		file := &model.File{
			RepoID: msg.RepoID,
			Name:   msg.Name,
			Path:   msg.Path,
			Sha:    msg.Sha,
			Size:   msg.Size,
		}
		// Repo chưa được consume tới thì trả lỗi để message được log,
		// producer đã đảm bảo publish repo trước file
		_, err := store.UpsertFile(ctx, file)
		return err
	})

	go func() {
		if err := consumer.Start(ctx); err != nil {
			logger.Error(ctx, "File consumer error: %v", err)
		}
	}()

	logger.Info(ctx, "File consumer started successfully")
}

func startCommitConsumer(ctx context.Context, config *cfg.Config, logger log.Logger, store *model.MysqlStore) {
	consumer := kafka.NewConsumer(config, logger, config.Kafka.Producer.TopicCommit, config.Kafka.ConsumerGroup+"-commit")

	consumer.RegisterHandler("commit", func(data []byte) error {
		var msg model.CommitMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return fmt.Errorf("failed to unmarshal commit message: %w", err)
		}

		// Resolve file_id từ khóa tự nhiên (repo_id, path)
		file, err := store.FindFile(ctx, msg.RepoID, msg.Path)
		if err != nil {
			return err
		}
		if file == nil {
			return fmt.Errorf("file %d:%s not persisted yet", msg.RepoID, msg.Path)
		}

		commit := &model.Commit{
			Sha:             msg.Sha,
			Message:         msg.Message,
			AuthoredAt:      msg.AuthoredAt,
			Size:            msg.Size,
			Content:         msg.Content,
			CompilerVersion: msg.CompilerVersion,
			Parents:         msg.Parents,
		}
		_, err = store.UpsertCommit(ctx, file, commit)
		return err
	})

	go func() {
		if err := consumer.Start(ctx); err != nil {
			logger.Error(ctx, "Commit consumer error: %v", err)
		}
	}()

	logger.Info(ctx, "Commit consumer started successfully")
}
