package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"filesmanager/internal/config"
	"filesmanager/internal/database"
	"filesmanager/internal/logging"
	queuepostgres "filesmanager/internal/queue/postgres"
	repopostgres "filesmanager/internal/repository/postgres"
	"filesmanager/internal/storage/driver"
	"filesmanager/internal/thumbnail"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.New("files-manager-worker", cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("连接数据库失败")
	}
	defer db.Close()

	blobs, err := driver.OpenShared(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.StorageDriver).Msg("初始化存储失败")
	}

	processor := thumbnail.NewProcessor(repopostgres.NewFileRepository(db), blobs, thumbnail.DefaultWidths)
	pool := thumbnail.NewPool(queuepostgres.New(db), processor, thumbnail.Options{
		Concurrency:       cfg.WorkerConcurrency,
		MaxAttempts:       cfg.WorkerMaxAttempts,
		RetryBackoff:      cfg.WorkerRetryBackoff,
		VisibilityTimeout: cfg.WorkerVisibilityTimeout,
		PollInterval:      cfg.WorkerPollInterval,
	}, logger)

	logger.Info().
		Int("concurrency", cfg.WorkerConcurrency).
		Int("max_attempts", cfg.WorkerMaxAttempts).
		Str("storage", cfg.StorageDriver).
		Msg("缩略图 worker 已启动")

	if err := pool.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("worker 异常退出")
	}

	logger.Info().Msg("worker 已停止")
}
