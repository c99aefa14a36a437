package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"filesmanager/internal/api"
	"filesmanager/internal/config"
	"filesmanager/internal/database"
	"filesmanager/internal/logging"
	"filesmanager/internal/migrations"
	queuepostgres "filesmanager/internal/queue/postgres"
	repopostgres "filesmanager/internal/repository/postgres"
	"filesmanager/internal/service"
	"filesmanager/internal/session"
	"filesmanager/internal/storage/driver"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.New("files-manager-api", cfg.LogLevel, cfg.LogFormat)
	logger.Info().Msg("配置加载完成，开始启动服务")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("连接数据库失败")
	}
	defer db.Close()

	if err := migrations.Apply(ctx, db, logger); err != nil {
		logger.Fatal().Err(err).Msg("执行迁移失败")
	}

	sessions, err := session.Open(session.Options{
		Dir:      cfg.SessionDir,
		InMemory: cfg.SessionInMemory,
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("打开会话存储失败")
	}
	defer sessions.Close()

	blobs, err := driver.Open(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.StorageDriver).Msg("初始化存储失败")
	}

	fileSvc := service.NewFileService(
		repopostgres.NewFileRepository(db),
		blobs,
		queuepostgres.New(db),
		logger,
	)
	userSvc := service.NewUserService(repopostgres.NewUserRepository(db), sessions, cfg.SessionTTL)

	router := api.NewRouter(cfg, logger, api.Handlers{
		Files:    api.NewFileHandler(fileSvc, cfg.MaxUploadBytes, logger),
		Users:    api.NewUserHandler(userSvc, logger),
		App:      api.NewAppHandler(db, userSvc, fileSvc, logger),
		Sessions: userSvc,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		Handler:           router,
	}

	logger.Info().Str("addr", srv.Addr).Str("storage", cfg.StorageDriver).Msg("服务开始监听")

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		logger.Error().Err(err).Msg("监听失败")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("优雅关闭失败")
	}

	logger.Info().Msg("服务已停止")
}
