package main

import (
	"context"

	"filesmanager/internal/config"
	"filesmanager/internal/database"
	"filesmanager/internal/logging"
	"filesmanager/internal/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.New("files-manager-migrate", cfg.LogLevel, cfg.LogFormat)

	db, err := database.Connect(context.Background(), cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer db.Close()

	if err := migrations.Apply(context.Background(), db, logger); err != nil {
		logger.Fatal().Err(err).Msg("apply migrations")
	}

	logger.Info().Msg("migrations applied")
}
