package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	dbmigrations "filesmanager/db/migrations"

	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
)

// Apply 使用 goose 执行 embed 的全部 up 迁移脚本，已执行的脚本会被跳过。
func Apply(ctx context.Context, db *sql.DB, logger zerolog.Logger) error {
	if db == nil {
		return fmt.Errorf("nil database connection")
	}

	goose.SetBaseFS(dbmigrations.FS)
	goose.SetLogger(gooseLogger{logger: logger.With().Str("component", "migrations").Logger()})
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	logger.Info().Int64("version", version).Msg("database schema up to date")
	return nil
}

// gooseLogger 将 goose 的输出转到 zerolog。
type gooseLogger struct {
	logger zerolog.Logger
}

func (l gooseLogger) Printf(format string, v ...any) {
	l.logger.Info().Msg(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l gooseLogger) Fatalf(format string, v ...any) {
	l.logger.Fatal().Msg(strings.TrimSpace(fmt.Sprintf(format, v...)))
}
