package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("FOLDER_PATH", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.HTTPPort)
	assert.Equal(t, "local", cfg.StorageDriver)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 3, cfg.WorkerMaxAttempts)
	assert.Equal(t, 4, cfg.WorkerConcurrency)
	assert.Equal(t, 5*time.Minute, cfg.WorkerVisibilityTimeout)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, int64(50*1024*1024), cfg.MaxUploadBytes)
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("FOLDER_PATH", dir)
	t.Setenv("PORT", "8081")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("WORKER_MAX_ATTEMPTS", "5")
	t.Setenv("WORKER_RETRY_BACKOFF", "30s")
	t.Setenv("SESSION_IN_MEMORY", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.HTTPPort)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, dir, cfg.StorageDir)
	assert.Equal(t, 5, cfg.WorkerMaxAttempts)
	assert.Equal(t, 30*time.Second, cfg.WorkerRetryBackoff)
	assert.True(t, cfg.SessionInMemory)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
}

func TestLoad_RejectsUnknownStorageDriver(t *testing.T) {
	t.Setenv("FOLDER_PATH", t.TempDir())
	t.Setenv("STORAGE_DRIVER", "ftp")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_RejectsZeroConcurrency(t *testing.T) {
	t.Setenv("FOLDER_PATH", t.TempDir())
	t.Setenv("WORKER_CONCURRENCY", "0")

	_, err := Load()
	require.Error(t, err)
}

func TestPostgresDSN(t *testing.T) {
	cfg := &Config{
		DBHost:     "db",
		DBPort:     5433,
		DBUser:     "u",
		DBPassword: "p@ss",
		DBName:     "files_manager",
		DBSSLMode:  "disable",
	}

	assert.Equal(t, "postgres://u:p%40ss@db:5433/files_manager?sslmode=disable", cfg.PostgresDSN())
}
