package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 聚合服务与 worker 启动需要的关键配置。
type Config struct {
	HTTPPort           string        `mapstructure:"PORT" validate:"required,numeric"`
	LogLevel           string        `mapstructure:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	LogFormat          string        `mapstructure:"LOG_FORMAT" validate:"oneof=json console"`
	CORSAllowedOrigins []string      `mapstructure:"CORS_ALLOWED_ORIGINS"`
	RateLimitRPS       float64       `mapstructure:"RATE_LIMIT_RPS" validate:"gte=0"`
	RateLimitBurst     int           `mapstructure:"RATE_LIMIT_BURST" validate:"gte=0"`
	MaxUploadBytes     int64         `mapstructure:"MAX_UPLOAD_BYTES" validate:"gt=0"`
	DBHost             string        `mapstructure:"DB_HOST" validate:"required"`
	DBPort             int           `mapstructure:"DB_PORT" validate:"gt=0,lte=65535"`
	DBUser             string        `mapstructure:"DB_USER" validate:"required"`
	DBPassword         string        `mapstructure:"DB_PASSWORD"`
	DBName             string        `mapstructure:"DB_NAME" validate:"required"`
	DBSSLMode          string        `mapstructure:"DB_SSL_MODE"`
	DBMaxOpenConns     int           `mapstructure:"DB_MAX_OPEN_CONNS" validate:"gt=0"`
	// 会话存储配置
	SessionDir      string        `mapstructure:"SESSION_DIR"`
	SessionInMemory bool          `mapstructure:"SESSION_IN_MEMORY"`
	SessionTTL      time.Duration `mapstructure:"SESSION_TTL" validate:"gt=0"`
	// 存储配置
	StorageDriver string `mapstructure:"STORAGE_DRIVER" validate:"oneof=local s3 memory"` // "local"、"s3" 或 "memory"
	StorageDir    string `mapstructure:"FOLDER_PATH" validate:"required"`
	S3Endpoint    string `mapstructure:"S3_ENDPOINT"` // S3/MinIO 端点，不含协议
	S3AccessKey   string `mapstructure:"S3_ACCESS_KEY"`
	S3SecretKey   string `mapstructure:"S3_SECRET_KEY"`
	S3Bucket      string `mapstructure:"S3_BUCKET"`
	S3Region      string `mapstructure:"S3_REGION"`
	S3UseSSL      bool   `mapstructure:"S3_USE_SSL"`
	// 缩略图 worker 配置
	WorkerConcurrency       int           `mapstructure:"WORKER_CONCURRENCY" validate:"gt=0"`
	WorkerMaxAttempts       int           `mapstructure:"WORKER_MAX_ATTEMPTS" validate:"gt=0"`
	WorkerRetryBackoff      time.Duration `mapstructure:"WORKER_RETRY_BACKOFF" validate:"gte=0"`
	WorkerVisibilityTimeout time.Duration `mapstructure:"WORKER_VISIBILITY_TIMEOUT" validate:"gt=0"`
	WorkerPollInterval      time.Duration `mapstructure:"WORKER_POLL_INTERVAL" validate:"gt=0"`
}

var defaults = map[string]any{
	"PORT":                      "5000",
	"LOG_LEVEL":                 "info",
	"LOG_FORMAT":                "json",
	"CORS_ALLOWED_ORIGINS":      "http://localhost:5173",
	"RATE_LIMIT_RPS":            20,
	"RATE_LIMIT_BURST":          40,
	"MAX_UPLOAD_BYTES":          50 * 1024 * 1024,
	"DB_HOST":                   "127.0.0.1",
	"DB_PORT":                   5432,
	"DB_USER":                   "files_manager",
	"DB_PASSWORD":               "files_manager",
	"DB_NAME":                   "files_manager",
	"DB_SSL_MODE":               "disable",
	"DB_MAX_OPEN_CONNS":         15,
	"SESSION_DIR":               "./data/sessions",
	"SESSION_IN_MEMORY":         false,
	"SESSION_TTL":               "24h",
	"STORAGE_DRIVER":            "local",
	"FOLDER_PATH":               "/tmp/files_manager",
	"S3_ENDPOINT":               "localhost:9000",
	"S3_ACCESS_KEY":             "minioadmin",
	"S3_SECRET_KEY":             "minioadmin",
	"S3_BUCKET":                 "files-manager",
	"S3_REGION":                 "us-east-1",
	"S3_USE_SSL":                false,
	"WORKER_CONCURRENCY":        4,
	"WORKER_MAX_ATTEMPTS":       3,
	"WORKER_RETRY_BACKOFF":      "10s",
	"WORKER_VISIBILITY_TIMEOUT": "5m",
	"WORKER_POLL_INTERVAL":      "1s",
}

// Load 从环境变量（以及可选的 .env 文件）加载配置，并提供默认值。
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("加载 .env 失败: %w", err)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	cfg.CORSAllowedOrigins = parseList(strings.Join(cfg.CORSAllowedOrigins, ","))
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("配置校验失败: %w", err)
	}

	if cfg.StorageDriver == "local" {
		if err := ensureDir(cfg.StorageDir); err != nil {
			return nil, fmt.Errorf("确保存储目录失败: %w", err)
		}
	}

	return &cfg, nil
}

func ensureDir(path string) error {
	info, err := os.Stat(path)
	if err == nil {
		if !info.IsDir() {
			return fmt.Errorf("路径 %s 已存在但不是目录", path)
		}
		return nil
	}

	if os.IsNotExist(err) {
		return os.MkdirAll(path, 0o755)
	}

	return err
}

func parseList(raw string) []string {
	if raw == "" {
		return nil
	}

	items := strings.Split(raw, ",")
	out := make([]string, 0, len(items))
	for _, item := range items {
		trimmed := strings.TrimSpace(item)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}

// PostgresDSN 生成标准 postgres:// 连接串，供数据访问层直接使用。
func (c *Config) PostgresDSN() string {
	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.DBUser, c.DBPassword),
		Host:   fmt.Sprintf("%s:%d", c.DBHost, c.DBPort),
		Path:   c.DBName,
	}

	q := url.Values{}
	if c.DBSSLMode != "" {
		q.Set("sslmode", c.DBSSLMode)
	}
	u.RawQuery = q.Encode()

	return u.String()
}
