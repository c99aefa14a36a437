// Package driver 根据配置选择 BlobStore 实现。
package driver

import (
	"context"
	"errors"
	"fmt"

	"filesmanager/internal/config"
	"filesmanager/internal/storage"
	"filesmanager/internal/storage/local"
	"filesmanager/internal/storage/memory"
	"filesmanager/internal/storage/s3"
)

// ErrProcessLocal 表示所选驱动只在当前进程内可见，不能与其他进程共享。
var ErrProcessLocal = errors.New("storage driver is process-local")

// OpenShared 与 Open 相同，但拒绝 memory 驱动。
// worker 与 API 是不同进程，memory 驱动下 worker 永远读不到源文件。
func OpenShared(ctx context.Context, cfg *config.Config) (storage.BlobStore, error) {
	if cfg.StorageDriver == "memory" {
		return nil, fmt.Errorf("%w: %q", ErrProcessLocal, cfg.StorageDriver)
	}
	return Open(ctx, cfg)
}

// Open 返回 STORAGE_DRIVER 指定的存储。memory 仅用于测试和单进程调试。s3 驱动会在启动时检查并创建 bucket。
func Open(ctx context.Context, cfg *config.Config) (storage.BlobStore, error) {
	switch cfg.StorageDriver {
	case "", "local":
		return local.NewStore(cfg.StorageDir), nil
	case "memory":
		return memory.NewStore(), nil
	case "s3":
		store, err := s3.New(ctx, s3.Config{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			UseSSL:    cfg.S3UseSSL,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
