package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"filesmanager/internal/storage"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config 包含 S3/MinIO 存储所需的配置。
type Config struct {
	Endpoint  string // 不含协议，如 "localhost:9000" 或 "s3.amazonaws.com"
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool // 是否使用 HTTPS
}

// Store 实现了 storage.BlobStore 接口，使用 S3 兼容存储。
type Store struct {
	client *minio.Client
	bucket string
}

// New 创建新的 S3 存储实例，bucket 不存在时自动创建。
func New(ctx context.Context, cfg Config) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket exists: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{
			Region: cfg.Region,
		}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	return &Store{client: client, bucket: cfg.Bucket}, nil
}

// Write 以新生成的 key 上传对象。
func (s *Store) Write(ctx context.Context, data []byte) (string, error) {
	key := uuid.NewString()
	if err := s.Put(ctx, key, data); err != nil {
		return "", err
	}
	return key, nil
}

// Put 以单次 PutObject 上传，长度已知，对象要么完整可见要么不存在。
func (s *Store) Put(ctx context.Context, key string, data []byte) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("%w: s3 storage uninitialized", storage.ErrWriteFailed)
	}
	if err := storage.ValidateKey(key); err != nil {
		return err
	}

	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return fmt.Errorf("%w: put object: %v", storage.ErrWriteFailed, err)
	}
	return nil
}

// Read 从 S3 存储读取对象全部内容。
func (s *Store) Read(ctx context.Context, key string) ([]byte, error) {
	if s == nil || s.client == nil {
		return nil, fmt.Errorf("s3 storage uninitialized")
	}
	if err := storage.ValidateKey(key); err != nil {
		return nil, storage.ErrNotFound
	}

	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object: %w", err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("read object: %w", err)
	}
	return data, nil
}

// Delete 删除对象。S3 对不存在的对象同样返回成功。
func (s *Store) Delete(ctx context.Context, key string) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("s3 storage uninitialized")
	}
	if err := storage.ValidateKey(key); err != nil {
		return err
	}

	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object: %w", err)
	}
	return nil
}
