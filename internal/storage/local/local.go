package local

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"filesmanager/internal/storage"

	"github.com/google/uuid"
)

// Store 将对象写入本地文件系统，每个对象一个文件，文件名即 key。
type Store struct {
	BaseDir string
}

func NewStore(baseDir string) *Store {
	return &Store{BaseDir: baseDir}
}

// Write 生成新 key 并原子写入。
func (s *Store) Write(ctx context.Context, data []byte) (string, error) {
	key := uuid.NewString()
	if err := s.Put(ctx, key, data); err != nil {
		return "", err
	}
	return key, nil
}

// Put 先写临时文件再 rename，保证读者看不到部分写入。
func (s *Store) Put(ctx context.Context, key string, data []byte) error {
	if s == nil {
		return fmt.Errorf("%w: local store uninitialized", storage.ErrWriteFailed)
	}
	if err := storage.ValidateKey(key); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := os.MkdirAll(s.BaseDir, 0o755); err != nil {
		return fmt.Errorf("%w: ensure dir: %v", storage.ErrWriteFailed, err)
	}

	targetPath := filepath.Join(s.BaseDir, key)
	file, err := os.CreateTemp(s.BaseDir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", storage.ErrWriteFailed, err)
	}
	tempPath := file.Name()

	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("%w: write file: %v", storage.ErrWriteFailed, err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("%w: sync file: %v", storage.ErrWriteFailed, err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("%w: close file: %v", storage.ErrWriteFailed, err)
	}

	if err := os.Rename(tempPath, targetPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("%w: rename temp file: %v", storage.ErrWriteFailed, err)
	}

	return nil
}

// Read 读取指定 key 对应的文件内容。
func (s *Store) Read(ctx context.Context, key string) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("local store uninitialized")
	}
	if err := storage.ValidateKey(key); err != nil {
		return nil, storage.ErrNotFound
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	data, err := os.ReadFile(filepath.Join(s.BaseDir, key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("read file: %w", err)
	}
	return data, nil
}

// Delete 删除 key 对应的文件，文件不存在视为成功。
func (s *Store) Delete(ctx context.Context, key string) error {
	if s == nil {
		return fmt.Errorf("local store uninitialized")
	}
	if err := storage.ValidateKey(key); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := os.Remove(filepath.Join(s.BaseDir, key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}
