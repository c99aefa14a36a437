// Package memory 提供进程内的 BlobStore，供测试和 STORAGE_DRIVER=memory 使用。
package memory

import (
	"context"
	"fmt"
	"sync"

	"filesmanager/internal/storage"

	"github.com/google/uuid"
)

type Store struct {
	mu    sync.RWMutex
	blobs map[string][]byte
	// FailWrites 为 true 时所有写入失败，用于模拟 I/O 错误。
	FailWrites bool
}

func NewStore() *Store {
	return &Store{blobs: make(map[string][]byte)}
}

func (s *Store) Write(ctx context.Context, data []byte) (string, error) {
	key := uuid.NewString()
	if err := s.Put(ctx, key, data); err != nil {
		return "", err
	}
	return key, nil
}

func (s *Store) Put(ctx context.Context, key string, data []byte) error {
	if err := storage.ValidateKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailWrites {
		return fmt.Errorf("%w: simulated failure", storage.ErrWriteFailed)
	}
	s.blobs[key] = append([]byte(nil), data...)
	return nil
}

func (s *Store) Read(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.blobs[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, key)
	return nil
}

// Has 报告 key 是否存在。
func (s *Store) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.blobs[key]
	return ok
}

// Len 返回当前对象数量。
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
