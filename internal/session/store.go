// Package session 保存 auth_<token> -> userId 的会话映射，条目带有过期时间。
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
)

// ErrNotFound 表示 key 不存在或已过期。
var ErrNotFound = errors.New("session: key not found")

// KeyPrefix 是会话 key 的前缀。
const KeyPrefix = "auth_"

// Key 返回 token 对应的会话 key。
func Key(token string) string {
	return KeyPrefix + token
}

// Store 是带 TTL 的键值存储。
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	IsAlive() bool
}

// Options 控制 BadgerDB 的打开方式。
type Options struct {
	Dir        string
	InMemory   bool
	GCInterval time.Duration
}

// BadgerStore 使用 BadgerDB 实现 Store；过期由 Badger 的 per-entry TTL 负责。
type BadgerStore struct {
	db     *badger.DB
	logger zerolog.Logger

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// Open 打开（或创建）会话数据库。无法打开时立即返回错误。
func Open(opts Options, logger zerolog.Logger) (*BadgerStore, error) {
	bopts := badger.DefaultOptions(opts.Dir).WithLogger(nil)
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}

	s := &BadgerStore{
		db:     db,
		logger: logger.With().Str("component", "session").Logger(),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}

	interval := opts.GCInterval
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	if opts.InMemory {
		close(s.done)
	} else {
		go s.runGC(interval)
	}

	return s, nil
}

func (s *BadgerStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			value = string(val)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get %s: %w", key, err)
	}
	return value, nil
}

func (s *BadgerStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), []byte(value))
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *BadgerStore) Del(ctx context.Context, key string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// IsAlive 报告数据库是否仍可用。
func (s *BadgerStore) IsAlive() bool {
	return s != nil && s.db != nil && !s.db.IsClosed()
}

// Close 停止后台 GC 并关闭数据库。
func (s *BadgerStore) Close() error {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
	if s.db.IsClosed() {
		return nil
	}
	return s.db.Close()
}

func (s *BadgerStore) runGC(interval time.Duration) {
	defer close(s.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			for {
				// 每次回收一个 value log 文件，直到没有可回收的
				if err := s.db.RunValueLogGC(0.5); err != nil {
					if !errors.Is(err, badger.ErrNoRewrite) {
						s.logger.Warn().Err(err).Msg("value log gc failed")
					}
					break
				}
			}
		}
	}
}
