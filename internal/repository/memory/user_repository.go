package memory

import (
	"context"
	"fmt"
	"sync"

	"filesmanager/internal/repository"
)

// UserRepository 是 repository.UserRepository 的内存实现。
type UserRepository struct {
	mu      sync.RWMutex
	byID    map[string]repository.UserRecord
	byEmail map[string]string
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:    make(map[string]repository.UserRecord),
		byEmail: make(map[string]string),
	}
}

func (r *UserRepository) Create(ctx context.Context, user *repository.UserRecord) (*repository.UserRecord, error) {
	if user == nil {
		return nil, fmt.Errorf("user record is nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[user.Email]; exists {
		return nil, repository.ErrConflict
	}
	r.byID[user.ID] = *user
	r.byEmail[user.Email] = user.ID
	out := *user
	return &out, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*repository.UserRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*repository.UserRecord, error) {
	r.mu.RLock()
	id, ok := r.byEmail[email]
	r.mu.RUnlock()
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.byID)), nil
}
