// Package memory 提供仓储接口的内存实现，用于本地开发和测试。
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"filesmanager/internal/repository"
)

// FileRepository 是 repository.FileRepository 的内存实现。
type FileRepository struct {
	mu      sync.RWMutex
	records map[string]repository.FileRecord
}

func NewFileRepository() *FileRepository {
	return &FileRepository{records: make(map[string]repository.FileRecord)}
}

func (r *FileRepository) Create(ctx context.Context, record *repository.FileRecord) (*repository.FileRecord, error) {
	if record == nil {
		return nil, fmt.Errorf("file record is nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[record.ID]; exists {
		return nil, repository.ErrConflict
	}
	r.records[record.ID] = *record
	out := *record
	return &out, nil
}

func (r *FileRepository) GetByID(ctx context.Context, id string) (*repository.FileRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &rec, nil
}

func (r *FileRepository) GetByOwner(ctx context.Context, id, ownerID string) (*repository.FileRecord, error) {
	rec, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.OwnerID != ownerID {
		return nil, repository.ErrNotFound
	}
	return rec, nil
}

// List 与 Postgres 实现保持相同的排序：创建时间，再按 id。
func (r *FileRepository) List(ctx context.Context, params repository.ListFilesParams) ([]repository.FileRecord, error) {
	r.mu.RLock()
	matched := make([]repository.FileRecord, 0)
	for _, rec := range r.records {
		if rec.OwnerID == params.OwnerID && rec.ParentID == params.ParentID {
			matched = append(matched, rec)
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})

	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(matched) {
		return []repository.FileRecord{}, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (r *FileRepository) SetPublic(ctx context.Context, id, ownerID string, isPublic bool) (*repository.FileRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok || rec.OwnerID != ownerID {
		return nil, repository.ErrNotFound
	}
	rec.IsPublic = isPublic
	rec.UpdatedAt = time.Now().UTC()
	r.records[id] = rec
	return &rec, nil
}

func (r *FileRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.records)), nil
}
