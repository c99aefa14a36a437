package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"slices"
	"time"

	"filesmanager/internal/queue"
	"filesmanager/internal/repository"
	"filesmanager/internal/storage"
	"filesmanager/internal/thumbnail"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// PageSize 是 List 的固定分页大小。
const PageSize = 20

// ThumbnailWidths 是 ReadContent 接受的 size 取值。
var ThumbnailWidths = thumbnail.DefaultWidths

// FileService 封装文件元数据的业务流程与访问控制。
type FileService struct {
	repo   repository.FileRepository
	store  storage.BlobStore
	jobs   queue.Enqueuer
	logger zerolog.Logger
}

func NewFileService(repo repository.FileRepository, store storage.BlobStore, jobs queue.Enqueuer, logger zerolog.Logger) *FileService {
	return &FileService{
		repo:   repo,
		store:  store,
		jobs:   jobs,
		logger: logger.With().Str("component", "file_service").Logger(),
	}
}

// CreateFileInput 描述一次上传请求。Data 为 base64 编码内容，文件夹不需要。
type CreateFileInput struct {
	OwnerID  string
	Name     string
	Kind     repository.FileKind
	ParentID string
	IsPublic bool
	Data     string
}

// Create 校验并创建文件或文件夹。非文件夹先写入存储再写元数据，
// 存储失败时不会留下元数据。图片创建成功后投递一个缩略图任务，投递失败不回滚。
//
// 父目录校验与插入之间不是原子的：并发删除父目录可能导致悬挂的 parentId。
// 父目录查找不按所有者过滤，因此他人文件夹的 id 同样可作为 parentId，
// 错误信息也会暴露该 id 是否存在以及是否为文件夹。
func (s *FileService) Create(ctx context.Context, input CreateFileInput) (*repository.FileRecord, error) {
	if s == nil || s.repo == nil {
		return nil, errors.New("file service not initialized")
	}

	switch {
	case input.Name == "":
		return nil, ErrMissingName
	case !input.Kind.Valid():
		return nil, ErrMissingType
	case input.Kind != repository.FileKindFolder && input.Data == "":
		return nil, ErrMissingData
	}

	parentID, err := s.resolveParent(ctx, input.ParentID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	record := &repository.FileRecord{
		ID:        uuid.NewString(),
		OwnerID:   input.OwnerID,
		Name:      input.Name,
		Kind:      input.Kind,
		ParentID:  parentID,
		IsPublic:  input.IsPublic,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if record.IsFolder() {
		return s.repo.Create(ctx, record)
	}

	payload, err := base64.StdEncoding.DecodeString(input.Data)
	if err != nil {
		return nil, ErrInvalidData
	}

	key, err := s.store.Write(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageWriteFailed, err)
	}
	record.StorageKey = key

	created, err := s.repo.Create(ctx, record)
	if err != nil {
		s.logger.Warn().Err(err).Str("storage_key", key).Msg("metadata insert failed, blob left unreferenced")
		return nil, fmt.Errorf("persist file record: %w", err)
	}

	if created.Kind == repository.FileKindImage && s.jobs != nil {
		if err := s.jobs.Enqueue(ctx, created.ID, created.OwnerID); err != nil {
			s.logger.Error().Err(err).Str("file_id", created.ID).Msg("enqueue thumbnail job failed")
		}
	}

	return created, nil
}

func (s *FileService) resolveParent(ctx context.Context, parentID string) (string, error) {
	if parentID == "" || parentID == repository.RootParentID {
		return repository.RootParentID, nil
	}

	id, ok := canonicalID(parentID)
	if !ok {
		return "", ErrParentNotFound
	}

	parent, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrParentNotFound
		}
		return "", fmt.Errorf("load parent: %w", err)
	}
	if !parent.IsFolder() {
		return "", ErrParentNotAFolder
	}
	return id, nil
}

// Get 返回请求者自己的记录；其他人的记录与不存在的记录一样返回 ErrNotFound。
func (s *FileService) Get(ctx context.Context, requesterID, fileID string) (*repository.FileRecord, error) {
	id, ok := canonicalID(fileID)
	if !ok {
		return nil, ErrNotFound
	}

	rec, err := s.repo.GetByOwner(ctx, id, requesterID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

// List 返回请求者在 parentID 下的记录，每页 PageSize 条，页码从 0 开始。
func (s *FileService) List(ctx context.Context, requesterID, parentID string, page int) ([]repository.FileRecord, error) {
	if page < 0 {
		page = 0
	}

	parent := repository.RootParentID
	if parentID != "" && parentID != repository.RootParentID {
		id, ok := canonicalID(parentID)
		if !ok {
			return []repository.FileRecord{}, nil
		}
		parent = id
	}

	return s.repo.List(ctx, repository.ListFilesParams{
		OwnerID:  requesterID,
		ParentID: parent,
		Limit:    PageSize,
		Offset:   page * PageSize,
	})
}

// SetPublic 修改可见性。所有权检查与更新之间没有锁，后写者胜出。
func (s *FileService) SetPublic(ctx context.Context, requesterID, fileID string, isPublic bool) (*repository.FileRecord, error) {
	rec, err := s.Get(ctx, requesterID, fileID)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.SetPublic(ctx, rec.ID, requesterID, isPublic)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return updated, nil
}

// Content 是 ReadContent 的结果。
type Content struct {
	Name        string
	ContentType string
	Data        []byte
}

// ReadContent 返回文件内容。requesterID 为空表示匿名请求。
// size 为 0 时读取原文件，否则读取对应宽度的缩略图。
func (s *FileService) ReadContent(ctx context.Context, requesterID, fileID string, size int) (*Content, error) {
	if size != 0 && !slices.Contains(ThumbnailWidths, size) {
		return nil, ErrInvalidSize
	}

	id, ok := canonicalID(fileID)
	if !ok {
		return nil, ErrNotFound
	}

	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if !rec.IsPublic && (requesterID == "" || requesterID != rec.OwnerID) {
		return nil, ErrNotFound
	}
	if rec.IsFolder() {
		return nil, ErrNotAFile
	}

	key := rec.StorageKey
	if size != 0 {
		key = storage.DerivativeKey(key, size)
	}

	data, err := s.store.Read(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn().Str("file_id", rec.ID).Str("storage_key", key).Msg("blob missing for file record")
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read blob: %w", err)
	}

	return &Content{
		Name:        rec.Name,
		ContentType: contentType(rec.Name, data),
		Data:        data,
	}, nil
}

// CountFiles 返回记录总数。
func (s *FileService) CountFiles(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

func contentType(name string, data []byte) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return mimetype.Detect(data).String()
}

// canonicalID 将任意大小写的 UUID 规范化为小写带连字符的形式。
func canonicalID(raw string) (string, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", false
	}
	return id.String(), true
}
