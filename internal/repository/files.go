package repository

import (
	"context"
	"time"
)

// FileKind 描述记录类型。
type FileKind string

const (
	FileKindFolder FileKind = "folder"
	FileKindFile   FileKind = "file"
	FileKindImage  FileKind = "image"
)

// Valid 报告 kind 是否为可识别的类型。
func (k FileKind) Valid() bool {
	switch k {
	case FileKindFolder, FileKindFile, FileKindImage:
		return true
	default:
		return false
	}
}

// RootParentID 是顶层记录的 parentId 哨兵值。
const RootParentID = "0"

// FileRecord 代表数据库中的文件或文件夹元数据。
// StorageKey 只在服务端内部使用，不会出现在 API 响应中。
type FileRecord struct {
	ID         string    `json:"id"`
	OwnerID    string    `json:"userId"`
	Name       string    `json:"name"`
	Kind       FileKind  `json:"type"`
	ParentID   string    `json:"parentId"`
	IsPublic   bool      `json:"isPublic"`
	StorageKey string    `json:"-"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// IsFolder 报告记录是否为文件夹。
func (r *FileRecord) IsFolder() bool {
	return r.Kind == FileKindFolder
}

// ListFilesParams 用于按所有者和父目录分页检索。
type ListFilesParams struct {
	OwnerID  string
	ParentID string
	Limit    int
	Offset   int
}

// FileRepository 统一文件元数据持久层接口。
type FileRepository interface {
	Create(ctx context.Context, record *FileRecord) (*FileRecord, error)
	GetByID(ctx context.Context, id string) (*FileRecord, error)
	GetByOwner(ctx context.Context, id, ownerID string) (*FileRecord, error)
	List(ctx context.Context, params ListFilesParams) ([]FileRecord, error)
	SetPublic(ctx context.Context, id, ownerID string, isPublic bool) (*FileRecord, error)
	Count(ctx context.Context) (int64, error)
}
