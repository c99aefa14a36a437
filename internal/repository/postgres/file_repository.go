package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"filesmanager/internal/repository"
)

// NewFileRepository 返回基于 *sql.DB 的 Postgres 实现。
func NewFileRepository(db *sql.DB) *FileRepository {
	return &FileRepository{db: db}
}

// FileRepository 实现 repository.FileRepository。
type FileRepository struct {
	db *sql.DB
}

var fileSelectColumns = []string{
	"id",
	"owner_id",
	"name",
	"kind",
	"parent_id",
	"is_public",
	"storage_key",
	"created_at",
	"updated_at",
}

var fileInsertColumns = fileSelectColumns

// Create 插入文件记录并返回持久化后的行。
func (r *FileRepository) Create(ctx context.Context, record *repository.FileRecord) (*repository.FileRecord, error) {
	if record == nil {
		return nil, fmt.Errorf("file record is nil")
	}

	placeholders := make([]string, len(fileInsertColumns))
	for i := range fileInsertColumns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf(`INSERT INTO files (%s)
	VALUES (%s)
	RETURNING %s`,
		strings.Join(fileInsertColumns, ","),
		strings.Join(placeholders, ","),
		strings.Join(fileSelectColumns, ","),
	)

	// 文件夹没有存储 key，数据库约束要求其为 NULL
	var storageKey sql.NullString
	if record.StorageKey != "" {
		storageKey = sql.NullString{String: record.StorageKey, Valid: true}
	}

	row := r.db.QueryRowContext(
		ctx,
		query,
		record.ID,
		record.OwnerID,
		record.Name,
		string(record.Kind),
		record.ParentID,
		record.IsPublic,
		storageKey,
		record.CreatedAt,
		record.UpdatedAt,
	)

	return scanFileRecord(row)
}

// GetByID 通过主键查询文件记录，不做所有权过滤。
func (r *FileRepository) GetByID(ctx context.Context, id string) (*repository.FileRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM files WHERE id = $1`, strings.Join(fileSelectColumns, ","))
	return r.getOne(ctx, query, id)
}

// GetByOwner 查询属于指定用户的文件记录。
func (r *FileRepository) GetByOwner(ctx context.Context, id, ownerID string) (*repository.FileRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM files WHERE id = $1 AND owner_id = $2`, strings.Join(fileSelectColumns, ","))
	return r.getOne(ctx, query, id, ownerID)
}

func (r *FileRepository) getOne(ctx context.Context, query string, args ...any) (*repository.FileRecord, error) {
	row := r.db.QueryRowContext(ctx, query, args...)
	file, err := scanFileRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return file, nil
}

// List 按所有者与父目录过滤并分页，顺序为创建时间再按 id。
func (r *FileRepository) List(ctx context.Context, params repository.ListFilesParams) ([]repository.FileRecord, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM files
	WHERE owner_id = $1 AND parent_id = $2
	ORDER BY created_at, id
	LIMIT $3 OFFSET $4`, strings.Join(fileSelectColumns, ","))

	rows, err := r.db.QueryContext(ctx, query, params.OwnerID, params.ParentID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]repository.FileRecord, 0)
	for rows.Next() {
		rec, err := scanFileRecord(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// SetPublic 更新可见性并返回更新后的记录。
func (r *FileRepository) SetPublic(ctx context.Context, id, ownerID string, isPublic bool) (*repository.FileRecord, error) {
	query := fmt.Sprintf(`UPDATE files SET is_public = $1, updated_at = $2
	WHERE id = $3 AND owner_id = $4
	RETURNING %s`, strings.Join(fileSelectColumns, ","))
	return r.getOne(ctx, query, isPublic, time.Now().UTC(), id, ownerID)
}

// Count 返回文件记录总数。
func (r *FileRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM files`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFileRecord(rs rowScanner) (*repository.FileRecord, error) {
	var (
		rec        repository.FileRecord
		storageKey sql.NullString
	)

	if err := rs.Scan(
		&rec.ID,
		&rec.OwnerID,
		&rec.Name,
		&rec.Kind,
		&rec.ParentID,
		&rec.IsPublic,
		&storageKey,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if storageKey.Valid {
		rec.StorageKey = storageKey.String
	}

	return &rec, nil
}
