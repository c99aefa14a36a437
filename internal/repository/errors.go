package repository

import "errors"

var (
	// ErrNotFound 表示目标记录不存在。
	ErrNotFound = errors.New("repository: record not found")
	// ErrConflict 表示唯一约束冲突（例如重复的邮箱）。
	ErrConflict = errors.New("repository: record already exists")
)
