package storage

import (
	"context"
	"errors"
	"regexp"
	"strconv"
)

var (
	// ErrNotFound 表示 key 没有对应的字节。
	ErrNotFound = errors.New("storage: blob not found")
	// ErrWriteFailed 表示写入未能完整落盘，调用方不会得到 key。
	ErrWriteFailed = errors.New("storage: write failed")
	// ErrInvalidKey 表示 key 含有不允许的字符。
	ErrInvalidKey = errors.New("storage: invalid key")
)

// BlobStore 以不透明 key 寻址的字节存储。key 由存储生成，与用户可见的文件名无关。
type BlobStore interface {
	// Write 保存 data 并返回新生成的 key。要么全部写入，要么返回错误。
	Write(ctx context.Context, data []byte) (string, error)
	// Put 在调用方给定的 key 下保存 data，仅用于派生对象（缩略图）。
	Put(ctx context.Context, key string, data []byte) error
	// Read 返回 key 对应的全部字节；不存在时返回 ErrNotFound。
	Read(ctx context.Context, key string) ([]byte, error)
	// Delete 删除 key 对应的对象；对象不存在时不报错。
	Delete(ctx context.Context, key string) error
}

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidateKey 拒绝可能造成路径穿越的 key。
func ValidateKey(key string) error {
	if !keyPattern.MatchString(key) {
		return ErrInvalidKey
	}
	return nil
}

// DerivativeKey 返回源对象在指定宽度下的缩略图 key。
func DerivativeKey(key string, width int) string {
	return key + "_" + strconv.Itoa(width)
}
