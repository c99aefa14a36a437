package repository

import (
	"context"
	"time"
)

// UserRecord 代表一个注册用户。
type UserRecord struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"-"`
}

// UserRepository 用户持久层接口。
type UserRepository interface {
	Create(ctx context.Context, user *UserRecord) (*UserRecord, error)
	GetByID(ctx context.Context, id string) (*UserRecord, error)
	GetByEmail(ctx context.Context, email string) (*UserRecord, error)
	Count(ctx context.Context) (int64, error)
}
