package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"filesmanager/internal/repository"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// NewUserRepository 返回基于 *sql.DB 的用户仓储。
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// UserRepository 实现 repository.UserRepository。
type UserRepository struct {
	db *sql.DB
}

// Create 插入新用户；邮箱重复时返回 repository.ErrConflict。
func (r *UserRepository) Create(ctx context.Context, user *repository.UserRecord) (*repository.UserRecord, error) {
	if user == nil {
		return nil, fmt.Errorf("user record is nil")
	}

	row := r.db.QueryRowContext(ctx, `INSERT INTO users (id, email, password_hash, created_at)
	VALUES ($1, $2, $3, $4)
	RETURNING id, email, password_hash, created_at`,
		user.ID, user.Email, user.PasswordHash, user.CreatedAt)

	created, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, repository.ErrConflict
		}
		return nil, err
	}
	return created, nil
}

// GetByID 通过主键查询用户。
func (r *UserRepository) GetByID(ctx context.Context, id string) (*repository.UserRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, email, password_hash, created_at FROM users WHERE id = $1`, id)
	return notFound(scanUser(row))
}

// GetByEmail 通过邮箱查询用户。
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*repository.UserRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, email, password_hash, created_at FROM users WHERE email = $1`, email)
	return notFound(scanUser(row))
}

// Count 返回用户总数。
func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func scanUser(rs rowScanner) (*repository.UserRecord, error) {
	var u repository.UserRecord
	if err := rs.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func notFound(u *repository.UserRecord, err error) (*repository.UserRecord, error) {
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return u, err
}
