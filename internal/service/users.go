package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"filesmanager/internal/repository"
	"filesmanager/internal/session"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// UserService 负责注册与会话的签发/撤销。会话 token 是不透明值，保存在 session.Store 中。
type UserService struct {
	users      repository.UserRepository
	sessions   session.Store
	sessionTTL time.Duration
}

func NewUserService(users repository.UserRepository, sessions session.Store, sessionTTL time.Duration) *UserService {
	return &UserService{users: users, sessions: sessions, sessionTTL: sessionTTL}
}

// Register 创建新用户，密码以 bcrypt 哈希保存。
func (s *UserService) Register(ctx context.Context, email, password string) (*repository.UserRecord, error) {
	email = strings.TrimSpace(email)
	switch {
	case email == "":
		return nil, ErrMissingEmail
	case password == "":
		return nil, ErrMissingPass
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, &repository.UserRecord{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrAlreadyExists
		}
		return nil, err
	}
	return user, nil
}

// Connect 校验凭据并签发新的会话 token。
func (s *UserService) Connect(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrUnauthorized
		}
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrUnauthorized
	}

	token := uuid.NewString()
	if err := s.sessions.Set(ctx, session.Key(token), user.ID, s.sessionTTL); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return token, nil
}

// Disconnect 撤销会话。
func (s *UserService) Disconnect(ctx context.Context, token string) error {
	if _, err := s.Resolve(ctx, token); err != nil {
		return err
	}
	return s.sessions.Del(ctx, session.Key(token))
}

// Resolve 将 token 解析为用户 id；token 缺失或过期返回 ErrUnauthorized。
func (s *UserService) Resolve(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrUnauthorized
	}
	userID, err := s.sessions.Get(ctx, session.Key(token))
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return "", ErrUnauthorized
		}
		return "", err
	}
	return userID, nil
}

// Me 返回当前用户。
func (s *UserService) Me(ctx context.Context, userID string) (*repository.UserRecord, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	return user, nil
}

// CountUsers 返回用户总数。
func (s *UserService) CountUsers(ctx context.Context) (int64, error) {
	return s.users.Count(ctx)
}

// SessionsAlive 报告会话存储是否可用。
func (s *UserService) SessionsAlive() bool {
	return s.sessions != nil && s.sessions.IsAlive()
}
