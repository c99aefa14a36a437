package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// TokenHeader 携带会话 token 的请求头。
const TokenHeader = "X-Token"

// UserContextKey 是存储在 context 中的用户 ID 的键。
type UserContextKey struct{}

// TokenResolver 将会话 token 解析为用户 ID。
type TokenResolver interface {
	Resolve(ctx context.Context, token string) (string, error)
}

// RequireSession 创建会话鉴权中间件。
// 期望请求头格式：X-Token: <token>
// 验证成功后将用户 ID 存入 context，失败返回 401。
func RequireSession(resolver TokenResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := strings.TrimSpace(r.Header.Get(TokenHeader))
			if token == "" {
				writeAuthError(w)
				return
			}

			userID, err := resolver.Resolve(r.Context(), token)
			if err != nil || userID == "" {
				writeAuthError(w)
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey{}, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalSession 在 token 有效时写入用户 ID，否则按匿名请求继续。
func OptionalSession(resolver TokenResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := strings.TrimSpace(r.Header.Get(TokenHeader))
			if token != "" {
				if userID, err := resolver.Resolve(r.Context(), token); err == nil && userID != "" {
					r = r.WithContext(context.WithValue(r.Context(), UserContextKey{}, userID))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetUserID 从 context 中获取经过鉴权的用户 ID，匿名请求返回空串。
func GetUserID(ctx context.Context) string {
	if v, ok := ctx.Value(UserContextKey{}).(string); ok {
		return v
	}
	return ""
}

// SessionToken 返回请求携带的 token。
func SessionToken(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(TokenHeader))
}

func writeAuthError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
}
