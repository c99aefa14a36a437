package middleware

import (
	"net/http"
	"strings"
)

const (
	corsAllowMethods  = "GET, POST, PUT, OPTIONS"
	corsAllowHeaders  = "Content-Type, Authorization, " + TokenHeader
	corsExposeHeaders = "Content-Length, Content-Type, X-Request-Id"
	corsMaxAge        = "600"
)

// corsPolicy 记录允许的来源；wildcard 时响应 "*" 且不携带凭证。
type corsPolicy struct {
	wildcard bool
	origins  map[string]bool
}

func newCORSPolicy(allowedOrigins []string) corsPolicy {
	p := corsPolicy{origins: make(map[string]bool, len(allowedOrigins))}
	for _, origin := range allowedOrigins {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		switch origin {
		case "":
		case "*":
			p.wildcard = true
		default:
			p.origins[origin] = true
		}
	}
	return p
}

// match 返回应写入 Access-Control-Allow-Origin 的值，空串表示拒绝。
func (p corsPolicy) match(origin string) string {
	switch {
	case origin == "":
		return ""
	case p.wildcard:
		return "*"
	case p.origins[origin]:
		return origin
	default:
		return ""
	}
}

// CORS 为白名单内的来源写入跨域响应头。
// 白名单内来源的预检直接 204，其余来源的预检返回 403，普通请求照常放行。
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	policy := newCORSPolicy(allowedOrigins)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			if !policy.wildcard {
				h.Add("Vary", "Origin")
			}

			allow := policy.match(origin)
			preflight := r.Method == http.MethodOptions
			if allow == "" {
				if preflight {
					w.WriteHeader(http.StatusForbidden)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			h.Set("Access-Control-Allow-Origin", allow)
			h.Set("Access-Control-Expose-Headers", corsExposeHeaders)
			if allow != "*" {
				h.Set("Access-Control-Allow-Credentials", "true")
			}

			if preflight {
				h.Set("Access-Control-Allow-Methods", corsAllowMethods)
				h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
				h.Set("Access-Control-Max-Age", corsMaxAge)
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
