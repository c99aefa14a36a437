package api

import (
	"net/http"

	"filesmanager/internal/config"
	fmmiddleware "filesmanager/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Handlers 聚合路由需要的全部处理器。
type Handlers struct {
	Files    *FileHandler
	Users    *UserHandler
	App      *AppHandler
	Sessions fmmiddleware.TokenResolver
}

// NewRouter 构建 HTTP 路由，集中注册所有对外服务的端点。
func NewRouter(cfg *config.Config, logger zerolog.Logger, h Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(fmmiddleware.RequestLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(fmmiddleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(fmmiddleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
	r.Use(fmmiddleware.Metrics())

	// 健康检查不需要鉴权
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Prometheus 指标端点
	r.Handle("/metrics", promhttp.Handler())

	requireSession := fmmiddleware.RequireSession(h.Sessions)
	optionalSession := fmmiddleware.OptionalSession(h.Sessions)

	if h.App != nil {
		h.App.RegisterRoutes(r)
	}
	if h.Users != nil {
		h.Users.RegisterRoutes(r, requireSession)
	}
	if h.Files != nil {
		h.Files.RegisterRoutes(r, requireSession, optionalSession)
	}

	return r
}
