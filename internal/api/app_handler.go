package api

import (
	"context"
	"net/http"
	"time"

	"filesmanager/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Pinger 报告数据库连接是否可用，*sql.DB 满足该接口。
type Pinger interface {
	PingContext(ctx context.Context) error
}

// AppHandler 提供状态与统计端点。
type AppHandler struct {
	db     Pinger
	users  *service.UserService
	files  *service.FileService
	logger zerolog.Logger
}

func NewAppHandler(db Pinger, users *service.UserService, files *service.FileService, logger zerolog.Logger) *AppHandler {
	return &AppHandler{
		db:     db,
		users:  users,
		files:  files,
		logger: logger.With().Str("component", "app_handler").Logger(),
	}
}

func (h *AppHandler) RegisterRoutes(r chi.Router) {
	r.Get("/status", h.Status)
	r.Get("/stats", h.Stats)
}

// Status 报告会话存储与数据库是否可用。字段名 redis 保留为既有客户端使用的名字。
func (h *AppHandler) Status(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	dbAlive := h.db != nil && h.db.PingContext(ctx) == nil
	writeJSON(w, http.StatusOK, map[string]bool{
		"redis": h.users.SessionsAlive(),
		"db":    dbAlive,
	})
}

// Stats 返回用户数与文件数。
func (h *AppHandler) Stats(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.CountUsers(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	files, err := h.files.CountFiles(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{
		"users": users,
		"files": files,
	})
}
