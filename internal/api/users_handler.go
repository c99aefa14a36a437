package api

import (
	"net/http"

	"filesmanager/internal/middleware"
	"filesmanager/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// UserHandler 提供注册与会话端点。
type UserHandler struct {
	service *service.UserService
	logger  zerolog.Logger
}

func NewUserHandler(s *service.UserService, logger zerolog.Logger) *UserHandler {
	return &UserHandler{
		service: s,
		logger:  logger.With().Str("component", "user_handler").Logger(),
	}
}

// RegisterRoutes 注册用户相关路由。
func (h *UserHandler) RegisterRoutes(r chi.Router, requireSession func(http.Handler) http.Handler) {
	r.Post("/users", h.CreateUser)
	r.Get("/connect", h.Connect)
	r.Group(func(r chi.Router) {
		r.Use(requireSession)
		r.Get("/disconnect", h.Disconnect)
		r.Get("/users/me", h.Me)
	})
}

type createUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreateUser 注册新用户。
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if r.Body != nil {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}
	}

	user, err := h.service.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// Connect 通过 Basic 认证签发会话 token。
func (h *UserHandler) Connect(w http.ResponseWriter, r *http.Request) {
	email, password, ok := r.BasicAuth()
	if !ok {
		writeServiceError(w, r, h.logger, service.ErrUnauthorized)
		return
	}

	token, err := h.service.Connect(r.Context(), email, password)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// Disconnect 撤销当前会话。
func (h *UserHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Disconnect(r.Context(), middleware.SessionToken(r)); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me 返回当前用户。
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.Me(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
