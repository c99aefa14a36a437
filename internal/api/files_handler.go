package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"filesmanager/internal/middleware"
	"filesmanager/internal/repository"
	"filesmanager/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// FileHandler 提供文件元数据与内容相关的 HTTP 端点。
type FileHandler struct {
	service        *service.FileService
	logger         zerolog.Logger
	maxUploadBytes int64
}

func NewFileHandler(s *service.FileService, maxUploadBytes int64, logger zerolog.Logger) *FileHandler {
	return &FileHandler{
		service:        s,
		logger:         logger.With().Str("component", "file_handler").Logger(),
		maxUploadBytes: maxUploadBytes,
	}
}

// RegisterRoutes 注册 /files 路由。内容读取允许匿名访问，其余端点要求会话。
func (h *FileHandler) RegisterRoutes(r chi.Router, requireSession, optionalSession func(http.Handler) http.Handler) {
	r.Route("/files", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(requireSession)
			r.Get("/", h.ListFiles)
			r.Post("/", h.CreateFile)
			r.Get("/{id}", h.GetFile)
			r.Put("/{id}/publish", h.PublishFile)
			r.Put("/{id}/unpublish", h.UnpublishFile)
		})
		r.With(optionalSession).Get("/{id}/data", h.FileData)
	})
}

type createFileRequest struct {
	Name     string       `json:"name"`
	Type     string       `json:"type"`
	ParentID flexibleID   `json:"parentId"`
	IsPublic flexibleBool `json:"isPublic"`
	Data     string       `json:"data"`
}

// fileResponse 是对外的记录格式，根目录的 parentId 以数字 0 输出。
type fileResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	IsPublic  bool      `json:"isPublic"`
	ParentID  any       `json:"parentId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toFileResponse(rec *repository.FileRecord) fileResponse {
	var parent any = rec.ParentID
	if rec.ParentID == repository.RootParentID {
		parent = 0
	}
	return fileResponse{
		ID:        rec.ID,
		UserID:    rec.OwnerID,
		Name:      rec.Name,
		Type:      string(rec.Kind),
		IsPublic:  rec.IsPublic,
		ParentID:  parent,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
}

// CreateFile 接受 JSON 上传（data 为 base64）并登记文件元数据。
func (h *FileHandler) CreateFile(w http.ResponseWriter, r *http.Request) {
	if h == nil {
		writeError(w, http.StatusInternalServerError, "handler not initialized")
		return
	}
	if r.Body == nil {
		writeError(w, http.StatusBadRequest, "Missing name")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	defer r.Body.Close()

	var req createFileRequest
	if err := decodeJSON(r, &req); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			writeServiceError(w, r, h.logger, err)
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	record, err := h.service.Create(r.Context(), service.CreateFileInput{
		OwnerID:  middleware.GetUserID(r.Context()),
		Name:     strings.TrimSpace(req.Name),
		Kind:     repository.FileKind(req.Type),
		ParentID: string(req.ParentID),
		IsPublic: bool(req.IsPublic),
		Data:     req.Data,
	})
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, toFileResponse(record))
}

// GetFile 返回请求者自己的单个文件记录。
func (h *FileHandler) GetFile(w http.ResponseWriter, r *http.Request) {
	record, err := h.service.Get(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toFileResponse(record))
}

// ListFiles 按 parentId 与 page 分页返回请求者的文件。
func (h *FileHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	parentID := strings.TrimSpace(r.URL.Query().Get("parentId"))
	page := queryInt(r, "page", 0)

	records, err := h.service.List(r.Context(), middleware.GetUserID(r.Context()), parentID, page)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	out := make([]fileResponse, 0, len(records))
	for i := range records {
		out = append(out, toFileResponse(&records[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *FileHandler) PublishFile(w http.ResponseWriter, r *http.Request) {
	h.setPublic(w, r, true)
}

func (h *FileHandler) UnpublishFile(w http.ResponseWriter, r *http.Request) {
	h.setPublic(w, r, false)
}

func (h *FileHandler) setPublic(w http.ResponseWriter, r *http.Request, isPublic bool) {
	record, err := h.service.SetPublic(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "id"), isPublic)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toFileResponse(record))
}

// FileData 返回文件内容；size 指定时返回对应宽度的缩略图。
func (h *FileHandler) FileData(w http.ResponseWriter, r *http.Request) {
	size := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("size")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			writeServiceError(w, r, h.logger, service.ErrInvalidSize)
			return
		}
		size = v
	}

	content, err := h.service.ReadContent(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "id"), size)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", content.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(content.Data)))
	w.WriteHeader(http.StatusOK)
	// 客户端可能已断开，无法再写入错误响应
	_, _ = w.Write(content.Data)
}
