package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"filesmanager/internal/service"

	"github.com/rs/zerolog"
)

type errorEnvelope struct {
	Error string `json:"error"`
}

// serviceErrors 将业务错误映射为 HTTP 状态码与对外消息。
var serviceErrors = []struct {
	err     error
	status  int
	message string
}{
	{service.ErrMissingName, http.StatusBadRequest, "Missing name"},
	{service.ErrMissingType, http.StatusBadRequest, "Missing type"},
	{service.ErrMissingData, http.StatusBadRequest, "Missing data"},
	{service.ErrInvalidData, http.StatusBadRequest, "Invalid data"},
	{service.ErrInvalidSize, http.StatusBadRequest, "Invalid size"},
	{service.ErrMissingEmail, http.StatusBadRequest, "Missing email"},
	{service.ErrMissingPass, http.StatusBadRequest, "Missing password"},
	{service.ErrParentNotFound, http.StatusBadRequest, "Parent not found"},
	{service.ErrParentNotAFolder, http.StatusBadRequest, "Parent is not a folder"},
	{service.ErrNotAFile, http.StatusBadRequest, "A folder doesn't have content"},
	{service.ErrAlreadyExists, http.StatusBadRequest, "Already exist"},
	{service.ErrNotFound, http.StatusNotFound, "Not found"},
	{service.ErrUnauthorized, http.StatusUnauthorized, "Unauthorized"},
}

// writeServiceError 是业务错误到 HTTP 响应的唯一映射点，未知错误记录日志并返回 500。
func writeServiceError(w http.ResponseWriter, r *http.Request, logger zerolog.Logger, err error) {
	for _, m := range serviceErrors {
		if errors.Is(err, m.err) {
			writeError(w, m.status, m.message)
			return
		}
	}

	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		writeError(w, http.StatusRequestEntityTooLarge, "Request entity too large")
		return
	}

	logger.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
	writeError(w, http.StatusInternalServerError, "Internal server error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorEnvelope{Error: message})
}
