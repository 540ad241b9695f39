package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/ideabox/pkg/binder"
	"github.com/dmitrymomot/ideabox/pkg/logger"
)

// ErrorInfo is the classified form of an error.
type ErrorInfo struct {
	StatusCode int
	Message    string
	LogLevel   slog.Level
}

func isClientError(statusCode int) bool {
	return statusCode >= http.StatusBadRequest && statusCode < http.StatusInternalServerError
}

// Classify maps err to a status and message. HTTPError wins; binder
// failures are client errors; everything else is a 500 carrying the
// error text.
func Classify(err error) ErrorInfo {
	info := ErrorInfo{
		StatusCode: http.StatusInternalServerError,
		Message:    err.Error(),
	}

	var httpErr HTTPError
	switch {
	case errors.As(err, &httpErr):
		info.StatusCode = httpErr.Code
		info.Message = httpErr.Message
	case errors.Is(err, binder.ErrUnsupportedMediaType):
		info.StatusCode = http.StatusUnsupportedMediaType
		info.Message = "Unsupported media type"
	case errors.Is(err, binder.ErrBodyTooLarge):
		info.StatusCode = http.StatusRequestEntityTooLarge
		info.Message = "Request body too large"
	case errors.Is(err, binder.ErrInvalidJSON), errors.Is(err, binder.ErrInvalidQuery):
		info.StatusCode = http.StatusBadRequest
		info.Message = "Invalid request"
	}

	info.LogLevel = slog.LevelError
	if isClientError(info.StatusCode) {
		info.LogLevel = slog.LevelWarn
	}
	return info
}

type errorBody struct {
	Error string `json:"error"`
}

// WriteError writes err as {"error": message} with the classified status.
func WriteError(w http.ResponseWriter, err error) ErrorInfo {
	info := Classify(err)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(info.StatusCode)
	_ = json.NewEncoder(w).Encode(errorBody{Error: info.Message})
	return info
}

// NewErrorHandler logs the error at warn for 4xx and error for 5xx, then
// writes the JSON error body.
func NewErrorHandler(log *slog.Logger) ErrorHandler {
	return func(ctx Context, err error) {
		LogAndWriteError(log, ctx.ResponseWriter(), ctx.Request(), err)
	}
}

// LogAndWriteError is NewErrorHandler for plain http handlers.
func LogAndWriteError(log *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	info := WriteError(w, err)
	log.LogAttrs(r.Context(), info.LogLevel, "request error",
		logger.Error(err),
		slog.Int("status_code", info.StatusCode),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		logger.Component("error_handler"),
	)
}
