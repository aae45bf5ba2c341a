// Package handlers binds the SmartDocs services to chi routes.
package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"smartdocs-backend/internal/middleware"
	"smartdocs-backend/pkg/api"
	appErrors "smartdocs-backend/pkg/errors"

	"go.uber.org/zap"
)

// DefaultUploadLimit applies when no upload limit is configured.
const DefaultUploadLimit UploadLimit = 10 << 20

// UploadLimit is the largest accepted multipart file, in bytes.
type UploadLimit int64

func (l UploadLimit) bytes() int64 {
	if l <= 0 {
		return int64(DefaultUploadLimit)
	}
	return int64(l)
}

// handleServiceError converts service errors to appropriate HTTP responses.
func handleServiceError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	fields := []zap.Field{
		zap.String("request_id", middleware.GetRequestIDFromRequest(r)),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	}
	switch {
	case appErrors.IsValidation(err):
		logger.Debug("Validation error", fields...)
		api.Error(w, http.StatusBadRequest, appErrors.MessageOf(err))
	case appErrors.IsUnauthorized(err):
		logger.Warn("Unauthorized request", fields...)
		api.Error(w, http.StatusUnauthorized, appErrors.MessageOf(err))
	case appErrors.IsNotFound(err):
		logger.Debug("Not found", fields...)
		api.Error(w, http.StatusNotFound, appErrors.MessageOf(err))
	case appErrors.IsConflict(err):
		logger.Info("Conflict", fields...)
		api.Error(w, http.StatusConflict, appErrors.MessageOf(err))
	case appErrors.IsUnavailable(err), isTimeoutError(err):
		logger.Warn("Dependency unavailable", fields...)
		api.Error(w, http.StatusServiceUnavailable, "Service temporarily unavailable")
	default:
		// Full details stay in the log; clients get a generic message.
		logger.Error("Internal error", fields...)
		api.Error(w, http.StatusInternalServerError, "An internal error occurred")
	}
}

// isTimeoutError checks if the error is related to timeouts.
func isTimeoutError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "timeout") || strings.Contains(errStr, "i/o timeout")
}

// decode reads a JSON body, writing a 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := api.Decode(r, dst); err != nil {
		api.Error(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// formFile reads one multipart file field of at most limit bytes.
func formFile(w http.ResponseWriter, r *http.Request, field string, limit UploadLimit) (string, []byte, error) {
	maxBytes := limit.bytes()
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+1<<20)
	if err := r.ParseMultipartForm(maxMemoryBytes(maxBytes)); err != nil {
		return "", nil, appErrors.NewValidation("invalid multipart form: " + err.Error())
	}
	file, header, err := r.FormFile(field)
	if err != nil {
		return "", nil, appErrors.NewValidation("No file provided")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return "", nil, appErrors.NewValidation("could not read uploaded file")
	}
	if int64(len(data)) > maxBytes {
		return "", nil, appErrors.NewValidation("file exceeds the maximum upload size")
	}
	return header.Filename, data, nil
}

// maxMemoryBytes caps the in-memory part of a multipart form; the rest
// spills to temporary files.
func maxMemoryBytes(limit int64) int64 {
	return min(limit, int64(DefaultUploadLimit))
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, appErrors.NewValidation(name + " must be a non-negative integer")
	}
	return n, nil
}

func nopIfNil(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
