package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ignite/list-cleaner/internal/pkg/httputil"
	"github.com/ignite/list-cleaner/internal/pkg/logger"
	"github.com/ignite/list-cleaner/internal/service/upload"
	"github.com/ignite/list-cleaner/internal/validation"
)

// respondServiceError maps service errors to status codes. Anything not
// recognized is a 5xx whose details are logged, never returned.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, upload.ErrNotFound):
		httputil.CodedError(w, http.StatusNotFound, "not_found", "upload not found")
	case errors.Is(err, validation.ErrNoInput):
		httputil.CodedError(w, http.StatusNotFound, "no_input", "original list not found")
	case errors.Is(err, upload.ErrNotProcessed):
		httputil.CodedError(w, http.StatusConflict, "not_processed", "upload has not been processed yet")
	case errors.Is(err, upload.ErrBusy):
		httputil.CodedError(w, http.StatusConflict, "busy", "upload is already being processed")
	case errors.Is(err, validation.ErrNoStages):
		httputil.CodedError(w, http.StatusBadRequest, "no_stages", "select at least one validation stage")
	case errors.Is(err, upload.ErrInvalidScope):
		httputil.CodedError(w, http.StatusBadRequest, "invalid_scope", "scope must be one of valid, duplicates, dns, role, syntax, invalid")
	case errors.Is(err, upload.ErrEmptyName):
		httputil.BadRequest(w, err.Error())
	default:
		respondSafeError(w, http.StatusInternalServerError, err)
	}
}

// respondSafeError logs the full internal error and sends a public-safe
// message.
func respondSafeError(w http.ResponseWriter, code int, internalErr error) {
	if internalErr != nil {
		logger.Error("request failed", "status", code, "error", internalErr)
	}
	httputil.Error(w, code, safeErrorMessage(code, internalErr))
}

// safeErrorMessage maps common internal error patterns to public-safe
// messages. 4xx messages are about user input and pass through.
func safeErrorMessage(code int, internalErr error) string {
	if code < 500 {
		if internalErr != nil {
			return internalErr.Error()
		}
		return "Bad request"
	}
	if internalErr == nil {
		return "An internal error occurred"
	}

	errStr := strings.ToLower(internalErr.Error())
	switch {
	case strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "dial tcp"):
		return "Service temporarily unavailable"

	case strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded") ||
		strings.Contains(errStr, "context canceled"):
		return "Request timed out"

	case strings.Contains(errStr, "pq:") ||
		strings.Contains(errStr, "sql") ||
		strings.Contains(errStr, "database"):
		return "A database error occurred"

	case strings.Contains(errStr, "no space left") ||
		strings.Contains(errStr, "disk full"):
		return "Storage is full"

	case strings.Contains(errStr, "permission") ||
		strings.Contains(errStr, "access denied"):
		return "Access denied"

	default:
		return "An internal error occurred"
	}
}
