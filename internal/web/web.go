// Package web holds the HTTP plumbing shared by all handlers: JSON
// responses, error-taxonomy-to-status mapping and request logging.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"canteen-connect/internal/logger"
	"canteen-connect/internal/models"
)

// WriteJSON writes v as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// WriteError writes an error response in JSON format.
func WriteError(w http.ResponseWriter, statusCode int, message, requestID string) {
	WriteJSON(w, statusCode, map[string]interface{}{
		"error":      message,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"request_id": requestID,
	})
}

// WriteServiceError maps a service error onto the HTTP surface.
// Business rejections keep their message; anything unrecognized is an
// infrastructure failure and stays opaque to the caller.
func WriteServiceError(w http.ResponseWriter, err error, requestID string) {
	var stockErr *models.StockExceededError
	switch {
	case errors.Is(err, models.ErrInvalidInput), errors.Is(err, models.ErrUnknownItem):
		WriteError(w, http.StatusBadRequest, err.Error(), requestID)
	case errors.As(err, &stockErr):
		WriteError(w, http.StatusBadRequest, stockErr.Error(), requestID)
	case errors.Is(err, models.ErrNotFound):
		WriteError(w, http.StatusNotFound, err.Error(), requestID)
	default:
		WriteError(w, http.StatusInternalServerError, "Internal server error", requestID)
	}
}

type ctxKey string

const requestIDKey ctxKey = "request_id"

// RequestID returns the correlation id attached by WithLogging.
func RequestID(r *http.Request) string {
	if id, ok := r.Context().Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// WithLogging attaches a request id and logs request start/completion
// with status code and duration.
func WithLogging(log *logger.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := logger.GenerateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		log.Debug("request_started",
			r.Method+" "+r.URL.Path,
			requestID,
			map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"remote_addr": r.RemoteAddr,
			})

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		log.Debug("request_completed",
			r.Method+" "+r.URL.Path,
			requestID,
			map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status_code": rw.statusCode,
				"duration_ms": time.Since(start).Milliseconds(),
			})
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
