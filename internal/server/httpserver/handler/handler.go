// Package handler provides HTTP request handlers for Larder.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/larderhq/larder-go/internal/core/domain"
	"github.com/larderhq/larder-go/internal/core/service"
	"github.com/larderhq/larder-go/internal/telemetry/metric"
)

// Handler is the main HTTP handler that routes requests to appropriate handlers.
type Handler struct {
	backup  *service.BackupService
	logger  *slog.Logger
	metrics *metric.Metrics
	mux     *http.ServeMux
}

// New creates a new Handler with the given service.
func New(backup *service.BackupService, logger *slog.Logger, metrics *metric.Metrics) *Handler {
	h := &Handler{
		backup:  backup,
		logger:  logger,
		metrics: metrics,
		mux:     http.NewServeMux(),
	}

	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// registerRoutes registers all HTTP routes.
func (h *Handler) registerRoutes() {
	// Health endpoints
	h.route("GET /health", h.handleHealth)
	h.route("GET /ready", h.handleReady)

	// Snapshot endpoints
	h.route("POST /tenants/{tenant_id}/backups/export", h.handleExport)
	h.route("POST /tenants/{tenant_id}/backups/validate", h.handleValidate)
	h.route("POST /tenants/{tenant_id}/backups/import", h.handleImport)

	// Local backup cache endpoints
	h.route("POST /tenants/{tenant_id}/backups/local", h.handleSaveBackup)
	h.route("GET /tenants/{tenant_id}/backups/local", h.handleListBackups)
	h.route("POST /tenants/{tenant_id}/backups/local/{backup_id}/restore", h.handleRestoreBackup)
}

// route registers a pattern and wraps the handler with per-route
// instrumentation.
func (h *Handler) route(pattern string, fn http.HandlerFunc) {
	h.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		fn(wrapped, r)

		h.metrics.ObserveHTTP(r.Method, pattern, wrapped.status, time.Since(start))
	})
}

// statusWriter captures the response status code for instrumentation.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// writeJSON writes a JSON response with standard envelope format.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	requestID := getRequestID(r)
	response := NewResponse(requestID, data)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Request-ID", requestID)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// writeError writes an error response with standard envelope format.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, details any) {
	requestID := getRequestID(r)
	response := NewErrorResponse(requestID, code, message, details)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", code)
	w.Header().Set("X-Request-ID", requestID)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

// getRequestID extracts request ID from the header set by middleware.
func getRequestID(r *http.Request) string {
	return r.Header.Get("X-Request-ID")
}

// actorFromRequest builds the acting identity from audit headers.
func actorFromRequest(r *http.Request) domain.Actor {
	return domain.Actor{
		ID:    r.Header.Get("X-Actor-Id"),
		Label: r.Header.Get("X-Actor-Label"),
	}
}

// handleServiceError converts service errors to HTTP responses.
func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if domain.IsDomainError(err, "") {
		code := domain.GetErrorCode(err)
		status := errorCodeToHTTPStatus(code)
		h.writeError(w, r, status, code, err.Error(), nil)
		return
	}

	// Generic internal error
	h.logger.Error("internal error", "error", err)
	h.writeError(w, r, http.StatusInternalServerError, "LD-SYS-5000", "internal server error", nil)
}

// errorCodeToHTTPStatus maps error codes to HTTP status codes.
func errorCodeToHTTPStatus(code string) int {
	switch {
	case code == "LD-SNAP-4000":
		return http.StatusBadRequest
	case code == "LD-SNAP-4001":
		return http.StatusUnprocessableEntity
	case strings.HasSuffix(code, "-4040"):
		return http.StatusNotFound
	case strings.HasSuffix(code, "-4030"):
		return http.StatusForbidden
	case strings.HasSuffix(code, "-4290"):
		return http.StatusTooManyRequests
	case strings.HasPrefix(code, "LD-ARG-"):
		return http.StatusBadRequest
	case strings.HasPrefix(code, "LD-SYS-5"):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
