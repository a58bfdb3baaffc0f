// Package httpserver provides the HTTP/HTTPS server for Larder.
package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/larderhq/larder-go/internal/core/service"
	"github.com/larderhq/larder-go/internal/server/httpserver/handler"
	"github.com/larderhq/larder-go/internal/telemetry/metric"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// BackupService handles export, validation, import, and the local
	// backup cache.
	BackupService *service.BackupService

	// Logger for request logging.
	Logger *slog.Logger

	// Metrics collects request and backup instrumentation. Nil disables
	// the /metrics endpoint.
	Metrics *metric.Metrics

	// RateLimitRPS caps sustained requests per second. Zero disables
	// rate limiting.
	RateLimitRPS   float64
	RateLimitBurst int
}

// NewRouter creates and configures the HTTP router with all routes and
// middleware.
func NewRouter(cfg *RouterConfig) http.Handler {
	h := handler.New(cfg.BackupService, cfg.Logger, cfg.Metrics)

	// Order: Recover -> RequestID -> RateLimit -> RequestLog -> Handler
	middlewares := []Middleware{
		Recover(cfg.Logger),
		RequestID(),
	}
	if cfg.RateLimitRPS > 0 {
		middlewares = append(middlewares, RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
	}
	middlewares = append(middlewares, RequestLog(cfg.Logger))

	apiHandler := Chain(h, middlewares...)

	mux := http.NewServeMux()

	// Health endpoints bypass rate limiting so probes stay reliable.
	probeHandler := Chain(h, Recover(cfg.Logger), RequestID())
	mux.Handle("GET /health", probeHandler)
	mux.Handle("GET /ready", probeHandler)

	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", Chain(cfg.Metrics.Handler(), Recover(cfg.Logger)))
	}

	// Backup API endpoints
	mux.Handle("POST /tenants/{tenant_id}/backups/export", apiHandler)
	mux.Handle("POST /tenants/{tenant_id}/backups/validate", apiHandler)
	mux.Handle("POST /tenants/{tenant_id}/backups/import", apiHandler)

	// Local backup cache endpoints
	mux.Handle("POST /tenants/{tenant_id}/backups/local", apiHandler)
	mux.Handle("GET /tenants/{tenant_id}/backups/local", apiHandler)
	mux.Handle("POST /tenants/{tenant_id}/backups/local/{backup_id}/restore", apiHandler)

	return mux
}
