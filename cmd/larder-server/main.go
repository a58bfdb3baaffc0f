// Package main provides the entry point for larder-server.
//
// larder-server is the backup and restore service for Larder household
// inventories: snapshot export, validation, import, and a bounded local
// backup cache with automatic periodic captures.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/larderhq/larder-go/internal/core/domain"
	"github.com/larderhq/larder-go/internal/core/service"
	"github.com/larderhq/larder-go/internal/infra/buildinfo"
	"github.com/larderhq/larder-go/internal/infra/confloader"
	"github.com/larderhq/larder-go/internal/infra/shutdown"
	"github.com/larderhq/larder-go/internal/server/config"
	"github.com/larderhq/larder-go/internal/server/httpserver"
	"github.com/larderhq/larder-go/internal/storage/cache"
	"github.com/larderhq/larder-go/internal/storage/docstore"
	"github.com/larderhq/larder-go/internal/storage/memory"
	"github.com/larderhq/larder-go/internal/storage/sqlite"
	"github.com/larderhq/larder-go/internal/telemetry/logger"
	"github.com/larderhq/larder-go/internal/telemetry/metric"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Parse command line flags
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	// Show version and exit
	if *showVersion {
		fmt.Printf("larder-server %s\n", buildinfo.String())
		return nil
	}

	// Load configuration
	cfg, err := loadConfig(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Initialize logger
	log, slogLogger, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	log.Info("starting larder-server",
		"version", buildinfo.Version,
		"commit", buildinfo.Commit,
		"config", *configFile)

	metrics := metric.New()

	// Initialize the document store
	store, err := initStore(cfg)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}

	// Initialize the local backup cache
	backupCache, err := cache.New(cache.Config{
		Dir:           filepath.Join(cfg.Storage.DataDir, "backups"),
		MaxPerTenant:  cfg.Backup.MaxLocalBackups,
		SyncWrites:    cfg.Backup.SyncWrites,
		EncryptionKey: cfg.Security.EncryptionKeyBytes(),
	}, slogLogger, cache.WithMetrics(metrics))
	if err != nil {
		store.Close()
		return fmt.Errorf("init backup cache: %w", err)
	}

	// Backup service and auto-backup scheduler
	backupSvc := service.NewBackupService(store, backupCache, slogLogger,
		service.WithMetrics(metrics))

	auto := service.NewAutoBackup(backupSvc, slogLogger,
		service.WithAutoInitialDelay(cfg.Backup.AutoInitialDelay),
		service.WithAutoInterval(cfg.Backup.AutoInterval))

	serverActor := domain.Actor{ID: "larder-server", Label: "Scheduled backup"}
	for _, tenantID := range cfg.Backup.AutoTenants {
		auto.Start(tenantID, tenantID, serverActor)
	}

	// Create HTTP server
	router := httpserver.NewRouter(&httpserver.RouterConfig{
		BackupService:  backupSvc,
		Logger:         slogLogger,
		Metrics:        metrics,
		RateLimitRPS:   cfg.Server.HTTP.RateLimitRPS,
		RateLimitBurst: cfg.Server.HTTP.RateLimitBurst,
	})
	httpServer := httpserver.New(cfg.Server.HTTP.Addr, router)

	// Setup graceful shutdown
	shutdownHandler := shutdown.NewHandler(30 * time.Second)

	// Register shutdown hooks (reverse order of startup)
	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("shutting down HTTP server")
		return httpServer.Shutdown(ctx)
	})

	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("stopping auto-backup loops")
		auto.StopAll()
		return nil
	})

	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("closing backup cache")
		return backupCache.Close()
	})

	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("closing document store")
		return store.Close()
	})

	// Start HTTP server in goroutine
	go func() {
		log.Info("HTTP server listening", "addr", cfg.Server.HTTP.Addr)

		var err error
		if cfg.Server.HTTP.TLSCertFile != "" && cfg.Server.HTTP.TLSKeyFile != "" {
			err = httpServer.ListenAndServeTLS(cfg.Server.HTTP.TLSCertFile, cfg.Server.HTTP.TLSKeyFile)
		} else {
			err = httpServer.ListenAndServe()
		}

		if err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
		}
	}()

	// Wait for shutdown signal
	log.Info("server started, press Ctrl+C to stop")
	if err := shutdownHandler.Wait(); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// loadConfig loads configuration from file and environment.
func loadConfig(configFile string) (*config.ServerConfig, error) {
	// Start with defaults
	cfg := config.Default()

	// Create loader with optional config file
	opts := []confloader.Option{}
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}

	loader := confloader.NewLoader(opts...)

	// Load and unmarshal
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}

	// Validate configuration
	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// initLogger initializes the structured logger.
// Returns both the logger interface and slog.Logger for components that need it.
func initLogger(cfg *config.ServerConfig) (logger.Logger, *slog.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return nil, nil, err
	}

	// Set as default logger
	logger.SetDefault(log)

	return log, logger.ToSlog(log), nil
}

// initStore opens the configured document store backend.
func initStore(cfg *config.ServerConfig) (docstore.Store, error) {
	switch cfg.Storage.Backend {
	case "memory":
		return memory.New(memory.WithBatchLimit(cfg.Backup.BatchLimit)), nil
	default:
		path := filepath.Join(cfg.Storage.DataDir, "larder.db")
		return sqlite.Open(path, sqlite.WithBatchLimit(cfg.Backup.BatchLimit))
	}
}
