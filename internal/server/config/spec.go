package config

import "time"

// ServerConfig is the root configuration for larder-server.
type ServerConfig struct {
	Server   ServerSection   `koanf:"server"`
	Storage  StorageSection  `koanf:"storage"`
	Backup   BackupSection   `koanf:"backup"`
	Security SecuritySection `koanf:"security"`
	Log      LogSection      `koanf:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	HTTP HTTPConfig `koanf:"http"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr        string `koanf:"addr"`
	TLSCertFile string `koanf:"tls_cert_file"`
	TLSKeyFile  string `koanf:"tls_key_file"`

	// RateLimitRPS caps sustained requests per second per server.
	// Zero disables rate limiting.
	RateLimitRPS   float64 `koanf:"rate_limit_rps"`
	RateLimitBurst int     `koanf:"rate_limit_burst"`
}

// StorageSection configures the document store backing the server.
type StorageSection struct {
	// DataDir holds the SQLite database and the backup cache.
	DataDir string `koanf:"data_dir"`

	// Backend selects the document store: "sqlite" or "memory".
	Backend string `koanf:"backend"`
}

// BackupSection configures the backup engine.
type BackupSection struct {
	// MaxLocalBackups bounds cached snapshots per tenant.
	MaxLocalBackups int `koanf:"max_local_backups"`

	// BatchLimit is the per-batch write ceiling for imports.
	BatchLimit int `koanf:"batch_limit"`

	// AutoInitialDelay is the wait before a tenant's first automatic
	// capture after its loop starts.
	AutoInitialDelay time.Duration `koanf:"auto_initial_delay"`

	// AutoInterval is the period between automatic captures.
	AutoInterval time.Duration `koanf:"auto_interval"`

	// AutoTenants lists tenants whose automatic backup loops start
	// with the server.
	AutoTenants []string `koanf:"auto_tenants"`

	// SyncWrites forces fsync on every cache write.
	SyncWrites bool `koanf:"sync_writes"`
}

// SecuritySection configures security settings.
type SecuritySection struct {
	// EncryptionKey, hex encoded, encrypts cached snapshots at rest.
	// Empty disables encryption.
	EncryptionKey string `koanf:"encryption_key"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
