package config

import "time"

// Default configuration values.
const (
	DefaultHTTPAddr = "127.0.0.1:7180"

	DefaultDataDir        = "/var/lib/larder-server/data"
	DefaultStorageBackend = "sqlite"

	DefaultMaxLocalBackups  = 5
	DefaultBatchLimit       = 500
	DefaultAutoInitialDelay = 1 * time.Minute
	DefaultAutoInterval     = 5 * time.Minute

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr: DefaultHTTPAddr,
			},
		},
		Storage: StorageSection{
			DataDir: DefaultDataDir,
			Backend: DefaultStorageBackend,
		},
		Backup: BackupSection{
			MaxLocalBackups:  DefaultMaxLocalBackups,
			BatchLimit:       DefaultBatchLimit,
			AutoInitialDelay: DefaultAutoInitialDelay,
			AutoInterval:     DefaultAutoInterval,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
