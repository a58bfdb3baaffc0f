package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
)

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyStorage(&cfg.Storage); err != nil {
		return err
	}
	if err := verifyBackup(&cfg.Backup); err != nil {
		return err
	}
	return verifySecurity(&cfg.Security)
}

func verifyServer(cfg *ServerSection) error {
	if cfg.HTTP.Addr == "" {
		return errors.New("server.http.addr is required")
	}
	if (cfg.HTTP.TLSCertFile == "") != (cfg.HTTP.TLSKeyFile == "") {
		return errors.New("server.http: tls_cert_file and tls_key_file must be set together")
	}
	if cfg.HTTP.RateLimitRPS < 0 {
		return errors.New("server.http.rate_limit_rps must not be negative")
	}
	return nil
}

func verifyStorage(cfg *StorageSection) error {
	switch cfg.Backend {
	case "sqlite", "memory":
	default:
		return fmt.Errorf("storage.backend %q is not supported (sqlite, memory)", cfg.Backend)
	}
	if cfg.DataDir == "" {
		return errors.New("storage.data_dir is required")
	}
	if err := os.MkdirAll(cfg.DataDir, 0750); err != nil {
		return fmt.Errorf("cannot create data directory: %w", err)
	}
	return nil
}

func verifyBackup(cfg *BackupSection) error {
	if cfg.MaxLocalBackups < 1 {
		return errors.New("backup.max_local_backups must be at least 1")
	}
	if cfg.BatchLimit < 1 {
		return errors.New("backup.batch_limit must be at least 1")
	}
	if cfg.AutoInitialDelay <= 0 {
		return errors.New("backup.auto_initial_delay must be positive")
	}
	if cfg.AutoInterval <= 0 {
		return errors.New("backup.auto_interval must be positive")
	}
	return nil
}

func verifySecurity(cfg *SecuritySection) error {
	if cfg.EncryptionKey == "" {
		return nil
	}
	key, err := hex.DecodeString(cfg.EncryptionKey)
	if err != nil {
		return errors.New("security.encryption_key must be hex encoded")
	}
	switch len(key) {
	case 16, 24, 32:
		return nil
	default:
		return fmt.Errorf("security.encryption_key decodes to %d bytes, want 16, 24, or 32", len(key))
	}
}

// EncryptionKeyBytes decodes the configured encryption key. Returns nil
// when encryption is disabled. Call Verify first.
func (s *SecuritySection) EncryptionKeyBytes() []byte {
	if s.EncryptionKey == "" {
		return nil
	}
	key, err := hex.DecodeString(s.EncryptionKey)
	if err != nil {
		return nil
	}
	return key
}
