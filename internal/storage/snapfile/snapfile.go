// Package snapfile reads and writes snapshot files on disk.
//
// A snapshot file is the indented JSON form of a domain.Snapshot.
// Writes go through a temp file in the destination directory followed
// by a rename, so a crash mid-write never leaves a truncated file
// behind. Reads are lenient: defects surface through validation, not
// parse failures, wherever the file is close enough to decode.
package snapfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/larderhq/larder-go/internal/core/domain"
)

// Write stores the snapshot at path atomically.
func Write(path string, snap *domain.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("snapfile: snapshot is required")
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("snapfile: encode: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".snapshot-*.json.tmp")
	if err != nil {
		return fmt.Errorf("snapfile: create temp file: %w", err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("snapfile: write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("snapfile: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("snapfile: close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("snapfile: rename: %w", err)
	}
	return nil
}

// Read loads and decodes a snapshot file.
func Read(path string) (*domain.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("snapfile: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes snapshot bytes. A file that is not JSON at all fails
// with domain.ErrSnapshotMalformed; structural defects inside a
// decodable file are left for the validator to report.
func Parse(data []byte) (*domain.Snapshot, error) {
	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, domain.ErrSnapshotMalformed.WithCause(err)
	}
	return &snap, nil
}

// Filename builds the conventional snapshot file name for a tenant:
// the sanitized label, a "backup" marker, and the capture date.
//
//	My Home -> my-home-backup-2026-08-31.json
func Filename(tenantLabel string, at time.Time) string {
	label := Sanitize(tenantLabel)
	if label == "" {
		label = "household"
	}
	return fmt.Sprintf("%s-backup-%s.json", label, at.UTC().Format("2006-01-02"))
}

// Sanitize lowercases a label and collapses every run of characters
// that is unsafe in a file name into a single hyphen.
func Sanitize(label string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(label) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastHyphen = false
			continue
		}
		if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
