package service

import (
	"fmt"

	"github.com/larderhq/larder-go/internal/core/domain"
)

// requiredCollections must be present as record sequences for a snapshot
// to import. The remaining collections may be absent in older files.
var requiredCollections = []string{
	domain.CollectionItems,
	domain.CollectionResidents,
}

// ValidationResult reports whether a candidate snapshot can be imported,
// with every defect found and a per-collection record summary. The
// summary is computed for all known collections regardless of validity,
// so callers can show what a broken file would have contained.
type ValidationResult struct {
	IsValid bool           `json:"isValid"`
	Errors  []string       `json:"errors"`
	Summary map[string]int `json:"summary"`
}

// ValidateSnapshot checks a candidate snapshot against the import
// contract. Checks are accumulated, not short-circuited: a file missing
// both a tenant id and its items collection reports both defects.
func ValidateSnapshot(snap *domain.Snapshot) *ValidationResult {
	result := &ValidationResult{
		Errors:  []string{},
		Summary: make(map[string]int, len(domain.CollectionNames())),
	}
	if snap == nil {
		result.Errors = append(result.Errors, "snapshot is empty")
		for _, name := range domain.CollectionNames() {
			result.Summary[name] = 0
		}
		return result
	}

	if snap.FormatVersion == "" {
		result.Errors = append(result.Errors, "formatVersion is missing")
	}
	if snap.Tenant.ID == "" {
		result.Errors = append(result.Errors, "tenant.id is missing")
	}
	if snap.Collections == nil && len(snap.Malformed) == 0 {
		result.Errors = append(result.Errors, "collections is missing")
	}
	for _, name := range requiredCollections {
		if reason, ok := snap.Malformed[name]; ok {
			result.Errors = append(result.Errors, fmt.Sprintf("collection %q is invalid: %s", name, reason))
			continue
		}
		if _, ok := snap.Collections[name]; !ok {
			result.Errors = append(result.Errors, fmt.Sprintf("required collection %q is missing", name))
		}
	}
	for _, name := range domain.CollectionNames() {
		if isRequired(name) {
			continue
		}
		if reason, ok := snap.Malformed[name]; ok {
			result.Errors = append(result.Errors, fmt.Sprintf("collection %q is invalid: %s", name, reason))
		}
	}

	for _, name := range domain.CollectionNames() {
		result.Summary[name] = snap.RecordCount(name)
	}

	result.IsValid = len(result.Errors) == 0
	return result
}

func isRequired(name string) bool {
	for _, r := range requiredCollections {
		if r == name {
			return true
		}
	}
	return false
}
