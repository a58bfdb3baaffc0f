package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// FormatVersion identifies the current snapshot model shape. Importers
// tolerate unknown values so that files written by newer versions stay
// readable; an unrecognized version is not a validation error.
const FormatVersion = "1.0.0"

// The closed set of collection names carried in a snapshot.
const (
	CollectionItems       = "items"
	CollectionResidents   = "residents"
	CollectionUsageLogs   = "usageLogs"
	CollectionCustomIcons = "customIcons"
	CollectionTags        = "tags"
)

// collectionNames is the fixed processing order for all per-collection
// operations. Export and import walk collections in this order.
var collectionNames = []string{
	CollectionItems,
	CollectionResidents,
	CollectionUsageLogs,
	CollectionCustomIcons,
	CollectionTags,
}

// CollectionNames returns the closed set of collection names in their
// fixed processing order. The returned slice must not be modified.
func CollectionNames() []string {
	return collectionNames
}

// IsKnownCollection reports whether name is one of the five collections.
func IsKnownCollection(name string) bool {
	for _, n := range collectionNames {
		if n == name {
			return true
		}
	}
	return false
}

// Snapshot is the portable, versioned representation of one tenant's
// full data set across the five known collections.
type Snapshot struct {
	FormatVersion string    `json:"formatVersion"`
	ExportedAt    time.Time `json:"exportedAt"`
	ExportedBy    Actor     `json:"exportedBy"`
	Tenant        Tenant    `json:"tenant"`

	// Collections maps collection name to its records. A snapshot built
	// by the exporter always carries exactly the five known keys; one
	// parsed from an external file may lack keys until validated.
	Collections map[string][]Record `json:"collections"`

	// Malformed records collections in an external file that were present
	// but not decodable as record sequences, keyed by collection name.
	// Never populated on exporter-built snapshots.
	Malformed map[string]string `json:"-"`
}

// NewSnapshot returns an empty snapshot for the given tenant with all
// five collections present.
func NewSnapshot(tenant Tenant, actor Actor) *Snapshot {
	s := &Snapshot{
		FormatVersion: FormatVersion,
		ExportedAt:    time.Now().UTC(),
		ExportedBy:    actor,
		Tenant:        tenant,
		Collections:   make(map[string][]Record, len(collectionNames)),
	}
	s.Normalize()
	return s
}

// Normalize ensures every known collection key is present, mapping
// absent data to an empty sequence. Unknown keys are left alone.
func (s *Snapshot) Normalize() {
	if s.Collections == nil {
		s.Collections = make(map[string][]Record, len(collectionNames))
	}
	for _, name := range collectionNames {
		if _, ok := s.Collections[name]; !ok {
			s.Collections[name] = []Record{}
		}
	}
}

// RecordCount returns the number of records in the named collection,
// zero if the collection is absent.
func (s *Snapshot) RecordCount(name string) int {
	return len(s.Collections[name])
}

// TotalRecords returns the record count across all known collections.
func (s *Snapshot) TotalRecords() int {
	total := 0
	for _, name := range collectionNames {
		total += len(s.Collections[name])
	}
	return total
}

// Clone returns a deep copy of the snapshot. Import operates on a
// clone so the caller's snapshot is never mutated.
func (s *Snapshot) Clone() *Snapshot {
	clone := &Snapshot{
		FormatVersion: s.FormatVersion,
		ExportedAt:    s.ExportedAt,
		ExportedBy:    s.ExportedBy,
		Tenant:        s.Tenant,
	}
	if s.Collections != nil {
		clone.Collections = make(map[string][]Record, len(s.Collections))
		for name, records := range s.Collections {
			cloned := make([]Record, len(records))
			for i, r := range records {
				cloned[i] = r.Clone()
			}
			clone.Collections[name] = cloned
		}
	}
	if s.Malformed != nil {
		clone.Malformed = make(map[string]string, len(s.Malformed))
		for k, v := range s.Malformed {
			clone.Malformed[k] = v
		}
	}
	return clone
}

// UnmarshalJSON decodes a candidate snapshot leniently. A known
// collection whose value is not a record sequence is recorded in
// Malformed instead of failing the whole parse, so the validator can
// accumulate per-collection errors. Unknown collection keys are
// ignored.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var raw struct {
		FormatVersion string                     `json:"formatVersion"`
		ExportedAt    time.Time                  `json:"exportedAt"`
		ExportedBy    Actor                      `json:"exportedBy"`
		Tenant        Tenant                     `json:"tenant"`
		Collections   map[string]json.RawMessage `json:"collections"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*s = Snapshot{
		FormatVersion: raw.FormatVersion,
		ExportedAt:    raw.ExportedAt,
		ExportedBy:    raw.ExportedBy,
		Tenant:        raw.Tenant,
	}
	if raw.Collections == nil {
		return nil
	}

	s.Collections = make(map[string][]Record, len(raw.Collections))
	for name, msg := range raw.Collections {
		if !IsKnownCollection(name) {
			continue
		}
		var records []Record
		if err := json.Unmarshal(msg, &records); err != nil {
			if s.Malformed == nil {
				s.Malformed = make(map[string]string)
			}
			s.Malformed[name] = fmt.Sprintf("not a record sequence: %v", err)
			continue
		}
		if records == nil {
			records = []Record{}
		}
		s.Collections[name] = records
	}
	return nil
}
