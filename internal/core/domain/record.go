package domain

import (
	"encoding/json"
	"time"
)

// Temporal field names recognized on records. These are the only fields
// converted between the store's native timestamp type and the ISO-8601
// text used in snapshot files.
const (
	FieldID        = "id"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
	FieldDate      = "date"
)

// Record is a single document in a tenant collection.
//
// The known fields are typed: ID is the tenant-unique document key and
// the three temporal fields are held natively as time.Time. Everything
// else the source application stores on a document passes through the
// open Fields map untouched. JSON marshalling flattens a Record into a
// single object with temporal fields rendered as RFC 3339 text, so the
// textual round-trip is a property of the codec rather than of the
// export/import call sites.
type Record struct {
	// ID is the document key, stable across export and import.
	ID string

	// CreatedAt, UpdatedAt and Date are the recognized temporal fields.
	// A nil pointer means the field is absent on this record.
	CreatedAt *time.Time
	UpdatedAt *time.Time
	Date      *time.Time

	// Fields holds all remaining document fields.
	Fields map[string]any
}

// Clone returns a deep copy of the record. Temporal pointers are
// duplicated; open field values are shared (they are treated as
// immutable scalars/nested scalars).
func (r Record) Clone() Record {
	clone := Record{ID: r.ID}
	clone.CreatedAt = cloneTime(r.CreatedAt)
	clone.UpdatedAt = cloneTime(r.UpdatedAt)
	clone.Date = cloneTime(r.Date)
	if r.Fields != nil {
		clone.Fields = make(map[string]any, len(r.Fields))
		for k, v := range r.Fields {
			clone.Fields[k] = v
		}
	}
	return clone
}

// Temporal returns the named temporal field, if set.
func (r Record) Temporal(name string) (time.Time, bool) {
	var t *time.Time
	switch name {
	case FieldCreatedAt:
		t = r.CreatedAt
	case FieldUpdatedAt:
		t = r.UpdatedAt
	case FieldDate:
		t = r.Date
	}
	if t == nil {
		return time.Time{}, false
	}
	return *t, true
}

// SetTemporal sets the named temporal field. Unknown names are ignored.
func (r *Record) SetTemporal(name string, t time.Time) {
	switch name {
	case FieldCreatedAt:
		r.CreatedAt = &t
	case FieldUpdatedAt:
		r.UpdatedAt = &t
	case FieldDate:
		r.Date = &t
	}
}

// MarshalJSON flattens the record into a single JSON object. Temporal
// fields are written as RFC 3339 strings in UTC.
func (r Record) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Fields)+4)
	for k, v := range r.Fields {
		out[k] = v
	}
	out[FieldID] = r.ID
	if r.CreatedAt != nil {
		out[FieldCreatedAt] = r.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	if r.UpdatedAt != nil {
		out[FieldUpdatedAt] = r.UpdatedAt.UTC().Format(time.RFC3339Nano)
	}
	if r.Date != nil {
		out[FieldDate] = r.Date.UTC().Format(time.RFC3339Nano)
	}
	return json.Marshal(out)
}

// UnmarshalJSON rebuilds a Record from a flat JSON object. Temporal
// fields that do not parse as RFC 3339 stay in the open field map so a
// foreign value is carried through rather than dropped.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = Record{Fields: make(map[string]any, len(raw))}
	for k, v := range raw {
		switch k {
		case FieldID:
			if s, ok := v.(string); ok {
				r.ID = s
				continue
			}
			r.Fields[k] = v
		case FieldCreatedAt, FieldUpdatedAt, FieldDate:
			if s, ok := v.(string); ok {
				if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
					r.SetTemporal(k, t)
					continue
				}
			}
			r.Fields[k] = v
		default:
			r.Fields[k] = v
		}
	}
	return nil
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
