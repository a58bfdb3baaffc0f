// Package handler provides HTTP request handlers for Larder.
package handler

import (
	"encoding/json"
	"time"

	"github.com/larderhq/larder-go/internal/core/service"
)

// Response is the standard API response envelope.
// All JSON responses use this format (except /metrics which uses Prometheus format).
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
	Details   any    `json:"details,omitempty"` // Additional error details
}

// NewResponse creates a success response.
func NewResponse(requestID string, data any) *Response {
	return &Response{
		Code:      "OK",
		Message:   "Success",
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(requestID, code, message string, details any) *Response {
	return &Response{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Details:   details,
	}
}

// ExportRequest is the request body for POST /tenants/{tenant_id}/backups/export.
// The body is optional; an absent label falls back to the tenant ID.
type ExportRequest struct {
	TenantLabel string `json:"tenant_label,omitempty"`
}

// ImportRequest is the request body for POST /tenants/{tenant_id}/backups/import.
// The snapshot is kept raw so malformed collections surface through
// validation instead of failing the decode.
type ImportRequest struct {
	Mode     string          `json:"mode,omitempty"`
	Snapshot json.RawMessage `json:"snapshot"`
}

// RestoreRequest is the request body for
// POST /tenants/{tenant_id}/backups/local/{backup_id}/restore.
type RestoreRequest struct {
	Mode string `json:"mode,omitempty"`
}

// BackupEntryResponse describes one cached backup without its snapshot
// payload.
type BackupEntryResponse struct {
	ID          string         `json:"id"`
	TenantID    string         `json:"tenant_id"`
	CreatedAt   time.Time      `json:"created_at"`
	RecordCount map[string]int `json:"record_count"`
}

// ListBackupsResponse is the response body for GET /tenants/{tenant_id}/backups/local.
type ListBackupsResponse struct {
	Backups []BackupEntryResponse `json:"backups"`
}

// ImportResponse is the response body for import and restore endpoints.
type ImportResponse struct {
	Mode     string         `json:"mode"`
	Imported map[string]int `json:"imported"`
	Errors   []string       `json:"errors,omitempty"`
}

func importToResponse(res *service.ImportResult) ImportResponse {
	return ImportResponse{
		Mode:     string(res.Mode),
		Imported: res.Imported,
		Errors:   res.Errors,
	}
}

func entryToResponse(e *service.BackupEntry) BackupEntryResponse {
	resp := BackupEntryResponse{
		ID:          e.ID,
		TenantID:    e.TenantID,
		CreatedAt:   e.CreatedAt,
		RecordCount: map[string]int{},
	}
	if e.Snapshot != nil {
		for name, records := range e.Snapshot.Collections {
			resp.RecordCount[name] = len(records)
		}
	}
	return resp
}
