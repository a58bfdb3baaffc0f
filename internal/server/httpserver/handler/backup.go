// Package handler provides HTTP request handlers for Larder.
package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/larderhq/larder-go/internal/core/domain"
	"github.com/larderhq/larder-go/internal/core/service"
)

// handleExport handles POST /tenants/{tenant_id}/backups/export.
//
// The response data is the full snapshot for the tenant.
func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	tenantID := r.PathValue("tenant_id")

	var req ExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.writeError(w, r, http.StatusBadRequest, "LD-SYS-4000", "invalid request body", nil)
		return
	}

	label := req.TenantLabel
	if label == "" {
		label = tenantID
	}

	snap, err := h.backup.Export(r.Context(), tenantID, label, actorFromRequest(r))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, snap)
}

// handleValidate handles POST /tenants/{tenant_id}/backups/validate.
//
// The request body is a candidate snapshot. Structural defects are
// reported in the validation result, not as request errors; only a
// body that is not JSON at all is rejected outright.
func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	var snap domain.Snapshot
	if err := json.NewDecoder(r.Body).Decode(&snap); err != nil {
		h.writeError(w, r, http.StatusBadRequest, domain.ErrSnapshotMalformed.Code, "request body is not a JSON snapshot", nil)
		return
	}

	h.writeJSON(w, r, http.StatusOK, service.ValidateSnapshot(&snap))
}

// handleImport handles POST /tenants/{tenant_id}/backups/import.
//
// The snapshot is validated before any write. An invalid snapshot is
// rejected whole; a valid one may still produce a partial result when
// individual write batches fail.
func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	tenantID := r.PathValue("tenant_id")

	var req ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "LD-SYS-4000", "invalid request body", nil)
		return
	}

	mode, err := service.ParseImportMode(req.Mode)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	// A JSON null survives decoding as the literal bytes "null".
	if len(req.Snapshot) == 0 || bytes.Equal(req.Snapshot, []byte("null")) {
		h.writeError(w, r, http.StatusBadRequest, domain.ErrMissingArgument.Code, "snapshot is required", nil)
		return
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(req.Snapshot, &snap); err != nil {
		h.writeError(w, r, http.StatusBadRequest, domain.ErrSnapshotMalformed.Code, "snapshot is not valid JSON", nil)
		return
	}

	if result := service.ValidateSnapshot(&snap); !result.IsValid {
		h.writeError(w, r, http.StatusUnprocessableEntity, domain.ErrSnapshotValidation.Code,
			"snapshot validation failed", result.Errors)
		return
	}

	res, err := h.backup.Import(r.Context(), &snap, tenantID, mode)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, importToResponse(res))
}

// handleSaveBackup handles POST /tenants/{tenant_id}/backups/local.
//
// It exports the tenant's current data and saves the snapshot into the
// bounded local cache.
func (h *Handler) handleSaveBackup(w http.ResponseWriter, r *http.Request) {
	tenantID := r.PathValue("tenant_id")

	var req ExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.writeError(w, r, http.StatusBadRequest, "LD-SYS-4000", "invalid request body", nil)
		return
	}

	label := req.TenantLabel
	if label == "" {
		label = tenantID
	}

	entry, err := h.backup.SaveLocalBackup(r.Context(), tenantID, label, actorFromRequest(r))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusCreated, entryToResponse(entry))
}

// handleListBackups handles GET /tenants/{tenant_id}/backups/local.
//
// Entries are returned newest first without snapshot payloads.
func (h *Handler) handleListBackups(w http.ResponseWriter, r *http.Request) {
	tenantID := r.PathValue("tenant_id")

	entries, err := h.backup.ListLocalBackups(r.Context(), tenantID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	backups := make([]BackupEntryResponse, len(entries))
	for i, e := range entries {
		backups[i] = entryToResponse(e)
	}

	h.writeJSON(w, r, http.StatusOK, ListBackupsResponse{Backups: backups})
}

// handleRestoreBackup handles POST /tenants/{tenant_id}/backups/local/{backup_id}/restore.
func (h *Handler) handleRestoreBackup(w http.ResponseWriter, r *http.Request) {
	tenantID := r.PathValue("tenant_id")
	backupID := r.PathValue("backup_id")

	var req RestoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.writeError(w, r, http.StatusBadRequest, "LD-SYS-4000", "invalid request body", nil)
		return
	}

	mode, err := service.ParseImportMode(req.Mode)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	res, err := h.backup.RestoreLocalBackup(r.Context(), backupID, tenantID, mode)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, importToResponse(res))
}
