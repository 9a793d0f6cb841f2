package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/JimmyYuu29/Carta-manifestacion-PDF/internal/audit"
	"github.com/JimmyYuu29/Carta-manifestacion-PDF/internal/auth"
	"github.com/JimmyYuu29/Carta-manifestacion-PDF/internal/download"
	"github.com/JimmyYuu29/Carta-manifestacion-PDF/internal/integrity"
	"github.com/JimmyYuu29/Carta-manifestacion-PDF/internal/pipeline"
	"github.com/JimmyYuu29/Carta-manifestacion-PDF/internal/stream"
)

const displayTimeLayout = "02/01/2006 15:04:05"

type hashInfo struct {
	HashCode             string `json:"hash_code"`
	Algorithm            string `json:"algorithm"`
	CreationTimestamp    string `json:"creation_timestamp"`
	CreationTimestampISO string `json:"creation_timestamp_iso"`
	FileSize             int64  `json:"file_size"`
	ContentHash          string `json:"content_hash"`
	CombinedHash         string `json:"combined_hash"`
	UserID               string `json:"user_id"`
	ClientName           string `json:"client_name"`
}

func hashInfoFromRecord(rec integrity.Record) hashInfo {
	return hashInfo{
		HashCode:             rec.HashCode,
		Algorithm:            rec.Algorithm,
		CreationTimestamp:    rec.CreatedAt.Format(displayTimeLayout),
		CreationTimestampISO: rec.CreatedAt.Format(time.RFC3339Nano),
		FileSize:             rec.FileSize,
		ContentHash:          rec.ContentHash,
		CombinedHash:         rec.CombinedHash,
		UserID:               rec.OwnerID,
		ClientName:           rec.ClientName,
	}
}

func (a *API) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "invalid token")
		return
	}

	var req pipeline.Request
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	result, err := a.pipeline.Generate(r.Context(), req, user)
	if err != nil {
		payload := map[string]any{
			"success": false,
			"message": "Error interno al generar la carta",
		}
		if result.TraceID != "" {
			payload["trace_id"] = result.TraceID
		}
		if rid := audit.RequestIDFromContext(r.Context()); rid != "" {
			payload["request_id"] = rid
		}
		writeJSON(w, http.StatusInternalServerError, payload)
		return
	}

	if len(result.ValidationErrors) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"success":           false,
			"message":           result.Message,
			"validation_errors": result.ValidationErrors,
		})
		return
	}

	rec := result.Record
	perms := auth.CapabilitiesFor(user.Tier)

	links := map[string]string{}
	if rec.Produced(integrity.FormatPortable) {
		links["pdf"] = downloadPath(rec.TraceID, integrity.FormatPortable)
	}
	if rec.Produced(integrity.FormatEditable) && perms.DownloadEditable {
		links["docx"] = downloadPath(rec.TraceID, integrity.FormatEditable)
	}

	if a.stream != nil {
		a.stream.Publish(stream.Event{
			TraceID:    rec.TraceID,
			ClientName: rec.ClientName,
			Owner:      rec.OwnerID,
			Degraded:   result.Degraded,
			Timestamp:  time.Now().UTC(),
		})
	}

	_ = audit.LogEvent(r.Context(), "document.generate", map[string]any{
		"trace_id":    rec.TraceID,
		"client_name": rec.ClientName,
		"degraded":    result.Degraded,
		"duration_ms": result.Duration.Milliseconds(),
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"message":        result.Message,
		"trace_id":       rec.TraceID,
		"degraded":       result.Degraded,
		"duration_ms":    result.Duration.Milliseconds(),
		"hash_info":      hashInfoFromRecord(rec),
		"download_links": links,
	})
}

func downloadPath(traceID string, format integrity.Format) string {
	return fmt.Sprintf("/api/documents/download/%s/%s", traceID, format)
}

func (a *API) handleDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "invalid token")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/documents/download/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	format, ok := integrity.ParseFormat(parts[1])
	if !ok {
		writeError(w, r, http.StatusNotFound, "unknown format")
		return
	}

	handle, err := a.gate.Authorize(r.Context(), user, parts[0], format)
	if err != nil {
		handleDownloadError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "document.download", map[string]any{
		"trace_id": parts[0],
		"format":   string(format),
	})

	w.Header().Set("Content-Type", handle.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+handle.Filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(handle.Data)
}

func handleDownloadError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, download.ErrForbidden):
		writeError(w, r, http.StatusForbidden, "account tier does not allow this format")
	case errors.Is(err, download.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "document not found")
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

// handleDocumentResource serves /api/documents/{trace}/hash and
// /api/documents/{trace}/metadata.
func (a *API) handleDocumentResource(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "invalid token")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/documents/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch parts[1] {
	case "hash":
		a.getHashDetail(w, r, user, parts[0])
	case "metadata":
		a.exportMetadata(w, r, user, parts[0])
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) getHashDetail(w http.ResponseWriter, r *http.Request, user auth.User, traceID string) {
	if !auth.CapabilitiesFor(user.Tier).ViewHashDetail {
		writeError(w, r, http.StatusForbidden, "account tier does not allow hash detail")
		return
	}
	rec, err := a.registry.Lookup(r.Context(), traceID)
	if err != nil {
		handleRegistryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, hashInfoFromRecord(rec))
}

func (a *API) exportMetadata(w http.ResponseWriter, r *http.Request, user auth.User, traceID string) {
	if !auth.CapabilitiesFor(user.Tier).ExportMetadata {
		writeError(w, r, http.StatusForbidden, "account tier does not allow metadata export")
		return
	}
	rec, err := a.registry.Lookup(r.Context(), traceID)
	if err != nil {
		handleRegistryError(w, r, err)
		return
	}

	formats := make([]string, 0, len(rec.Artifacts))
	for f := range rec.Artifacts {
		formats = append(formats, string(f))
	}

	_ = audit.LogEvent(r.Context(), "document.metadata.export", map[string]any{
		"trace_id": traceID,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"record":      rec,
		"formats":     formats,
		"exported_at": time.Now().UTC().Format(time.RFC3339),
		"exported_by": user.Username,
	})
}

type metadataImportRequest struct {
	TraceID      string `json:"trace_id"`
	CombinedHash string `json:"combined_hash"`
}

// handleMetadataImport verifies an externally held hash chain against the
// registry record for its trace id.
func (a *API) handleMetadataImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "invalid token")
		return
	}
	if !auth.CapabilitiesFor(user.Tier).ImportMetadata {
		writeError(w, r, http.StatusForbidden, "account tier does not allow metadata import")
		return
	}

	var req metadataImportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	traceID := strings.TrimSpace(req.TraceID)
	if traceID == "" || strings.TrimSpace(req.CombinedHash) == "" {
		writeError(w, r, http.StatusBadRequest, "trace_id and combined_hash are required")
		return
	}

	rec, err := a.registry.Lookup(r.Context(), traceID)
	if err != nil {
		handleRegistryError(w, r, err)
		return
	}

	valid := strings.EqualFold(strings.TrimSpace(req.CombinedHash), rec.CombinedHash)

	_ = audit.LogEvent(r.Context(), "document.metadata.import", map[string]any{
		"trace_id": traceID,
		"valid":    valid,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"trace_id":  traceID,
		"valid":     valid,
		"hash_code": rec.HashCode,
		"algorithm": rec.Algorithm,
	})
}

func handleRegistryError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, integrity.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "document not found")
		return
	}
	writeError(w, r, http.StatusInternalServerError, "internal error")
}
