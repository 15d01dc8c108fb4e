package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/bidops-platform/api/internal/audit"
	"github.com/bidops-platform/api/internal/export"
	"github.com/bidops-platform/api/internal/httpx"
	"github.com/bidops-platform/api/internal/middleware"
)

func (s *Server) GetExportsKind(w http.ResponseWriter, r *http.Request, rawKind string) {
	kind, ok := s.parseKind(w, r, rawKind)
	if !ok {
		return
	}

	records, err := s.Store.List(r.Context(), kind)
	if err != nil {
		s.Logger.Error("export_list_failed", "kind", kind, "error", err)
		httpx.WriteError(w, r, http.StatusInternalServerError, httpx.CodeInternal, "Failed to load records", nil)
		return
	}

	// Render fully before writing headers so a failure can still produce
	// an error envelope.
	var buf bytes.Buffer
	if err := export.Write(&buf, kind, records); err != nil {
		s.Logger.Error("export_render_failed", "kind", kind, "error", err)
		httpx.WriteError(w, r, http.StatusInternalServerError, httpx.CodeInternal, "Failed to generate export", nil)
		return
	}

	filename := export.Filename(kind, s.Now())
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)

	if s.Metrics != nil {
		s.Metrics.ObserveExport(kind)
	}
	if err := s.Audit.Log(r.Context(), audit.Entry{
		Action:     "export.download",
		EntityType: string(kind),
		Actor:      middleware.APIKeyIDFromContext(r.Context()),
		RequestID:  middleware.RequestIDFromContext(r.Context()),
		Metadata: map[string]any{
			"filename": filename,
			"records":  len(records),
		},
	}); err != nil {
		s.Logger.Warn("audit_log_failed", "action", "export.download", "error", err)
	}
}
