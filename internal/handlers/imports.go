package handlers

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/bidops-platform/api/internal/audit"
	"github.com/bidops-platform/api/internal/httpx"
	"github.com/bidops-platform/api/internal/importer"
	"github.com/bidops-platform/api/internal/middleware"
	"github.com/bidops-platform/api/internal/spreadsheet"
)

type importRequest struct {
	Rows []any `json:"rows"`
}

type importSource struct {
	kind       string
	filename   string
	fileSHA256 string
}

func (s *Server) PostImportsKind(w http.ResponseWriter, r *http.Request, rawKind string) {
	kind, ok := s.parseKind(w, r, rawKind)
	if !ok {
		return
	}

	var req importRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpx.WriteError(w, r, http.StatusRequestEntityTooLarge, httpx.CodePayloadTooLarge, "Request body is too large", nil)
			return
		}
		httpx.WriteError(w, r, http.StatusBadRequest, httpx.CodeInvalidBody, "Malformed JSON body", nil)
		return
	}

	s.runImport(w, r, kind, req.Rows, importSource{kind: "json"})
}

func (s *Server) PostImportsKindUpload(w http.ResponseWriter, r *http.Request, rawKind string) {
	kind, ok := s.parseKind(w, r, rawKind)
	if !ok {
		return
	}

	if !strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "multipart/form-data") {
		httpx.WriteError(w, r, http.StatusBadRequest, httpx.CodeInvalidContentType, "Content-Type must be multipart/form-data", nil)
		return
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpx.WriteError(w, r, http.StatusRequestEntityTooLarge, httpx.CodePayloadTooLarge, "Upload is too large", nil)
			return
		}
		httpx.WriteError(w, r, http.StatusBadRequest, httpx.CodeInvalidMultipart, "Failed to parse multipart form", nil)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, httpx.CodeMissingFile, "file is required", nil)
		return
	}
	defer file.Close()

	payload, err := io.ReadAll(file)
	if err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, httpx.CodeInvalidFile, "Failed to read uploaded file", nil)
		return
	}
	sum := sha256.Sum256(payload)

	rows, err := spreadsheet.Read(bytes.NewReader(payload), header.Filename)
	if err != nil {
		code := httpx.CodeInvalidFile
		if errors.Is(err, spreadsheet.ErrUnsupportedFormat) {
			code = httpx.CodeUnsupportedFile
		}
		httpx.WriteError(w, r, http.StatusBadRequest, code, err.Error(), nil)
		return
	}

	s.runImport(w, r, kind, rows, importSource{
		kind:       "upload",
		filename:   header.Filename,
		fileSHA256: hex.EncodeToString(sum[:]),
	})
}

func (s *Server) runImport(w http.ResponseWriter, r *http.Request, kind importer.Kind, rows []any, src importSource) {
	res, err := s.Importer.Import(r.Context(), kind, rows)
	if err != nil {
		switch {
		case errors.Is(err, importer.ErrEmptyBatch):
			httpx.WriteError(w, r, http.StatusBadRequest, httpx.CodeEmptyBatch, "No rows provided", nil)
		case errors.Is(err, importer.ErrTooManyRows):
			httpx.WriteError(w, r, http.StatusBadRequest, httpx.CodeTooManyRows, err.Error(), map[string]any{
				"maxRows": s.Config.ImportMaxRows,
				"rows":    len(rows),
			})
		case errors.Is(err, importer.ErrUnknownKind):
			httpx.WriteError(w, r, http.StatusNotFound, httpx.CodeUnknownKind, err.Error(), nil)
		default:
			s.Logger.Error("import_failed", "kind", kind, "error", err)
			httpx.WriteError(w, r, http.StatusInternalServerError, httpx.CodeInternal, "Import failed", nil)
		}
		return
	}

	metadata := map[string]any{
		"source":       src.kind,
		"count":        res.Count,
		"newCount":     res.NewCount,
		"updatedCount": res.UpdatedCount,
		"failedCount":  res.FailedCount,
		"messages":     len(res.Errors),
	}
	if src.filename != "" {
		metadata["filename"] = src.filename
		metadata["fileSha256"] = src.fileSHA256
	}
	if err := s.Audit.Log(r.Context(), audit.Entry{
		Action:     "import.completed",
		EntityType: string(kind),
		Actor:      middleware.APIKeyIDFromContext(r.Context()),
		RequestID:  middleware.RequestIDFromContext(r.Context()),
		Metadata:   metadata,
	}); err != nil {
		s.Logger.Warn("audit_log_failed", "action", "import.completed", "error", err)
	}

	httpx.WriteJSON(w, http.StatusOK, res)
}

func (s *Server) parseKind(w http.ResponseWriter, r *http.Request, raw string) (importer.Kind, bool) {
	kind, err := importer.ParseKind(raw)
	if err != nil {
		httpx.WriteError(w, r, http.StatusNotFound, httpx.CodeUnknownKind, err.Error(), map[string]any{
			"supported": supportedKinds(),
		})
		return "", false
	}
	return kind, true
}

func supportedKinds() []string {
	out := make([]string, 0, len(importer.Kinds))
	for _, k := range importer.Kinds {
		out = append(out, k.Slug())
	}
	return out
}
