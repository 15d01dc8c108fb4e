package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/bidops-platform/api/internal/audit"
	"github.com/bidops-platform/api/internal/config"
	"github.com/bidops-platform/api/internal/httpx"
	"github.com/bidops-platform/api/internal/importer"
	"github.com/bidops-platform/api/internal/metrics"
	"github.com/bidops-platform/api/internal/store"
)

type Server struct {
	Config   config.Config
	Store    store.Backend
	Importer *importer.Importer
	Audit    *audit.Logger
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
	Now      func() time.Time
}

func NewServer(cfg config.Config, backend store.Backend, imp *importer.Importer, auditLogger *audit.Logger, m *metrics.Metrics, logger *slog.Logger) *Server {
	return &Server{
		Config:   cfg,
		Store:    backend,
		Importer: imp,
		Audit:    auditLogger,
		Metrics:  m,
		Logger:   logger,
		Now:      time.Now,
	}
}

func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.Store.Ping(ctx); err != nil {
		s.Logger.Error("health_check_failed", "error", err)
		httpx.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
