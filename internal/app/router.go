package app

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/go-chi/chi/v5"
	openapimiddleware "github.com/oapi-codegen/nethttp-middleware"

	apidoc "github.com/bidops-platform/api/api"
	"github.com/bidops-platform/api/internal/audit"
	"github.com/bidops-platform/api/internal/auth"
	"github.com/bidops-platform/api/internal/config"
	"github.com/bidops-platform/api/internal/export"
	"github.com/bidops-platform/api/internal/handlers"
	"github.com/bidops-platform/api/internal/importer"
	"github.com/bidops-platform/api/internal/metrics"
	"github.com/bidops-platform/api/internal/middleware"
	"github.com/bidops-platform/api/internal/store"
)

func init() {
	// Spreadsheet parts arrive with their own media types inside the
	// multipart upload; the validator only needs to see them as files.
	openapi3filter.RegisterBodyDecoder(export.ContentType, openapi3filter.FileBodyDecoder)
	openapi3filter.RegisterBodyDecoder("application/vnd.ms-excel", openapi3filter.FileBodyDecoder)
}

func NewRouter(cfg config.Config, backend store.Backend, m *metrics.Metrics, logger *slog.Logger) (http.Handler, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(apidoc.OpenAPI)
	if err != nil {
		return nil, fmt.Errorf("load openapi spec: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("validate openapi spec: %w", err)
	}

	var verifier *auth.Verifier
	if cfg.ImportAPIKeyHash != "" {
		verifier, err = auth.NewVerifier(cfg.ImportAPIKeyHash)
		if err != nil {
			return nil, fmt.Errorf("parse IMPORT_API_KEY_HASH: %w", err)
		}
	}

	imp := importer.New(backend, importer.Options{
		MaxRows:          cfg.ImportMaxRows,
		MapWorkers:       cfg.ImportMapWorkers,
		ProbeConcurrency: cfg.ImportProbeConcurrency,
		Logger:           logger,
		Observer:         m,
	})
	h := handlers.NewServer(cfg, backend, imp, audit.NewLogger(backend), m, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.SecurityHeaders(cfg.Env))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(middleware.LimitBodyBytesWithOverrides(cfg.APIMaxBodyBytes(), []middleware.BodyLimitOverride{
		{PathPrefix: "/imports/", MaxBytes: cfg.ImportMaxFileBytes()},
	}))

	r.Method(http.MethodGet, "/metrics", m.Handler())

	api := chi.NewRouter()
	api.Use(openapimiddleware.OapiRequestValidatorWithOptions(doc, &openapimiddleware.Options{
		SilenceServersWarning: true,
		Options: openapi3filter.Options{
			AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
		},
		ErrorHandler: middleware.ValidationErrorHandler,
	}))

	api.Group(func(public chi.Router) {
		public.Get("/health", h.GetHealth)
	})

	api.Group(func(protected chi.Router) {
		protected.Use(middleware.RequireAPIKey(verifier))

		protected.Get("/exports/{kind}", func(w http.ResponseWriter, r *http.Request) {
			h.GetExportsKind(w, r, chi.URLParam(r, "kind"))
		})

		protected.Group(func(imports chi.Router) {
			if cfg.ImportRateLimitPerMinute > 0 {
				limiter := middleware.NewIPRateLimiterWithMaxEntries(cfg.ImportRateLimitPerMinute, time.Minute, cfg.RateLimitMaxIPs)
				imports.Use(limiter.Middleware("Too many imports"))
			}
			imports.Post("/imports/{kind}", func(w http.ResponseWriter, r *http.Request) {
				h.PostImportsKind(w, r, chi.URLParam(r, "kind"))
			})
			imports.Post("/imports/{kind}/upload", func(w http.ResponseWriter, r *http.Request) {
				h.PostImportsKindUpload(w, r, chi.URLParam(r, "kind"))
			})
		})
	})

	r.Mount("/api", api)
	return r, nil
}
