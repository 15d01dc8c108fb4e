package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/bidops-platform/api/internal/audit"
	"github.com/bidops-platform/api/internal/db"
	"github.com/bidops-platform/api/internal/importer"
	"github.com/bidops-platform/api/internal/store/memory"
	"github.com/bidops-platform/api/internal/store/postgres"
	"github.com/bidops-platform/api/internal/store/sqlite"
)

// Backend is everything the server needs from persistence.
type Backend interface {
	importer.Store
	audit.Writer
	List(ctx context.Context, kind importer.Kind) ([]importer.Record, error)
	Ping(ctx context.Context) error
	Close() error
}

var (
	_ Backend = (*memory.Store)(nil)
	_ Backend = (*postgres.Store)(nil)
	_ Backend = (*sqlite.Store)(nil)
)

// Open selects a backend from the URL scheme: postgres:// or postgresql://,
// sqlite://<path>, or memory://.
func Open(ctx context.Context, databaseURL string) (Backend, error) {
	scheme, rest, ok := strings.Cut(databaseURL, "://")
	if !ok {
		return nil, fmt.Errorf("database url %q has no scheme", databaseURL)
	}

	switch strings.ToLower(scheme) {
	case "postgres", "postgresql":
		pool, err := db.Connect(ctx, databaseURL)
		if err != nil {
			return nil, err
		}
		return postgres.New(pool), nil
	case "sqlite":
		if rest == "" {
			return nil, fmt.Errorf("sqlite url needs a file path")
		}
		return sqlite.Open(ctx, rest)
	case "memory":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported database scheme %q", scheme)
	}
}

// Dialect reports the migration dialect for databaseURL, or "" when the
// backend has no schema.
func Dialect(databaseURL string) string {
	scheme, _, _ := strings.Cut(databaseURL, "://")
	switch strings.ToLower(scheme) {
	case "postgres", "postgresql":
		return "postgres"
	case "sqlite":
		return "sqlite"
	}
	return ""
}
