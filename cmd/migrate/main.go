package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"

	"github.com/bidops-platform/api/internal/migrations"
	"github.com/bidops-platform/api/internal/store"
)

func main() {
	_ = godotenv.Load()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	var driver, dsn string
	dialect := store.Dialect(databaseURL)
	switch dialect {
	case migrations.DialectPostgres:
		driver, dsn = "pgx", databaseURL
	case migrations.DialectSQLite:
		_, dsn, _ = strings.Cut(databaseURL, "://")
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			log.Fatalf("create database dir: %v", err)
		}
		driver = "sqlite"
	default:
		log.Fatalf("DATABASE_URL %q has no migrations", databaseURL)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	applied, err := migrations.Up(context.Background(), db, dialect)
	if err != nil {
		log.Fatalf("migrate: %v", err)
	}
	if len(applied) == 0 {
		log.Print("database is up to date")
		return
	}
	log.Printf("applied migrations %v", applied)
}
