package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/bidops-platform/api/internal/importer"
	"github.com/bidops-platform/api/internal/store"
)

type globalFlags struct {
	databaseURL string
	verbose     bool
}

func newRootCmd() *cobra.Command {
	_ = godotenv.Load()

	flags := &globalFlags{}
	cmd := &cobra.Command{
		Use:          "importctl",
		Short:        "Import and export bid spreadsheets without the HTTP API",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&flags.databaseURL, "database-url", os.Getenv("DATABASE_URL"), "Store URL (postgres://, sqlite://<path> or memory://)")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Log import progress to stderr")

	cmd.AddCommand(newImportCmd(flags), newExportCmd(flags), newKeygenCmd())
	return cmd
}

func (f *globalFlags) openStore(ctx context.Context) (store.Backend, error) {
	if f.databaseURL == "" {
		return nil, fmt.Errorf("--database-url or DATABASE_URL is required")
	}
	return store.Open(ctx, f.databaseURL)
}

func (f *globalFlags) logger() *slog.Logger {
	if !f.verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

func parseKindFlag(raw string) (importer.Kind, error) {
	kind, err := importer.ParseKind(raw)
	if err != nil {
		return "", fmt.Errorf("invalid --kind: %w", err)
	}
	return kind, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
