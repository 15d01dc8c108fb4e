package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/bidops-platform/api/internal/audit"
	"github.com/bidops-platform/api/internal/importer"
	"github.com/bidops-platform/api/internal/spreadsheet"
)

// errHadMessages makes the process exit non-zero under --strict, after the
// result has been printed.
var errHadMessages = errors.New("import finished with warnings or failed rows")

func newImportCmd(flags *globalFlags) *cobra.Command {
	var (
		kindRaw string
		maxRows int
		workers int
		strict  bool
	)

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a .xlsx or .csv spreadsheet and print the result as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKindFlag(kindRaw)
			if err != nil {
				return err
			}

			path := args[0]
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open %s: %w", path, err)
			}
			defer f.Close()

			rows, err := spreadsheet.Read(f, filepath.Base(path))
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}

			backend, err := flags.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer backend.Close()

			imp := importer.New(backend, importer.Options{
				MaxRows:          maxRows,
				MapWorkers:       workers,
				ProbeConcurrency: workers,
				Logger:           flags.logger(),
			})
			start := time.Now()
			res, err := imp.Import(cmd.Context(), kind, rows)
			if err != nil {
				return err
			}

			if err := audit.NewLogger(backend).Log(cmd.Context(), audit.Entry{
				Action:     "import.completed",
				EntityType: string(kind),
				Actor:      "cli",
				Metadata: map[string]any{
					"source":       "cli",
					"filename":     filepath.Base(path),
					"count":        res.Count,
					"newCount":     res.NewCount,
					"updatedCount": res.UpdatedCount,
					"failedCount":  res.FailedCount,
					"durationMs":   time.Since(start).Milliseconds(),
				},
			}); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
			}

			if err := writeJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			if strict && len(res.Errors) > 0 {
				return errHadMessages
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&kindRaw, "kind", "", "available-jobs or active-bids (required)")
	cmd.Flags().IntVar(&maxRows, "max-rows", 5000, "Reject files with more data rows than this (0 disables)")
	cmd.Flags().IntVar(&workers, "workers", 4, "Concurrent mapping workers and store lookups")
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when the result carries any warning or failure")
	_ = cmd.MarkFlagRequired("kind")
	return cmd
}
