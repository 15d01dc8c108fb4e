package main

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/bidops-platform/api/internal/export"
)

func newExportCmd(flags *globalFlags) *cobra.Command {
	var (
		kindRaw string
		out     string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every stored record of a kind to an .xlsx workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKindFlag(kindRaw)
			if err != nil {
				return err
			}

			backend, err := flags.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer backend.Close()

			records, err := backend.List(cmd.Context(), kind)
			if err != nil {
				return fmt.Errorf("list %s: %w", kind, err)
			}

			var buf bytes.Buffer
			if err := export.Write(&buf, kind, records); err != nil {
				return err
			}
			if out == "" {
				out = export.Filename(kind, time.Now())
			}
			if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d record(s) to %s\n", len(records), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&kindRaw, "kind", "", "available-jobs or active-bids (required)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output path (default <kind>-<date>.xlsx)")
	_ = cmd.MarkFlagRequired("kind")
	return cmd
}
