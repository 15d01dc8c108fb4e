package main

import (
	"github.com/spf13/cobra"

	"github.com/bidops-platform/api/internal/auth"
)

type keygenOutput struct {
	Key  string `json:"key"`
	Hash string `json:"hash"`
}

func newKeygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate an import API key and the IMPORT_API_KEY_HASH value for it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := auth.GenerateAPIKey()
			if err != nil {
				return err
			}
			hash, err := auth.HashAPIKey(key)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), keygenOutput{Key: key, Hash: hash})
		},
	}
}
