package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"docbot-backend/internal/ingestion"
	"docbot-backend/internal/shared/config"
)

func ingestCMD() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <objectKey>...",
		Short: "Run ingestion for stored originals",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(cmd.Context(), config.Load(), true)
			if err != nil {
				return err
			}
			defer app.Close()

			refs := make([]ingestion.ObjectRef, 0, len(args))
			for _, key := range args {
				refs = append(refs, ingestion.ObjectRef{Key: key})
			}
			if err := app.Pipeline.HandleBatch(cmd.Context(), refs); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ingested %d object(s)\n", len(refs))
			return nil
		},
	}
}
