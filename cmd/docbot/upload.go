package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"

	"docbot-backend/internal/documents"
	"docbot-backend/internal/ingestion"
	"docbot-backend/internal/shared/config"
)

func uploadCMD() *cobra.Command {
	var (
		fileType string
		ingest   bool
	)
	upload := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a local file as a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if fileType == "" {
				fileType = mimetype.Detect(data).String()
			}

			cfg := config.Load()
			if ingest {
				// Ingest synchronously below rather than through the configured trigger.
				cfg.IngestMode = "event"
			}
			app, err := buildApp(cmd.Context(), cfg, true)
			if err != nil {
				return err
			}
			defer app.Close()

			doc, err := app.Documents.Upload(cmd.Context(), documents.UploadInput{
				FileName: filepath.Base(args[0]),
				FileType: fileType,
				Content:  base64.StdEncoding.EncodeToString(data),
			})
			if err != nil {
				return err
			}
			if ingest {
				if err := app.Pipeline.ProcessObject(cmd.Context(), ingestion.ObjectRef{Key: doc.StorageKey}); err != nil {
					return fmt.Errorf("ingest %s: %w", doc.ID, err)
				}
				if doc, err = app.Documents.Get(cmd.Context(), doc.ID); err != nil {
					return err
				}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(doc)
		},
	}
	upload.Flags().StringVar(&fileType, "type", "", "declared content type (default: sniffed)")
	upload.Flags().BoolVar(&ingest, "ingest", false, "run ingestion before returning")
	return upload
}
