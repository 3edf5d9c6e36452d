package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"docbot-backend/internal/bootstrap"
	"docbot-backend/internal/shared/config"
	"docbot-backend/internal/shared/storage/db"
)

// buildApp is replaced in tests.
var buildApp = func(ctx context.Context, cfg config.Config, skipRouter bool) (*bootstrap.App, error) {
	return bootstrap.BuildWithOptions(ctx, cfg, bootstrap.Options{Profile: db.ProfileCLI, SkipRouter: skipRouter})
}

func newRootCMD() *cobra.Command {
	root := &cobra.Command{
		Use:           "docbot",
		Short:         "Document upload, ingestion and chat service",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(serveCMD(), ingestCMD(), uploadCMD(), askCMD(), migrateCMD())
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCMD().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
