package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"docbot-backend/internal/shared/config"
	"docbot-backend/internal/shared/storage/db"
)

func migrateCMD() *cobra.Command {
	var direction string
	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if cfg.DatabaseURL == "" {
				return errors.New("DATABASE_URL is required")
			}
			ctx := cmd.Context()
			sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultOptions(db.ProfileCLI)))
			if err != nil {
				return err
			}
			defer sqlDB.Close()

			switch direction {
			case "up":
				return db.RunMigrations(ctx, sqlDB)
			case "down":
				return db.RollbackMigration(ctx, sqlDB)
			case "status":
				version, err := db.SchemaVersion(ctx, sqlDB)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", version)
				return nil
			default:
				return fmt.Errorf("unknown direction %q (want up, down or status)", direction)
			}
		},
	}
	migrate.Flags().StringVar(&direction, "direction", "up", "up, down or status")
	return migrate
}
