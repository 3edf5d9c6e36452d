package main

import (
	"log"

	"github.com/spf13/cobra"

	"docbot-backend/internal/shared/config"
	"docbot-backend/internal/shared/server"
)

func serveCMD() *cobra.Command {
	var addr string
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			app, err := buildApp(cmd.Context(), cfg, false)
			if err != nil {
				return err
			}
			defer app.Close()
			if addr == "" {
				addr = server.Addr(cfg.Port)
			}
			log.Printf("Starting API server on %s", addr)
			return app.Router.Run(addr)
		},
	}
	serve.Flags().StringVar(&addr, "addr", "", "listen address (default from PORT)")
	return serve
}
