package main

import (
	"log"

	"docbot-backend/internal/bootstrap"
	"docbot-backend/internal/shared/config"
	"docbot-backend/internal/shared/server"
)

func main() {
	cfg := config.Load()
	app, err := bootstrap.Build(cfg)
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}
	defer app.Close()

	addr := server.Addr(cfg.Port)
	log.Printf("Starting API server on %s (store=%s llm=%s ingest=%s)", addr, cfg.ObjectStoreType, cfg.LLMProvider, cfg.IngestMode)

	if err := app.Router.Run(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
