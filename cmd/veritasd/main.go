package main

import (
	"log"

	"veritas/internal/config"
	"veritas/internal/infra/db"
	httpinfra "veritas/internal/infra/http"
)

func main() {
	cfg := config.FromEnv()

	store, err := db.NewStore(cfg)
	if err != nil {
		log.Fatalf("failed to init store: %v", err)
	}
	if store.DB != nil {
		if err := store.AutoMigrate(); err != nil {
			log.Fatalf("failed to migrate: %v", err)
		}
	}

	srv := httpinfra.NewServer(cfg, store)
	if err := srv.Run(); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
