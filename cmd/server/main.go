package main

import (
	"log"
	"os"

	"pong-platform/backend/internal/migrations"
)

func main() {
	cfg := LoadConfig()

	if os.Getenv("MIGRATE_ON_START") == "true" {
		log.Println("running raw SQL migrations before AutoMigrate...")
		if err := migrations.RunMigrations(cfg.DBConfig); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
	}

	server, err := NewServer(cfg)
	if err != nil {
		log.Fatalf("failed to initialize server: %v", err)
	}
	defer server.Close()

	if err := server.Run(); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
