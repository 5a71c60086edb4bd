package main

// Run database migrations:
//   go run ./cmd/migrate          apply pending migrations
//   go run ./cmd/migrate status   print migration status

import (
	"context"
	"log"
	"os"

	"vetted-backend/internal/shared/config"
	"vetted-backend/internal/shared/storage/db"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}
	ctx := context.Background()

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultMigrateOptions()))
	if err != nil {
		log.Printf("failed to connect database: %v", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	run := db.RunMigrations
	if len(os.Args) > 1 && os.Args[1] == "status" {
		run = db.MigrationStatus
	}
	if err := run(ctx, sqlDB); err != nil {
		log.Printf("migrate: %v", err)
		os.Exit(1)
	}
}
