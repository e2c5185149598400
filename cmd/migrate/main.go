package main

// Apply the action plan schema:
//   go run ./cmd/migrate

import (
	"context"
	"os"

	"actionplan-backend/internal/shared/config"
	"actionplan-backend/internal/shared/storage/db"
	"actionplan-backend/internal/shared/telemetry"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.Load()
	ctx := context.Background()

	opts := db.OptionsFromEnv(db.DefaultMigrateOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		telemetry.Error("migrate.connect_failed", map[string]any{"error": err})
		return 1
	}
	defer sqlDB.Close()

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		telemetry.Error("migrate.failed", map[string]any{"error": err})
		return 1
	}
	telemetry.Info("migrate.done", nil)
	return 0
}
