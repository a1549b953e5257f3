package main

// Run database migrations:
//   go run ./cmd/migrate
//   go run ./cmd/migrate -version   # print the applied version only

import (
	"context"
	"errors"
	"flag"
	"os"

	"coverletter-backend/internal/shared/config"
	"coverletter-backend/internal/shared/storage/db"
	"coverletter-backend/internal/shared/telemetry"
)

func main() {
	versionOnly := flag.Bool("version", false, "print the applied migration version and exit")
	flag.Parse()

	cfg := config.Load()
	telemetry.Setup(cfg.Env)
	defer telemetry.Sync()

	if err := run(context.Background(), cfg.DatabaseURL, *versionOnly); err != nil {
		telemetry.Error("migrate.failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
}

var errNoDatabase = errors.New("DATABASE_URL is not set")

func run(ctx context.Context, databaseURL string, versionOnly bool) error {
	if databaseURL == "" {
		return errNoDatabase
	}
	sqlDB, err := db.Open(ctx, databaseURL, db.ProfileMigrate)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if !versionOnly {
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			return err
		}
	}
	version, err := db.MigrationVersion(ctx, sqlDB)
	if err != nil {
		return err
	}
	telemetry.Info("migrate.done", map[string]any{"version": version, "applied": !versionOnly})
	return nil
}
