package main

// Run database migrations:
//   go run ./cmd/migrate up

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"docdash-backend/internal/shared/config"
	"docdash-backend/internal/shared/storage/db"
	"docdash-backend/internal/shared/telemetry"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		telemetry.Error("migrate.failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the documents database schema",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		dbCommand("up", "Apply all pending migrations", func(ctx context.Context, sqlDB *sql.DB) error {
			return db.RunMigrations(ctx, sqlDB)
		}),
		dbCommand("down", "Roll back the most recent migration", func(ctx context.Context, sqlDB *sql.DB) error {
			return db.RollbackMigration(ctx, sqlDB)
		}),
		dbCommand("status", "Print applied and pending migrations", func(ctx context.Context, sqlDB *sql.DB) error {
			return db.MigrationStatus(ctx, sqlDB)
		}),
		dbCommand("version", "Print the current schema version", func(ctx context.Context, sqlDB *sql.DB) error {
			v, err := db.SchemaVersion(ctx, sqlDB)
			if err != nil {
				return err
			}
			fmt.Println(v)
			return nil
		}),
	)
	return root
}

func dbCommand(use, short string, fn func(context.Context, *sql.DB) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required")
			}
			ctx := cmd.Context()
			sqlDB, err := db.Open(ctx, cfg.DatabaseURL, db.ProfileMigrate)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer sqlDB.Close()
			return fn(ctx, sqlDB)
		},
	}
}
