package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver

	"github.com/phrazzld/vocab-api/internal/config"
	"github.com/phrazzld/vocab-api/internal/platform/postgres"
)

// openDatabase connects to Postgres and configures the connection pool.
func openDatabase(cfg *config.Config, logger *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		closeDatabase(db, logger)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established")
	return db, nil
}

func closeDatabase(db *sql.DB, logger *slog.Logger) {
	if err := db.Close(); err != nil {
		logger.Error("error closing database connection", "error", err)
	}
}

// runMigrations executes the requested migration command and returns.
func runMigrations(db *sql.DB, command string, logger *slog.Logger) error {
	logger.Info("running migrations", slog.String("command", command))

	switch command {
	case "up":
		return postgres.MigrateUp(db)
	case "down":
		return postgres.MigrateDown(db)
	case "status":
		return postgres.MigrationStatus(db)
	default:
		return fmt.Errorf("unknown migration command %q (want up, down or status)", command)
	}
}
