package database

import (
	"context"
	"fmt"

	"circle/internal/config"
	"circle/internal/middleware"

	"github.com/jackc/pgx/v5"
)

// EnsureDatabase creates cfg.DBName on the server if it does not exist yet.
// It connects to the "postgres" maintenance database because gorm cannot
// open a connection to a database that is not there.
func EnsureDatabase(ctx context.Context, cfg *config.Config) (created bool, err error) {
	if cfg.DBDriver == "sqlite" {
		return false, nil
	}

	conn, err := pgx.Connect(ctx, PostgresDSN(cfg, "postgres"))
	if err != nil {
		return false, fmt.Errorf("connect to maintenance database: %w", err)
	}
	defer conn.Close(ctx)

	var exists bool
	if err := conn.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)", cfg.DBName,
	).Scan(&exists); err != nil {
		return false, fmt.Errorf("check database %q: %w", cfg.DBName, err)
	}
	if exists {
		return false, nil
	}

	// CREATE DATABASE does not accept bind parameters
	if _, err := conn.Exec(ctx, "CREATE DATABASE "+pgx.Identifier{cfg.DBName}.Sanitize()); err != nil {
		return false, fmt.Errorf("create database %q: %w", cfg.DBName, err)
	}

	middleware.Logger.InfoContext(ctx, "database created", "name", cfg.DBName)
	return true, nil
}
