/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"

	// Register pgx with database/sql for goose migrations.
	_ "github.com/jackc/pgx/v5/stdlib"
)

const migrationsDir = "migrations"

//go:embed migrations/*.sql
var embedMigrations embed.FS

// GetEmbeddedMigrations returns the embedded migrations for the migrate
// command.
func GetEmbeddedMigrations() embed.FS {
	return embedMigrations
}

// OpenMigrationDB opens a database/sql handle configured for goose with
// the embedded migrations.
func OpenMigrationDB(url string) (*sql.DB, error) {
	url, err := databaseURL(url)
	if err != nil {
		return nil, err
	}

	sqlDB, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database for migrations: %w", err)
	}

	goose.SetBaseFS(embedMigrations)

	if err := goose.SetDialect("postgres"); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to set dialect: %w", err)
	}

	return sqlDB, nil
}

// SyncSchema runs pending migrations and refreshes the test catalog.
func SyncSchema(ctx context.Context, url string) error {
	if pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	sqlDB, err := OpenMigrationDB(url)
	if err != nil {
		return err
	}

	defer func() {
		if err := sqlDB.Close(); err != nil {
			logger.Warn("Failed to close migration connection", "error", err)
		}
	}()

	if err := goose.UpContext(ctx, sqlDB, migrationsDir); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := SyncBloodTestCatalog(ctx); err != nil {
		return fmt.Errorf("failed to sync blood test catalog: %w", err)
	}

	return nil
}
