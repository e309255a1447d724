/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool sizing for the report service. Report generation holds a connection
// only while loading a registration, so the pool stays small.
const (
	maxConns = 10
	minConns = 1
)

var pool *pgxpool.Pool

// databaseURL returns the explicit URL, or DATABASE_URL when empty.
func databaseURL(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}

	if env := os.Getenv("DATABASE_URL"); env != "" {
		return env, nil
	}

	return "", ErrDatabaseURLEnvVarNotSet
}

// Init connects the shared pool. An empty url falls back to DATABASE_URL.
// The database is created when it does not exist yet.
func Init(ctx context.Context, url string) error {
	url, err := databaseURL(url)
	if err != nil {
		return err
	}

	if err := ensureDatabaseExists(ctx, url); err != nil {
		return fmt.Errorf("failed to ensure database exists: %w", err)
	}

	config, err := pgxpool.ParseConfig(url)
	if err != nil {
		return fmt.Errorf("failed to parse database URL: %w", err)
	}

	config.MaxConns = maxConns
	config.MinConns = minConns

	p, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := p.Ping(ctx); err != nil {
		p.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	pool = p
	logger.Info("Connected to database", "database", config.ConnConfig.Database, "host", config.ConnConfig.Host)

	return nil
}

// Close closes the shared pool.
func Close() {
	if pool != nil {
		pool.Close()
		pool = nil
	}
}

// ensureDatabaseExists connects to the maintenance database and creates
// the target database when missing.
func ensureDatabaseExists(ctx context.Context, url string) error {
	config, err := pgx.ParseConfig(url)
	if err != nil {
		return fmt.Errorf("failed to parse database URL: %w", err)
	}

	dbName := config.Database
	if dbName == "" {
		return ErrDatabaseNameNotSpecified
	}

	config.Database = "postgres"

	conn, err := pgx.ConnectConfig(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres database: %w", err)
	}

	defer func() {
		if err := conn.Close(ctx); err != nil {
			logger.Warn("Failed to close bootstrap database connection", "error", err)
		}
	}()

	var exists bool

	err = conn.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)", dbName).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check if database exists: %w", err)
	}

	if exists {
		return nil
	}

	// Database names cannot be bound as parameters.
	if _, err := conn.Exec(ctx, "CREATE DATABASE "+pgx.Identifier{dbName}.Sanitize()); err != nil {
		if !strings.Contains(err.Error(), "already exists") {
			return fmt.Errorf("failed to create database: %w", err)
		}
	}

	logger.Info("Created database", "database", dbName)

	return nil
}
