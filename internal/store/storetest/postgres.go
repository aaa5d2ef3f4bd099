// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Penwright Contributors

//go:build integration

// Package storetest starts a migrated PostgreSQL container for integration tests.
package storetest

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/penwright/penwright/internal/store"
)

// Database is a running, migrated PostgreSQL instance.
type Database struct {
	URL  string
	Pool *pgxpool.Pool

	container *postgres.PostgresContainer
}

// Start runs postgres:16-alpine, applies every migration and opens a pool.
func Start(ctx context.Context) (*Database, error) {
	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("penwright_test"),
		postgres.WithUsername("penwright"),
		postgres.WithPassword("penwright"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, oops.Code("TEST_DB_START_FAILED").Wrap(err)
	}

	db := &Database{container: container}
	db.URL, err = container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		db.Close(ctx)
		return nil, oops.Code("TEST_DB_START_FAILED").Wrap(err)
	}

	migrator, err := store.NewMigrator(db.URL)
	if err != nil {
		db.Close(ctx)
		return nil, err
	}
	upErr := migrator.Up()
	_ = migrator.Close()
	if upErr != nil {
		db.Close(ctx)
		return nil, upErr
	}

	db.Pool, err = store.Connect(ctx, db.URL, store.ConnectOptions{})
	if err != nil {
		db.Close(ctx)
		return nil, err
	}
	return db, nil
}

// Truncate empties every application table and resets id sequences.
func (db *Database) Truncate(ctx context.Context) error {
	_, err := db.Pool.Exec(ctx, `TRUNCATE sessions, comments, blog_posts, users RESTART IDENTITY`)
	return err //nolint:wrapcheck // test helper
}

// Close releases the pool and terminates the container.
func (db *Database) Close(ctx context.Context) {
	if db.Pool != nil {
		db.Pool.Close()
	}
	if db.container != nil {
		_ = db.container.Terminate(ctx)
	}
}
