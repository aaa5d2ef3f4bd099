// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Penwright Contributors

package main

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/penwright/penwright/internal/observability"
	"github.com/penwright/penwright/internal/store"
	"github.com/penwright/penwright/internal/web"
)

// ServeDeps contains injectable dependencies for the serve command.
// All fields with nil values will use their default implementations.
type ServeDeps struct {
	// Connect opens the database pool.
	// Default: store.Connect
	Connect func(ctx context.Context, databaseURL string, opts store.ConnectOptions) (*pgxpool.Pool, error)

	// MigratorFactory opens a schema migrator for automatic migration.
	// Default: store.NewMigrator
	MigratorFactory func(databaseURL string) (Migrator, error)

	// ObservabilityServerFactory creates an observability server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, readinessChecker observability.ReadinessChecker, extra ...prometheus.Collector) ObservabilityServer

	// WebServerFactory creates the blog HTTP server.
	// Default: web.NewServer
	WebServerFactory func(cfg web.Config) (WebServer, error)
}

func (d *ServeDeps) withDefaults() *ServeDeps {
	if d == nil {
		d = &ServeDeps{}
	}
	if d.Connect == nil {
		d.Connect = store.Connect
	}
	if d.MigratorFactory == nil {
		d.MigratorFactory = newStoreMigrator
	}
	if d.ObservabilityServerFactory == nil {
		d.ObservabilityServerFactory = func(addr string, readinessChecker observability.ReadinessChecker, extra ...prometheus.Collector) ObservabilityServer {
			return observability.NewServer(addr, readinessChecker, extra...)
		}
	}
	if d.WebServerFactory == nil {
		d.WebServerFactory = func(cfg web.Config) (WebServer, error) {
			return web.NewServer(cfg)
		}
	}
	return d
}

// MigrateDeps contains injectable dependencies for the migrate commands.
type MigrateDeps struct {
	// DatabaseURLGetter returns the database URL.
	// Default: getDatabaseURL
	DatabaseURLGetter func() (string, error)

	// MigratorFactory opens a schema migrator.
	// Default: store.NewMigrator
	MigratorFactory func(databaseURL string) (Migrator, error)
}

func (d *MigrateDeps) withDefaults() *MigrateDeps {
	if d == nil {
		d = &MigrateDeps{}
	}
	if d.DatabaseURLGetter == nil {
		d.DatabaseURLGetter = getDatabaseURL
	}
	if d.MigratorFactory == nil {
		d.MigratorFactory = newStoreMigrator
	}
	return d
}

func newStoreMigrator(databaseURL string) (Migrator, error) {
	return store.NewMigrator(databaseURL)
}

// Migrator wraps the methods used from store.Migrator.
type Migrator interface {
	Up() error
	Steps(n int) error
	Version() (version uint, dirty bool, err error)
	Force(version int) error
	Status() (store.SchemaStatus, error)
	Close() error
}

// ObservabilityServer wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
	Metrics() *observability.Metrics
}

// WebServer wraps the methods used from web.Server.
type WebServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
}

var (
	_ Migrator            = (*store.Migrator)(nil)
	_ ObservabilityServer = (*observability.Server)(nil)
	_ WebServer           = (*web.Server)(nil)
)
