// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Penwright Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/penwright/penwright/internal/access"
	"github.com/penwright/penwright/internal/auth"
	authpg "github.com/penwright/penwright/internal/auth/postgres"
	"github.com/penwright/penwright/internal/blog"
	blogpg "github.com/penwright/penwright/internal/blog/postgres"
	"github.com/penwright/penwright/internal/config"
	"github.com/penwright/penwright/internal/directory"
	"github.com/penwright/penwright/internal/logging"
	"github.com/penwright/penwright/internal/observability"
	"github.com/penwright/penwright/internal/store"
	"github.com/penwright/penwright/internal/web"
)

const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	var autoMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the blog server",
		Long: `Start the blog HTTP server, the metrics/health server and the
expired-session sweeper. Runs until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runServeWithDeps(cmd.Context(), cfg, autoMigrate, cmd, nil)
		},
	}

	config.RegisterFlags(cmd.Flags())
	cmd.Flags().BoolVar(&autoMigrate, "auto-migrate", true, "apply pending migrations before serving")

	return cmd
}

// runServeWithDeps starts the server with injectable dependencies.
// If deps is nil, default implementations are used.
func runServeWithDeps(ctx context.Context, cfg *config.Config, autoMigrate bool, cmd *cobra.Command, deps *ServeDeps) error {
	deps = deps.withDefaults()
	if ctx == nil {
		ctx = context.Background()
	}

	logger := logging.SetDefault(logging.Options{
		Service: "penwright",
		Version: version,
		Format:  cfg.LogFormat,
		Level:   cfg.LogLevel,
	})
	logger.Info("starting penwright", "config", cfg.Redacted())

	// Incoming traceparent headers continue the caller's trace.
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if autoMigrate {
		if err := migrateUp(deps, cfg.DatabaseURL); err != nil {
			return err
		}
		logger.Info("database schema up to date")
	}

	pool, err := deps.Connect(ctx, cfg.DatabaseURL, store.ConnectOptions{
		Attempts: cfg.DBConnectAttempts,
		Logger:   logger,
	})
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	defer pool.Close()
	logger.Info("connected to database")

	users := authpg.NewUserRepository(pool)
	sessions := authpg.NewSessionRepository(pool)
	posts := blogpg.NewPostRepository(pool)
	comments := blogpg.NewCommentRepository(pool)
	tx := store.NewTransactor(pool)

	authSvc, err := auth.NewService(auth.ServiceConfig{
		Users:            users,
		Sessions:         sessions,
		Hasher:           auth.NewScryptHasher(cfg.SaltLength),
		Transactor:       tx,
		Logger:           logger,
		LoginDelay:       cfg.LoginDelay,
		SessionTTL:       cfg.SessionTTL,
		BootstrapAdminID: cfg.AdminUserID,
	})
	if err != nil {
		return err //nolint:wrapcheck // already coded
	}
	blogSvc, err := blog.NewService(blog.ServiceConfig{
		Posts:         posts,
		Comments:      comments,
		Transactor:    tx,
		AccessControl: access.NewStaticPolicy(logger),
		Logger:        logger,
	})
	if err != nil {
		return err //nolint:wrapcheck // already coded
	}
	dirSvc, err := directory.NewService(directory.ServiceConfig{
		Users:      users,
		Sessions:   sessions,
		Posts:      posts,
		Comments:   comments,
		Transactor: tx,
		Logger:     logger,
	})
	if err != nil {
		return err //nolint:wrapcheck // already coded
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var ready atomic.Bool
	var obsServer ObservabilityServer
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	if cfg.MetricsAddr != "" {
		obsServer = deps.ObservabilityServerFactory(cfg.MetricsAddr, ready.Load, auth.AuthAttempts, access.Decisions)
		obsErrChan, err := obsServer.Start()
		if err != nil {
			return oops.With("operation", "start observability server").Wrap(err)
		}
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability")
		metrics = obsServer.Metrics()
		logger.Info("observability server started", "addr", obsServer.Addr())
	}

	webServer, err := deps.WebServerFactory(web.Config{
		Addr:          cfg.ListenAddr,
		SecretKey:     []byte(cfg.SecretKey),
		SecureCookies: cfg.SecureCookies,
		Auth:          authSvc,
		Blog:          blogSvc,
		Directory:     dirSvc,
		Metrics:       metrics,
		Logger:        logger,
	})
	if err != nil {
		stopObservability(obsServer)
		return err //nolint:wrapcheck // already coded
	}
	webErrChan, err := webServer.Start()
	if err != nil {
		stopObservability(obsServer)
		return oops.With("operation", "start web server").Wrap(err)
	}
	go monitorServerErrors(ctx, cancel, webErrChan, "web")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		web.SweepSessions(ctx, authSvc, web.DefaultSweepInterval, logger)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	ready.Store(true)
	cmd.Printf("Penwright listening on %s\n", webServer.Addr())
	logger.Info("penwright ready", "addr", webServer.Addr())

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig)
	case <-ctx.Done():
		logger.Info("context cancelled, shutting down")
	}

	ready.Store(false)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := webServer.Stop(shutdownCtx); err != nil {
		logger.Warn("error stopping web server", "error", err)
	}
	cancel()
	wg.Wait()
	stopObservability(obsServer)

	logger.Info("shutdown complete")
	return nil
}

func migrateUp(deps *ServeDeps, databaseURL string) error {
	m, err := deps.MigratorFactory(databaseURL)
	if err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "open migrator").Wrap(err)
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil {
			slog.Warn("error closing migrator", "error", closeErr)
		}
	}()
	if err := m.Up(); err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
	}
	return nil
}

func stopObservability(obsServer ObservabilityServer) {
	if obsServer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := obsServer.Stop(ctx); err != nil {
		slog.Warn("error stopping observability server", "error", err)
	}
}

// monitorServerErrors monitors a server's error channel and cancels the context on error.
// It exits when either an error is received, the channel is closed, or the context is cancelled.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
	}
}
