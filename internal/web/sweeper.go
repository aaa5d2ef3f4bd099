// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Penwright Contributors

package web

import (
	"context"
	"log/slog"
	"time"

	"github.com/penwright/penwright/pkg/errutil"
)

// DefaultSweepInterval is how often expired sessions are removed.
const DefaultSweepInterval = time.Hour

// SessionPurger removes expired sessions.
type SessionPurger interface {
	PurgeExpiredSessions(ctx context.Context) (int64, error)
}

// SweepSessions purges expired sessions every interval until ctx is done.
// Failures are logged and retried on the next tick.
func SweepSessions(ctx context.Context, purger SessionPurger, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if logger == nil {
		logger = slog.Default()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := purger.PurgeExpiredSessions(ctx); err != nil && ctx.Err() == nil {
				errutil.LogWarn(ctx, logger, "session sweep failed", "purge_expired_sessions", err)
			}
		}
	}
}
