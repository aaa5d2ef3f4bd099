// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Penwright Contributors

package web

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/penwright/penwright/internal/auth"
	"github.com/penwright/penwright/pkg/errutil"
)

const sessionCookieName = "penwright_session"

// middleware wraps the router, outermost first: tracing, request id, real
// client address, request logging, panic recovery, identity loading and
// metrics. observe must sit directly above the mux to see the request the
// mux stamps with its Pattern.
func (s *Server) middleware(next http.Handler) http.Handler {
	h := s.observe(next)
	h = s.loadIdentity(h)
	h = middleware.Recoverer(h)
	h = middleware.RequestLogger(&requestLogFormatter{logger: s.logger})(h)
	h = middleware.RealIP(h)
	h = middleware.RequestID(h)
	return otelhttp.NewHandler(h, "penwright.http",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}

// requestLogFormatter writes chi request log entries through slog.
type requestLogFormatter struct {
	logger *slog.Logger
}

func (f *requestLogFormatter) NewLogEntry(r *http.Request) middleware.LogEntry {
	return &requestLogEntry{
		logger:    f.logger,
		ctx:       r.Context(),
		method:    r.Method,
		path:      r.URL.Path,
		remote:    r.RemoteAddr,
		requestID: middleware.GetReqID(r.Context()),
		route:     "unmatched",
	}
}

type requestLogEntry struct {
	logger    *slog.Logger
	ctx       context.Context
	method    string
	path      string
	remote    string
	requestID string
	// route is filled in by observe once the mux has matched.
	route string
}

func (e *requestLogEntry) Write(status, bytes int, _ http.Header, elapsed time.Duration, _ any) {
	if status == 0 {
		status = http.StatusOK
	}
	e.logger.InfoContext(e.ctx, "http request",
		"method", e.method,
		"path", e.path,
		"route", e.route,
		"status", status,
		"bytes", bytes,
		"duration_ms", elapsed.Milliseconds(),
		"remote_addr", e.remote,
		"request_id", e.requestID,
	)
}

func (e *requestLogEntry) Panic(v any, stack []byte) {
	errutil.LogErrorContext(e.ctx, e.logger, "panic serving request", fmt.Errorf("panic: %v", v),
		"method", e.method,
		"path", e.path,
		"request_id", e.requestID,
		"stack", string(stack),
	)
}

// observe records request metrics under the matched route pattern and
// hands the pattern to the request log entry.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		if entry, ok := middleware.GetLogEntry(r).(*requestLogEntry); ok {
			entry.route = route
		}
		if s.metrics != nil {
			s.metrics.ObserveRequest(r.Method, route, status, time.Since(start))
		}
	})
}

// loadIdentity resolves the session cookie into a request identity.
// Invalid or expired sessions clear the cookie and continue anonymously.
func (s *Server) loadIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}

		ident, err := s.auth.Authenticate(r.Context(), cookie.Value)
		switch {
		case err == nil:
			r = r.WithContext(auth.WithIdentity(r.Context(), ident))
		case errutil.HasCode(err, auth.CodeSessionInvalid), errutil.HasCode(err, auth.CodeSessionExpired):
			s.clearSessionCookie(w)
		default:
			errutil.LogErrorContext(r.Context(), s.logger, "session lookup failed", err)
		}
		next.ServeHTTP(w, r)
	})
}

// requireLogin redirects anonymous callers to the login form.
func (s *Server) requireLogin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if auth.IdentityFrom(r.Context()) == nil {
			s.addFlash(w, r, FlashInfo, "Please log in to access this page.")
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next(w, r)
	}
}

func (s *Server) setSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// clientInfo describes the caller. RealIP has already replaced RemoteAddr
// with the forwarded address when a proxy supplied one.
func clientInfo(r *http.Request) auth.ClientInfo {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	return auth.ClientInfo{UserAgent: r.UserAgent(), IPAddress: ip}
}
