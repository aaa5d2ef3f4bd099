// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Penwright Contributors

// Package web serves the blog over HTTP.
//
// Views answer with JSON documents. Form submissions answer with 303
// redirects and leave one-shot flash notices in a signed cookie, which the
// next view returns and clears.
package web

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/penwright/penwright/internal/auth"
	"github.com/penwright/penwright/internal/blog"
	"github.com/penwright/penwright/internal/directory"
	"github.com/penwright/penwright/internal/observability"
)

// AuthService is the part of auth.Service the handlers use.
type AuthService interface {
	Register(ctx context.Context, in auth.RegisterInput, client auth.ClientInfo) (*auth.LoginResult, error)
	Login(ctx context.Context, email, password string, client auth.ClientInfo) (*auth.LoginResult, error)
	Logout(ctx context.Context, sessionID ulid.ULID) error
	Authenticate(ctx context.Context, token string) (*auth.Identity, error)
}

// BlogService is the part of blog.Service the handlers use.
type BlogService interface {
	ListPosts(ctx context.Context) ([]*blog.Post, error)
	GetPost(ctx context.Context, id int64) (*blog.Post, error)
	CreatePost(ctx context.Context, in blog.PostInput) (*blog.Post, error)
	EditPost(ctx context.Context, id int64, in blog.PostInput) (*blog.Post, error)
	DeletePost(ctx context.Context, id int64) error
	AddComment(ctx context.Context, postID int64, text string) (*blog.Comment, error)
	ListComments(ctx context.Context, postID int64) ([]*blog.Comment, error)
}

// DirectoryService is the part of directory.Service the handlers use.
type DirectoryService interface {
	ListUsers(ctx context.Context) ([]*auth.User, error)
	PurgeAllUsers(ctx context.Context) (int, error)
}

var (
	_ AuthService      = (*auth.Service)(nil)
	_ BlogService      = (*blog.Service)(nil)
	_ DirectoryService = (*directory.Service)(nil)
)

// Config holds dependencies for Server.
type Config struct {
	// Addr is the "host:port" listen address used by Start.
	Addr string
	// SecretKey signs flash cookies. At least 16 bytes.
	SecretKey []byte
	// SecureCookies sets the Secure attribute on every cookie.
	SecureCookies bool

	Auth      AuthService
	Blog      BlogService
	Directory DirectoryService

	// Metrics records request counts and latency. Nil disables recording.
	Metrics *observability.Metrics
	Logger  *slog.Logger
}

// Server is the blog HTTP server.
type Server struct {
	addr      string
	secure    bool
	auth      AuthService
	blog      BlogService
	directory DirectoryService
	metrics   *observability.Metrics
	logger    *slog.Logger
	flashes   *securecookie.SecureCookie
	handler   http.Handler

	listener   net.Listener
	httpServer *http.Server
	running    atomic.Bool
}

// NewServer creates a Server, validating required dependencies.
func NewServer(cfg Config) (*Server, error) {
	switch {
	case cfg.Auth == nil:
		return nil, oops.Code("WEB_INVALID_CONFIG").Errorf("auth service is required")
	case cfg.Blog == nil:
		return nil, oops.Code("WEB_INVALID_CONFIG").Errorf("blog service is required")
	case cfg.Directory == nil:
		return nil, oops.Code("WEB_INVALID_CONFIG").Errorf("directory service is required")
	case len(cfg.SecretKey) < 16:
		return nil, oops.Code("WEB_INVALID_CONFIG").Errorf("secret key must be at least 16 bytes")
	}

	s := &Server{
		addr:      cfg.Addr,
		secure:    cfg.SecureCookies,
		auth:      cfg.Auth,
		blog:      cfg.Blog,
		directory: cfg.Directory,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
		flashes:   newFlashCodec(cfg.SecretKey),
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.handler = s.middleware(s.routes())
	return s, nil
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start begins serving on the configured address.
// The returned channel receives any error from the HTTP server after it
// starts, and is closed when the server stops.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Code("WEB_RUNNING").Errorf("web server already running")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.Code("WEB_LISTEN_FAILED").With("addr", s.addr).Wrap(err)
	}
	s.listener = listener

	httpSrv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}
	s.httpServer = httpSrv

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if serveErr := httpSrv.Serve(listener); serveErr != nil && serveErr != http.ErrServerClosed {
			s.logger.Error("web server error", "error", serveErr)
			errCh <- serveErr
		}
	}()

	s.logger.Info("web server started", "addr", listener.Addr().String())
	return errCh, nil
}

// Stop gracefully shuts down the server, waiting for in-flight requests.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.running.Store(true)
			return oops.With("operation", "shutdown_web_server").Wrap(err)
		}
	}
	s.logger.Info("web server stopped")
	return nil
}

// Addr returns the listening address, or "" if not running.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}
