// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Penwright Contributors

// Package directory lists and purges registered users.
package directory

import (
	"context"
	"log/slog"

	"github.com/samber/oops"

	"github.com/penwright/penwright/internal/auth"
	"github.com/penwright/penwright/internal/blog"
)

// Transactor runs fn inside a single database transaction.
type Transactor interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ServiceConfig holds dependencies for Service.
type ServiceConfig struct {
	Users      auth.UserRepository
	Sessions   auth.SessionRepository
	Posts      blog.PostRepository
	Comments   blog.CommentRepository
	Transactor Transactor
	Logger     *slog.Logger
}

// Service exposes the user directory.
//
// Neither operation checks the caller. Both are reachable anonymously from
// the web layer.
type Service struct {
	users    auth.UserRepository
	sessions auth.SessionRepository
	posts    blog.PostRepository
	comments blog.CommentRepository
	tx       Transactor
	logger   *slog.Logger
}

// NewService creates a Service, validating required dependencies.
func NewService(cfg ServiceConfig) (*Service, error) {
	switch {
	case cfg.Users == nil:
		return nil, oops.Code("DIRECTORY_INVALID_CONFIG").Errorf("users repository is required")
	case cfg.Sessions == nil:
		return nil, oops.Code("DIRECTORY_INVALID_CONFIG").Errorf("sessions repository is required")
	case cfg.Posts == nil:
		return nil, oops.Code("DIRECTORY_INVALID_CONFIG").Errorf("posts repository is required")
	case cfg.Comments == nil:
		return nil, oops.Code("DIRECTORY_INVALID_CONFIG").Errorf("comments repository is required")
	case cfg.Transactor == nil:
		return nil, oops.Code("DIRECTORY_INVALID_CONFIG").Errorf("transactor is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		users:    cfg.Users,
		sessions: cfg.Sessions,
		posts:    cfg.Posts,
		comments: cfg.Comments,
		tx:       cfg.Transactor,
		logger:   logger,
	}, nil
}

// ListUsers returns every user ordered by ID.
func (s *Service) ListUsers(ctx context.Context) ([]*auth.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, oops.With("operation", "list users").Wrap(err)
	}
	return users, nil
}

// PurgeAllUsers deletes every user together with their comments, their posts
// (and the comments on them) and their sessions. Each user is removed in its
// own transaction, so a failure leaves earlier deletions committed. It
// returns the number of users deleted.
func (s *Service) PurgeAllUsers(ctx context.Context) (int, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return 0, oops.With("operation", "list users for purge").Wrap(err)
	}

	deleted := 0
	for _, user := range users {
		if err := ctx.Err(); err != nil {
			return deleted, oops.Code("DIRECTORY_PURGE_CANCELLED").With("deleted", deleted).Wrap(err)
		}
		if err := s.tx.InTransaction(ctx, func(ctx context.Context) error {
			return s.deleteUser(ctx, user.ID)
		}); err != nil {
			return deleted, oops.Code("DIRECTORY_PURGE_FAILED").
				With("user_id", user.ID).
				With("deleted", deleted).
				Wrap(err)
		}
		deleted++
		s.logger.InfoContext(ctx, "user purged", "user_id", user.ID)
	}

	s.logger.InfoContext(ctx, "user directory purged", "count", deleted)
	return deleted, nil
}

func (s *Service) deleteUser(ctx context.Context, id int64) error {
	if _, err := s.comments.DeleteByAuthor(ctx, id); err != nil {
		return err
	}
	if _, err := s.comments.DeleteOnPostsByAuthor(ctx, id); err != nil {
		return err
	}
	if _, err := s.posts.DeleteByAuthor(ctx, id); err != nil {
		return err
	}
	if err := s.sessions.DeleteByUser(ctx, id); err != nil {
		return err
	}
	return s.users.Delete(ctx, id)
}
