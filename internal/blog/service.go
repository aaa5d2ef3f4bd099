// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Penwright Contributors

package blog

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/oops"

	"github.com/penwright/penwright/internal/access"
	"github.com/penwright/penwright/internal/auth"
)

// ServiceConfig holds dependencies for Service.
type ServiceConfig struct {
	Posts         PostRepository
	Comments      CommentRepository
	Transactor    Transactor
	AccessControl access.AccessControl
	Logger        *slog.Logger
	// Now overrides the clock used for post dates (tests).
	Now func() time.Time
}

// Service provides post and comment operations.
type Service struct {
	posts    PostRepository
	comments CommentRepository
	tx       Transactor
	ac       access.AccessControl
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a Service, validating required dependencies.
func NewService(cfg ServiceConfig) (*Service, error) {
	switch {
	case cfg.Posts == nil:
		return nil, oops.Code("BLOG_INVALID_CONFIG").Errorf("posts repository is required")
	case cfg.Comments == nil:
		return nil, oops.Code("BLOG_INVALID_CONFIG").Errorf("comments repository is required")
	case cfg.Transactor == nil:
		return nil, oops.Code("BLOG_INVALID_CONFIG").Errorf("transactor is required")
	case cfg.AccessControl == nil:
		return nil, oops.Code("BLOG_INVALID_CONFIG").Errorf("access control is required")
	}

	s := &Service{
		posts:    cfg.Posts,
		comments: cfg.Comments,
		tx:       cfg.Transactor,
		ac:       cfg.AccessControl,
		logger:   cfg.Logger,
		now:      cfg.Now,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// ListPosts returns every post.
func (s *Service) ListPosts(ctx context.Context) ([]*Post, error) {
	if err := access.Require(ctx, s.ac, "read", "post:*"); err != nil {
		return nil, err
	}
	posts, err := s.posts.List(ctx)
	if err != nil {
		return nil, oops.With("operation", "list posts").Wrap(err)
	}
	return posts, nil
}

// GetPost returns a post or a BLOG_POST_NOT_FOUND error wrapping ErrNotFound.
func (s *Service) GetPost(ctx context.Context, id int64) (*Post, error) {
	if err := access.Require(ctx, s.ac, "read", access.PostResource(id)); err != nil {
		return nil, err
	}
	post, err := s.posts.Get(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, id, "get post")
	}
	return post, nil
}

// CreatePost stores a new post dated today. The author is the signed-in
// caller, or none when the request is anonymous.
func (s *Service) CreatePost(ctx context.Context, in PostInput) (*Post, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	post := &Post{
		AuthorID: auth.UserIDFrom(ctx),
		Title:    in.Title,
		Subtitle: in.Subtitle,
		Date:     FormatPostDate(s.now()),
		Body:     in.Body,
		ImgURL:   in.ImgURL,
	}
	if id := auth.IdentityFrom(ctx); id != nil {
		post.AuthorName = id.FullName()
	}

	if err := s.posts.Create(ctx, post); err != nil {
		if errors.Is(err, ErrDuplicateTitle) {
			return nil, duplicateTitle(in.Title)
		}
		return nil, oops.Code("BLOG_CREATE_FAILED").With("operation", "create post").Wrap(err)
	}

	s.logger.InfoContext(ctx, "post created", "post_id", post.ID, "author_id", post.AuthorID)
	return post, nil
}

// EditPost overwrites a post's title, subtitle, image and body and makes the
// caller its author. The date is unchanged. There is no ownership check.
func (s *Service) EditPost(ctx context.Context, id int64, in PostInput) (*Post, error) {
	post, err := s.posts.Get(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, id, "get post")
	}

	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	post.Title = in.Title
	post.Subtitle = in.Subtitle
	post.ImgURL = in.ImgURL
	post.Body = in.Body
	post.AuthorID = auth.UserIDFrom(ctx)
	post.AuthorName = ""
	if ident := auth.IdentityFrom(ctx); ident != nil {
		post.AuthorName = ident.FullName()
	}

	if err := s.posts.Update(ctx, post); err != nil {
		switch {
		case errors.Is(err, ErrDuplicateTitle):
			return nil, duplicateTitle(in.Title)
		case errors.Is(err, ErrNotFound):
			return nil, notFoundOr(err, id, "update post")
		}
		return nil, oops.Code("BLOG_UPDATE_FAILED").
			With("operation", "update post").
			With("post_id", id).
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "post edited", "post_id", id, "author_id", post.AuthorID)
	return post, nil
}

// DeletePost removes a post and its comments in one transaction. The caller
// needs the "delete" capability on the post.
func (s *Service) DeletePost(ctx context.Context, id int64) error {
	return access.AdminOnly(ctx, s.ac, "delete", access.PostResource(id), func(ctx context.Context) error {
		var removed int64
		err := s.tx.InTransaction(ctx, func(ctx context.Context) error {
			if _, err := s.posts.Get(ctx, id); err != nil {
				return notFoundOr(err, id, "get post")
			}
			n, err := s.comments.DeleteByPost(ctx, id)
			if err != nil {
				return oops.With("operation", "delete comments of post").With("post_id", id).Wrap(err)
			}
			removed = n
			if err := s.posts.Delete(ctx, id); err != nil {
				return notFoundOr(err, id, "delete post")
			}
			return nil
		})
		if err != nil {
			return err
		}
		s.logger.InfoContext(ctx, "post deleted", "post_id", id, "comments_deleted", removed)
		return nil
	})
}

// AddComment stores a comment on a post by the signed-in caller. Paragraph
// markers are stripped from text before it is stored.
func (s *Service) AddComment(ctx context.Context, postID int64, text string) (*Comment, error) {
	if _, err := s.posts.Get(ctx, postID); err != nil {
		return nil, notFoundOr(err, postID, "get post")
	}

	ident := auth.IdentityFrom(ctx)
	if ident == nil {
		return nil, oops.Code(CodeUnauthenticated).
			With("post_id", postID).
			Errorf("you need to login or register to comment")
	}
	if err := access.Require(ctx, s.ac, "create", access.CommentsResource(postID)); err != nil {
		return nil, err
	}

	text = StripParagraphs(text)
	if strings.TrimSpace(text) == "" {
		return nil, invalid("text", "cannot be empty")
	}

	authorID := ident.UserID
	comment := &Comment{
		PostID:     postID,
		AuthorID:   &authorID,
		AuthorName: ident.FullName(),
		Text:       text,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, oops.Code("BLOG_COMMENT_FAILED").
			With("operation", "create comment").
			With("post_id", postID).
			Wrap(err)
	}
	return comment, nil
}

// ListComments returns the comments of a post.
func (s *Service) ListComments(ctx context.Context, postID int64) ([]*Comment, error) {
	if err := access.Require(ctx, s.ac, "read", access.CommentsResource(postID)); err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByPost(ctx, postID)
	if err != nil {
		return nil, oops.With("operation", "list comments").With("post_id", postID).Wrap(err)
	}
	return comments, nil
}

// GetComment returns a comment or a BLOG_COMMENT_NOT_FOUND error.
func (s *Service) GetComment(ctx context.Context, id int64) (*Comment, error) {
	comment, err := s.comments.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code(CodeCommentNotFound).With("comment_id", id).Wrap(ErrNotFound)
		}
		return nil, oops.With("operation", "get comment").With("comment_id", id).Wrap(err)
	}
	return comment, nil
}

// notFoundOr maps a repository not-found to a fresh BLOG_POST_NOT_FOUND
// error, since oops reports the innermost code of a chain.
func notFoundOr(err error, id int64, operation string) error {
	if errors.Is(err, ErrNotFound) {
		return oops.Code(CodePostNotFound).With("post_id", id).Wrap(ErrNotFound)
	}
	return oops.With("operation", operation).With("post_id", id).Wrap(err)
}

func duplicateTitle(title string) error {
	return oops.Code(CodeDuplicateTitle).
		With("title", title).
		Errorf("a post titled %q already exists", title)
}
