// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Penwright Contributors

package blog

import (
	"context"
	"strings"
	"time"
)

// DateLayout formats the human-readable date stored with each post,
// e.g. "March 05, 2026".
const DateLayout = "January 02, 2006"

// Post is a blog article.
type Post struct {
	ID int64
	// AuthorID is nil for posts created without a signed-in author.
	AuthorID   *int64
	AuthorName string
	Title      string
	Subtitle   string
	Date       string
	Body       string
	ImgURL     string
}

// Comment is a reader's note on a post.
type Comment struct {
	ID         int64
	PostID     int64
	AuthorID   *int64
	AuthorName string
	Text       string
}

// PostInput carries the editable fields of a post.
type PostInput struct {
	Title    string `field:"title" validate:"required,utf8,max=250"`
	Subtitle string `field:"subtitle" validate:"required,utf8,max=250"`
	ImgURL   string `field:"img_url" validate:"required,utf8,max=250,http_url"`
	Body     string `field:"body" validate:"notblank"`
}

// FormatPostDate renders t in DateLayout.
func FormatPostDate(t time.Time) string {
	return t.Format(DateLayout)
}

var paragraphStripper = strings.NewReplacer("<p>", "", "</p>", "")

// StripParagraphs removes every "<p>" and "</p>" marker from text.
func StripParagraphs(text string) string {
	return paragraphStripper.Replace(text)
}

// PostRepository manages post persistence.
type PostRepository interface {
	// List returns every post in storage order.
	List(ctx context.Context) ([]*Post, error)

	// Get returns a post by ID. Returns ErrNotFound if missing.
	Get(ctx context.Context, id int64) (*Post, error)

	// Create stores a new post and sets its ID.
	// Returns ErrDuplicateTitle when the title is taken.
	Create(ctx context.Context, post *Post) error

	// Update overwrites a post's author, title, subtitle, image and body.
	// Returns ErrNotFound if missing and ErrDuplicateTitle when the title is taken.
	Update(ctx context.Context, post *Post) error

	// Delete removes a post. Its comments must be removed first.
	Delete(ctx context.Context, id int64) error

	// DeleteByAuthor removes every post written by authorID.
	DeleteByAuthor(ctx context.Context, authorID int64) (int64, error)
}

// CommentRepository manages comment persistence.
type CommentRepository interface {
	// ListByPost returns the comments of a post in storage order.
	ListByPost(ctx context.Context, postID int64) ([]*Comment, error)

	// Get returns a comment by ID. Returns ErrNotFound if missing.
	Get(ctx context.Context, id int64) (*Comment, error)

	// Create stores a new comment and sets its ID.
	Create(ctx context.Context, comment *Comment) error

	// DeleteByPost removes every comment on a post.
	DeleteByPost(ctx context.Context, postID int64) (int64, error)

	// DeleteByAuthor removes every comment written by authorID.
	DeleteByAuthor(ctx context.Context, authorID int64) (int64, error)

	// DeleteOnPostsByAuthor removes every comment on posts written by authorID.
	DeleteOnPostsByAuthor(ctx context.Context, authorID int64) (int64, error)
}

// Transactor runs fn inside a single database transaction.
type Transactor interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
