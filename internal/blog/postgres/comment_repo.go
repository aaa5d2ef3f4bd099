// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Penwright Contributors

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/penwright/penwright/internal/blog"
	"github.com/penwright/penwright/internal/store"
)

// Legacy rows may carry a NULL post_id; those scan as post 0.
const commentSelect = `
	SELECT c.id, COALESCE(c.post_id, 0), c.author_id,
	       COALESCE(u.first_name || ' ' || u.last_name, ''), c.text
	FROM comments c
	LEFT JOIN users u ON u.id = c.author_id`

// CommentRepository implements blog.CommentRepository using PostgreSQL.
type CommentRepository struct {
	db store.Querier
}

// NewCommentRepository creates a new CommentRepository.
func NewCommentRepository(db store.Querier) *CommentRepository {
	return &CommentRepository{db: db}
}

// ListByPost returns the comments of a post ordered by ID.
func (r *CommentRepository) ListByPost(ctx context.Context, postID int64) ([]*blog.Comment, error) {
	rows, err := store.Conn(ctx, r.db).Query(ctx, commentSelect+` WHERE c.post_id = $1 ORDER BY c.id`, postID)
	if err != nil {
		return nil, oops.Code("COMMENT_LIST_FAILED").
			With("operation", "list comments").
			With("post_id", postID).
			Wrap(err)
	}
	defer rows.Close()

	var comments []*blog.Comment
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, oops.Code("COMMENT_SCAN_FAILED").With("operation", "scan comment row").Wrap(err)
		}
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("COMMENT_ROWS_ERROR").With("operation", "iterate comment rows").Wrap(err)
	}
	return comments, nil
}

// Get retrieves a comment by ID.
func (r *CommentRepository) Get(ctx context.Context, id int64) (*blog.Comment, error) {
	comment, err := scanComment(store.Conn(ctx, r.db).QueryRow(ctx, commentSelect+` WHERE c.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("COMMENT_NOT_FOUND").With("comment_id", id).Wrap(blog.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("COMMENT_GET_FAILED").
			With("operation", "get comment").
			With("comment_id", id).
			Wrap(err)
	}
	return comment, nil
}

// Create inserts comment and sets its ID.
func (r *CommentRepository) Create(ctx context.Context, comment *blog.Comment) error {
	err := store.Conn(ctx, r.db).QueryRow(ctx, `
		INSERT INTO comments (author_id, post_id, text)
		VALUES ($1, $2, $3)
		RETURNING id
	`, comment.AuthorID, comment.PostID, comment.Text).Scan(&comment.ID)
	if err != nil {
		return oops.Code("COMMENT_CREATE_FAILED").
			With("operation", "insert comment").
			With("post_id", comment.PostID).
			Wrap(err)
	}
	return nil
}

// DeleteByPost removes every comment on a post.
func (r *CommentRepository) DeleteByPost(ctx context.Context, postID int64) (int64, error) {
	return r.deleteWhere(ctx, "delete comments by post", `DELETE FROM comments WHERE post_id = $1`, postID)
}

// DeleteByAuthor removes every comment written by authorID.
func (r *CommentRepository) DeleteByAuthor(ctx context.Context, authorID int64) (int64, error) {
	return r.deleteWhere(ctx, "delete comments by author", `DELETE FROM comments WHERE author_id = $1`, authorID)
}

// DeleteOnPostsByAuthor removes every comment on posts written by authorID,
// whoever wrote the comment.
func (r *CommentRepository) DeleteOnPostsByAuthor(ctx context.Context, authorID int64) (int64, error) {
	return r.deleteWhere(ctx, "delete comments on posts by author", `
		DELETE FROM comments
		WHERE post_id IN (SELECT id FROM blog_posts WHERE author_id = $1)
	`, authorID)
}

func (r *CommentRepository) deleteWhere(ctx context.Context, operation, sql string, id int64) (int64, error) {
	result, err := store.Conn(ctx, r.db).Exec(ctx, sql, id)
	if err != nil {
		return 0, oops.Code("COMMENT_DELETE_FAILED").
			With("operation", operation).
			With("id", id).
			Wrap(err)
	}
	return result.RowsAffected(), nil
}

func scanComment(row pgx.Row) (*blog.Comment, error) {
	var comment blog.Comment
	err := row.Scan(&comment.ID, &comment.PostID, &comment.AuthorID, &comment.AuthorName, &comment.Text)
	if err != nil {
		return nil, err //nolint:wrapcheck // callers wrap with context-specific info
	}
	return &comment, nil
}

// Compile-time interface check.
var _ blog.CommentRepository = (*CommentRepository)(nil)
