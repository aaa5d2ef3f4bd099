// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Penwright Contributors

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/penwright/penwright/internal/blog"
	"github.com/penwright/penwright/internal/store"
)

// postSelect joins the author so AuthorName is filled without a second query.
const postSelect = `
	SELECT p.id, p.author_id, COALESCE(u.first_name || ' ' || u.last_name, ''),
	       p.title, p.subtitle, p.date, p.body, p.img_url
	FROM blog_posts p
	LEFT JOIN users u ON u.id = p.author_id`

// PostRepository implements blog.PostRepository using PostgreSQL.
type PostRepository struct {
	db store.Querier
}

// NewPostRepository creates a new PostRepository.
func NewPostRepository(db store.Querier) *PostRepository {
	return &PostRepository{db: db}
}

// List returns every post ordered by ID.
func (r *PostRepository) List(ctx context.Context) ([]*blog.Post, error) {
	rows, err := store.Conn(ctx, r.db).Query(ctx, postSelect+` ORDER BY p.id`)
	if err != nil {
		return nil, oops.Code("POST_LIST_FAILED").With("operation", "list posts").Wrap(err)
	}
	defer rows.Close()

	var posts []*blog.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, oops.Code("POST_SCAN_FAILED").With("operation", "scan post row").Wrap(err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("POST_ROWS_ERROR").With("operation", "iterate post rows").Wrap(err)
	}
	return posts, nil
}

// Get retrieves a post by ID.
func (r *PostRepository) Get(ctx context.Context, id int64) (*blog.Post, error) {
	post, err := scanPost(store.Conn(ctx, r.db).QueryRow(ctx, postSelect+` WHERE p.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("POST_NOT_FOUND").With("post_id", id).Wrap(blog.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("POST_GET_FAILED").
			With("operation", "get post").
			With("post_id", id).
			Wrap(err)
	}
	return post, nil
}

// Create inserts post and sets its ID.
func (r *PostRepository) Create(ctx context.Context, post *blog.Post) error {
	err := store.Conn(ctx, r.db).QueryRow(ctx, `
		INSERT INTO blog_posts (author_id, title, subtitle, date, body, img_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, post.AuthorID, post.Title, post.Subtitle, post.Date, post.Body, post.ImgURL).Scan(&post.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return oops.Code("POST_TITLE_EXISTS").With("title", post.Title).Wrap(blog.ErrDuplicateTitle)
		}
		return oops.Code("POST_CREATE_FAILED").
			With("operation", "insert post").
			With("title", post.Title).
			Wrap(err)
	}
	return nil
}

// Update overwrites the author and editable fields of a post. Date is kept.
func (r *PostRepository) Update(ctx context.Context, post *blog.Post) error {
	result, err := store.Conn(ctx, r.db).Exec(ctx, `
		UPDATE blog_posts
		SET author_id = $2, title = $3, subtitle = $4, body = $5, img_url = $6
		WHERE id = $1
	`, post.ID, post.AuthorID, post.Title, post.Subtitle, post.Body, post.ImgURL)
	if err != nil {
		if isUniqueViolation(err) {
			return oops.Code("POST_TITLE_EXISTS").With("title", post.Title).Wrap(blog.ErrDuplicateTitle)
		}
		return oops.Code("POST_UPDATE_FAILED").
			With("operation", "update post").
			With("post_id", post.ID).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("POST_NOT_FOUND").With("post_id", post.ID).Wrap(blog.ErrNotFound)
	}
	return nil
}

// Delete removes a post row.
func (r *PostRepository) Delete(ctx context.Context, id int64) error {
	result, err := store.Conn(ctx, r.db).Exec(ctx, `DELETE FROM blog_posts WHERE id = $1`, id)
	if err != nil {
		return oops.Code("POST_DELETE_FAILED").
			With("operation", "delete post").
			With("post_id", id).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("POST_NOT_FOUND").With("post_id", id).Wrap(blog.ErrNotFound)
	}
	return nil
}

// DeleteByAuthor removes every post written by authorID.
func (r *PostRepository) DeleteByAuthor(ctx context.Context, authorID int64) (int64, error) {
	result, err := store.Conn(ctx, r.db).Exec(ctx, `DELETE FROM blog_posts WHERE author_id = $1`, authorID)
	if err != nil {
		return 0, oops.Code("POST_DELETE_FAILED").
			With("operation", "delete posts by author").
			With("author_id", authorID).
			Wrap(err)
	}
	return result.RowsAffected(), nil
}

func scanPost(row pgx.Row) (*blog.Post, error) {
	var post blog.Post
	err := row.Scan(&post.ID, &post.AuthorID, &post.AuthorName,
		&post.Title, &post.Subtitle, &post.Date, &post.Body, &post.ImgURL)
	if err != nil {
		return nil, err //nolint:wrapcheck // callers wrap with context-specific info
	}
	return &post, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// Compile-time interface check.
var _ blog.PostRepository = (*PostRepository)(nil)
