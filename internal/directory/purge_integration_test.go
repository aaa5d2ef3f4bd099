// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Penwright Contributors

//go:build integration

package directory_test

import (
	"context"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwright/penwright/internal/access"
	"github.com/penwright/penwright/internal/auth"
	authpg "github.com/penwright/penwright/internal/auth/postgres"
	"github.com/penwright/penwright/internal/blog"
	blogpg "github.com/penwright/penwright/internal/blog/postgres"
	"github.com/penwright/penwright/internal/directory"
	"github.com/penwright/penwright/internal/store"
	"github.com/penwright/penwright/internal/store/storetest"
)

func TestPurgeAllUsers_Integration(t *testing.T) {
	ctx := context.Background()
	db, err := storetest.Start(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(ctx) })

	users := authpg.NewUserRepository(db.Pool)
	sessions := authpg.NewSessionRepository(db.Pool)
	posts := blogpg.NewPostRepository(db.Pool)
	comments := blogpg.NewCommentRepository(db.Pool)
	tx := store.NewTransactor(db.Pool)

	blogSvc, err := blog.NewService(blog.ServiceConfig{
		Posts: posts, Comments: comments, Transactor: tx, AccessControl: access.NewStaticPolicy(nil),
	})
	require.NoError(t, err)

	var idents []context.Context
	for _, email := range []string{"a@example.com", "b@example.com"} {
		u, err := auth.NewUser("Test", "User", email, "hash")
		require.NoError(t, err)
		require.NoError(t, users.Create(ctx, u))
		idents = append(idents, auth.WithIdentity(ctx, auth.IdentityForUser(u, ulid.Make())))
	}

	postA, err := blogSvc.CreatePost(idents[0], blog.PostInput{Title: "A", Subtitle: "s", ImgURL: "https://example.com/a.png", Body: "b"})
	require.NoError(t, err)
	_, err = blogSvc.AddComment(idents[1], postA.ID, "from b on a")
	require.NoError(t, err)
	anon, err := blogSvc.CreatePost(ctx, blog.PostInput{Title: "Anon", Subtitle: "s", ImgURL: "https://example.com/b.png", Body: "b"})
	require.NoError(t, err)
	_, err = blogSvc.AddComment(idents[0], anon.ID, "from a on anon")
	require.NoError(t, err)

	svc, err := directory.NewService(directory.ServiceConfig{
		Users: users, Sessions: sessions, Posts: posts, Comments: comments, Transactor: tx,
	})
	require.NoError(t, err)

	n, err := svc.PurgeAllUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	remaining, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	// Authorless posts survive; every comment was written by a purged user.
	left, err := posts.List(ctx)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, anon.ID, left[0].ID)
	onAnon, err := comments.ListByPost(ctx, anon.ID)
	require.NoError(t, err)
	assert.Empty(t, onAnon)
}
