// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Penwright Contributors

//go:build integration

package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwright/penwright/internal/auth"
	"github.com/penwright/penwright/internal/auth/postgres"
)

func TestUserRepository_Integration(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewUserRepository(testPool)

	user := createTestUser(ctx, t, "repo_user@example.com")
	assert.Positive(t, user.ID)
	assert.False(t, user.CreatedAt.IsZero())

	t.Run("duplicate email", func(t *testing.T) {
		dup, err := auth.NewUser("Other", "Person", "repo_user@example.com", "h")
		require.NoError(t, err)
		assert.ErrorIs(t, repo.Create(ctx, dup), auth.ErrDuplicateEmail)
	})

	t.Run("lookups", func(t *testing.T) {
		byEmail, err := repo.GetByEmail(ctx, "repo_user@example.com")
		require.NoError(t, err)
		byID, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, byEmail.ID, byID.ID)
		assert.Equal(t, auth.RoleMember, byID.Role)
	})

	t.Run("role and password", func(t *testing.T) {
		require.NoError(t, repo.SetRole(ctx, user.ID, auth.RoleAdmin))
		require.NoError(t, repo.UpdatePassword(ctx, user.ID, "newhash"))

		stored, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.True(t, stored.IsAdmin())
		assert.Equal(t, "newhash", stored.PasswordHash)
	})

	t.Run("list is ordered by id", func(t *testing.T) {
		second := createTestUser(ctx, t, "repo_user_2@example.com")
		users, err := repo.List(ctx)
		require.NoError(t, err)

		var ids []int64
		for _, u := range users {
			ids = append(ids, u.ID)
		}
		assert.IsIncreasing(t, ids)
		assert.Contains(t, ids, second.ID)
	})
}
