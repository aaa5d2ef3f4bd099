// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Penwright Contributors

//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwright/penwright/internal/auth"
	"github.com/penwright/penwright/internal/auth/postgres"
	"github.com/penwright/penwright/internal/store"
	"github.com/penwright/penwright/pkg/errutil"
)

// brokenSessions fails every insert after the user row was written in the
// same transaction.
type brokenSessions struct {
	*postgres.SessionRepository
}

func (brokenSessions) Create(context.Context, *auth.Session) error {
	return errors.New("conn reset")
}

func newRegisterService(t *testing.T, sessions auth.SessionRepository) *auth.Service {
	t.Helper()
	svc, err := auth.NewService(auth.ServiceConfig{
		Users:            postgres.NewUserRepository(testPool),
		Sessions:         sessions,
		Hasher:           auth.NewScryptHasher(8),
		Transactor:       store.NewTransactor(testPool),
		BootstrapAdminID: -1,
	})
	require.NoError(t, err)
	return svc
}

func TestRegister_FailedSessionLeavesNoUser(t *testing.T) {
	ctx := context.Background()
	users := postgres.NewUserRepository(testPool)
	in := auth.RegisterInput{FirstName: "Ada", LastName: "Lovelace", Email: "rollback@example.com", Password: "pw"}

	_, err := newRegisterService(t, brokenSessions{postgres.NewSessionRepository(testPool)}).
		Register(ctx, in, auth.ClientInfo{})
	errutil.AssertErrorCode(t, err, "AUTH_SESSION_CREATE_FAILED")

	_, err = users.GetByEmail(ctx, "rollback@example.com")
	assert.ErrorIs(t, err, auth.ErrNotFound)

	result, err := newRegisterService(t, postgres.NewSessionRepository(testPool)).
		Register(ctx, in, auth.ClientInfo{})
	require.NoError(t, err, "retry must not see a leftover account")
	assert.Positive(t, result.User.ID)
}
