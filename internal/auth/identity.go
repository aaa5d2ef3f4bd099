// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Penwright Contributors

package auth

import (
	"context"
	"strings"

	"github.com/oklog/ulid/v2"
)

// Identity is the authenticated caller of a request.
type Identity struct {
	UserID    int64
	Email     string
	FirstName string
	LastName  string
	Role      Role
	SessionID ulid.ULID
}

// IdentityForUser builds an Identity for u bound to sessionID.
func IdentityForUser(u *User, sessionID ulid.ULID) *Identity {
	return &Identity{
		UserID:    u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
		SessionID: sessionID,
	}
}

// FullName returns "First Last".
func (id *Identity) FullName() string {
	return strings.TrimSpace(id.FirstName + " " + id.LastName)
}

type identityKey struct{}

// WithIdentity returns a context carrying id. A nil id yields ctx unchanged.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	if id == nil {
		return ctx
	}
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity stored in ctx, or nil for anonymous callers.
func IdentityFrom(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey{}).(*Identity)
	return id
}

// UserIDFrom returns the caller's user ID, or nil for anonymous callers.
func UserIDFrom(ctx context.Context) *int64 {
	id := IdentityFrom(ctx)
	if id == nil {
		return nil
	}
	uid := id.UserID
	return &uid
}
