// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Penwright Contributors

// Package access decides what a caller may do.
//
// Requests are expressed as an action and a resource joined by ':':
//   - action: "read", "create" or "delete"
//   - resource: "post:42", "post:*", "comment:post:42"
//
// Roles grant glob patterns over "action:resource" strings. Anonymous
// callers act with the guest role.
package access

import (
	"context"
	"errors"
	"strconv"

	"github.com/samber/oops"

	"github.com/penwright/penwright/internal/auth"
)

// ErrForbidden is wrapped by errors returned from Require.
var ErrForbidden = errors.New("forbidden")

// CodeForbidden is the oops code for denied requests.
const CodeForbidden = "ACCESS_FORBIDDEN"

// Subject is the caller an access decision is made for.
type Subject struct {
	// ID is "user:<id>" for signed-in callers and "guest" otherwise.
	ID   string
	Role string
}

// Guest is the subject of anonymous requests.
var Guest = Subject{ID: "guest", Role: string(auth.RoleGuest)}

// SubjectFrom returns the subject for the identity in ctx, or Guest.
func SubjectFrom(ctx context.Context) Subject {
	id := auth.IdentityFrom(ctx)
	if id == nil {
		return Guest
	}
	return Subject{ID: "user:" + strconv.FormatInt(id.UserID, 10), Role: string(id.Role)}
}

// AccessControl checks permissions.
//
//nolint:revive // stutter is accepted for the package's central interface
type AccessControl interface {
	// Check returns true if subject may perform action on resource.
	// Unknown roles and unmatched requests are denied.
	Check(ctx context.Context, subject Subject, action, resource string) bool
}

// Require returns an ACCESS_FORBIDDEN error wrapping ErrForbidden unless the
// caller in ctx may perform action on resource.
func Require(ctx context.Context, ac AccessControl, action, resource string) error {
	subject := SubjectFrom(ctx)
	if ac.Check(ctx, subject, action, resource) {
		return nil
	}
	return oops.Code(CodeForbidden).
		With("subject", subject.ID).
		With("action", action).
		With("resource", resource).
		Wrap(ErrForbidden)
}

// AdminOnly runs fn when the caller may perform action on resource, and
// returns the Require error otherwise.
func AdminOnly(ctx context.Context, ac AccessControl, action, resource string, fn func(ctx context.Context) error) error {
	if err := Require(ctx, ac, action, resource); err != nil {
		return err
	}
	return fn(ctx)
}

// PostResource names a single post.
func PostResource(id int64) string {
	return "post:" + strconv.FormatInt(id, 10)
}

// CommentsResource names the comment thread of a post.
func CommentsResource(postID int64) string {
	return "comment:" + PostResource(postID)
}
