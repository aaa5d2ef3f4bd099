// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Penwright Contributors

package access_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwright/penwright/internal/access"
	"github.com/penwright/penwright/pkg/errutil"
)

func TestStaticPolicy_DefaultRoles(t *testing.T) {
	p := access.NewStaticPolicy(nil)
	ctx := context.Background()

	guest := access.Guest
	member := access.Subject{ID: "user:2", Role: "member"}
	admin := access.Subject{ID: "user:1", Role: "admin"}

	tests := []struct {
		name     string
		action   string
		resource string
		guest    bool
		member   bool
		admin    bool
	}{
		{"list posts", "read", "post:*", true, true, true},
		{"read post", "read", "post:7", true, true, true},
		{"read comments", "read", "comment:post:7", true, true, true},
		{"comment on post", "create", "comment:post:7", false, true, true},
		{"delete post", "delete", "post:7", false, false, true},
		{"admin wildcard", "purge", "user:*", false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.guest, p.Check(ctx, guest, tt.action, tt.resource), "guest")
			assert.Equal(t, tt.member, p.Check(ctx, member, tt.action, tt.resource), "member")
			assert.Equal(t, tt.admin, p.Check(ctx, admin, tt.action, tt.resource), "admin")
		})
	}
}

func TestStaticPolicy_UnknownRoleDenied(t *testing.T) {
	p := access.NewStaticPolicy(nil)
	ctx := context.Background()

	assert.False(t, p.Check(ctx, access.Subject{ID: "user:3", Role: "editor"}, "read", "post:1"))
	assert.False(t, p.Check(ctx, access.Subject{}, "read", "post:1"))
}

func TestStaticPolicy_SingleStarStopsAtSeparator(t *testing.T) {
	p, err := access.NewStaticPolicyWithRoles(map[string][]string{
		"reader": {"read:post:*"},
	}, nil)
	require.NoError(t, err)

	ctx := context.Background()
	s := access.Subject{ID: "user:1", Role: "reader"}
	assert.True(t, p.Check(ctx, s, "read", "post:1"))
	assert.False(t, p.Check(ctx, s, "read", "post:1:draft"))
}

func TestNewStaticPolicyWithRoles_InvalidPattern(t *testing.T) {
	_, err := access.NewStaticPolicyWithRoles(map[string][]string{
		"broken": {"read:[post"},
	}, nil)
	errutil.AssertErrorCode(t, err, "INVALID_PERMISSION_PATTERN")
	errutil.AssertErrorContext(t, err, "role", "broken")
}
