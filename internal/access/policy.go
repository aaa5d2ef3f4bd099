// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Penwright Contributors

package access

import (
	"context"
	"log/slog"

	"github.com/gobwas/glob"
	"github.com/samber/oops"
)

// StaticPolicy implements AccessControl with fixed role definitions.
// It is immutable after construction and safe for concurrent use.
type StaticPolicy struct {
	roles  map[string][]compiledPermission
	logger *slog.Logger
}

type compiledPermission struct {
	pattern string
	glob    glob.Glob
}

// NewStaticPolicy creates a policy with DefaultRoles.
// Panics if the default patterns do not compile.
func NewStaticPolicy(logger *slog.Logger) *StaticPolicy {
	p, err := NewStaticPolicyWithRoles(DefaultRoles(), logger)
	if err != nil {
		panic("invalid permission pattern in DefaultRoles: " + err.Error())
	}
	return p
}

// NewStaticPolicyWithRoles creates a policy from role name to permission
// patterns. Patterns use ':' as the glob separator.
func NewStaticPolicyWithRoles(roles map[string][]string, logger *slog.Logger) (*StaticPolicy, error) {
	if logger == nil {
		logger = slog.Default()
	}

	compiledRoles := make(map[string][]compiledPermission, len(roles))
	for role, perms := range roles {
		compiled := make([]compiledPermission, 0, len(perms))
		for _, p := range perms {
			g, err := glob.Compile(p, ':')
			if err != nil {
				return nil, oops.In("access").
					Code("INVALID_PERMISSION_PATTERN").
					With("role", role).
					With("pattern", p).
					Wrap(err)
			}
			compiled = append(compiled, compiledPermission{pattern: p, glob: g})
		}
		compiledRoles[role] = compiled
	}

	return &StaticPolicy{roles: compiledRoles, logger: logger}, nil
}

// Check implements AccessControl.
func (p *StaticPolicy) Check(ctx context.Context, subject Subject, action, resource string) bool {
	allowed := p.match(subject.Role, action+":"+resource)
	recordDecision(action, allowed)
	if !allowed {
		p.logger.DebugContext(ctx, "access denied",
			"subject", subject.ID, "role", subject.Role, "action", action, "resource", resource)
	}
	return allowed
}

func (p *StaticPolicy) match(role, requested string) bool {
	for _, perm := range p.roles[role] {
		if perm.glob.Match(requested) {
			return true
		}
	}
	return false
}

// Compile-time interface check.
var _ AccessControl = (*StaticPolicy)(nil)
