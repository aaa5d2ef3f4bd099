// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Penwright Contributors

// Package accesstest provides test helpers for access control.
package accesstest

import (
	"context"

	"github.com/penwright/penwright/internal/access"
)

// AllowAll is an AccessControl that allows everything.
type AllowAll struct{}

// Check always returns true.
func (AllowAll) Check(context.Context, access.Subject, string, string) bool {
	return true
}

// DenyAll is an AccessControl that denies everything.
type DenyAll struct{}

// Check always returns false.
func (DenyAll) Check(context.Context, access.Subject, string, string) bool {
	return false
}

// MockAccessControl is an AccessControl for testing with selective grants.
type MockAccessControl struct {
	grants map[string]map[string]bool // subject ID -> "action:resource" -> allowed
}

// NewMockAccessControl creates a new MockAccessControl.
func NewMockAccessControl() *MockAccessControl {
	return &MockAccessControl{grants: make(map[string]map[string]bool)}
}

// Grant allows a subject to perform an action on a resource.
func (m *MockAccessControl) Grant(subjectID, action, resource string) {
	if m.grants[subjectID] == nil {
		m.grants[subjectID] = make(map[string]bool)
	}
	m.grants[subjectID][action+":"+resource] = true
}

// Check implements AccessControl.
func (m *MockAccessControl) Check(_ context.Context, subject access.Subject, action, resource string) bool {
	return m.grants[subject.ID][action+":"+resource]
}

// Verify interfaces are satisfied.
var (
	_ access.AccessControl = AllowAll{}
	_ access.AccessControl = DenyAll{}
	_ access.AccessControl = (*MockAccessControl)(nil)
)
