// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Penwright Contributors

package access

// Permission groups define reusable sets of permissions.
// Roles compose these groups rather than inheriting.

var readerPowers = []string{
	"read:post:*",
	"read:comment:post:*",
}

var writerPowers = []string{
	"create:comment:post:*",
}

var adminPowers = []string{
	"*:**",
}

// DefaultRoles returns the default role definitions.
func DefaultRoles() map[string][]string {
	return map[string][]string{
		"guest":  readerPowers,
		"member": compose(readerPowers, writerPowers),
		"admin":  compose(readerPowers, writerPowers, adminPowers),
	}
}

// compose merges multiple permission slices into one.
func compose(groups ...[]string) []string {
	total := 0
	for _, g := range groups {
		total += len(g)
	}
	result := make([]string, 0, total)
	for _, g := range groups {
		result = append(result, g...)
	}
	return result
}
