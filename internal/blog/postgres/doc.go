// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Penwright Contributors

// Package postgres stores posts and comments in PostgreSQL.
package postgres
