// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Penwright Contributors

package auth

import "errors"

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateEmail is returned by repositories when the email unique
// constraint rejects an insert.
var ErrDuplicateEmail = errors.New("email already registered")

// Error codes surfaced to the web layer.
const (
	CodeDuplicateEmail = "AUTH_DUPLICATE_EMAIL"
	CodeUnknownUser    = "AUTH_UNKNOWN_USER"
	CodeWrongPassword  = "AUTH_WRONG_PASSWORD"
	CodeInvalidInput   = "AUTH_INVALID_INPUT"
	CodeSessionInvalid = "SESSION_INVALID"
	CodeSessionExpired = "SESSION_EXPIRED"
)
