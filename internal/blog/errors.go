// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Penwright Contributors

package blog

import "errors"

// ErrNotFound is returned when a post or comment does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateTitle is returned by repositories when the title unique
// constraint rejects a write.
var ErrDuplicateTitle = errors.New("title already used")

// Error codes surfaced to the web layer.
const (
	CodePostNotFound    = "BLOG_POST_NOT_FOUND"
	CodeCommentNotFound = "BLOG_COMMENT_NOT_FOUND"
	CodeDuplicateTitle  = "BLOG_DUPLICATE_TITLE"
	CodeInvalidInput    = "BLOG_INVALID_INPUT"
	CodeUnauthenticated = "BLOG_UNAUTHENTICATED"
)
