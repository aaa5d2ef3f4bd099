// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Penwright Contributors

// Package blog manages posts and their comments.
//
// Post creation and editing follow whoever is signed in: the author of a
// created or edited post is the identity in the request context, or none for
// anonymous callers. Deleting a post requires the "delete" capability on the
// post and removes its comments in the same transaction.
package blog
