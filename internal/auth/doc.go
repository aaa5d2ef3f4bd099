// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Penwright Contributors

// Package auth provides registration, login and session handling for Penwright.
//
// # Domain Types
//
// User rows are created with NewUser, which validates names and email
// before the password is hashed. Sessions are created with NewSession.
// Repository implementations receive pre-validated values from these
// constructors.
//
// # Identity
//
// The authenticated caller travels through a request as an Identity stored
// in the context (WithIdentity / IdentityFrom). Services never consult a
// global "current user".
//
// # Services
//
// Service covers Register, Login, Logout and Authenticate. Password hashes use
// scrypt in the "scrypt:N:r:p$salt$hex" encoding, so rows written by earlier
// deployments keep verifying.
package auth
