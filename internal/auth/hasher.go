// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Penwright Contributors

package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/scrypt"
)

// scrypt parameters. N, r and p match the values earlier deployments used so
// existing hashes verify without a migration.
const (
	scryptN      = 1 << 15
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 64

	// DefaultSaltLength is the number of salt characters in a new hash.
	DefaultSaltLength = 8
)

const saltAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// ErrEmptyPassword is returned when attempting to hash an empty password.
var ErrEmptyPassword = oops.Code("AUTH_EMPTY_PASSWORD").Errorf("password cannot be empty")

// PasswordHasher provides password hashing and verification.
type PasswordHasher interface {
	// Hash produces a salted one-way hash of the password.
	Hash(password string) (string, error)

	// Verify checks if the password matches the hash.
	// Returns (true, nil) on match, (false, nil) on mismatch, or error on invalid hash.
	Verify(password, hash string) (bool, error)

	// NeedsUpgrade returns true if the hash was produced with weaker settings
	// than the hasher currently uses.
	NeedsUpgrade(hash string) bool
}

// ScryptHasher implements PasswordHasher using scrypt.
type ScryptHasher struct {
	saltLength int
}

// NewScryptHasher creates a ScryptHasher. A non-positive saltLength selects
// DefaultSaltLength.
func NewScryptHasher(saltLength int) *ScryptHasher {
	if saltLength <= 0 {
		saltLength = DefaultSaltLength
	}
	return &ScryptHasher{saltLength: saltLength}
}

// Hash produces "scrypt:N:r:p$<salt>$<hex digest>".
func (h *ScryptHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	salt, err := randomSalt(h.saltLength)
	if err != nil {
		return "", oops.Code("AUTH_SALT_FAILED").Wrap(err)
	}

	key, err := scrypt.Key([]byte(password), []byte(salt), scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return "", oops.Code("AUTH_HASH_FAILED").Wrap(err)
	}

	return fmt.Sprintf("scrypt:%d:%d:%d$%s$%s", scryptN, scryptR, scryptP, salt, hex.EncodeToString(key)), nil
}

// scryptParams is a parsed hash.
type scryptParams struct {
	n, r, p int
	salt    string
	key     []byte
}

func parseScryptHash(encoded string) (*scryptParams, error) {
	parts := strings.SplitN(encoded, "$", 3)
	if len(parts) != 3 {
		return nil, oops.Code("AUTH_INVALID_HASH").Errorf("invalid hash format")
	}

	method := strings.Split(parts[0], ":")
	if method[0] != "scrypt" {
		return nil, oops.Code("AUTH_INVALID_HASH").Errorf("unsupported hash algorithm: %s", method[0])
	}

	params := &scryptParams{n: scryptN, r: scryptR, p: scryptP, salt: parts[1]}
	if len(method) == 4 {
		var err error
		if params.n, err = strconv.Atoi(method[1]); err != nil {
			return nil, oops.Code("AUTH_INVALID_HASH").With("field", "n").Wrap(err)
		}
		if params.r, err = strconv.Atoi(method[2]); err != nil {
			return nil, oops.Code("AUTH_INVALID_HASH").With("field", "r").Wrap(err)
		}
		if params.p, err = strconv.Atoi(method[3]); err != nil {
			return nil, oops.Code("AUTH_INVALID_HASH").With("field", "p").Wrap(err)
		}
	} else if len(method) != 1 {
		return nil, oops.Code("AUTH_INVALID_HASH").Errorf("invalid scrypt parameters: %s", parts[0])
	}

	key, err := hex.DecodeString(parts[2])
	if err != nil {
		return nil, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}
	if len(key) == 0 || len(key) > 1<<10 {
		return nil, oops.Code("AUTH_INVALID_HASH").Errorf("invalid hash key length: %d", len(key))
	}
	params.key = key
	return params, nil
}

// Verify checks if the password matches the hash.
func (h *ScryptHasher) Verify(password, encodedHash string) (bool, error) {
	params, err := parseScryptHash(encodedHash)
	if err != nil {
		return false, err
	}

	computed, err := scrypt.Key([]byte(password), []byte(params.salt), params.n, params.r, params.p, len(params.key))
	if err != nil {
		return false, oops.Code("AUTH_INVALID_HASH").
			With("n", params.n).
			With("r", params.r).
			With("p", params.p).
			Wrap(err)
	}

	return subtle.ConstantTimeCompare(computed, params.key) == 1, nil
}

// NeedsUpgrade reports hashes that are not scrypt, use a lower cost or carry a
// shorter salt than this hasher produces.
func (h *ScryptHasher) NeedsUpgrade(encodedHash string) bool {
	params, err := parseScryptHash(encodedHash)
	if err != nil {
		return true
	}
	return params.n < scryptN || params.r < scryptR || len(params.salt) < h.saltLength
}

func randomSalt(n int) (string, error) {
	limit := big.NewInt(int64(len(saltAlphabet)))
	var b strings.Builder
	b.Grow(n)
	for range n {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err //nolint:wrapcheck // wrapped by caller
		}
		b.WriteByte(saltAlphabet[idx.Int64()])
	}
	return b.String(), nil
}
