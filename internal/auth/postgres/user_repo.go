// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Penwright Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/penwright/penwright/internal/auth"
	"github.com/penwright/penwright/internal/store"
)

const userColumns = `id, first_name, last_name, email, password_hash, role, created_at`

// UserRepository implements auth.UserRepository using PostgreSQL.
// Every method joins the transaction carried by ctx, if any.
type UserRepository struct {
	db store.Querier
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db store.Querier) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts user and sets its ID and CreatedAt from the database.
func (r *UserRepository) Create(ctx context.Context, user *auth.User) error {
	role := user.Role
	if role == "" {
		role = auth.RoleMember
	}

	err := store.Conn(ctx, r.db).QueryRow(ctx, `
		INSERT INTO users (first_name, last_name, email, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, user.FirstName, user.LastName, user.Email, user.PasswordHash, string(role)).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return oops.Code("USER_EMAIL_EXISTS").
				With("email", user.Email).
				Wrap(auth.ErrDuplicateEmail)
		}
		return oops.Code("USER_CREATE_FAILED").
			With("operation", "insert user").
			With("email", user.Email).
			Wrap(err)
	}
	user.Role = role
	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*auth.User, error) {
	row := store.Conn(ctx, r.db).QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").With("id", id).Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_FAILED").
			With("operation", "get user by id").
			With("id", id).
			Wrap(err)
	}
	return user, nil
}

// GetByEmail retrieves a user by exact email match.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	row := store.Conn(ctx, r.db).QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").With("email", email).Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_FAILED").
			With("operation", "get user by email").
			Wrap(err)
	}
	return user, nil
}

// List returns every user ordered by ID.
func (r *UserRepository) List(ctx context.Context) ([]*auth.User, error) {
	rows, err := store.Conn(ctx, r.db).Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, oops.Code("USER_LIST_FAILED").With("operation", "list users").Wrap(err)
	}
	defer rows.Close()

	var users []*auth.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, oops.Code("USER_SCAN_FAILED").With("operation", "scan user row").Wrap(err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("USER_ROWS_ERROR").With("operation", "iterate user rows").Wrap(err)
	}
	return users, nil
}

// SetRole changes a user's role.
func (r *UserRepository) SetRole(ctx context.Context, id int64, role auth.Role) error {
	return r.update(ctx, "USER_SET_ROLE_FAILED", id, `UPDATE users SET role = $2 WHERE id = $1`, string(role))
}

// UpdatePassword replaces a user's password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	return r.update(ctx, "USER_UPDATE_PASSWORD_FAILED", id, `UPDATE users SET password_hash = $2 WHERE id = $1`, passwordHash)
}

// Delete removes a user row. Rows referencing the user must be removed first.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	result, err := store.Conn(ctx, r.db).Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return oops.Code("USER_DELETE_FAILED").
			With("operation", "delete user").
			With("id", id).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").With("id", id).Wrap(auth.ErrNotFound)
	}
	return nil
}

func (r *UserRepository) update(ctx context.Context, code string, id int64, sql string, value any) error {
	result, err := store.Conn(ctx, r.db).Exec(ctx, sql, id, value)
	if err != nil {
		return oops.Code(code).With("id", id).Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").With("id", id).Wrap(auth.ErrNotFound)
	}
	return nil
}

// scanUser scans a single row. pgx.ErrNoRows is returned unchanged.
func scanUser(row pgx.Row) (*auth.User, error) {
	var (
		user      auth.User
		role      string
		createdAt time.Time
	)
	err := row.Scan(&user.ID, &user.FirstName, &user.LastName, &user.Email, &user.PasswordHash, &role, &createdAt)
	if err != nil {
		return nil, err //nolint:wrapcheck // callers wrap with context-specific info
	}
	user.Role = auth.Role(role)
	user.CreatedAt = createdAt
	return &user, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// Compile-time interface check.
var _ auth.UserRepository = (*UserRepository)(nil)
