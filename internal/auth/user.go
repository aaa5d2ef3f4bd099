// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Penwright Contributors

package auth

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"
)

// Column limits from the users table.
const (
	MaxNameLength  = 80
	MaxEmailLength = 100
)

// Role is the authorization role attached to a user row.
type Role string

// Known roles.
const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
	RoleGuest  Role = "guest"
)

// User represents a registered account.
type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	// PasswordHash is never serialised.
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsAdmin reports whether the user carries the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// newUserFields holds the validated columns of a new user.
type newUserFields struct {
	FirstName string `field:"first_name" validate:"required,max=80"`
	LastName  string `field:"last_name" validate:"required,max=80"`
	Email     string `field:"email" validate:"required,max=100,email"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("field")
	})
	return v
}

// NewUser creates a validated User with the member role. The ID is assigned
// by the repository on Create.
func NewUser(firstName, lastName, email, passwordHash string) (*User, error) {
	fields := newUserFields{
		FirstName: strings.TrimSpace(firstName),
		LastName:  strings.TrimSpace(lastName),
		Email:     strings.TrimSpace(email),
	}
	if err := validate.Struct(fields); err != nil {
		return nil, invalidInput("", err)
	}
	if passwordHash == "" {
		return nil, oops.Code(CodeInvalidInput).With("field", "password").Errorf("password hash cannot be empty")
	}

	return &User{
		FirstName:    fields.FirstName,
		LastName:     fields.LastName,
		Email:        fields.Email,
		PasswordHash: passwordHash,
		Role:         RoleMember,
		CreatedAt:    time.Now(),
	}, nil
}

// ValidateEmail checks that email is present, fits the column and is a
// bare address.
func ValidateEmail(email string) error {
	if err := validate.Var(email, "required,max=100,email"); err != nil {
		return invalidInput("email", err)
	}
	return nil
}

// invalidInput converts the first validator failure into an
// AUTH_INVALID_INPUT error. field names Var checks, which carry none.
func invalidInput(field string, err error) error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return oops.Code(CodeInvalidInput).Wrap(err)
	}
	fe := errs[0]
	if field == "" {
		field = fe.Field()
	}
	builder := oops.Code(CodeInvalidInput).With("field", field)
	switch fe.Tag() {
	case "required":
		return builder.Errorf("%s is required", field)
	case "max":
		return builder.With("max", fe.Param()).Errorf("%s must be at most %s characters", field, fe.Param())
	case "email":
		return builder.Errorf("%s is not a valid address", field)
	}
	return builder.Errorf("%s failed %s validation", field, fe.Tag())
}

// UserRepository manages user persistence.
type UserRepository interface {
	// Create stores a new user and sets its ID.
	// Returns an error wrapping ErrDuplicateEmail if the email is taken.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id int64) (*User, error)

	// GetByEmail retrieves a user by exact email.
	// Returns ErrNotFound if no user has the given email.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// List returns every user ordered by ID ascending.
	List(ctx context.Context) ([]*User, error)

	// SetRole changes a user's role.
	SetRole(ctx context.Context, id int64, role Role) error

	// UpdatePassword replaces the stored password hash.
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error

	// Delete removes a user row. Dependent rows must already be gone.
	Delete(ctx context.Context, id int64) error
}
