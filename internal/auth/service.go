// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Penwright Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/penwright/penwright/pkg/errutil"
)

// DefaultLoginDelay is the pause inserted after a successful password check.
const DefaultLoginDelay = 2 * time.Second

// DefaultBootstrapAdminID is the user ID promoted to admin at registration.
const DefaultBootstrapAdminID int64 = 1

// Transactor runs fn inside a single database transaction. Repositories
// called with the ctx passed to fn join that transaction.
type Transactor interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ServiceConfig holds dependencies and tunables for Service.
type ServiceConfig struct {
	Users      UserRepository
	Sessions   SessionRepository
	Hasher     PasswordHasher
	Transactor Transactor
	Logger     *slog.Logger

	// LoginDelay is slept after a successful login. Zero disables it;
	// negative selects DefaultLoginDelay.
	LoginDelay time.Duration

	// SessionTTL is the lifetime of new sessions. Zero selects DefaultSessionTTL.
	SessionTTL time.Duration

	// BootstrapAdminID is the user ID that receives the admin role when it
	// registers. Zero selects DefaultBootstrapAdminID; negative disables it.
	BootstrapAdminID int64

	// Sleep overrides the login delay implementation (tests).
	Sleep func(ctx context.Context, d time.Duration)
}

// Service provides registration, login and session operations.
type Service struct {
	users      UserRepository
	sessions   SessionRepository
	hasher     PasswordHasher
	tx         Transactor
	logger     *slog.Logger
	loginDelay time.Duration
	sessionTTL time.Duration
	adminID    int64
	sleep      func(ctx context.Context, d time.Duration)
}

// NewService creates a Service, validating required dependencies.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Users == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("users repository is required")
	}
	if cfg.Sessions == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("sessions repository is required")
	}
	if cfg.Hasher == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("password hasher is required")
	}
	if cfg.Transactor == nil {
		return nil, oops.Code("AUTH_INVALID_CONFIG").Errorf("transactor is required")
	}

	s := &Service{
		users:      cfg.Users,
		sessions:   cfg.Sessions,
		hasher:     cfg.Hasher,
		tx:         cfg.Transactor,
		logger:     cfg.Logger,
		loginDelay: cfg.LoginDelay,
		sessionTTL: cfg.SessionTTL,
		adminID:    cfg.BootstrapAdminID,
		sleep:      cfg.Sleep,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.loginDelay < 0 {
		s.loginDelay = DefaultLoginDelay
	}
	if s.sessionTTL <= 0 {
		s.sessionTTL = DefaultSessionTTL
	}
	if s.adminID == 0 {
		s.adminID = DefaultBootstrapAdminID
	}
	if s.sleep == nil {
		s.sleep = sleepContext
	}
	return s, nil
}

// ClientInfo describes the HTTP client a session is issued to.
type ClientInfo struct {
	UserAgent string
	IPAddress string
}

// RegisterInput is the registration form.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// LoginResult is returned by Register and Login.
// Token is the plaintext session token for the client cookie.
type LoginResult struct {
	User    *User
	Session *Session
	Token   string
}

// Identity returns the request identity for the new session.
func (r *LoginResult) Identity() *Identity {
	return IdentityForUser(r.User, r.Session.ID)
}

// Register creates a user and starts a session for it.
// Fails with AUTH_DUPLICATE_EMAIL when the email is already registered.
func (s *Service) Register(ctx context.Context, in RegisterInput, client ClientInfo) (*LoginResult, error) {
	email := strings.TrimSpace(in.Email)
	if err := ValidateEmail(email); err != nil {
		recordAttempt("register", OutcomeInvalidInput)
		return nil, err
	}

	_, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		recordAttempt("register", OutcomeDuplicateEmail)
		return nil, duplicateEmail(email)
	case !errors.Is(err, ErrNotFound):
		recordAttempt("register", OutcomeError)
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "get user by email").
			Wrap(err)
	}

	if in.Password == "" {
		recordAttempt("register", OutcomeInvalidInput)
		return nil, oops.Code(CodeInvalidInput).With("field", "password").Errorf("password is required")
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		recordAttempt("register", OutcomeError)
		return nil, oops.Code("AUTH_REGISTER_FAILED").With("operation", "hash password").Wrap(err)
	}

	user, err := NewUser(in.FirstName, in.LastName, email, hash)
	if err != nil {
		recordAttempt("register", OutcomeInvalidInput)
		return nil, err
	}

	// The user row, its bootstrap promotion and its first session commit
	// together so a failed registration leaves no account behind.
	var result *LoginResult
	err = s.tx.InTransaction(ctx, func(ctx context.Context) error {
		if err := s.users.Create(ctx, user); err != nil {
			if errors.Is(err, ErrDuplicateEmail) {
				return duplicateEmail(email)
			}
			return oops.Code("AUTH_REGISTER_FAILED").With("operation", "create user").Wrap(err)
		}

		if s.adminID > 0 && user.ID == s.adminID {
			if err := s.users.SetRole(ctx, user.ID, RoleAdmin); err != nil {
				return oops.Code("AUTH_REGISTER_FAILED").
					With("operation", "promote bootstrap admin").
					With("user_id", user.ID).
					Wrap(err)
			}
			user.Role = RoleAdmin
		}

		var err error
		result, err = s.startSession(ctx, user, client)
		return err
	})
	if err != nil {
		if errutil.HasCode(err, CodeDuplicateEmail) {
			recordAttempt("register", OutcomeDuplicateEmail)
		} else {
			recordAttempt("register", OutcomeError)
		}
		return nil, err
	}

	if user.IsAdmin() {
		s.logger.InfoContext(ctx, "bootstrap admin registered", "user_id", user.ID)
	}
	recordAttempt("register", OutcomeSuccess)
	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID)
	return result, nil
}

// Login verifies credentials and starts a session.
// Fails with AUTH_UNKNOWN_USER when no account has the email and with
// AUTH_WRONG_PASSWORD when the password does not match. No session is
// created on failure.
func (s *Service) Login(ctx context.Context, email, password string, client ClientInfo) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			recordAttempt("login", OutcomeUnknownUser)
			return nil, oops.Code(CodeUnknownUser).
				With("email", email).
				Errorf("user with email (%s) does not exist", email)
		}
		recordAttempt("login", OutcomeError)
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "get user by email").
			Wrap(err)
	}

	valid, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		recordAttempt("login", OutcomeError)
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			With("user_id", user.ID).
			Wrap(err)
	}
	if !valid {
		recordAttempt("login", OutcomeWrongPassword)
		return nil, oops.Code(CodeWrongPassword).
			With("user_id", user.ID).
			Errorf("wrong password")
	}

	if s.hasher.NeedsUpgrade(user.PasswordHash) {
		s.upgradeHash(ctx, user, password)
	}

	result, err := s.startSession(ctx, user, client)
	if err != nil {
		recordAttempt("login", OutcomeError)
		return nil, err
	}

	if s.loginDelay > 0 {
		s.sleep(ctx, s.loginDelay)
	}

	recordAttempt("login", OutcomeSuccess)
	s.logger.InfoContext(ctx, "user logged in", "user_id", user.ID, "session_id", result.Session.ID.String())
	return result, nil
}

func (s *Service) upgradeHash(ctx context.Context, user *User, password string) {
	newHash, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.WarnContext(ctx, "best-effort password rehash failed",
			"operation", "rehash_password", "user_id", user.ID, "error", err.Error())
		return
	}
	if err := s.users.UpdatePassword(ctx, user.ID, newHash); err != nil {
		s.logger.WarnContext(ctx, "best-effort password rehash failed",
			"operation", "update_password", "user_id", user.ID, "error", err.Error())
		return
	}
	user.PasswordHash = newHash
}

func (s *Service) startSession(ctx context.Context, user *User, client ClientInfo) (*LoginResult, error) {
	token, tokenHash, err := GenerateSessionToken()
	if err != nil {
		return nil, oops.Code("AUTH_SESSION_CREATE_FAILED").
			With("operation", "generate session token").
			Wrap(err)
	}

	session, err := NewSession(user.ID, tokenHash, client.UserAgent, client.IPAddress, time.Now().Add(s.sessionTTL))
	if err != nil {
		return nil, oops.Code("AUTH_SESSION_CREATE_FAILED").
			With("operation", "create session").
			Wrap(err)
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, oops.Code("AUTH_SESSION_CREATE_FAILED").
			With("operation", "persist session").
			With("user_id", user.ID).
			Wrap(err)
	}

	return &LoginResult{User: user, Session: session, Token: token}, nil
}

// Logout ends a session. A session that is already gone is not an error.
func (s *Service) Logout(ctx context.Context, sessionID ulid.ULID) error {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return oops.Code("AUTH_LOGOUT_FAILED").
			With("operation", "delete session").
			With("session_id", sessionID.String()).
			Wrap(err)
	}
	s.logger.InfoContext(ctx, "user logged out", "session_id", sessionID.String())
	return nil
}

// Authenticate resolves a session token to the caller's Identity and bumps
// the session's last-seen time.
func (s *Service) Authenticate(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, oops.Code(CodeSessionInvalid).Errorf("session token cannot be empty")
	}

	session, err := s.sessions.GetByTokenHash(ctx, HashSessionToken(token))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code(CodeSessionInvalid).Errorf("invalid session token")
		}
		return nil, oops.Code("SESSION_VALIDATE_FAILED").
			With("operation", "get session by token hash").
			Wrap(err)
	}

	if session.IsExpired() {
		if delErr := s.sessions.Delete(ctx, session.ID); delErr != nil && !errors.Is(delErr, ErrNotFound) {
			s.logger.WarnContext(ctx, "best-effort expired session delete failed",
				"operation", "delete_expired_session", "session_id", session.ID.String(), "error", delErr.Error())
		}
		return nil, oops.Code(CodeSessionExpired).
			With("session_id", session.ID.String()).
			Errorf("session has expired")
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code(CodeSessionInvalid).
				With("user_id", session.UserID).
				Errorf("session user no longer exists")
		}
		return nil, oops.Code("SESSION_VALIDATE_FAILED").
			With("operation", "get session user").
			Wrap(err)
	}

	if err := s.sessions.UpdateLastSeen(ctx, session.ID, time.Now()); err != nil {
		s.logger.WarnContext(ctx, "best-effort session touch failed",
			"operation", "update_last_seen", "session_id", session.ID.String(), "error", err.Error())
	}

	return IdentityForUser(user, session.ID), nil
}

// PurgeExpiredSessions deletes expired sessions and returns how many went.
func (s *Service) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	n, err := s.sessions.DeleteExpired(ctx)
	if err != nil {
		return 0, oops.Code("SESSION_PURGE_FAILED").With("operation", "delete expired sessions").Wrap(err)
	}
	if n > 0 {
		s.logger.InfoContext(ctx, "expired sessions purged", "count", n)
	}
	return n, nil
}

func duplicateEmail(email string) error {
	return oops.Code(CodeDuplicateEmail).
		With("email", email).
		Errorf("user with email (%s) exists", email)
}

func sleepContext(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
