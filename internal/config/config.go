// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Penwright Contributors

// Package config loads server configuration from defaults, an optional YAML
// file, the environment and command-line flags, in that order of precedence.
package config

import (
	"net"
	"net/url"
	"time"

	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

// CodeInvalid is the oops code for every configuration error.
const CodeInvalid = "CONFIG_INVALID"

// MinSecretKeyLength is the shortest accepted secret key, in bytes.
const MinSecretKeyLength = 16

// Config is the server configuration.
type Config struct {
	ListenAddr        string        `koanf:"listen_addr" json:"listen_addr,omitempty" jsonschema:"description=HTTP listen address for the blog"`
	MetricsAddr       string        `koanf:"metrics_addr" json:"metrics_addr,omitempty" jsonschema:"description=Metrics and health listen address; empty disables"`
	DatabaseURL       string        `koanf:"database_url" json:"database_url,omitempty" jsonschema:"description=PostgreSQL connection URL"`
	SecretKey         string        `koanf:"secret_key" json:"secret_key,omitempty" jsonschema:"description=Key signing flash cookies,minLength=16"`
	LogFormat         string        `koanf:"log_format" json:"log_format,omitempty" jsonschema:"enum=json,enum=text"`
	LogLevel          string        `koanf:"log_level" json:"log_level,omitempty" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
	LoginDelay        time.Duration `koanf:"login_delay" json:"login_delay,omitempty" jsonschema:"description=Pause after a successful login"`
	SessionTTL        time.Duration `koanf:"session_ttl" json:"session_ttl,omitempty" jsonschema:"description=Lifetime of a login session"`
	SaltLength        int           `koanf:"salt_length" json:"salt_length,omitempty" jsonschema:"minimum=1,maximum=64"`
	AdminUserID       int64         `koanf:"admin_user_id" json:"admin_user_id,omitempty" jsonschema:"description=User id promoted to admin at registration; negative disables"`
	DBConnectAttempts int           `koanf:"db_connect_attempts" json:"db_connect_attempts,omitempty" jsonschema:"minimum=1"`
	SecureCookies     bool          `koanf:"secure_cookies" json:"secure_cookies,omitempty" jsonschema:"description=Mark session and flash cookies Secure (HTTPS only)"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ListenAddr:        ":5002",
		MetricsAddr:       "127.0.0.1:9100",
		LogFormat:         "json",
		LogLevel:          "info",
		LoginDelay:        2 * time.Second,
		SessionTTL:        24 * time.Hour,
		SaltLength:        8,
		AdminUserID:       1,
		DBConnectAttempts: 5,
	}
}

// Validate checks that the configuration can start a server.
func (c *Config) Validate() error {
	if _, _, err := net.SplitHostPort(c.ListenAddr); err != nil {
		return invalid("listen_addr", "must be host:port, got %q", c.ListenAddr)
	}
	if c.MetricsAddr != "" {
		if _, _, err := net.SplitHostPort(c.MetricsAddr); err != nil {
			return invalid("metrics_addr", "must be host:port or empty, got %q", c.MetricsAddr)
		}
	}
	if err := c.validateDatabaseURL(); err != nil {
		return err
	}
	if len(c.SecretKey) < MinSecretKeyLength {
		return invalid("secret_key", "must be at least %d bytes (set PENWRIGHT_SECRET_KEY or FLASK_KEY)", MinSecretKeyLength)
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return invalid("log_format", "must be 'json' or 'text', got %q", c.LogFormat)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return invalid("log_level", "must be debug, info, warn or error, got %q", c.LogLevel)
	}
	if c.LoginDelay < 0 {
		return invalid("login_delay", "cannot be negative")
	}
	if c.SessionTTL <= 0 {
		return invalid("session_ttl", "must be positive")
	}
	if c.SaltLength < 1 || c.SaltLength > 64 {
		return invalid("salt_length", "must be between 1 and 64, got %d", c.SaltLength)
	}
	if c.DBConnectAttempts < 1 {
		return invalid("db_connect_attempts", "must be at least 1")
	}
	return nil
}

func (c *Config) validateDatabaseURL() error {
	if c.DatabaseURL == "" {
		return invalid("database_url", "is required (set DATABASE_URL or DB_URI)")
	}
	if u, err := url.Parse(c.DatabaseURL); err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
		return invalid("database_url", "must be a postgres:// URL")
	}
	return nil
}

// Values returns the configuration keyed like the config file, with
// durations in their string form.
func (c Config) Values() map[string]any {
	return map[string]any{
		"listen_addr":         c.ListenAddr,
		"metrics_addr":        c.MetricsAddr,
		"database_url":        c.DatabaseURL,
		"secret_key":          c.SecretKey,
		"log_format":          c.LogFormat,
		"log_level":           c.LogLevel,
		"login_delay":         c.LoginDelay.String(),
		"session_ttl":         c.SessionTTL.String(),
		"salt_length":         c.SaltLength,
		"admin_user_id":       c.AdminUserID,
		"db_connect_attempts": c.DBConnectAttempts,
		"secure_cookies":      c.SecureCookies,
	}
}

// YAML renders c as a config file.
func (c Config) YAML() ([]byte, error) {
	out, err := yaml.Marshal(c.Values())
	if err != nil {
		return nil, oops.Code(CodeInvalid).With("operation", "encode configuration").Wrap(err)
	}
	return out, nil
}

// Redacted returns a copy safe to print: credentials are masked.
func (c Config) Redacted() Config {
	if c.SecretKey != "" {
		c.SecretKey = "********"
	}
	if u, err := url.Parse(c.DatabaseURL); err == nil && u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), "xxxxx")
			c.DatabaseURL = u.String()
		}
	}
	return c
}

func invalid(field, format string, args ...any) error {
	return oops.Code(CodeInvalid).With("field", field).Errorf(field+" "+format, args...)
}
