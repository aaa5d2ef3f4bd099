// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Penwright Contributors

package config

import (
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// envKeys maps configuration keys to environment variables, first match wins.
// DB_URI and FLASK_KEY are the names used by existing deployments.
var envKeys = map[string][]string{
	"database_url":   {"PENWRIGHT_DATABASE_URL", "DATABASE_URL", "DB_URI"},
	"secret_key":     {"PENWRIGHT_SECRET_KEY", "FLASK_KEY"},
	"listen_addr":    {"PENWRIGHT_LISTEN_ADDR"},
	"metrics_addr":   {"PENWRIGHT_METRICS_ADDR"},
	"log_format":     {"PENWRIGHT_LOG_FORMAT"},
	"log_level":      {"PENWRIGHT_LOG_LEVEL"},
	"secure_cookies": {"PENWRIGHT_SECURE_COOKIES"},
}

// LoadOptions selects the sources Load reads.
type LoadOptions struct {
	// File is an optional YAML file path.
	File string
	// Flags, when set, overrides other sources with flags the user changed.
	Flags *pflag.FlagSet
	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// RegisterFlags adds the server flags to fs. Flag names use dashes; they map
// to the underscore keys of Config.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("listen-addr", d.ListenAddr, "HTTP listen address")
	fs.String("metrics-addr", d.MetricsAddr, "metrics/health HTTP address (empty = disabled)")
	fs.String("database-url", "", "PostgreSQL connection URL")
	fs.String("log-format", d.LogFormat, "log format (json or text)")
	fs.String("log-level", d.LogLevel, "log level (debug, info, warn, error)")
	fs.Duration("login-delay", d.LoginDelay, "pause after a successful login")
	fs.Duration("session-ttl", d.SessionTTL, "login session lifetime")
	fs.Int("salt-length", d.SaltLength, "password salt length")
	fs.Int64("admin-user-id", d.AdminUserID, "user id promoted to admin at registration (negative disables)")
	fs.Int("db-connect-attempts", d.DBConnectAttempts, "database connection attempts at startup")
	fs.Bool("secure-cookies", d.SecureCookies, "mark cookies Secure (serve over HTTPS)")
}

// Load builds a Config from defaults, opts.File, the environment and
// opts.Flags, then validates it.
func Load(opts LoadOptions) (*Config, error) {
	cfg, err := load(opts)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDatabaseURL resolves only the database URL from the same sources as
// Load. Migration commands use it so they run without a secret key.
func LoadDatabaseURL(opts LoadOptions) (string, error) {
	cfg, err := load(opts)
	if err != nil {
		return "", err
	}
	if err := cfg.validateDatabaseURL(); err != nil {
		return "", err
	}
	return cfg.DatabaseURL, nil
}

func load(opts LoadOptions) (*Config, error) {
	if opts.LookupEnv == nil {
		opts.LookupEnv = os.LookupEnv
	}

	k := koanf.New(".")
	if err := setDefaults(k); err != nil {
		return nil, err
	}

	if opts.File != "" {
		data, err := os.ReadFile(opts.File)
		if err != nil {
			return nil, oops.Code(CodeInvalid).With("file", opts.File).Wrap(err)
		}
		if err := ValidateYAML(data); err != nil {
			return nil, oops.Code(CodeInvalid).With("file", opts.File).Wrap(err)
		}
		if err := k.Load(file.Provider(opts.File), yaml.Parser()); err != nil {
			return nil, oops.Code(CodeInvalid).With("file", opts.File).Wrap(err)
		}
	}

	for key, names := range envKeys {
		for _, name := range names {
			if v, ok := opts.LookupEnv(name); ok && v != "" {
				if err := k.Set(key, v); err != nil {
					return nil, oops.Code(CodeInvalid).With("env", name).Wrap(err)
				}
				break
			}
		}
	}

	if opts.Flags != nil {
		provider := posflag.ProviderWithFlag(opts.Flags, ".", k, func(f *pflag.Flag) (string, any) {
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(opts.Flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code(CodeInvalid).With("source", "flags").Wrap(err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, oops.Code(CodeInvalid).With("operation", "decode configuration").Wrap(err)
	}
	return &cfg, nil
}

func setDefaults(k *koanf.Koanf) error {
	for key, v := range Default().Values() {
		if err := k.Set(key, v); err != nil {
			return oops.Code(CodeInvalid).With("key", key).Wrap(err)
		}
	}
	return nil
}
