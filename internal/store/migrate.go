// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Penwright Contributors

package store

import (
	"cmp"
	"embed"
	"errors"
	"io/fs"
	"path"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/golang-migrate/migrate/v4"
	// Register pgx/v5 database driver for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/samber/oops"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var schemaIndex = sync.OnceValues(loadSchemaIndex)

// Migration is one embedded schema change, e.g. {3, "000003_user_roles"}.
type Migration struct {
	Version uint
	Name    string
}

// SchemaStatus places the database against the embedded migrations.
type SchemaStatus struct {
	Current uint
	Dirty   bool
	Applied []Migration
	Pending []Migration
}

// UpToDate reports whether Up has nothing left to do.
func (s SchemaStatus) UpToDate() bool {
	return !s.Dirty && len(s.Pending) == 0
}

// migrateIface is the subset of *migrate.Migrate that Migrator drives.
type migrateIface interface {
	Up() error
	Down() error
	Steps(n int) error
	Version() (version uint, dirty bool, err error)
	Force(version int) error
	Close() (source error, database error)
}

// Migrator wraps golang-migrate for database schema management.
type Migrator struct {
	m migrateIface
}

// NewMigrator creates a Migrator for the schema embedded in the binary.
// postgres:// and postgresql:// URLs are rewritten to the pgx5:// scheme
// registered by the pgx/v5 driver.
func NewMigrator(databaseURL string) (*Migrator, error) {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, oops.Code("MIGRATION_SOURCE_FAILED").With("operation", "create migration source").Wrap(err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, MigrateURL(databaseURL))
	if err != nil {
		_ = source.Close() //nolint:errcheck // cleanup for embedded FS; init error takes precedence
		return nil, oops.Code("MIGRATION_INIT_FAILED").With("operation", "initialize migrator").Wrap(err)
	}

	return &Migrator{m: m}, nil
}

// MigrateURL rewrites a libpq-style URL to the pgx5:// scheme.
func MigrateURL(databaseURL string) string {
	for _, scheme := range []string{"postgres://", "postgresql://"} {
		if rest, found := strings.CutPrefix(databaseURL, scheme); found {
			return "pgx5://" + rest
		}
	}
	return databaseURL
}

// Up applies all pending migrations.
func (m *Migrator) Up() error {
	if err := m.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return oops.Code("MIGRATION_UP_FAILED").Wrap(err)
	}
	return nil
}

// Down rolls back every migration. All users, posts and comments are dropped.
func (m *Migrator) Down() error {
	if err := m.m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return oops.Code("MIGRATION_DOWN_FAILED").Wrap(err)
	}
	return nil
}

// Steps applies n migrations. Positive n migrates up, negative n migrates down.
func (m *Migrator) Steps(n int) error {
	if err := m.m.Steps(n); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return oops.Code("MIGRATION_STEPS_FAILED").With("steps", n).Wrap(err)
	}
	return nil
}

// Version returns the applied version and whether the last run left the
// schema dirty. A fresh database reports (0, false, nil).
func (m *Migrator) Version() (version uint, dirty bool, err error) {
	version, dirty, err = m.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, oops.Code("MIGRATION_VERSION_FAILED").Wrap(err)
	}
	return version, dirty, nil
}

// Force records version as applied without running anything. It is the
// recovery path after a dirty run has been repaired by hand.
func (m *Migrator) Force(version int) error {
	if version < 0 {
		return oops.Code("INVALID_VERSION").Errorf("version must be non-negative, got %d", version)
	}
	if err := m.m.Force(version); err != nil {
		return oops.Code("MIGRATION_FORCE_FAILED").With("version", version).Wrap(err)
	}
	return nil
}

// Close releases the source and the database connection.
func (m *Migrator) Close() error {
	srcErr, dbErr := m.m.Close()
	if err := errors.Join(srcErr, dbErr); err != nil {
		return oops.Code("MIGRATION_CLOSE_FAILED").Wrap(err)
	}
	return nil
}

// Status reads the schema version and splits the embedded migrations into
// applied and pending.
func (m *Migrator) Status() (SchemaStatus, error) {
	current, dirty, err := m.Version()
	if err != nil {
		return SchemaStatus{}, oops.With("operation", "read schema status").Wrap(err)
	}
	all, err := schemaIndex()
	if err != nil {
		return SchemaStatus{}, err
	}

	status := SchemaStatus{Current: current, Dirty: dirty}
	for _, mig := range all {
		if mig.Version <= current {
			status.Applied = append(status.Applied, mig)
		} else {
			status.Pending = append(status.Pending, mig)
		}
	}
	return status, nil
}

// Migrations lists the embedded migrations in version order.
func Migrations() ([]Migration, error) {
	all, err := schemaIndex()
	if err != nil {
		return nil, err
	}
	return slices.Clone(all), nil
}

// loadSchemaIndex parses NNNNNN_name.up.sql file names. The set is compiled
// into the binary, so a malformed name is an error rather than a warning.
func loadSchemaIndex() ([]Migration, error) {
	files, err := fs.Glob(migrationsFS, "migrations/*.up.sql")
	if err != nil {
		return nil, oops.Code("MIGRATION_LIST_FAILED").Wrap(err)
	}

	index := make([]Migration, 0, len(files))
	for _, file := range files {
		mig, err := parseMigrationName(path.Base(file))
		if err != nil {
			return nil, err
		}
		index = append(index, mig)
	}
	slices.SortFunc(index, func(a, b Migration) int { return cmp.Compare(a.Version, b.Version) })
	for i := 1; i < len(index); i++ {
		if index[i].Version == index[i-1].Version {
			return nil, oops.Code("MIGRATION_DUPLICATE_VERSION").
				With("version", index[i].Version).
				Errorf("%s and %s share a version", index[i-1].Name, index[i].Name)
		}
	}
	return index, nil
}

func parseMigrationName(file string) (Migration, error) {
	name := strings.TrimSuffix(file, ".up.sql")
	prefix, label, ok := strings.Cut(name, "_")
	if !ok || label == "" {
		return Migration{}, oops.Code("MIGRATION_NAME_INVALID").With("file", file).
			Errorf("expected NNNNNN_name.up.sql")
	}
	v, err := strconv.ParseUint(prefix, 10, 32)
	if err != nil || v == 0 {
		return Migration{}, oops.Code("MIGRATION_NAME_INVALID").With("file", file).
			Errorf("version prefix %q is not a positive number", prefix)
	}
	return Migration{Version: uint(v), Name: name}, nil
}
