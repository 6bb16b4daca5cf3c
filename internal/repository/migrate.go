package repository

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
)

// ErrInvalidMigration is returned when a migration file name or pair is malformed.
var ErrInvalidMigration = errors.New("invalid migration")

// Migration is one numbered schema change with its rollback.
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

const createMigrationsTable = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version    INTEGER PRIMARY KEY,
		name       TEXT NOT NULL,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`

// LoadMigrations reads NNNNNN_name.up.sql / NNNNNN_name.down.sql pairs from fsys,
// sorted by version.
func LoadMigrations(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}

	byVersion := make(map[int]*Migration)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		base := strings.TrimSuffix(entry.Name(), ".sql")
		stem, direction, ok := cutLast(base, ".")
		if !ok || (direction != "up" && direction != "down") {
			return nil, fmt.Errorf("%w: %s", ErrInvalidMigration, entry.Name())
		}
		rawVersion, name, ok := strings.Cut(stem, "_")
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrInvalidMigration, entry.Name())
		}
		version, err := strconv.Atoi(rawVersion)
		if err != nil || version <= 0 {
			return nil, fmt.Errorf("%w: %s", ErrInvalidMigration, entry.Name())
		}

		body, err := fs.ReadFile(fsys, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", entry.Name(), err)
		}

		m, exists := byVersion[version]
		if !exists {
			m = &Migration{Version: version, Name: name}
			byVersion[version] = m
		} else if m.Name != name {
			return nil, fmt.Errorf("%w: version %d has names %q and %q", ErrInvalidMigration, version, m.Name, name)
		}
		if direction == "up" {
			m.Up = string(body)
		} else {
			m.Down = string(body)
		}
	}

	migrations := make([]Migration, 0, len(byVersion))
	for _, m := range byVersion {
		if m.Up == "" || m.Down == "" {
			return nil, fmt.Errorf("%w: version %d is missing its up or down file", ErrInvalidMigration, m.Version)
		}
		migrations = append(migrations, *m)
	}
	slices.SortFunc(migrations, func(a, b Migration) int { return cmp.Compare(a.Version, b.Version) })

	return migrations, nil
}

// migrationLockID keys the transaction-level advisory lock that serializes
// concurrent migration runs.
const migrationLockID int64 = 7_204_001

// withMigrationLock runs fn in a transaction holding the migration lock,
// with schema_migrations guaranteed to exist.
func (r *Repository) withMigrationLock(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, migrationLockID); err != nil {
			return fmt.Errorf("failed to acquire migration lock: %w", err)
		}
		if _, err := tx.Exec(ctx, createMigrationsTable); err != nil {
			return fmt.Errorf("failed to ensure schema_migrations: %w", err)
		}
		return fn(tx)
	})
}

func isApplied(ctx context.Context, tx pgx.Tx, version int) (bool, error) {
	var applied bool
	err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)`, version).Scan(&applied)
	if err != nil {
		return false, fmt.Errorf("failed to read schema_migrations: %w", err)
	}
	return applied, nil
}

// SchemaVersion returns the highest applied migration version, or 0.
func (r *Repository) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	err := r.withMigrationLock(ctx, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&version)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

// Migrate applies every migration not yet recorded in schema_migrations, in
// version order, each in its own transaction.
// It returns the number of migrations applied.
func (r *Repository) Migrate(ctx context.Context, fsys fs.FS) (int, error) {
	migrations, err := LoadMigrations(fsys)
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, m := range migrations {
		ran := false
		err := r.withMigrationLock(ctx, func(tx pgx.Tx) error {
			done, err := isApplied(ctx, tx, m.Version)
			if err != nil || done {
				return err
			}
			if _, err := tx.Exec(ctx, m.Up); err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`, m.Version, m.Name); err != nil {
				return err
			}
			ran = true
			return nil
		})
		if err != nil {
			return applied, fmt.Errorf("failed to apply migration %d_%s: %w", m.Version, m.Name, err)
		}
		if ran {
			applied++
		}
	}

	return applied, nil
}

// MigrateDown rolls back up to steps applied migrations, newest first.
// Versions missing from schema_migrations are skipped.
// A non-positive steps rolls back everything.
func (r *Repository) MigrateDown(ctx context.Context, fsys fs.FS, steps int) (int, error) {
	migrations, err := LoadMigrations(fsys)
	if err != nil {
		return 0, err
	}

	reverted := 0
	for i := len(migrations) - 1; i >= 0; i-- {
		if steps > 0 && reverted == steps {
			break
		}
		m := migrations[i]
		ran := false
		err := r.withMigrationLock(ctx, func(tx pgx.Tx) error {
			done, err := isApplied(ctx, tx, m.Version)
			if err != nil || !done {
				return err
			}
			if _, err := tx.Exec(ctx, m.Down); err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, `DELETE FROM schema_migrations WHERE version = $1`, m.Version); err != nil {
				return err
			}
			ran = true
			return nil
		})
		if err != nil {
			return reverted, fmt.Errorf("failed to revert migration %d_%s: %w", m.Version, m.Name, err)
		}
		if ran {
			reverted++
		}
	}

	return reverted, nil
}

func cutLast(s, sep string) (before, after string, found bool) {
	i := strings.LastIndex(s, sep)
	if i < 0 {
		return s, "", false
	}
	return s[:i], s[i+len(sep):], true
}
