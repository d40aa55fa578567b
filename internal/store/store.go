package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"descant/internal/config"
	"descant/internal/services"
)

//go:embed schema.sql
var schemaSQL string

const schemaVersion = 1

// Store persists projects and scenes in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if necessary) the database configured in cfg.
func Open(ctx context.Context, cfg *config.Config) (*Store, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "store", "open", "configuration is required", nil)
	}
	return OpenPath(ctx, cfg.DatabasePath())
}

// OpenPath opens the database at an explicit filesystem path.
func OpenPath(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, services.Wrap(services.ErrConfiguration, "store", "open", "database path is required", nil)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "store", "open", "create database directory", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "store", "open", "open database", err)
	}
	// modernc sqlite serializes writes per connection; keep one so
	// transactions never contend with their own pool.
	db.SetMaxOpenConns(1)

	store := &Store{db: db, path: path}
	if err := store.configure(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if err := store.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) configure(ctx context.Context) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := s.db.ExecContext(ctx, pragma); err != nil {
			return services.Wrap(services.ErrConfiguration, "store", "configure", fmt.Sprintf("apply %s", pragma), err)
		}
	}
	return nil
}

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return services.Wrap(services.ErrConfiguration, "store", "migrate", "create schema_version table", err)
	}

	var current sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT version FROM schema_version LIMIT 1`).Scan(&current)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// Fresh database.
	case err != nil:
		return services.Wrap(services.ErrConfiguration, "store", "migrate", "read schema version", err)
	case current.Valid && current.Int64 > schemaVersion:
		return services.Wrap(services.ErrConfiguration, "store", "migrate",
			fmt.Sprintf("database schema version %d is newer than supported version %d", current.Int64, schemaVersion), nil)
	case current.Valid && current.Int64 == schemaVersion:
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "store", "migrate", "begin migration", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return services.Wrap(services.ErrConfiguration, "store", "migrate", "apply schema", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM schema_version`); err != nil {
		return services.Wrap(services.ErrConfiguration, "store", "migrate", "reset schema version", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_version (version) VALUES (?)`, schemaVersion); err != nil {
		return services.Wrap(services.ErrConfiguration, "store", "migrate", "record schema version", err)
	}
	if err := tx.Commit(); err != nil {
		return services.Wrap(services.ErrConfiguration, "store", "migrate", "commit migration", err)
	}
	return nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func timeToString(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return parsed
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
