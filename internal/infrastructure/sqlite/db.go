// Package sqlite persists migration run history in a SQLite database, with
// schema migrations applied automatically on open.
package sqlite

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/zjrosen/templar/internal/history"
	"github.com/zjrosen/templar/internal/log"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DB owns the SQLite connection and hands out repositories bound to it.
type DB struct {
	conn *sql.DB
	runs *runRepository
}

// NewDB opens (creating if needed) the history database at path, creating
// parent directories with 0700, and applies pending schema migrations. An
// existing database file is copied to <path>.bak before migrating.
func NewDB(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	if err := backupExisting(path); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := runMigrations(conn); err != nil {
		_ = conn.Close()
		return nil, err
	}

	log.Debug(log.CatDB, "history database ready", "path", path)
	return &DB{conn: conn, runs: newRunRepository(conn)}, nil
}

// Runs returns the migration-run repository.
func (d *DB) Runs() history.Repository {
	return d.runs
}

// Close closes the underlying connection.
func (d *DB) Close() error {
	return d.conn.Close()
}

// runMigrations applies the embedded schema migrations.
func runMigrations(conn *sql.DB) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load embedded migrations: %w", err)
	}

	driver, err := migratesqlite.WithInstance(conn, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("prepare migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("prepare migrations: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// backupExisting copies a non-empty existing database file to <path>.bak so a
// broken schema migration never destroys the only copy.
func backupExisting(path string) error {
	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		return nil
	}

	src, err := os.Open(path) //nolint:gosec // G304: path is the configured database location
	if err != nil {
		return fmt.Errorf("open database for backup: %w", err)
	}
	defer func() { _ = src.Close() }()

	dst, err := os.OpenFile(path+".bak", os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("create database backup: %w", err)
	}
	defer func() { _ = dst.Close() }()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("write database backup: %w", err)
	}
	return nil
}
