// Package storage persists finished registries in SQLite so that later
// commands can resolve references without rebuilding the model.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure Go SQLite driver

	apierrors "apidoc/internal/errors"
)

// DefaultPath returns the database location under a project root.
func DefaultPath(root string) string {
	return filepath.Join(root, ".apidoc", "apidoc.db")
}

// DB is a database connection with transaction helpers.
type DB struct {
	conn   *sql.DB
	logger *slog.Logger
	path   string
}

// Open opens or creates the database at path. A new database gets the
// full schema; an existing one is migrated.
func Open(path string, logger *slog.Logger) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, apierrors.New(apierrors.StorageError, "failed to create database directory", err).WithSubject(path)
	}
	_, statErr := os.Stat(path)
	exists := statErr == nil

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, apierrors.New(apierrors.StorageError, "failed to open database", err).WithSubject(path)
	}
	// One writer; keeps foreign_keys and other per-connection pragmas in effect.
	conn.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
		"PRAGMA temp_store=MEMORY",
	}
	for _, p := range pragmas {
		if _, err := conn.Exec(p); err != nil {
			_ = conn.Close()
			return nil, apierrors.New(apierrors.StorageError, "failed to set pragma", err).WithSubject(p)
		}
	}

	db := &DB{conn: conn, logger: logger, path: path}
	if !exists {
		logger.Info("Creating registry database", "path", path)
		err = db.initializeSchema()
	} else {
		err = db.runMigrations()
	}
	if err != nil {
		_ = conn.Close()
		return nil, apierrors.New(apierrors.StorageError, "failed to prepare schema", err).WithSubject(path)
	}
	return db, nil
}

// Path returns the database file location.
func (db *DB) Path() string {
	return db.path
}

// Close closes the connection.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	return db.conn.Close()
}

// WithTx runs fn in a transaction, committing when fn returns nil.
func (db *DB) WithTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			db.logger.Error("Rollback failed", "error", err, "rollbackError", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
