package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const currentSchemaVersion = 2

// schema is the current layout. Version 2 keys members by class as well as
// ID so a property and a method may share one.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		policy TEXT NOT NULL,
		min_accessibility TEXT NOT NULL,
		type_count INTEGER NOT NULL,
		member_count INTEGER NOT NULL,
		warning_count INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS types (
		run_id TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
		type_id TEXT NOT NULL,
		display_name TEXT NOT NULL,
		namespace TEXT NOT NULL,
		name TEXT NOT NULL,
		assembly TEXT NOT NULL,
		type_kind TEXT NOT NULL,
		accessibility TEXT NOT NULL,
		type_parameters_json TEXT,
		is_static INTEGER NOT NULL DEFAULT 0,
		is_abstract INTEGER NOT NULL DEFAULT 0,
		is_sealed INTEGER NOT NULL DEFAULT 0,
		base_id TEXT,
		base_ref_json TEXT,
		PRIMARY KEY (run_id, type_id)
	)`,
	`CREATE TABLE IF NOT EXISTS type_interfaces (
		run_id TEXT NOT NULL,
		type_id TEXT NOT NULL,
		ordinal INTEGER NOT NULL,
		interface_id TEXT NOT NULL,
		ref_json TEXT,
		PRIMARY KEY (run_id, type_id, ordinal),
		FOREIGN KEY (run_id, type_id) REFERENCES types(run_id, type_id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS members (
		run_id TEXT NOT NULL,
		type_id TEXT NOT NULL,
		member_class TEXT NOT NULL,
		member_id TEXT NOT NULL,
		display_name TEXT NOT NULL,
		kind TEXT NOT NULL,
		origin_type TEXT NOT NULL,
		origin_id TEXT NOT NULL,
		inherited INTEGER NOT NULL DEFAULT 0,
		accessibility TEXT NOT NULL,
		is_static INTEGER NOT NULL DEFAULT 0,
		explicit_interface TEXT,
		overrides_type TEXT,
		overrides_member TEXT,
		PRIMARY KEY (run_id, type_id, member_class, member_id),
		FOREIGN KEY (run_id, type_id) REFERENCES types(run_id, type_id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS member_implements (
		run_id TEXT NOT NULL,
		type_id TEXT NOT NULL,
		member_class TEXT NOT NULL,
		member_id TEXT NOT NULL,
		ordinal INTEGER NOT NULL,
		target_type TEXT NOT NULL,
		target_member TEXT NOT NULL,
		PRIMARY KEY (run_id, type_id, member_class, member_id, ordinal),
		FOREIGN KEY (run_id, type_id, member_class, member_id) REFERENCES members(run_id, type_id, member_class, member_id) ON DELETE CASCADE
	)`,
	"CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)",
	"CREATE INDEX IF NOT EXISTS idx_members_origin ON members(run_id, origin_type, origin_id)",
}

func (db *DB) initializeSchema() error {
	return db.WithTx(context.Background(), func(tx *sql.Tx) error {
		for _, stmt := range schema {
			if _, err := tx.Exec(stmt); err != nil {
				return fmt.Errorf("failed to create schema: %w", err)
			}
		}
		if err := setSchemaVersion(tx, currentSchemaVersion); err != nil {
			return err
		}
		db.logger.Debug("Database schema initialized", "version", currentSchemaVersion)
		return nil
	})
}

func (db *DB) runMigrations() error {
	version, err := db.getSchemaVersion()
	if err != nil {
		return err
	}
	switch {
	case version == currentSchemaVersion:
		return nil
	case version == 0:
		// File exists but was never initialized, e.g. an interrupted first open.
		return db.initializeSchema()
	case version > currentSchemaVersion:
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, currentSchemaVersion)
	}
	db.logger.Info("Migrating database", "from", version, "to", currentSchemaVersion)
	if version < 2 {
		if err := db.migrateToV2(); err != nil {
			return fmt.Errorf("migration to v2 failed: %w", err)
		}
	}
	return nil
}

// migrateToV2 rebuilds the store. Version 1 member rows carry no class, so
// stored runs are dropped; they are rebuilt by the next build.
func (db *DB) migrateToV2() error {
	var runs int
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM runs").Scan(&runs); err != nil {
		return err
	}
	if runs > 0 {
		db.logger.Warn("Dropping stored runs during migration", "runs", runs, "to", 2)
	}
	return db.WithTx(context.Background(), func(tx *sql.Tx) error {
		for _, table := range []string{"member_implements", "members", "type_interfaces", "types", "runs"} {
			if _, err := tx.Exec("DROP TABLE IF EXISTS " + table); err != nil {
				return err
			}
		}
		for _, stmt := range schema {
			if _, err := tx.Exec(stmt); err != nil {
				return fmt.Errorf("failed to create schema: %w", err)
			}
		}
		return setSchemaVersion(tx, 2)
	})
}

func (db *DB) getSchemaVersion() (int, error) {
	var name string
	err := db.conn.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='schema_version'`).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var version int
	err = db.conn.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return version, err
}

func setSchemaVersion(tx *sql.Tx, version int) error {
	if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
		return err
	}
	_, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version)
	return err
}
