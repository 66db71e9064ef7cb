package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// migration represents a single schema migration.
type migration struct {
	version     int
	description string
	apply       func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// New migrations are appended at the end; never modify existing entries.
var migrations = []migration{
	{
		version:     1,
		description: "initial schema (applied via schemaSQL)",
		apply:       func(tx *sql.Tx) error { return nil },
	},
	{
		version:     2,
		description: "count cache hits",
		apply: func(tx *sql.Tx) error {
			_, err := tx.Exec("ALTER TABLE dumps ADD COLUMN hits INTEGER NOT NULL DEFAULT 0")
			return err
		},
	},
	{
		version:     3,
		description: "index dumps by age for pruning",
		apply: func(tx *sql.Tx) error {
			_, err := tx.Exec("CREATE INDEX IF NOT EXISTS idx_dumps_created_at ON dumps(created_at)")
			return err
		},
	},
	{
		version:     4,
		description: "key dumps by parser",
		// The primary key cannot be altered in place, so the table is
		// rebuilt. Old rows do not record their parser and are dropped.
		apply: func(tx *sql.Tx) error {
			for _, stmt := range []string{
				`CREATE TABLE dumps_v4 (
					content_hash TEXT NOT NULL,
					parser TEXT NOT NULL,
					max_depth INTEGER NOT NULL,
					max_nodes INTEGER NOT NULL,
					filename TEXT NOT NULL DEFAULT '',
					has_outline INTEGER NOT NULL,
					result TEXT,
					hits INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					PRIMARY KEY (content_hash, parser, max_depth, max_nodes)
				)`,
				"DROP TABLE dumps",
				"ALTER TABLE dumps_v4 RENAME TO dumps",
				"CREATE INDEX IF NOT EXISTS idx_dumps_created_at ON dumps(created_at)",
			} {
				if _, err := tx.Exec(stmt); err != nil {
					return err
				}
			}
			return nil
		},
	},
}

// Migrate runs all pending schema migrations.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			description TEXT,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	var current int
	row := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
	if err := row.Scan(&current); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}

		slog.Info("applying migration", "version", m.version, "description", m.description)

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.version, err)
		}

		if err := m.apply(tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", m.version, err)
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO schema_version (version, description) VALUES (?, ?)",
			m.version, m.description); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", m.version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", m.version, err)
		}
	}

	return nil
}

// Version returns the highest applied migration.
func (s *Store) Version(ctx context.Context) (int, error) {
	var v int
	err := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&v)
	return v, err
}
