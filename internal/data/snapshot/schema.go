package snapshot

import (
	"database/sql"
	"fmt"
)

const SchemaVersion = 1

type migration struct {
	version int
	sql     string
}

var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS scans (
  id TEXT PRIMARY KEY,
  root TEXT NOT NULL,
  started_at_utc TEXT NOT NULL,
  elapsed_ns INTEGER NOT NULL,
  mode TEXT NOT NULL,
  languages TEXT NOT NULL DEFAULT '',
  file_count INTEGER NOT NULL,
  symbol_count INTEGER NOT NULL,
  edge_count INTEGER NOT NULL,
  created_at_utc TEXT NOT NULL DEFAULT (CURRENT_TIMESTAMP)
);

CREATE TABLE IF NOT EXISTS symbols (
  scan_id TEXT NOT NULL REFERENCES scans(id) ON DELETE CASCADE,
  id TEXT NOT NULL,
  name TEXT NOT NULL,
  kind TEXT NOT NULL,
  package TEXT NOT NULL DEFAULT '',
  scope TEXT NOT NULL DEFAULT '',
  language TEXT NOT NULL DEFAULT '',
  origin TEXT NOT NULL,
  exported INTEGER NOT NULL DEFAULT 0,
  confidence REAL NOT NULL DEFAULT 0,
  complexity INTEGER NOT NULL DEFAULT 0,
  spans TEXT NOT NULL DEFAULT '[]',
  decorators TEXT NOT NULL DEFAULT '',
  PRIMARY KEY (scan_id, id)
);
CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(scan_id, name);

CREATE TABLE IF NOT EXISTS edges (
  scan_id TEXT NOT NULL REFERENCES scans(id) ON DELETE CASCADE,
  seq INTEGER NOT NULL,
  kind TEXT NOT NULL,
  from_id TEXT NOT NULL,
  to_id TEXT NOT NULL,
  resolution TEXT NOT NULL,
  candidates TEXT NOT NULL DEFAULT '',
  confidence REAL NOT NULL DEFAULT 0,
  file TEXT NOT NULL DEFAULT '',
  line INTEGER NOT NULL DEFAULT 0,
  PRIMARY KEY (scan_id, seq)
);

CREATE TABLE IF NOT EXISTS diagnostics (
  scan_id TEXT NOT NULL REFERENCES scans(id) ON DELETE CASCADE,
  path TEXT NOT NULL,
  reason TEXT NOT NULL,
  PRIMARY KEY (scan_id, path)
);
`,
	},
}

func ensureSchema(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER PRIMARY KEY,
  applied_at_utc TEXT NOT NULL DEFAULT (CURRENT_TIMESTAMP)
);
`); err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}

	var current int
	if err := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("read schema_migrations version: %w", err)
	}
	if current > SchemaVersion {
		return fmt.Errorf("snapshot schema version %d is newer than supported version %d", current, SchemaVersion)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.version, err)
		}
		if _, err := tx.Exec(m.sql); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration %d: %w", m.version, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations (version) VALUES (?)`, m.version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.version, err)
		}
	}
	return nil
}
