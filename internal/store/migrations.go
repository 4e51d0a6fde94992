package store

import (
	"fmt"
)

func (s *Store) migrate() error {
	return s.migrateV1()
}

func (s *Store) migrateV1() error {
	schema := `
	CREATE TABLE IF NOT EXISTS build_runs (
		id          TEXT PRIMARY KEY,
		workspace   TEXT NOT NULL,
		mode        TEXT NOT NULL,
		watch       INTEGER NOT NULL DEFAULT 0,
		filter      TEXT NOT NULL DEFAULT '',
		started_at  INTEGER NOT NULL,
		finished_at INTEGER,
		status      TEXT NOT NULL DEFAULT 'running',
		error       TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON build_runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_runs_status ON build_runs(status);

	CREATE TABLE IF NOT EXISTS build_results (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id      TEXT NOT NULL REFERENCES build_runs(id),
		project     TEXT NOT NULL,
		kind        TEXT NOT NULL,
		vendor      INTEGER NOT NULL DEFAULT 0,
		digest      TEXT NOT NULL DEFAULT '',
		status      TEXT NOT NULL,
		warnings    INTEGER NOT NULL DEFAULT 0,
		errors      INTEGER NOT NULL DEFAULT 0,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		created_at  INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_results_run ON build_results(run_id);
	CREATE INDEX IF NOT EXISTS idx_results_project ON build_results(project, created_at);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	INSERT OR REPLACE INTO meta(key, value) VALUES ('schema_version', '1');
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute migration v1: %w", err)
	}

	return nil
}
