package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Run statuses.
const (
	RunRunning   = "running"
	RunSucceeded = "succeeded"
	RunFailed    = "failed"
)

// BuildRun is one pipeline invocation.
type BuildRun struct {
	ID         string
	Workspace  string
	Mode       string
	Watch      bool
	Filter     string // comma-joined requested names
	StartedAt  int64  // unix ms
	FinishedAt int64  // unix ms, 0 = still running
	Status     string
	Error      string
}

// StartRun records the beginning of an invocation.
func (s *Store) StartRun(r *BuildRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.StartedAt == 0 {
		r.StartedAt = time.Now().UnixMilli()
	}
	if r.Status == "" {
		r.Status = RunRunning
	}

	query := `
	INSERT OR REPLACE INTO build_runs (
		id, workspace, mode, watch, filter, started_at, finished_at, status, error
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		r.ID, r.Workspace, r.Mode, r.Watch, r.Filter, r.StartedAt,
		sql.NullInt64{Int64: r.FinishedAt, Valid: r.FinishedAt != 0},
		r.Status,
		sql.NullString{String: r.Error, Valid: r.Error != ""},
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// FinishRun closes a run with its final status.
func (s *Store) FinishRun(id, status, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `UPDATE build_runs SET status = ?, error = ?, finished_at = ? WHERE id = ?`
	res, err := s.db.Exec(query,
		status,
		sql.NullString{String: errMsg, Valid: errMsg != ""},
		time.Now().UnixMilli(),
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s not found", id)
	}
	return nil
}

// GetRun retrieves a run by ID. Missing runs return nil, not an error.
func (s *Store) GetRun(id string) (*BuildRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
	SELECT id, workspace, mode, watch, filter, started_at, finished_at, status, error
	FROM build_runs WHERE id = ?
	`
	r, err := scanRun(s.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return r, nil
}

// RecentRuns returns up to limit runs, newest first.
func (s *Store) RecentRuns(limit int) ([]*BuildRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}

	query := `
	SELECT id, workspace, mode, watch, filter, started_at, finished_at, status, error
	FROM build_runs ORDER BY started_at DESC LIMIT ?
	`
	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var out []*BuildRun
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// PruneRuns deletes runs started before the cutoff, and their results.
// Returns the number of runs removed.
func (s *Store) PruneRuns(ctx context.Context, before int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM build_results WHERE run_id IN (SELECT id FROM build_runs WHERE started_at < ?)`,
		before,
	); err != nil {
		return 0, fmt.Errorf("failed to prune results: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM build_runs WHERE started_at < ?`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*BuildRun, error) {
	r := &BuildRun{}
	var finishedAt sql.NullInt64
	var errMsg sql.NullString

	err := row.Scan(
		&r.ID, &r.Workspace, &r.Mode, &r.Watch, &r.Filter,
		&r.StartedAt, &finishedAt, &r.Status, &errMsg,
	)
	if err != nil {
		return nil, err
	}
	if finishedAt.Valid {
		r.FinishedAt = finishedAt.Int64
	}
	if errMsg.Valid {
		r.Error = errMsg.String
	}
	return r, nil
}
