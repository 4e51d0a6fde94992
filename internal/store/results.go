package store

import (
	"fmt"
	"time"
)

// Result statuses.
const (
	ResultSucceeded = "succeeded"
	ResultFailed    = "failed"
	ResultSkipped   = "skipped"
)

// BuildResult is the outcome of one bundler config within a run.
type BuildResult struct {
	ID         int64
	RunID      string
	Project    string
	Kind       string
	Vendor     bool // true for vendor bundle configs
	Digest     string
	Status     string
	Warnings   int
	Errors     int
	DurationMS int64
	CreatedAt  int64 // unix ms
}

// RecordResult appends a result row for a run.
func (s *Store) RecordResult(r *BuildResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.CreatedAt == 0 {
		r.CreatedAt = time.Now().UnixMilli()
	}

	query := `
	INSERT INTO build_results (
		run_id, project, kind, vendor, digest, status, warnings, errors, duration_ms, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	res, err := s.db.Exec(query,
		r.RunID, r.Project, r.Kind, r.Vendor, r.Digest, r.Status,
		r.Warnings, r.Errors, r.DurationMS, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record result: %w", err)
	}
	r.ID, _ = res.LastInsertId()
	return nil
}

// ResultsForRun returns a run's results in insertion order.
func (s *Store) ResultsForRun(runID string) ([]*BuildResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
	SELECT id, run_id, project, kind, vendor, digest, status, warnings, errors, duration_ms, created_at
	FROM build_results WHERE run_id = ? ORDER BY id ASC
	`
	return s.queryResults(query, runID)
}

// ProjectHistory returns the most recent results for one project, newest first.
func (s *Store) ProjectHistory(project string, limit int) ([]*BuildResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}

	query := `
	SELECT id, run_id, project, kind, vendor, digest, status, warnings, errors, duration_ms, created_at
	FROM build_results WHERE project = ? ORDER BY id DESC LIMIT ?
	`
	return s.queryResults(query, project, limit)
}

func (s *Store) queryResults(query string, args ...any) ([]*BuildResult, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	defer rows.Close()

	var out []*BuildResult
	for rows.Next() {
		r := &BuildResult{}
		err := rows.Scan(
			&r.ID, &r.RunID, &r.Project, &r.Kind, &r.Vendor, &r.Digest,
			&r.Status, &r.Warnings, &r.Errors, &r.DurationMS, &r.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
