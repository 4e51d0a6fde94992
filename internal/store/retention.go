package store

import (
	"context"
	"fmt"
	"time"
)

// Build history is kept for 30 days.
const retentionDays = 30

// RunRetention prunes build runs older than the retention window.
func (s *Store) RunRetention(ctx context.Context) error {
	cutoff := time.Now().UnixMilli() - retentionDays*24*60*60*1000
	pruned, err := s.PruneRuns(ctx, cutoff)
	if err != nil {
		return err
	}
	if pruned > 0 {
		s.logger.Debug().Int64("runs", pruned).Msg("pruned old build history")
	}
	return nil
}

// DBSizeBytes returns the database size in bytes.
func (s *Store) DBSizeBytes() (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var pageCount, pageSize int64
	if err := s.db.QueryRow("PRAGMA page_count").Scan(&pageCount); err != nil {
		return 0, fmt.Errorf("failed to get page count: %w", err)
	}
	if err := s.db.QueryRow("PRAGMA page_size").Scan(&pageSize); err != nil {
		return 0, fmt.Errorf("failed to get page size: %w", err)
	}
	return pageCount * pageSize, nil
}
