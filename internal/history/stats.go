package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

const bytesPerMB = 1024 * 1024

// Stats summarizes the whole table. Organized size counts files that reached
// the library, successful and partial alike.
func (s *Store) Stats(ctx context.Context) (Summary, error) {
	now := s.now()
	var (
		summary       Summary
		totalSize     int64
		organizedSize int64
		avgMS         float64
	)
	err := s.db.QueryRowContext(ctx, `
        SELECT
            COUNT(1),
            COALESCE(SUM(CASE WHEN status = 'success' THEN 1 ELSE 0 END), 0),
            COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0),
            COALESCE(SUM(CASE WHEN status = 'partial' THEN 1 ELSE 0 END), 0),
            COALESCE(SUM(CASE WHEN status = 'skipped' THEN 1 ELSE 0 END), 0),
            COALESCE(SUM(file_size), 0),
            COALESCE(SUM(CASE WHEN status IN ('success', 'partial') THEN file_size ELSE 0 END), 0),
            COALESCE(SUM(metadata_found), 0),
            COALESCE(SUM(cover_downloaded), 0),
            COUNT(DISTINCT NULLIF(studio, '')),
            COALESCE(AVG(CASE WHEN duration_ms > 0 THEN duration_ms END), 0.0),
            COALESCE(SUM(CASE WHEN processed_at >= ? THEN 1 ELSE 0 END), 0),
            COALESCE(SUM(CASE WHEN processed_at >= ? THEN 1 ELSE 0 END), 0),
            COALESCE(SUM(CASE WHEN processed_at >= ? THEN 1 ELSE 0 END), 0)
        FROM history_entries`,
		now.Add(-24*time.Hour).UnixMilli(),
		now.Add(-7*24*time.Hour).UnixMilli(),
		now.Add(-30*24*time.Hour).UnixMilli(),
	).Scan(
		&summary.Total,
		&summary.Successful,
		&summary.Failed,
		&summary.Partial,
		&summary.Skipped,
		&totalSize,
		&organizedSize,
		&summary.WithMetadata,
		&summary.WithCover,
		&summary.UniqueStudios,
		&avgMS,
		&summary.Last24h,
		&summary.Last7d,
		&summary.Last30d,
	)
	if err != nil {
		return Summary{}, fmt.Errorf("history stats: %w", err)
	}

	if summary.Total > 0 {
		summary.SuccessRate = float64(summary.Successful) / float64(summary.Total) * 100
	}
	summary.TotalSizeMB = float64(totalSize) / bytesPerMB
	summary.OrganizedSizeMB = float64(organizedSize) / bytesPerMB
	summary.AvgProcessingSeconds = avgMS / 1000

	actresses, err := s.uniqueActresses(ctx)
	if err != nil {
		return Summary{}, err
	}
	summary.UniqueActresses = actresses
	return summary, nil
}

func (s *Store) uniqueActresses(ctx context.Context) (int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT actresses_json FROM history_entries WHERE actresses_json IS NOT NULL`)
	if err != nil {
		return 0, fmt.Errorf("history actresses: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]struct{})
	for rows.Next() {
		var raw sql.NullString
		if err := rows.Scan(&raw); err != nil {
			return 0, fmt.Errorf("history actresses: scan: %w", err)
		}
		var names []string
		if raw.String == "" || json.Unmarshal([]byte(raw.String), &names) != nil {
			continue
		}
		for _, name := range names {
			seen[name] = struct{}{}
		}
	}
	return len(seen), rows.Err()
}
