package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CachedHash returns the stored digest for path when the recorded size and
// modification time still match. A changed or unknown file reports false.
func (s *Store) CachedHash(ctx context.Context, path string, size int64, modTime time.Time) (string, bool, error) {
	var digest string
	err := s.db.QueryRowContext(ctx,
		"SELECT digest FROM file_hashes WHERE path = ? AND file_size = ? AND mod_time_ns = ?",
		path, size, modTime.UnixNano(),
	).Scan(&digest)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("lookup hash for %s: %w", path, err)
	}
	return digest, true, nil
}

// StoreHash records digest for path, replacing any previous entry.
func (s *Store) StoreHash(ctx context.Context, path string, size int64, modTime time.Time, digest string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO file_hashes (path, file_size, mod_time_ns, digest, hashed_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET file_size = excluded.file_size, mod_time_ns = excluded.mod_time_ns,
		 digest = excluded.digest, hashed_at = excluded.hashed_at`,
		path, size, modTime.UnixNano(), digest, s.now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("store hash for %s: %w", path, err)
	}
	return nil
}

// ClearHashes drops the whole hash cache and returns how many rows went.
func (s *Store) ClearHashes(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM file_hashes")
	if err != nil {
		return 0, fmt.Errorf("clear hashes: %w", err)
	}
	return res.RowsAffected()
}

// HashCount reports how many digests are cached.
func (s *Store) HashCount(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM file_hashes").Scan(&n); err != nil {
		return 0, fmt.Errorf("count hashes: %w", err)
	}
	return n, nil
}
