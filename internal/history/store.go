package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"avshelf/internal/config"
)

const (
	entryColumns = "id, run_id, original_filename, original_path, file_size, file_extension, detected_code, processed_at, status, organized_path, metadata_found, title, actresses_json, studio, release_date, cover_downloaded, images_downloaded, duration_ms, error_message"

	defaultRecentLimit = 100
)

// Store manages processing history backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open initializes or connects to the history database at
// cfg.Paths.HistoryDB.
func Open(cfg *config.Config) (*Store, error) {
	dbPath := strings.TrimSpace(cfg.Paths.HistoryDB)
	if dbPath == "" {
		return nil, errors.New("history database path is empty")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: filepath.Clean(dbPath), now: time.Now}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Record validates and inserts entry, returning its row id. A zero
// ProcessedAt is stamped with the current time.
func (s *Store) Record(ctx context.Context, entry Entry) (int64, error) {
	if err := entry.validate(); err != nil {
		return 0, err
	}
	if entry.ProcessedAt.IsZero() {
		entry.ProcessedAt = s.now()
	}
	actresses, err := json.Marshal(entry.Actresses)
	if err != nil {
		return 0, fmt.Errorf("marshal actresses: %w", err)
	}

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO history_entries (
            run_id, original_filename, original_path, file_size, file_extension,
            detected_code, processed_at, status, organized_path, metadata_found,
            title, actresses_json, studio, release_date, cover_downloaded,
            images_downloaded, duration_ms, error_message
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		nullableString(entry.RunID),
		entry.OriginalFilename,
		entry.OriginalPath,
		entry.FileSize,
		nullableString(entry.FileExtension),
		nullableString(entry.DetectedCode),
		entry.ProcessedAt.UnixMilli(),
		entry.Status,
		nullableString(entry.OrganizedPath),
		boolToInt(entry.MetadataFound),
		nullableString(entry.Title),
		string(actresses),
		nullableString(entry.Studio),
		nullableString(entry.ReleaseDate),
		boolToInt(entry.CoverDownloaded),
		entry.ImagesDownloaded,
		entry.Duration.Milliseconds(),
		nullableString(entry.ErrorMessage),
	)
	if err != nil {
		return 0, fmt.Errorf("insert history entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// Recent returns up to limit entries, newest first. A non-positive limit
// means 100.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	return s.query(ctx, "recent",
		`SELECT `+entryColumns+` FROM history_entries ORDER BY processed_at DESC, id DESC LIMIT ?`, limit)
}

// ByCode returns every entry for code, matched case-insensitively.
func (s *Store) ByCode(ctx context.Context, code string) ([]Entry, error) {
	return s.query(ctx, "by code",
		`SELECT `+entryColumns+` FROM history_entries WHERE detected_code = ? COLLATE NOCASE ORDER BY processed_at DESC, id DESC`,
		strings.TrimSpace(code))
}

// ByStatus returns every entry with the given status.
func (s *Store) ByStatus(ctx context.Context, status Status) ([]Entry, error) {
	return s.query(ctx, "by status",
		`SELECT `+entryColumns+` FROM history_entries WHERE status = ? ORDER BY processed_at DESC, id DESC`, status)
}

// Between returns entries processed within [start, end].
func (s *Store) Between(ctx context.Context, start, end time.Time) ([]Entry, error) {
	return s.query(ctx, "between",
		`SELECT `+entryColumns+` FROM history_entries WHERE processed_at BETWEEN ? AND ? ORDER BY processed_at DESC, id DESC`,
		start.UnixMilli(), end.UnixMilli())
}

// Search matches q case-insensitively against filenames, codes, titles, and
// actress names.
func (s *Store) Search(ctx context.Context, q string) ([]Entry, error) {
	pattern := likePattern(q)
	return s.query(ctx, "search",
		`SELECT `+entryColumns+` FROM history_entries
         WHERE lower(original_filename) LIKE ? ESCAPE '\'
            OR lower(COALESCE(organized_path, '')) LIKE ? ESCAPE '\'
            OR lower(COALESCE(detected_code, '')) LIKE ? ESCAPE '\'
            OR lower(COALESCE(title, '')) LIKE ? ESCAPE '\'
            OR lower(COALESCE(actresses_json, '')) LIKE ? ESCAPE '\'
         ORDER BY processed_at DESC, id DESC`,
		pattern, pattern, pattern, pattern, pattern)
}

// Prune deletes entries older than olderThan and reports how many were
// removed. A non-positive olderThan clears the table.
func (s *Store) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	var (
		res sql.Result
		err error
	)
	if olderThan <= 0 {
		res, err = s.db.ExecContext(ctx, `DELETE FROM history_entries`)
	} else {
		cutoff := s.now().Add(-olderThan).UnixMilli()
		res, err = s.db.ExecContext(ctx, `DELETE FROM history_entries WHERE processed_at < ?`, cutoff)
	}
	if err != nil {
		return 0, fmt.Errorf("prune history: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) query(ctx context.Context, op, stmt string, args ...any) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("history %s: %w", op, err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("history %s: scan: %w", op, err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func scanEntry(scanner interface{ Scan(dest ...any) error }) (Entry, error) {
	var (
		entry         Entry
		runID         sql.NullString
		extension     sql.NullString
		code          sql.NullString
		processedAt   int64
		status        string
		organizedPath sql.NullString
		metadataFound int
		title         sql.NullString
		actressesJSON sql.NullString
		studio        sql.NullString
		releaseDate   sql.NullString
		cover         int
		durationMS    int64
		errorMessage  sql.NullString
	)
	if err := scanner.Scan(
		&entry.ID,
		&runID,
		&entry.OriginalFilename,
		&entry.OriginalPath,
		&entry.FileSize,
		&extension,
		&code,
		&processedAt,
		&status,
		&organizedPath,
		&metadataFound,
		&title,
		&actressesJSON,
		&studio,
		&releaseDate,
		&cover,
		&entry.ImagesDownloaded,
		&durationMS,
		&errorMessage,
	); err != nil {
		return Entry{}, err
	}

	entry.RunID = runID.String
	entry.FileExtension = extension.String
	entry.DetectedCode = code.String
	entry.ProcessedAt = time.UnixMilli(processedAt).UTC()
	entry.Status = Status(status)
	entry.OrganizedPath = organizedPath.String
	entry.MetadataFound = metadataFound != 0
	entry.Title = title.String
	entry.Studio = studio.String
	entry.ReleaseDate = releaseDate.String
	entry.CoverDownloaded = cover != 0
	entry.Duration = time.Duration(durationMS) * time.Millisecond
	entry.ErrorMessage = errorMessage.String
	if actressesJSON.Valid && actressesJSON.String != "" {
		if err := json.Unmarshal([]byte(actressesJSON.String), &entry.Actresses); err != nil {
			return Entry{}, fmt.Errorf("decode actresses: %w", err)
		}
	}
	return entry, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func likePattern(q string) string {
	q = strings.ToLower(strings.TrimSpace(q))
	q = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(q)
	return "%" + q + "%"
}
