package history

import (
	"fmt"
	"strings"
	"time"

	"avshelf/internal/services"
)

// Status is the outcome recorded for one processed file.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	// StatusPartial means the video was organized but some artwork failed.
	StatusPartial Status = "partial"
	// StatusSkipped means no metadata was available for the file.
	StatusSkipped Status = "skipped"
)

// ParseStatus maps a user-supplied status name onto a Status.
func ParseStatus(value string) (Status, error) {
	switch s := Status(strings.ToLower(strings.TrimSpace(value))); s {
	case StatusSuccess, StatusFailed, StatusPartial, StatusSkipped:
		return s, nil
	default:
		return "", fmt.Errorf("unknown history status %q", value)
	}
}

// Entry is one history row.
type Entry struct {
	ID               int64         `json:"id"`
	RunID            string        `json:"run_id,omitempty"`
	OriginalFilename string        `json:"original_filename"`
	OriginalPath     string        `json:"original_path"`
	FileSize         int64         `json:"file_size"`
	FileExtension    string        `json:"file_extension,omitempty"`
	DetectedCode     string        `json:"detected_code,omitempty"`
	ProcessedAt      time.Time     `json:"processed_at"`
	Status           Status        `json:"status"`
	OrganizedPath    string        `json:"organized_path,omitempty"`
	MetadataFound    bool          `json:"metadata_found"`
	Title            string        `json:"title,omitempty"`
	Actresses        []string      `json:"actresses,omitempty"`
	Studio           string        `json:"studio,omitempty"`
	ReleaseDate      string        `json:"release_date,omitempty"`
	CoverDownloaded  bool          `json:"cover_downloaded"`
	ImagesDownloaded int           `json:"images_downloaded"`
	Duration         time.Duration `json:"duration"`
	ErrorMessage     string        `json:"error_message,omitempty"`
}

// FileSizeMB returns FileSize in mebibytes.
func (e Entry) FileSizeMB() float64 {
	return float64(e.FileSize) / (1024 * 1024)
}

func (e Entry) validate() error {
	switch {
	case strings.TrimSpace(e.OriginalFilename) == "":
		return services.Wrap(services.ErrValidation, "history", "record", "original filename is required", nil)
	case strings.TrimSpace(e.OriginalPath) == "":
		return services.Wrap(services.ErrValidation, "history", "record", "original path is required", nil)
	case e.FileSize < 0:
		return services.Wrap(services.ErrValidation, "history", "record", "file size cannot be negative", nil)
	}
	if _, err := ParseStatus(string(e.Status)); err != nil {
		return services.Wrap(services.ErrValidation, "history", "record", "status", err)
	}
	return nil
}

// Summary aggregates the whole history table.
type Summary struct {
	Total                int     `json:"total_processed"`
	Successful           int     `json:"successful"`
	Failed               int     `json:"failed"`
	Partial              int     `json:"partial"`
	Skipped              int     `json:"skipped"`
	SuccessRate          float64 `json:"success_rate"`
	TotalSizeMB          float64 `json:"total_size_mb"`
	OrganizedSizeMB      float64 `json:"organized_size_mb"`
	WithMetadata         int     `json:"with_metadata"`
	WithCover            int     `json:"with_cover"`
	UniqueActresses      int     `json:"unique_actresses"`
	UniqueStudios        int     `json:"unique_studios"`
	AvgProcessingSeconds float64 `json:"avg_processing_seconds"`
	Last24h              int     `json:"last_24h"`
	Last7d               int     `json:"last_7d"`
	Last30d              int     `json:"last_30d"`
}
