package images

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ImageType identifies which artwork slot an image fills.
type ImageType string

const (
	Cover      ImageType = "cover"
	Poster     ImageType = "poster"
	Screenshot ImageType = "screenshot"
)

// AllTypes returns the default download set.
func AllTypes() []ImageType {
	return []ImageType{Cover, Poster, Screenshot}
}

// Format selects the on-disk encoding of downloaded images.
type Format string

const (
	FormatAuto Format = "auto"
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
	FormatWEBP Format = "webp"
)

// ParseFormat maps a config value onto a Format. Empty means auto.
func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "auto":
		return FormatAuto, nil
	case "jpeg", "jpg":
		return FormatJPEG, nil
	case "png":
		return FormatPNG, nil
	case "webp":
		return FormatWEBP, nil
	default:
		return "", fmt.Errorf("unknown image format %q", value)
	}
}

// HTTPClient is the fetch collaborator. Implementations own retries, backoff,
// and rate limiting; the downloader issues one logical Get per image.
type HTTPClient interface {
	Get(ctx context.Context, url string) (Response, error)
}

// Response is the minimal view of an HTTP response the downloader needs.
// Header lookups are case-insensitive.
type Response interface {
	StatusCode() int
	Header(name string) string
	Read(ctx context.Context) ([]byte, error)
	Close() error
}

// Options configures a Downloader.
type Options struct {
	MaxConcurrent   int
	Timeout         time.Duration
	RetryAttempts   int
	MaxFileSizeMB   int
	Format          Format
	Resize          bool
	MaxWidth        int
	MaxHeight       int
	JPEGQuality     int
	Thumbnails      bool
	ThumbnailWidth  int
	ThumbnailHeight int

	// DisableProcessing forces degraded mode: images are stored exactly as
	// fetched and integrity checks only look at file size.
	DisableProcessing bool
}

// DefaultOptions returns the stock downloader settings.
func DefaultOptions() Options {
	return Options{
		MaxConcurrent:   3,
		Timeout:         30 * time.Second,
		RetryAttempts:   3,
		MaxFileSizeMB:   50,
		Format:          FormatAuto,
		MaxWidth:        1920,
		MaxHeight:       1080,
		JPEGQuality:     85,
		ThumbnailWidth:  300,
		ThumbnailHeight: 200,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.MaxConcurrent <= 0 {
		o.MaxConcurrent = def.MaxConcurrent
	}
	if o.Timeout <= 0 {
		o.Timeout = def.Timeout
	}
	if o.RetryAttempts < 0 {
		o.RetryAttempts = 0
	}
	if o.MaxFileSizeMB <= 0 {
		o.MaxFileSizeMB = def.MaxFileSizeMB
	}
	if o.Format == "" {
		o.Format = FormatAuto
	}
	if o.MaxWidth <= 0 {
		o.MaxWidth = def.MaxWidth
	}
	if o.MaxHeight <= 0 {
		o.MaxHeight = def.MaxHeight
	}
	if o.JPEGQuality <= 0 || o.JPEGQuality > 100 {
		o.JPEGQuality = def.JPEGQuality
	}
	if o.ThumbnailWidth <= 0 {
		o.ThumbnailWidth = def.ThumbnailWidth
	}
	if o.ThumbnailHeight <= 0 {
		o.ThumbnailHeight = def.ThumbnailHeight
	}
	return o
}

// Result is the manifest of one DownloadMovieImages call.
type Result struct {
	Success         bool      `json:"success"`
	Message         string    `json:"message"`
	Timestamp       time.Time `json:"timestamp"`
	DownloadedFiles []string  `json:"downloaded_files"`
	FailedDownloads []string  `json:"failed_downloads"`
	TotalRequested  int       `json:"total_requested"`
}

// CleanupReport summarizes a CleanupFailedDownloads scan.
type CleanupReport struct {
	CheckedFiles   int      `json:"checked_files"`
	CorruptedFiles []string `json:"corrupted_files"`
	RemovedFiles   []string `json:"removed_files"`
	Errors         []string `json:"errors"`
}
