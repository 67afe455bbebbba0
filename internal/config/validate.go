package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateOrganizer(); err != nil {
		return err
	}
	if err := c.validateImages(); err != nil {
		return err
	}
	if err := c.validateScan(); err != nil {
		return err
	}
	if err := c.validateDedupe(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.LibraryDir) == "" {
		return fmt.Errorf("paths.library_dir is required. Set %s or edit the config file (create with 'avshelf config init')", libraryDirEnv)
	}
	return nil
}

func (c *Config) validateOrganizer() error {
	switch c.Organizer.ConflictResolution {
	case "skip", "overwrite", "rename", "ask":
	default:
		return fmt.Errorf("organizer.conflict_resolution: unsupported value %q (want skip, overwrite, rename, or ask)", c.Organizer.ConflictResolution)
	}
	if c.Organizer.MaxFilenameLength < 8 {
		return errors.New("organizer.max_filename_length must be at least 8")
	}
	if !strings.Contains(c.Organizer.NamingPattern, "{") {
		return errors.New("organizer.naming_pattern must contain at least one placeholder")
	}
	return nil
}

func (c *Config) validateImages() error {
	if c.Images.MaxConcurrentDownloads <= 0 {
		return errors.New("images.max_concurrent_downloads must be positive")
	}
	if c.Images.TimeoutSeconds <= 0 {
		return errors.New("images.timeout_seconds must be positive")
	}
	if c.Images.RetryAttempts < 0 {
		return errors.New("images.retry_attempts must be >= 0")
	}
	if c.Images.MaxFileSizeMB <= 0 {
		return errors.New("images.max_file_size_mb must be positive")
	}
	switch c.Images.Format {
	case "auto", "jpeg", "png", "webp":
	default:
		return fmt.Errorf("images.format: unsupported value %q (want auto, jpeg, png, or webp)", c.Images.Format)
	}
	if c.Images.JPEGQuality < 1 || c.Images.JPEGQuality > 100 {
		return errors.New("images.jpeg_quality must be between 1 and 100")
	}
	if c.Images.Resize && (c.Images.MaxWidth <= 0 || c.Images.MaxHeight <= 0) {
		return errors.New("images.max_width and images.max_height must be positive when resize is enabled")
	}
	if c.Images.Thumbnails && (c.Images.ThumbnailWidth <= 0 || c.Images.ThumbnailHeight <= 0) {
		return errors.New("images.thumbnail_width and images.thumbnail_height must be positive when thumbnails are enabled")
	}
	if c.Images.RequestsPerSecond < 0 {
		return errors.New("images.requests_per_second must be >= 0")
	}
	return nil
}

func (c *Config) validateScan() error {
	if c.Scan.MinSizeMB < 0 {
		return errors.New("scan.min_size_mb must be >= 0")
	}
	return nil
}

func (c *Config) validateDedupe() error {
	switch c.Dedupe.Strategy {
	case "keep_first", "keep_newer":
	default:
		return fmt.Errorf("dedupe.strategy: unsupported value %q (want keep_first or keep_newer)", c.Dedupe.Strategy)
	}
	if c.Dedupe.MaxConcurrent <= 0 {
		return errors.New("dedupe.max_concurrent must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
