package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeOrganizer()
	c.normalizeImages()
	c.normalizeScan()
	c.normalizeDedupe()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv(libraryDirEnv); ok && strings.TrimSpace(value) != "" {
		c.Paths.LibraryDir = strings.TrimSpace(value)
	}
	fields := []struct {
		name  string
		value *string
	}{
		{"paths.library_dir", &c.Paths.LibraryDir},
		{"paths.metadata_dir", &c.Paths.MetadataDir},
		{"paths.log_dir", &c.Paths.LogDir},
		{"paths.history_db", &c.Paths.HistoryDB},
		{"paths.metrics_file", &c.Paths.MetricsFile},
	}
	for _, f := range fields {
		expanded, err := expandPath(strings.TrimSpace(*f.value))
		if err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
		*f.value = expanded
	}
	return nil
}

func (c *Config) normalizeOrganizer() {
	c.Organizer.NamingPattern = strings.TrimSpace(c.Organizer.NamingPattern)
	if c.Organizer.NamingPattern == "" {
		c.Organizer.NamingPattern = defaultNamingPattern
	}
	c.Organizer.ConflictResolution = strings.ToLower(strings.TrimSpace(c.Organizer.ConflictResolution))
	if c.Organizer.ConflictResolution == "" {
		c.Organizer.ConflictResolution = defaultConflict
	}
	if c.Organizer.MaxFilenameLength == 0 {
		c.Organizer.MaxFilenameLength = defaultMaxFilenameLength
	}
}

func (c *Config) normalizeImages() {
	c.Images.Format = strings.ToLower(strings.TrimSpace(c.Images.Format))
	switch c.Images.Format {
	case "":
		c.Images.Format = defaultImageFormat
	case "jpg":
		c.Images.Format = "jpeg"
	}
	c.Images.UserAgent = strings.TrimSpace(c.Images.UserAgent)
	if c.Images.UserAgent == "" {
		c.Images.UserAgent = defaultUserAgent
	}
}

func (c *Config) normalizeScan() {
	seen := make(map[string]struct{}, len(c.Scan.Extensions))
	exts := make([]string, 0, len(c.Scan.Extensions))
	for _, ext := range c.Scan.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, ok := seen[ext]; ok {
			continue
		}
		seen[ext] = struct{}{}
		exts = append(exts, ext)
	}
	if len(exts) == 0 {
		exts = append(exts, DefaultVideoExtensions...)
	}
	c.Scan.Extensions = exts

	dirs := c.Scan.ExcludeDirs[:0]
	for _, dir := range c.Scan.ExcludeDirs {
		if trimmed := strings.TrimSpace(dir); trimmed != "" {
			dirs = append(dirs, trimmed)
		}
	}
	c.Scan.ExcludeDirs = dirs
}

func (c *Config) normalizeDedupe() {
	c.Dedupe.Strategy = strings.ToLower(strings.TrimSpace(c.Dedupe.Strategy))
	if c.Dedupe.Strategy == "" {
		c.Dedupe.Strategy = defaultDedupeStrategy
	}
	if c.Dedupe.MaxConcurrent == 0 {
		c.Dedupe.MaxConcurrent = defaultDedupeConcurrent
	}
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch format {
	case "", "console", "text":
		c.Logging.Format = "console"
	default:
		c.Logging.Format = format
	}
	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level == "" {
		level = defaultLogLevel
	}
	c.Logging.Level = level
}
