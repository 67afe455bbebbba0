package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and file locations.
type Paths struct {
	LibraryDir  string `toml:"library_dir"`
	MetadataDir string `toml:"metadata_dir"`
	LogDir      string `toml:"log_dir"`
	HistoryDB   string `toml:"history_db"`
	MetricsFile string `toml:"metrics_file"`
}

// Organizer contains file placement settings.
type Organizer struct {
	NamingPattern       string `toml:"naming_pattern"`
	ConflictResolution  string `toml:"conflict_resolution"`
	CreateMetadataFiles bool   `toml:"create_metadata_files"`
	VerifyIntegrity     bool   `toml:"verify_integrity"`
	MaxFilenameLength   int    `toml:"max_filename_length"`
	SafeMode            bool   `toml:"safe_mode"`
}

// Images contains cover art download and processing settings.
type Images struct {
	Enabled                bool    `toml:"enabled"`
	MaxConcurrentDownloads int     `toml:"max_concurrent_downloads"`
	TimeoutSeconds         int     `toml:"timeout_seconds"`
	RetryAttempts          int     `toml:"retry_attempts"`
	MaxFileSizeMB          int     `toml:"max_file_size_mb"`
	Format                 string  `toml:"format"`
	Resize                 bool    `toml:"resize"`
	MaxWidth               int     `toml:"max_width"`
	MaxHeight              int     `toml:"max_height"`
	JPEGQuality            int     `toml:"jpeg_quality"`
	Thumbnails             bool    `toml:"thumbnails"`
	ThumbnailWidth         int     `toml:"thumbnail_width"`
	ThumbnailHeight        int     `toml:"thumbnail_height"`
	RequestsPerSecond      float64 `toml:"requests_per_second"`
	UserAgent              string  `toml:"user_agent"`
}

// Scan contains source directory scanning settings.
type Scan struct {
	Extensions  []string `toml:"extensions"`
	ExcludeDirs []string `toml:"exclude_dirs"`
	MinSizeMB   int      `toml:"min_size_mb"`
}

// Dedupe contains duplicate detection settings for organize runs.
type Dedupe struct {
	Enabled       bool   `toml:"enabled"`
	Strategy      string `toml:"strategy"`
	MaxConcurrent int    `toml:"max_concurrent"`
	UseCache      bool   `toml:"use_cache"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for avshelf.
//
// Configuration sections by subsystem:
//   - Paths: library root, metadata input, logs, history database, metrics
//   - Organizer: naming pattern, conflict policy, sidecars, integrity checks
//   - Images: concurrency, size caps, output format, resize and thumbnails
//   - Scan: video extensions and excluded directories
//   - Dedupe: content-hash duplicate detection before organizing
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	Organizer Organizer `toml:"organizer"`
	Images    Images    `toml:"images"`
	Scan      Scan      `toml:"scan"`
	Dedupe    Dedupe    `toml:"dedupe"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return nil, "", false, fmt.Errorf("parse config: %s", strict.String())
			}
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("avshelf.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the log and metadata directories. The library
// root is left to the organizer, which creates it on construction.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.LogDir, c.Paths.MetadataDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if dir := filepath.Dir(c.Paths.HistoryDB); c.Paths.HistoryDB != "" && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
