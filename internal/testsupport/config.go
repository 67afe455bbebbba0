package testsupport

import (
	"path/filepath"
	"testing"

	"avshelf/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.LibraryDir = filepath.Join(base, "library")
	cfgVal.Paths.MetadataDir = filepath.Join(base, "metadata")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.HistoryDB = filepath.Join(base, "state", "history.db")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}
	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithMoveMode disables safe mode so files are moved into the library.
func WithMoveMode() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Organizer.SafeMode = false
	}
}

// WithImagesDisabled turns off cover art downloads.
func WithImagesDisabled() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Images.Enabled = false
	}
}

// WithDedupe turns on duplicate detection with the history hash cache.
func WithDedupe() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Dedupe.Enabled = true
		b.cfg.Dedupe.UseCache = true
	}
}

// WithMetricsFile enables textfile metrics under the temp directory.
func WithMetricsFile() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.MetricsFile = filepath.Join(b.baseDir, "metrics", "avshelf.prom")
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LibraryDir)
}
