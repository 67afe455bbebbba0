package preflight

import (
	"context"
	"path/filepath"
	"strings"

	"avshelf/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
	// Optional failures are reported but do not block a run.
	Optional bool `json:"optional,omitempty"`
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Library directory", cfg.Paths.LibraryDir),
		CheckMetadataDir(cfg.Paths.MetadataDir),
		CheckHistory(ctx, cfg),
	}

	if cfg.Images.Enabled {
		results = append(results, CheckImageCodecs())
	}

	if path := strings.TrimSpace(cfg.Paths.MetricsFile); path != "" {
		r := CheckDirectoryAccess("Metrics directory", filepath.Dir(path))
		r.Optional = true
		results = append(results, r)
	}

	return results
}

// Failed returns the required checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			failed = append(failed, r)
		}
	}
	return failed
}
