package preflight

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"avshelf/internal/config"
	"avshelf/internal/history"
	"avshelf/internal/images"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckMetadataDir verifies the metadata directory is readable and reports
// how many metadata files it holds.
func CheckMetadataDir(path string) Result {
	const name = "Metadata directory"

	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	count := 0
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			count++
		}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d metadata files)", path, count)}
}

// CheckHistory opens the history database and reads its totals.
func CheckHistory(ctx context.Context, cfg *config.Config) Result {
	const name = "History database"

	store, err := history.Open(cfg)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", cfg.Paths.HistoryDB, err)}
	}
	defer store.Close()

	summary, err := store.Stats(ctx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", store.Path(), err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d entries)", store.Path(), summary.Total)}
}

// CheckImageCodecs reports whether artwork can be decoded and re-encoded.
// Without codecs images are still stored, unprocessed.
func CheckImageCodecs() Result {
	const name = "Image processing"

	if images.CodecsAvailable() {
		return Result{Name: name, Passed: true, Detail: "jpeg/png/webp decoders available", Optional: true}
	}
	return Result{Name: name, Detail: "decoders unavailable; images stored as fetched", Optional: true}
}
