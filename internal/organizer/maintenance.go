package organizer

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sys/unix"

	"avshelf/internal/logging"
)

const (
	lowSpaceThreshold = 1 << 30
	writeCheckName    = ".avshelf_write_check"
)

// ValidateTargetDirectory checks that the target root exists (creating it if
// needed), is writable, and has at least 1 GiB free. Problems are reported in
// the returned report; it never fails.
func (o *Organizer) ValidateTargetDirectory() ValidationReport {
	report := ValidationReport{Valid: true, Errors: []string{}, Warnings: []string{}, Info: map[string]any{}}
	dir := o.opts.TargetDir

	info, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err):
		report.Warnings = append(report.Warnings, "Target directory does not exist: "+dir)
		if mkErr := os.MkdirAll(dir, 0o755); mkErr != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("Cannot create target directory: %v", mkErr))
			report.Valid = false
			return report
		}
		report.Info["created_directory"] = true
	case err != nil:
		report.Errors = append(report.Errors, fmt.Sprintf("Cannot stat target directory: %v", err))
		report.Valid = false
		return report
	case !info.IsDir():
		report.Errors = append(report.Errors, "Target path is not a directory: "+dir)
		report.Valid = false
		return report
	}

	sentinel := filepath.Join(dir, writeCheckName)
	if err := os.WriteFile(sentinel, nil, 0o644); err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("No write permission in target directory: %v", err))
		report.Valid = false
	} else {
		_ = os.Remove(sentinel)
		report.Info["writable"] = true
	}

	var st unix.Statfs_t
	if err := unix.Statfs(dir, &st); err != nil {
		report.Warnings = append(report.Warnings, fmt.Sprintf("Cannot check disk space: %v", err))
	} else {
		free := st.Bavail * uint64(st.Bsize)
		report.Info["free_space_bytes"] = free
		report.Info["free_space_gb"] = float64(free) / (1 << 30)
		if free < lowSpaceThreshold {
			report.Warnings = append(report.Warnings, "Low disk space in target directory")
		}
	}
	return report
}

// CleanupEmptyDirectories removes directories under the target root that hold
// nothing but other empty directories, deepest first. The root itself is never
// removed. With dryRun set the same directories are listed but left alone.
func (o *Organizer) CleanupEmptyDirectories(dryRun bool) CleanupReport {
	report := CleanupReport{EmptyDirectories: []string{}, RemovedDirectories: []string{}, Errors: []string{}}
	root := o.opts.TargetDir

	var dirs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("Error processing directory %s: %v", path, err))
			if d != nil && d.IsDir() && path != root {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() && path != root {
			dirs = append(dirs, path)
		}
		return nil
	})
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("Error during cleanup: %v", err))
	}

	// Deepest paths first so children are decided before their parents.
	sort.Slice(dirs, func(i, j int) bool {
		di, dj := depth(dirs[i]), depth(dirs[j])
		if di != dj {
			return di > dj
		}
		return dirs[i] > dirs[j]
	})

	empty := make(map[string]bool, len(dirs))
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("Error processing directory %s: %v", dir, err))
			continue
		}
		isEmpty := true
		for _, entry := range entries {
			if !entry.IsDir() || !empty[filepath.Join(dir, entry.Name())] {
				isEmpty = false
				break
			}
		}
		if !isEmpty {
			continue
		}
		empty[dir] = true
		report.EmptyDirectories = append(report.EmptyDirectories, dir)
		if dryRun {
			continue
		}
		if err := os.Remove(dir); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("Error removing directory %s: %v", dir, err))
			empty[dir] = false
			continue
		}
		report.RemovedDirectories = append(report.RemovedDirectories, dir)
	}

	if dryRun {
		o.logger.Info("empty directory scan", logging.Int("empty", len(report.EmptyDirectories)), logging.Bool("dry_run", true))
	} else {
		o.logger.Info("removed empty directories", logging.Int("removed", len(report.RemovedDirectories)))
	}
	return report
}

func depth(path string) int {
	n := 0
	for _, r := range path {
		if r == filepath.Separator {
			n++
		}
	}
	return n
}
