package images

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"avshelf/internal/logging"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".gif":  true,
}

// VerifyImageIntegrity reports whether path holds a decodable image. In
// degraded mode it only checks that the file exists and is non-empty.
func (d *Downloader) VerifyImageIntegrity(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	if !d.processingAvailable {
		return info.Size() > 0
	}
	f, err := os.Open(path)
	if err != nil {
		d.logger.Warn("image integrity check failed", logging.String("path", path), logging.Error(err))
		return false
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		d.logger.Warn("image integrity check failed", logging.String("path", path), logging.Error(err))
		return false
	}
	b := img.Bounds()
	return b.Dx() > 0 && b.Dy() > 0
}

// CleanupFailedDownloads checks every image file directly inside dir and
// removes the empty or undecodable ones. Per-file errors are collected in the
// report and never stop the scan.
func (d *Downloader) CleanupFailedDownloads(dir string) CleanupReport {
	report := CleanupReport{
		CorruptedFiles: []string{},
		RemovedFiles:   []string{},
		Errors:         []string{},
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("Error during cleanup: %v", err))
		return report
	}

	for _, entry := range entries {
		if entry.IsDir() || !imageExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		report.CheckedFiles++

		info, err := entry.Info()
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("Error checking %s: %v", path, err))
			continue
		}
		if info.Size() == 0 || !d.VerifyImageIntegrity(path) {
			report.CorruptedFiles = append(report.CorruptedFiles, path)
		}
	}

	for _, path := range report.CorruptedFiles {
		if err := os.Remove(path); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("Error removing %s: %v", path, err))
			continue
		}
		report.RemovedFiles = append(report.RemovedFiles, path)
		d.logger.Info("removed corrupted image", logging.String("path", path))
	}

	d.logger.Info("image cleanup complete",
		logging.String("dir", dir),
		logging.Int("checked", report.CheckedFiles),
		logging.Int("removed", len(report.RemovedFiles)),
	)
	return report
}
