package media

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"avshelf/internal/services"
)

// VideoFile describes a source video. Values are read-only once built.
type VideoFile struct {
	Path         string    `json:"file_path"`
	Filename     string    `json:"filename"`
	Size         int64     `json:"file_size"`
	Extension    string    `json:"extension"`
	DetectedCode string    `json:"detected_code,omitempty"`
	ModTime      time.Time `json:"modified_time,omitzero"`
}

// NewVideoFile validates and builds a VideoFile.
func NewVideoFile(path, filename string, size int64, ext, code string) (VideoFile, error) {
	switch {
	case strings.TrimSpace(path) == "":
		return VideoFile{}, services.Wrap(services.ErrValidation, "media", "new video file", "file path cannot be empty", nil)
	case strings.TrimSpace(filename) == "":
		return VideoFile{}, services.Wrap(services.ErrValidation, "media", "new video file", "filename cannot be empty", nil)
	case size < 0:
		return VideoFile{}, services.Wrap(services.ErrValidation, "media", "new video file", fmt.Sprintf("file size cannot be negative (%d)", size), nil)
	case strings.TrimSpace(ext) == "":
		return VideoFile{}, services.Wrap(services.ErrValidation, "media", "new video file", "extension cannot be empty", nil)
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return VideoFile{
		Path:         path,
		Filename:     filename,
		Size:         size,
		Extension:    ext,
		DetectedCode: strings.TrimSpace(code),
	}, nil
}

// VideoFileFromPath stats path and builds a VideoFile for it. The detected
// code is left empty; scanners fill it in.
func VideoFileFromPath(path string) (VideoFile, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return VideoFile{}, services.Wrap(services.ErrValidation, "media", "resolve path", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return VideoFile{}, services.Wrap(services.ErrNotFound, "media", "stat video", abs, err)
	}
	if info.IsDir() {
		return VideoFile{}, services.Wrap(services.ErrValidation, "media", "stat video", abs+" is a directory", nil)
	}
	vf, err := NewVideoFile(abs, info.Name(), info.Size(), filepath.Ext(abs), "")
	if err != nil {
		return VideoFile{}, err
	}
	vf.ModTime = info.ModTime()
	return vf, nil
}

// Stem returns the filename without its extension.
func (v VideoFile) Stem() string {
	return strings.TrimSuffix(v.Filename, filepath.Ext(v.Filename))
}

// SizeMB returns the file size in mebibytes.
func (v VideoFile) SizeMB() float64 {
	return float64(v.Size) / (1024 * 1024)
}

// WithCode returns a copy carrying the detected code.
func (v VideoFile) WithCode(code string) VideoFile {
	v.DetectedCode = strings.TrimSpace(code)
	return v
}

func (v VideoFile) String() string {
	return fmt.Sprintf("VideoFile(%s, %.1fMB, code=%q)", v.Filename, v.SizeMB(), v.DetectedCode)
}
