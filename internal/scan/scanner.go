package scan

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"avshelf/internal/config"
	"avshelf/internal/logging"
	"avshelf/internal/media"
	"avshelf/internal/services"
)

const maxDepth = 20

// skipDirNames are never descended into, compared case-insensitively.
var skipDirNames = map[string]struct{}{
	"__pycache__":  {},
	"tmp":          {},
	"temp":         {},
	"$recycle.bin": {},
	"trash":        {},
}

// Options controls what Scan accepts.
type Options struct {
	Extensions []string
	// ExcludeDirs are directory names skipped anywhere in the tree.
	ExcludeDirs []string
	// ExcludeRoots are absolute directories skipped with everything below
	// them, typically the library root when it lives inside the source.
	ExcludeRoots []string
	MinSizeBytes int64
}

// OptionsFromConfig builds scanner options from cfg, excluding the library.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Extensions:   cfg.Scan.Extensions,
		ExcludeDirs:  cfg.Scan.ExcludeDirs,
		ExcludeRoots: []string{cfg.Paths.LibraryDir},
		MinSizeBytes: int64(cfg.Scan.MinSizeMB) * 1024 * 1024,
	}
}

// Scanner finds video files below a source directory.
type Scanner struct {
	exts         map[string]struct{}
	excludeNames map[string]struct{}
	excludeRoots []string
	minSize      int64
	logger       *slog.Logger
}

// New builds a Scanner. An empty extension list falls back to the default
// video extensions.
func New(opts Options, logger *slog.Logger) *Scanner {
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = config.DefaultVideoExtensions
	}
	s := &Scanner{
		exts:         make(map[string]struct{}, len(exts)),
		excludeNames: make(map[string]struct{}, len(opts.ExcludeDirs)),
		minSize:      opts.MinSizeBytes,
		logger:       logging.NewComponentLogger(logger, "scan"),
	}
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		s.exts[ext] = struct{}{}
	}
	for _, name := range opts.ExcludeDirs {
		if name = strings.ToLower(strings.TrimSpace(name)); name != "" {
			s.excludeNames[name] = struct{}{}
		}
	}
	for _, root := range opts.ExcludeRoots {
		if strings.TrimSpace(root) == "" {
			continue
		}
		if abs, err := filepath.Abs(root); err == nil {
			s.excludeRoots = append(s.excludeRoots, filepath.Clean(abs))
		}
	}
	return s
}

// IsVideo reports whether name carries an accepted extension.
func (s *Scanner) IsVideo(name string) bool {
	_, ok := s.exts[strings.ToLower(filepath.Ext(name))]
	return ok
}

// Scan walks root and returns the accepted video files sorted by path, each
// with its detected code. Unreadable subdirectories are logged and skipped.
func (s *Scanner) Scan(ctx context.Context, root string) ([]media.VideoFile, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "scan", "resolve", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, "scan", "stat", "source directory not found: "+abs, nil)
		}
		return nil, services.Wrap(services.ErrValidation, "scan", "stat", abs, err)
	}
	if !info.IsDir() {
		return nil, services.Wrap(services.ErrValidation, "scan", "stat", "source path is not a directory: "+abs, nil)
	}

	logger := logging.WithContext(ctx, s.logger)
	logger.Info("scanning directory", logging.String("root", abs))

	var (
		files   []media.VideoFile
		scanned int
	)
	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			if path == abs {
				return walkErr
			}
			logging.WarnWithContext(logger, "skipping unreadable path", "scan_unreadable",
				logging.String("path", path),
				logging.Error(walkErr),
			)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != abs && s.skipDir(abs, path, d.Name()) {
				logger.Debug("skipping directory", logging.String("path", path))
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		scanned++
		if !s.IsVideo(d.Name()) {
			return nil
		}
		vf, err := media.VideoFileFromPath(path)
		if err != nil {
			logger.Warn("video file unreadable", logging.String("path", path), logging.Error(err))
			return nil
		}
		if vf.Size < s.minSize {
			logger.Debug("video below minimum size", logging.String("path", path), logging.Int64("size", vf.Size))
			return nil
		}
		code := DetectCode(vf.Filename)
		if code == "" {
			logger.Debug("no code detected", logging.String("file", vf.Filename))
		}
		files = append(files, vf.WithCode(code))
		return nil
	})
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "scan", "walk", abs, err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	logger.Info("scan complete",
		logging.Int("videos", len(files)),
		logging.Int("files_seen", scanned),
	)
	return files, nil
}

func (s *Scanner) skipDir(root, path, name string) bool {
	lower := strings.ToLower(name)
	if strings.HasPrefix(lower, ".") {
		return true
	}
	if _, ok := skipDirNames[lower]; ok {
		return true
	}
	if _, ok := s.excludeNames[lower]; ok {
		return true
	}
	clean := filepath.Clean(path)
	for _, excluded := range s.excludeRoots {
		if clean == excluded {
			return true
		}
	}
	if rel, err := filepath.Rel(root, path); err == nil && len(strings.Split(rel, string(filepath.Separator))) > maxDepth {
		return true
	}
	return false
}

// Summary describes a scan result.
type Summary struct {
	TotalFiles        int            `json:"total_files"`
	TotalSizeMB       float64        `json:"total_size_mb"`
	FilesWithCodes    int            `json:"files_with_codes"`
	FilesWithoutCodes int            `json:"files_without_codes"`
	Extensions        map[string]int `json:"extensions"`
	AverageSizeMB     float64        `json:"average_size_mb"`
}

// Summarize counts files, sizes, codes, and extensions.
func Summarize(files []media.VideoFile) Summary {
	summary := Summary{TotalFiles: len(files), Extensions: make(map[string]int)}
	var total int64
	for _, f := range files {
		total += f.Size
		if f.DetectedCode != "" {
			summary.FilesWithCodes++
		}
		summary.Extensions[strings.ToLower(f.Extension)]++
	}
	summary.FilesWithoutCodes = summary.TotalFiles - summary.FilesWithCodes
	summary.TotalSizeMB = float64(total) / (1024 * 1024)
	if len(files) > 0 {
		summary.AverageSizeMB = summary.TotalSizeMB / float64(len(files))
	}
	return summary
}
