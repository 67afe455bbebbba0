package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"avshelf/internal/media"
	"avshelf/internal/services"
)

// MetadataSource resolves scraped metadata for a video.
type MetadataSource interface {
	Lookup(ctx context.Context, video media.VideoFile) (*media.MovieMetadata, error)
}

// DirSource reads metadata stored as <Dir>/<CODE>.json. When no file matches
// the detected code it falls back to the video's own stem.
type DirSource struct {
	Dir string
}

// Lookup implements MetadataSource. Missing files are reported as
// services.ErrNotFound.
func (s DirSource) Lookup(ctx context.Context, video media.VideoFile) (*media.MovieMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(s.Dir) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "metadata lookup", "metadata directory is not configured", nil)
	}
	var lastErr error
	for _, name := range candidateNames(video) {
		meta, err := media.LoadMetadataFile(filepath.Join(s.Dir, name+".json"))
		if err == nil {
			return meta, nil
		}
		if !errors.Is(err, services.ErrNotFound) {
			return nil, err
		}
		lastErr = err
	}
	if lastErr == nil {
		return nil, services.Wrap(services.ErrNotFound, "pipeline", "metadata lookup", "no code detected for "+video.Filename, nil)
	}
	return nil, lastErr
}

func candidateNames(video media.VideoFile) []string {
	names := make([]string, 0, 2)
	if code := strings.ToUpper(strings.TrimSpace(video.DetectedCode)); code != "" {
		names = append(names, code)
	}
	if stem := strings.TrimSpace(video.Stem()); stem != "" && !strings.EqualFold(stem, video.DetectedCode) {
		names = append(names, stem)
	}
	return names
}
