package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"avshelf/internal/config"
	"avshelf/internal/media"
	"avshelf/internal/scan"
)

// collectVideos resolves a source argument into video files. A directory is
// scanned recursively; a single file is taken as is. An empty argument means
// the working directory.
func collectVideos(ctx context.Context, cfg *config.Config, logger *slog.Logger, arg string) ([]media.VideoFile, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		arg = "."
	}
	path, err := config.ExpandPath(arg)
	if err != nil {
		return nil, fmt.Errorf("resolve source: %w", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("inspect source %q: %w", path, err)
	}
	if !info.IsDir() {
		video, err := media.VideoFileFromPath(path)
		if err != nil {
			return nil, err
		}
		return []media.VideoFile{video.WithCode(scan.DetectCode(video.Filename))}, nil
	}
	scanner := scan.New(scan.OptionsFromConfig(cfg), logger)
	return scanner.Scan(ctx, path)
}

func sourceArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
