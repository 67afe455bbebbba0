package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"avshelf/internal/config"
	"avshelf/internal/httpx"
	"avshelf/internal/images"
	"avshelf/internal/media"
	"avshelf/internal/pipeline"
)

func newImagesCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "images",
		Short: "Artwork maintenance",
	}
	cmd.AddCommand(newImagesFetchCommand(ctx))
	cmd.AddCommand(newImagesCleanupCommand(ctx))
	return cmd
}

func newDownloader(ctx *commandContext) (*images.Downloader, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return nil, err
	}
	opts, err := pipeline.ImageOptions(cfg)
	if err != nil {
		return nil, err
	}
	client := httpx.NewClient(pipeline.HTTPConfig(cfg), httpx.WithLogger(logger))
	return images.New(client, opts, logger), nil
}

func newImagesFetchCommand(ctx *commandContext) *cobra.Command {
	var dir string
	var kinds []string

	cmd := &cobra.Command{
		Use:   "fetch <code>",
		Short: "Download artwork for a code using its stored metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			code := strings.ToUpper(strings.TrimSpace(args[0]))
			meta, err := media.LoadMetadataFile(filepath.Join(cfg.Paths.MetadataDir, code+".json"))
			if err != nil {
				return fmt.Errorf("load metadata for %s: %w", code, err)
			}
			types, err := parseImageTypes(kinds)
			if err != nil {
				return err
			}
			target := strings.TrimSpace(dir)
			if target == "" {
				target = "."
			}
			if target, err = config.ExpandPath(target); err != nil {
				return err
			}

			downloader, err := newDownloader(ctx)
			if err != nil {
				return err
			}
			result := downloader.DownloadMovieImages(cmd.Context(), meta, target, types...)
			if err := ctx.emit(cmd, result, func(out io.Writer) error {
				fmt.Fprintln(out, result.Message)
				printList(out, "Downloaded", result.DownloadedFiles)
				printList(out, "Failed", result.FailedDownloads)
				return nil
			}); err != nil {
				return err
			}
			if !result.Success {
				return fmt.Errorf("artwork download failed for %s", code)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Destination directory (default: current directory)")
	cmd.Flags().StringSliceVar(&kinds, "type", nil, "Image types to fetch: cover, poster, screenshot (default: all)")
	return cmd
}

func parseImageTypes(values []string) ([]images.ImageType, error) {
	types := make([]images.ImageType, 0, len(values))
	for _, v := range values {
		switch t := images.ImageType(strings.ToLower(strings.TrimSpace(v))); t {
		case images.Cover, images.Poster, images.Screenshot:
			types = append(types, t)
		default:
			return nil, fmt.Errorf("unknown image type %q", v)
		}
	}
	return types, nil
}

func newImagesCleanupCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup <dir>",
		Short: "Remove empty or undecodable images from a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			downloader, err := newDownloader(ctx)
			if err != nil {
				return err
			}
			report := downloader.CleanupFailedDownloads(dir)
			return ctx.emit(cmd, report, func(out io.Writer) error {
				fmt.Fprintf(out, "Checked %d images, %d corrupted\n", report.CheckedFiles, len(report.CorruptedFiles))
				printList(out, "Removed", report.RemovedFiles)
				printList(out, "Errors", report.Errors)
				return nil
			})
		},
	}
}
