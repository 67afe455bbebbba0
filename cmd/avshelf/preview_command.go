package main

import (
	"errors"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"avshelf/internal/organizer"
	"avshelf/internal/pipeline"
	"avshelf/internal/services"
)

type previewRow struct {
	File       string `json:"file"`
	Code       string `json:"code,omitempty"`
	TargetPath string `json:"target_path,omitempty"`
	Conflict   string `json:"conflict,omitempty"`
	Error      string `json:"error,omitempty"`
}

func newPreviewCommand(ctx *commandContext) *cobra.Command {
	var pattern string

	cmd := &cobra.Command{
		Use:   "preview [source]",
		Short: "Show where each video would be placed without touching files",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			files, err := collectVideos(cmd.Context(), cfg, logger, sourceArg(args))
			if err != nil {
				return err
			}
			opts, err := pipeline.OrganizerOptions(cfg)
			if err != nil {
				return err
			}
			org, err := organizer.New(opts, logger)
			if err != nil {
				return err
			}

			source := pipeline.DirSource{Dir: cfg.Paths.MetadataDir}
			rows := make([]previewRow, 0, len(files))
			for _, video := range files {
				row := previewRow{File: video.Filename, Code: video.DetectedCode}
				meta, err := source.Lookup(cmd.Context(), video)
				switch {
				case errors.Is(err, services.ErrNotFound):
					row.Error = "no metadata"
				case err != nil:
					row.Error = err.Error()
				default:
					preview, err := org.PreviewTargetPath(video, meta, strings.TrimSpace(pattern))
					if err != nil {
						row.Error = err.Error()
					} else {
						row.TargetPath = preview.TargetPath
						row.Conflict = preview.Conflict
					}
				}
				rows = append(rows, row)
			}

			return ctx.emit(cmd, rows, func(out io.Writer) error {
				table := make([][]string, 0, len(rows))
				for _, r := range rows {
					target := r.TargetPath
					if r.Error != "" {
						target = r.Error
					}
					table = append(table, []string{r.File, r.Code, target, r.Conflict})
				}
				printTable(out, "", []string{"File", "Code", "Target", "Conflict"}, table, nil)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&pattern, "pattern", "", "Naming pattern overriding organizer.naming_pattern")
	return cmd
}
