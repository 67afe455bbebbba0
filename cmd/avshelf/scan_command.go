package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"avshelf/internal/media"
	"avshelf/internal/scan"
)

type scanOutput struct {
	Summary scan.Summary      `json:"summary"`
	Files   []media.VideoFile `json:"files"`
}

func newScanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "scan [source]",
		Short: "List video files and detected codes under a source directory",
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
			result := scanOutput{Summary: scan.Summarize(files), Files: files}
			return ctx.emit(cmd, result, func(out io.Writer) error {
				rows := make([][]string, 0, len(files))
				for _, f := range files {
					code := f.DetectedCode
					if code == "" {
						code = "-"
					}
					rows = append(rows, []string{f.Filename, code, fmt.Sprintf("%.1f", f.SizeMB())})
				}
				printTable(out, "", []string{"File", "Code", "Size (MB)"}, rows, []columnAlignment{alignLeft, alignLeft, alignRight})
				s := result.Summary
				fmt.Fprintf(out, "%d files, %.1f MB, %d with codes, %d without\n",
					s.TotalFiles, s.TotalSizeMB, s.FilesWithCodes, s.FilesWithoutCodes)
				return nil
			})
		},
	}
}
