package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"avshelf/internal/logging"
	"avshelf/internal/metrics"
	"avshelf/internal/pipeline"
	"avshelf/internal/preflight"
)

func newOrganizeCommand(ctx *commandContext) *cobra.Command {
	var pattern string
	var noImages bool
	var move bool
	var skipDuplicates bool

	cmd := &cobra.Command{
		Use:   "organize [source]",
		Short: "Organize scanned videos into the library and fetch their artwork",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			cfg := *base
			if p := strings.TrimSpace(pattern); p != "" {
				cfg.Organizer.NamingPattern = p
			}
			if noImages {
				cfg.Images.Enabled = false
			}
			if move {
				cfg.Organizer.SafeMode = false
			}
			if skipDuplicates {
				cfg.Dedupe.Enabled = true
			}

			files, err := collectVideos(cmd.Context(), &cfg, logger, sourceArg(args))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(files) == 0 {
				fmt.Fprintln(out, "No video files found")
				return nil
			}

			comps, err := pipeline.Build(&cfg, logger)
			if err != nil {
				return err
			}
			defer comps.Close()

			if failed := preflight.Failed(preflight.RunAll(cmd.Context(), &cfg)); len(failed) > 0 {
				return preflightError(failed)
			}

			report := comps.Runner.Process(cmd.Context(), files)
			exportMetrics(logger, cfg.Paths.MetricsFile, comps, report)

			if err := ctx.emit(cmd, report, func(out io.Writer) error {
				renderReport(out, report)
				return nil
			}); err != nil {
				return err
			}
			if report.Counts.Failed > 0 {
				return fmt.Errorf("%d of %d files failed", report.Counts.Failed, report.Total)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&pattern, "pattern", "", "Naming pattern overriding organizer.naming_pattern")
	cmd.Flags().BoolVar(&noImages, "no-images", false, "Skip artwork downloads")
	cmd.Flags().BoolVar(&move, "move", false, "Move files instead of copying them")
	cmd.Flags().BoolVarP(&skipDuplicates, "skip-duplicates", "d", false, "Skip byte-identical copies of files in the same batch")
	return cmd
}

func exportMetrics(logger *slog.Logger, path string, comps *pipeline.Components, report pipeline.Report) {
	if strings.TrimSpace(path) == "" {
		return
	}
	exp := metrics.New()
	exp.ObserveOrganizer(comps.Organizer.Statistics())
	if comps.Images != nil {
		exp.ObserveImages(comps.Images.Statistics())
	}
	exp.ObserveRun(report)
	if err := exp.WriteTextfile(path); err != nil {
		logging.WarnWithContext(logger, "metrics export failed", "metrics_write_failed",
			logging.Error(err),
			logging.String("path", path),
			logging.String(logging.FieldImpact, "textfile metrics are stale"),
		)
	}
}

func renderReport(out io.Writer, report pipeline.Report) {
	rows := make([][]string, 0, len(report.Outcomes))
	for _, o := range report.Outcomes {
		detail := o.Message
		if o.TargetPath != "" {
			detail = o.TargetPath
		}
		rows = append(rows, []string{o.File, o.Code, string(o.Status), detail})
	}
	printTable(out, "", []string{"File", "Code", "Status", "Target / Message"}, rows, nil)
	c := report.Counts
	if d := report.Duplicates; d != nil && d.Duplicates > 0 {
		fmt.Fprintf(out, "Skipped %d duplicate copies (%.1f MB)\n", d.Duplicates, d.WastedMB())
	}
	fmt.Fprintf(out, "Processed %d files in %s: %d organized, %d partial, %d skipped, %d failed\n",
		report.Total, report.Duration().Round(time.Millisecond), c.Successful, c.Partial, c.Skipped, c.Failed)
}
