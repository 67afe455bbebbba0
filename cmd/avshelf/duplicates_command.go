package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"avshelf/internal/dedupe"
	"avshelf/internal/history"
	"avshelf/internal/pipeline"
)

func newDuplicatesCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "duplicates",
		Short: "Find byte-identical video files",
	}
	cmd.AddCommand(newDuplicatesScanCommand(ctx))
	cmd.AddCommand(newDuplicatesClearCacheCommand(ctx))
	return cmd
}

func newDuplicatesScanCommand(ctx *commandContext) *cobra.Command {
	var strategy string
	var noCache bool

	cmd := &cobra.Command{
		Use:   "scan [source]",
		Short: "Group video files with identical content",
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
			if s := strings.TrimSpace(strategy); s != "" {
				cfg.Dedupe.Strategy = s
			}
			opts, err := pipeline.DedupeOptions(&cfg)
			if err != nil {
				return err
			}
			files, err := collectVideos(cmd.Context(), &cfg, logger, sourceArg(args))
			if err != nil {
				return err
			}

			return ctx.withHistory(func(store *history.Store) error {
				if cfg.Dedupe.UseCache && !noCache {
					opts.Cache = store
				}
				report, err := dedupe.New(opts, logger).Detect(cmd.Context(), files)
				if err != nil {
					return err
				}
				return ctx.emit(cmd, report, func(out io.Writer) error {
					renderDuplicates(out, report)
					return nil
				})
			})
		},
	}

	cmd.Flags().StringVar(&strategy, "strategy", "", "Which copy to keep: keep_first or keep_newer")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Hash every file instead of reusing cached digests")
	return cmd
}

func renderDuplicates(out io.Writer, report dedupe.Report) {
	if len(report.Groups) == 0 {
		fmt.Fprintf(out, "No duplicates among %d files\n", report.FilesScanned)
		return
	}
	rows := make([][]string, 0, report.Duplicates+len(report.Groups))
	for _, g := range report.Groups {
		rows = append(rows, []string{"keep", g.Keep.Path, fmt.Sprintf("%.1f", g.Keep.SizeMB())})
		for _, f := range g.Redundant {
			rows = append(rows, []string{"duplicate", f.Path, fmt.Sprintf("%.1f", f.SizeMB())})
		}
	}
	printTable(out, "", []string{"Action", "Path", "Size (MB)"}, rows, []columnAlignment{alignLeft, alignLeft, alignRight})
	fmt.Fprintf(out, "%d duplicates in %d groups (%.1f%% of %d files), %.1f MB reclaimable, %d cache hits\n",
		report.Duplicates, len(report.Groups), report.DuplicatePercent(), report.FilesScanned, report.WastedMB(), report.CacheHits)
	if len(report.HashErrors) > 0 {
		printList(out, "Unreadable", report.HashErrors)
	}
}

func newDuplicatesClearCacheCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-cache",
		Short: "Forget cached content digests",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				removed, err := store.ClearHashes(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached digests\n", removed)
				return nil
			})
		},
	}
}
