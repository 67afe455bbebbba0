package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"avshelf/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect the processing history",
	}
	cmd.AddCommand(newHistoryListCommand(ctx))
	cmd.AddCommand(newHistoryStatsCommand(ctx))
	cmd.AddCommand(newHistoryPruneCommand(ctx))
	return cmd
}

func (c *commandContext) withHistory(fn func(*history.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := history.Open(cfg)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()
	return fn(store)
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var code string
	var status string
	var search string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List processed files, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				var (
					entries []history.Entry
					err     error
				)
				switch {
				case strings.TrimSpace(code) != "":
					entries, err = store.ByCode(cmd.Context(), code)
				case strings.TrimSpace(status) != "":
					parsed, perr := history.ParseStatus(status)
					if perr != nil {
						return perr
					}
					entries, err = store.ByStatus(cmd.Context(), parsed)
				case strings.TrimSpace(search) != "":
					entries, err = store.Search(cmd.Context(), search)
				default:
					entries, err = store.Recent(cmd.Context(), limit)
				}
				if err != nil {
					return err
				}
				if limit > 0 && len(entries) > limit {
					entries = entries[:limit]
				}
				return ctx.emit(cmd, entries, func(out io.Writer) error {
					if len(entries) == 0 {
						fmt.Fprintln(out, "No history entries")
						return nil
					}
					rows := make([][]string, 0, len(entries))
					for _, e := range entries {
						detail := e.OrganizedPath
						if e.ErrorMessage != "" {
							detail = e.ErrorMessage
						}
						rows = append(rows, []string{
							e.ProcessedAt.Local().Format("2006-01-02 15:04"),
							e.OriginalFilename,
							e.DetectedCode,
							string(e.Status),
							strconv.Itoa(e.ImagesDownloaded),
							detail,
						})
					}
					printTable(out, "", []string{"Processed", "File", "Code", "Status", "Images", "Target / Error"}, rows,
						[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft})
					return nil
				})
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum entries to show")
	cmd.Flags().StringVar(&code, "code", "", "Only entries for this code")
	cmd.Flags().StringVar(&status, "status", "", "Only entries with this status (success, failed, partial, skipped)")
	cmd.Flags().StringVar(&search, "search", "", "Match filename, code, title, or actress")
	return cmd
}

func newHistoryStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize the processing history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				summary, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				return ctx.emit(cmd, summary, func(out io.Writer) error {
					fmt.Fprintln(out, keyValueTable("History", [][2]string{
						{"Total processed", strconv.Itoa(summary.Total)},
						{"Successful", strconv.Itoa(summary.Successful)},
						{"Partial", strconv.Itoa(summary.Partial)},
						{"Skipped", strconv.Itoa(summary.Skipped)},
						{"Failed", strconv.Itoa(summary.Failed)},
						{"Success rate", fmt.Sprintf("%.1f%%", summary.SuccessRate)},
						{"Total size", fmt.Sprintf("%.1f MB", summary.TotalSizeMB)},
						{"Organized size", fmt.Sprintf("%.1f MB", summary.OrganizedSizeMB)},
						{"With metadata", strconv.Itoa(summary.WithMetadata)},
						{"With cover", strconv.Itoa(summary.WithCover)},
						{"Unique actresses", strconv.Itoa(summary.UniqueActresses)},
						{"Unique studios", strconv.Itoa(summary.UniqueStudios)},
						{"Avg processing", fmt.Sprintf("%.2fs", summary.AvgProcessingSeconds)},
						{"Last 24h / 7d / 30d", fmt.Sprintf("%d / %d / %d", summary.Last24h, summary.Last7d, summary.Last30d)},
					}))
					return nil
				})
			})
		},
	}
}

func newHistoryPruneCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration
	var all bool

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete old history entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && olderThan <= 0 {
				return errors.New("--older-than must be positive (use --all to clear everything)")
			}
			if all {
				olderThan = 0
			}
			return ctx.withHistory(func(store *history.Store) error {
				removed, err := store.Prune(cmd.Context(), olderThan)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d history entries\n", removed)
				return nil
			})
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 90*24*time.Hour, "Remove entries processed before this age")
	cmd.Flags().BoolVar(&all, "all", false, "Remove every entry")
	return cmd
}
