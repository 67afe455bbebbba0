package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"avshelf/internal/organizer"
	"avshelf/internal/pipeline"
)

func newLibraryCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "library",
		Short: "Library maintenance",
	}
	cmd.AddCommand(newLibraryValidateCommand(ctx))
	cmd.AddCommand(newLibraryPruneDirsCommand(ctx))
	return cmd
}

func newLibraryOrganizer(ctx *commandContext) (*organizer.Organizer, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return nil, err
	}
	opts, err := pipeline.OrganizerOptions(cfg)
	if err != nil {
		return nil, err
	}
	return organizer.New(opts, logger)
}

func newLibraryValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check that the library root exists, is writable, and has free space",
		RunE: func(cmd *cobra.Command, args []string) error {
			org, err := newLibraryOrganizer(ctx)
			if err != nil {
				return err
			}
			report := org.ValidateTargetDirectory()
			if err := ctx.emit(cmd, report, func(out io.Writer) error {
				keys := make([]string, 0, len(report.Info))
				for k := range report.Info {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				pairs := [][2]string{{"library", org.Options().TargetDir}, {"valid", yesNo(report.Valid)}}
				for _, k := range keys {
					pairs = append(pairs, [2]string{k, fmt.Sprint(report.Info[k])})
				}
				fmt.Fprintln(out, keyValueTable("Library", pairs))
				printList(out, "Warnings", report.Warnings)
				printList(out, "Errors", report.Errors)
				return nil
			}); err != nil {
				return err
			}
			if !report.Valid {
				return fmt.Errorf("library %s failed validation", org.Options().TargetDir)
			}
			return nil
		},
	}
}

func newLibraryPruneDirsCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "prune-dirs",
		Short: "Remove empty directories left in the library",
		RunE: func(cmd *cobra.Command, args []string) error {
			org, err := newLibraryOrganizer(ctx)
			if err != nil {
				return err
			}
			report := org.CleanupEmptyDirectories(dryRun)
			return ctx.emit(cmd, report, func(out io.Writer) error {
				if dryRun {
					fmt.Fprintf(out, "Found %d empty directories (dry run)\n", len(report.EmptyDirectories))
					printList(out, "Empty", report.EmptyDirectories)
				} else {
					fmt.Fprintf(out, "Removed %d empty directories\n", len(report.RemovedDirectories))
					printList(out, "Removed", report.RemovedDirectories)
				}
				printList(out, "Errors", report.Errors)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List empty directories without removing them")
	return cmd
}
