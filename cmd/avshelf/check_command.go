package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"avshelf/internal/organizer"
	"avshelf/internal/pipeline"
	"avshelf/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Run readiness checks for the library, metadata, and history",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			opts, err := pipeline.OrganizerOptions(cfg)
			if err != nil {
				return err
			}
			// The organizer creates the library root.
			if _, err := organizer.New(opts, logger); err != nil {
				return err
			}

			results := preflight.RunAll(cmd.Context(), cfg)
			if err := ctx.emit(cmd, results, func(out io.Writer) error {
				rows := make([][]string, 0, len(results))
				for _, r := range results {
					status := "ok"
					switch {
					case !r.Passed && r.Optional:
						status = "warn"
					case !r.Passed:
						status = "FAIL"
					}
					rows = append(rows, []string{r.Name, status, r.Detail})
				}
				printTable(out, "", []string{"Check", "Status", "Detail"}, rows, nil)
				return nil
			}); err != nil {
				return err
			}
			if failed := preflight.Failed(results); len(failed) > 0 {
				return preflightError(failed)
			}
			return nil
		},
	}
}

func preflightError(failed []preflight.Result) error {
	parts := make([]string, 0, len(failed))
	for _, r := range failed {
		parts = append(parts, fmt.Sprintf("%s: %s", r.Name, r.Detail))
	}
	return fmt.Errorf("preflight failed: %s", strings.Join(parts, "; "))
}
