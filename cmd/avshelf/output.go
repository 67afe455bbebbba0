package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// emit writes v as JSON when the output format asks for it and otherwise
// hands stdout to human.
func (c *commandContext) emit(cmd *cobra.Command, v any, human func(out io.Writer) error) error {
	if c.wantsJSON(cmd) {
		return writeJSON(cmd, v)
	}
	return human(cmd.OutOrStdout())
}

func printTable(out io.Writer, title string, headers []string, rows [][]string, aligns []columnAlignment) {
	if len(rows) == 0 {
		return
	}
	fmt.Fprintln(out, renderTable(title, headers, rows, aligns))
}

func printList(out io.Writer, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(out, "%s:\n", label)
	for _, item := range items {
		fmt.Fprintf(out, "  - %s\n", item)
	}
}
