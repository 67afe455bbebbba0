// Package main hosts the avshelf CLI entrypoint and command graph.
//
// The Cobra command tree scans source directories, runs the organize
// pipeline, previews target paths, maintains the library and artwork, and
// queries the processing history. Configuration loading and logger setup are
// centralized in commandContext so subcommands only translate flags into
// calls on the internal packages.
package main
