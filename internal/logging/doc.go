// Package logging assembles structured slog loggers for avshelf.
//
// It owns the console and JSON handlers, level parsing, and output fan-out,
// and exposes context-aware helpers so organizer and downloader log lines carry
// the run's request ID and the media code being processed. NewNop returns a
// discard logger for tests and for wiring code that cannot fail.
package logging
