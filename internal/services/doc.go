// Package services defines shared utilities consumed by the organizer, the
// image downloader, and the pipeline that drives them.
//
// Key responsibilities:
//   - Context helpers that stamp correlation identifiers and media codes for
//     logging.
//   - Structured error markers plus the Wrap helper so callers can classify
//     failures (validation vs conflict vs transient) without string matching.
//
// Use these helpers when wiring new components so error handling and
// observability stay uniform.
package services
