// Package preflight provides readiness checks for the filesystem paths and
// local capabilities avshelf depends on.
//
// These checks run in two contexts:
//   - The organize command calls RunAll before processing and refuses to
//     start when a required check fails.
//   - The CLI "avshelf check" command renders every result.
//
// Optional checks (artwork codecs, metrics output) are skipped when their
// feature is disabled.
package preflight
