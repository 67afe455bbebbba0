// Package history persists one row per processed video in a local SQLite
// database so past runs can be listed, searched, summarized, and pruned.
//
// The schema is embedded and versioned through a schema_version table; a
// mismatched version is reported as ErrSchemaMismatch rather than migrated.
//
// The same database caches file content digests for duplicate detection.
package history
