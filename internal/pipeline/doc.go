// Package pipeline drives one organize run end to end: for every scanned
// video it looks up metadata, places the file in the library, fetches its
// artwork beside it, and records the outcome in the processing history.
//
// Files are handled sequentially under the library's advisory lock. Each run
// carries a request ID so log lines and history rows from the same run can be
// correlated.
package pipeline
