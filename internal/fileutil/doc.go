// Package fileutil holds the filesystem primitives the organizer builds on:
// metadata-preserving copies, content digests, cross-device aware moves, and
// atomic writes for small documents such as sidecars.
package fileutil
