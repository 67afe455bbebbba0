// Package organizer places video files into the library tree.
//
// An Organizer resolves a naming pattern against a VideoFile and its
// MovieMetadata, sanitizes and truncates every path component, resolves
// collisions according to its ConflictPolicy, then copies or moves the file,
// optionally verifies the transfer by checksum, and writes a JSON sidecar with
// the metadata beside the video.
//
// Public entry points never return errors for per-file problems; they report
// failures in Result values so long unattended batches always finish with a
// full per-item breakdown. One Organizer serializes its own calls so conflict
// resolution never races against itself.
package organizer
