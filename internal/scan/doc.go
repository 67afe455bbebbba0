// Package scan walks a source directory for video files and detects the
// release code embedded in each filename.
package scan
