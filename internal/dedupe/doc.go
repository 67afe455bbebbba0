// Package dedupe finds byte-identical source videos before they are
// organized.
//
// Files are grouped by size first, and only sizes shared by two or more files
// are hashed. Digests can be cached in the history database keyed by path,
// size, and modification time, so unchanged files are not re-read on the next
// run. Each duplicate group names one copy to keep according to a Strategy;
// the rest are reported as redundant and never touched on disk.
package dedupe
