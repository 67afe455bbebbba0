package dedupe

import (
	"context"
	"fmt"
	"strings"
	"time"

	"avshelf/internal/media"
)

// Strategy picks which copy of a duplicate group survives.
type Strategy string

const (
	// KeepFirst keeps the copy that appears first in the input order.
	KeepFirst Strategy = "keep_first"
	// KeepNewer keeps the most recently modified copy.
	KeepNewer Strategy = "keep_newer"
)

// ParseStrategy maps a config value onto a Strategy. Empty means KeepFirst.
func ParseStrategy(value string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(value))) {
	case "", KeepFirst:
		return KeepFirst, nil
	case KeepNewer:
		return KeepNewer, nil
	default:
		return "", fmt.Errorf("unknown duplicate strategy %q", value)
	}
}

// HashCache stores digests between runs. A miss is reported with false and a
// nil error.
type HashCache interface {
	CachedHash(ctx context.Context, path string, size int64, modTime time.Time) (string, bool, error)
	StoreHash(ctx context.Context, path string, size int64, modTime time.Time, digest string) error
}

// Options configures a Detector.
type Options struct {
	Strategy      Strategy
	MaxConcurrent int
	Cache         HashCache
}

const defaultMaxConcurrent = 4

// Group is a set of files with identical content.
type Group struct {
	Digest      string            `json:"digest"`
	Size        int64             `json:"file_size"`
	Keep        media.VideoFile   `json:"keep"`
	Redundant   []media.VideoFile `json:"redundant"`
	WastedBytes int64             `json:"wasted_bytes"`
}

// Files returns the kept copy followed by the redundant ones.
func (g Group) Files() []media.VideoFile {
	return append([]media.VideoFile{g.Keep}, g.Redundant...)
}

// Report summarizes one Detect call.
type Report struct {
	FilesScanned int           `json:"files_scanned"`
	FilesHashed  int           `json:"files_hashed"`
	CacheHits    int           `json:"cache_hits"`
	Groups       []Group       `json:"groups"`
	Duplicates   int           `json:"duplicates"`
	WastedBytes  int64         `json:"wasted_bytes"`
	HashErrors   []string      `json:"hash_errors"`
	Duration     time.Duration `json:"duration"`
}

// DuplicatePercent is the share of scanned files that are redundant copies.
func (r Report) DuplicatePercent() float64 {
	if r.FilesScanned == 0 {
		return 0
	}
	return float64(r.Duplicates) / float64(r.FilesScanned) * 100
}

// WastedMB is WastedBytes in mebibytes.
func (r Report) WastedMB() float64 {
	return float64(r.WastedBytes) / (1024 * 1024)
}

// KeptCopy returns the surviving file for a redundant path.
func (r Report) KeptCopy(path string) (media.VideoFile, bool) {
	for _, g := range r.Groups {
		for _, f := range g.Redundant {
			if f.Path == path {
				return g.Keep, true
			}
		}
	}
	return media.VideoFile{}, false
}
