package dedupe

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"avshelf/internal/fileutil"
	"avshelf/internal/logging"
	"avshelf/internal/media"
)

// Detector hashes candidate files with bounded concurrency.
type Detector struct {
	opts   Options
	sem    *semaphore.Weighted
	logger *slog.Logger
	now    func() time.Time
	hash   func(path string) (string, error)
}

type hashed struct {
	digest  string
	cached  bool
	size    int64
	modTime time.Time
	err     error
}

// New returns a Detector. Zero-valued options take defaults.
func New(opts Options, logger *slog.Logger) *Detector {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = defaultMaxConcurrent
	}
	if opts.Strategy == "" {
		opts.Strategy = KeepFirst
	}
	return &Detector{
		opts:   opts,
		sem:    semaphore.NewWeighted(int64(opts.MaxConcurrent)),
		logger: logging.NewComponentLogger(logger, "dedupe"),
		now:    time.Now,
		hash:   fileutil.FileMD5,
	}
}

// Detect groups files with identical content. Files that cannot be hashed are
// listed in HashErrors and treated as unique. The only error returned is
// context cancellation.
func (d *Detector) Detect(ctx context.Context, files []media.VideoFile) (Report, error) {
	start := d.now()
	logger := logging.WithContext(ctx, d.logger)
	report := Report{FilesScanned: len(files), Groups: []Group{}, HashErrors: []string{}}

	bySize := make(map[int64][]int)
	for i, f := range files {
		bySize[f.Size] = append(bySize[f.Size], i)
	}
	var candidates []int
	for _, idx := range bySize {
		if len(idx) > 1 {
			candidates = append(candidates, idx...)
		}
	}
	slices.Sort(candidates)
	logger.Info("duplicate detection started",
		logging.Int("files", len(files)),
		logging.Int("candidates", len(candidates)),
	)

	results := make([]hashed, len(files))
	var wg sync.WaitGroup
	for _, i := range candidates {
		if err := d.sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return report, err
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer d.sem.Release(1)
			results[i] = d.digest(ctx, files[i])
		}(i)
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return report, err
	}

	byDigest := make(map[string][]int)
	for _, i := range candidates {
		res := results[i]
		if res.err != nil {
			report.HashErrors = append(report.HashErrors, fmt.Sprintf("%s: %v", files[i].Path, res.err))
			logging.WarnWithContext(logger, "could not hash file", "dedupe_hash_failed",
				logging.String("file", files[i].Path),
				logging.Error(res.err),
				logging.String(logging.FieldImpact, "file treated as unique"),
			)
			continue
		}
		report.FilesHashed++
		if res.cached {
			report.CacheHits++
		} else {
			d.remember(ctx, files[i].Path, res)
		}
		key := fmt.Sprintf("%d:%s", files[i].Size, res.digest)
		byDigest[key] = append(byDigest[key], i)
	}

	for _, idx := range byDigest {
		if len(idx) < 2 {
			continue
		}
		group := d.group(files, idx, results[idx[0]].digest)
		report.Groups = append(report.Groups, group)
		report.Duplicates += len(group.Redundant)
		report.WastedBytes += group.WastedBytes
	}
	slices.SortFunc(report.Groups, func(a, b Group) int {
		if c := cmp.Compare(b.WastedBytes, a.WastedBytes); c != 0 {
			return c
		}
		return cmp.Compare(a.Keep.Path, b.Keep.Path)
	})

	report.Duration = d.now().Sub(start)
	logger.Info("duplicate detection completed",
		logging.Int("groups", len(report.Groups)),
		logging.Int("duplicates", report.Duplicates),
		logging.Float64("wasted_mb", report.WastedMB()),
		logging.Int("cache_hits", report.CacheHits),
	)
	return report, nil
}

// group builds a Group from indexes in input order.
func (d *Detector) group(files []media.VideoFile, idx []int, digest string) Group {
	keep := idx[0]
	if d.opts.Strategy == KeepNewer {
		for _, i := range idx[1:] {
			if files[i].ModTime.After(files[keep].ModTime) {
				keep = i
			}
		}
	}
	g := Group{Digest: digest, Size: files[keep].Size, Keep: files[keep]}
	for _, i := range idx {
		if i == keep {
			continue
		}
		g.Redundant = append(g.Redundant, files[i])
		g.WastedBytes += files[i].Size
	}
	return g
}

func (d *Detector) digest(ctx context.Context, video media.VideoFile) hashed {
	info, err := os.Stat(video.Path)
	if err != nil {
		return hashed{err: err}
	}
	out := hashed{size: info.Size(), modTime: info.ModTime()}
	if d.opts.Cache != nil {
		digest, ok, err := d.opts.Cache.CachedHash(ctx, video.Path, out.size, out.modTime)
		if err != nil {
			d.logger.Debug("hash cache lookup failed", logging.String("file", video.Path), logging.Error(err))
		} else if ok {
			out.digest, out.cached = digest, true
			return out
		}
	}
	out.digest, out.err = d.hash(video.Path)
	return out
}

// remember stores a fresh digest. Writes happen on the calling goroutine
// after hashing so the cache sees one writer.
func (d *Detector) remember(ctx context.Context, path string, res hashed) {
	if d.opts.Cache == nil {
		return
	}
	if err := d.opts.Cache.StoreHash(ctx, path, res.size, res.modTime, res.digest); err != nil {
		d.logger.Debug("hash cache store failed", logging.String("file", path), logging.Error(err))
	}
}
