package organizer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"avshelf/internal/fileutil"
	"avshelf/internal/logging"
	"avshelf/internal/media"
	"avshelf/internal/services"
)

// LockFileName is the advisory lock taken in the target root during batches.
const LockFileName = ".avshelf.lock"

// Organizer places files under one target root.
type Organizer struct {
	opts       Options
	pattern    *pattern
	patternErr error
	logger     *slog.Logger
	now        func() time.Time
	copyFile   func(src, dst string) error

	// opMu serializes organize calls so rename suffix allocation is never
	// computed by two callers at once.
	opMu    sync.Mutex
	statsMu sync.Mutex
	stats   Statistics
}

// New validates opts, creates the target directory, and returns an Organizer.
// Zero-valued NamingPattern, Conflict, and MaxFilenameLength take defaults.
// A default pattern that does not parse is not fatal here: every organize
// call without a custom pattern then fails to generate a target path.
func New(opts Options, logger *slog.Logger) (*Organizer, error) {
	if strings.TrimSpace(opts.TargetDir) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "organizer", "init", "target directory is required", nil)
	}
	abs, err := filepath.Abs(opts.TargetDir)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "organizer", "init", "resolve target directory", err)
	}
	opts.TargetDir = abs
	if opts.NamingPattern == "" {
		opts.NamingPattern = DefaultNamingPattern
	}
	if opts.MaxFilenameLength <= 0 {
		opts.MaxFilenameLength = DefaultMaxFilenameLength
	}
	if opts.Conflict, err = ParseConflictPolicy(string(opts.Conflict)); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "organizer", "init", "conflict policy", err)
	}
	compiled, patternErr := parsePattern(opts.NamingPattern)
	if err := os.MkdirAll(opts.TargetDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "organizer", "init", "create target directory", err)
	}

	o := &Organizer{
		opts:       opts,
		pattern:    compiled,
		patternErr: patternErr,
		logger:     logging.NewComponentLogger(logger, "organizer"),
		now:        time.Now,
		copyFile:   fileutil.CopyFile,
	}
	if patternErr != nil {
		logging.WarnWithContext(o.logger, "default naming pattern is invalid", "naming_pattern_invalid",
			logging.Error(patternErr),
			logging.String(logging.FieldErrorHint, "fix organizer.naming_pattern or pass a custom pattern"),
			logging.String(logging.FieldImpact, "files organized with the default pattern will fail"),
		)
	}
	o.logger.Info("organizer ready",
		logging.String("target_dir", opts.TargetDir),
		logging.String("naming_pattern", opts.NamingPattern),
		logging.String("conflict_policy", string(opts.Conflict)),
		logging.Bool("safe_mode", opts.SafeMode),
	)
	return o, nil
}

// Options returns the effective configuration.
func (o *Organizer) Options() Options {
	return o.opts
}

// OrganizeFile places one video. customPattern overrides the default naming
// pattern when non-empty. Failures of any kind, including panics, are
// reported through the returned Result.
func (o *Organizer) OrganizeFile(ctx context.Context, video media.VideoFile, meta *media.MovieMetadata, customPattern string) Result {
	o.opMu.Lock()
	defer o.opMu.Unlock()
	return o.organize(ctx, video, meta, customPattern)
}

func (o *Organizer) organize(ctx context.Context, video media.VideoFile, meta *media.MovieMetadata, customPattern string) (result Result) {
	logger := logging.WithContext(ctx, o.logger).With(logging.String("file", video.Filename))
	o.count(func(s *Statistics) { s.FilesProcessed++ })

	defer func() {
		if r := recover(); r != nil {
			o.count(func(s *Statistics) { s.Errors++ })
			logger.Error("organize panicked",
				logging.String("panic", fmt.Sprint(r)),
				logging.String(logging.FieldEventType, "organize_panic"),
			)
			result = o.failure(fmt.Sprintf("Error: %v", r))
		}
	}()

	if err := checkInputs(ctx, video, meta); err != nil {
		o.count(func(s *Statistics) { s.Errors++ })
		logger.Error("organize rejected", logging.Error(err))
		return o.failure("Error: " + err.Error())
	}

	logger.Info("organizing file", logging.String(logging.FieldCode, meta.Code))

	target, err := o.targetPath(video, meta, customPattern)
	if err != nil {
		o.count(func(s *Statistics) { s.Errors++ })
		logger.Error("failed to generate target path",
			logging.Error(err),
			logging.String(logging.FieldEventType, "target_path_failed"),
			logging.String(logging.FieldErrorHint, "check naming_pattern placeholders"),
		)
		return o.failure("Failed to generate target path")
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		o.count(func(s *Statistics) { s.Errors++ })
		logger.Error("failed to create target directory", logging.Error(err), logging.String("target", target))
		return o.failure("Error: " + err.Error())
	}

	final, outcome := o.resolveConflict(target)
	if outcome != noConflict {
		o.count(func(s *Statistics) { s.ConflictsResolved++ })
		logger.Info("target already exists",
			logging.String("target", target),
			logging.String("outcome", outcome.String()),
		)
	}
	if outcome == skipped {
		o.count(func(s *Statistics) { s.FilesSkipped++ })
		logging.WarnWithContext(logger, "skipped file due to conflict", "conflict_skipped",
			logging.String("target", target),
			logging.String(logging.FieldErrorHint, "use conflict_resolution = \"rename\" to keep both files"),
			logging.String(logging.FieldImpact, "file was not organized"),
		)
		return o.failure("Skipped due to conflict")
	}
	if sameFile(video.Path, final) {
		o.count(func(s *Statistics) { s.FilesSkipped++ })
		return o.failure("Source is already at the target path")
	}

	op, err := o.transfer(video.Path, final)
	if err != nil {
		o.count(func(s *Statistics) { s.Errors++ })
		logger.Error("file transfer failed",
			logging.Error(err),
			logging.String("target", final),
			logging.String(logging.FieldEventType, "transfer_failed"),
			logging.String(logging.FieldErrorHint, "check permissions and free space in the library"),
		)
		return o.failure("File transfer failed: " + err.Error())
	}

	if o.opts.VerifyIntegrity {
		if err := verifyTransfer(video.Path, final); err != nil {
			o.count(func(s *Statistics) { s.Errors++ })
			logger.Error("file integrity verification failed",
				logging.Error(err),
				logging.String("target", final),
				logging.String(logging.FieldEventType, "integrity_failed"),
				logging.String(logging.FieldImpact, "destination left in place; inspect before retrying"),
			)
			return o.failure("File transfer failed: " + err.Error())
		}
	}

	var sidecar *string
	if o.opts.CreateSidecars {
		path, err := writeSidecar(final, meta, o.now())
		if err != nil {
			logging.WarnWithContext(logger, "sidecar write failed", "sidecar_write_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "video organized without metadata sidecar"),
			)
		} else {
			sidecar = &path
			o.count(func(s *Statistics) { s.MetadataFilesCreated++ })
		}
	}

	o.count(func(s *Statistics) {
		if op == OperationCopy {
			s.FilesCopied++
		} else {
			s.FilesMoved++
		}
	})
	logger.Info("file organized",
		logging.String("target", final),
		logging.String("operation", string(op)),
	)
	return Result{
		Success:   true,
		Message:   "File organized successfully",
		Timestamp: o.now(),
		Details: &Details{
			OriginalPath: video.Path,
			TargetPath:   final,
			MetadataFile: sidecar,
			Operation:    op,
		},
	}
}

func checkInputs(ctx context.Context, video media.VideoFile, meta *media.MovieMetadata) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if meta == nil {
		return services.Wrap(services.ErrValidation, "organizer", "check inputs", "metadata is required", nil)
	}
	if err := meta.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(video.Path) == "" || strings.TrimSpace(video.Extension) == "" {
		return services.Wrap(services.ErrValidation, "organizer", "check inputs", "video path and extension are required", nil)
	}
	return nil
}

func (o *Organizer) targetPath(video media.VideoFile, meta *media.MovieMetadata, customPattern string) (string, error) {
	p := o.pattern
	if customPattern == "" && o.patternErr != nil {
		return "", o.patternErr
	}
	if customPattern != "" {
		parsed, err := parsePattern(customPattern)
		if err != nil {
			return "", err
		}
		p = parsed
	}
	rel, err := resolveRelative(p, patternVariables(video, meta), o.opts.MaxFilenameLength)
	if err != nil {
		return "", err
	}
	return filepath.Join(o.opts.TargetDir, rel), nil
}

func (o *Organizer) failure(message string) Result {
	return Result{Success: false, Message: message, Timestamp: o.now()}
}

func sameFile(a, b string) bool {
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}

// Preview describes where a file would land without touching the filesystem.
type Preview struct {
	TargetPath string `json:"target_path"`
	Conflict   string `json:"conflict"`
}

// PreviewTargetPath resolves the target for video and applies the conflict
// policy against the current filesystem state without creating, copying, or
// counting anything. A skipped file reports an empty TargetPath.
func (o *Organizer) PreviewTargetPath(video media.VideoFile, meta *media.MovieMetadata, customPattern string) (Preview, error) {
	if meta == nil {
		return Preview{}, services.Wrap(services.ErrValidation, "organizer", "preview", "metadata is required", nil)
	}
	if err := meta.Validate(); err != nil {
		return Preview{}, err
	}
	target, err := o.targetPath(video, meta, customPattern)
	if err != nil {
		return Preview{}, services.Wrap(services.ErrValidation, "organizer", "preview", "generate target path", err)
	}
	o.opMu.Lock()
	final, outcome := o.resolveConflict(target)
	o.opMu.Unlock()
	return Preview{TargetPath: final, Conflict: outcome.String()}, nil
}

// OrganizeMultiple organizes pairs in order while holding the target root's
// advisory lock. Every pair yields exactly one entry. When another process
// holds the lock no file is touched and every entry reports the failure.
func (o *Organizer) OrganizeMultiple(ctx context.Context, pairs []Pair) BatchResult {
	logger := logging.WithContext(ctx, o.logger)
	logger.Info("starting batch organization", logging.Int("files", len(pairs)))

	batch := BatchResult{TotalFiles: len(pairs), Results: make([]BatchEntry, 0, len(pairs))}

	unlock, err := o.LockTarget()
	if err != nil {
		logging.WarnWithContext(logger, "target directory locked", "batch_lock_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "wait for the other avshelf run to finish"),
			logging.String(logging.FieldImpact, "no files organized in this batch"),
		)
	} else {
		defer unlock()
	}

	progress := logging.NewBatchProgress(len(pairs), 10)
	for i, pair := range pairs {
		var res Result
		if err != nil {
			res = o.failure("Batch error: " + err.Error())
		} else {
			res = o.organizeIsolated(ctx, pair)
		}
		batch.Results = append(batch.Results, BatchEntry{File: pair.Video.Filename, Result: res})
		if res.Success {
			batch.Successful++
		} else {
			batch.Failed++
		}
		if progress.Advance(i + 1) {
			logger.Info("batch progress",
				logging.Int("done", i+1),
				logging.Int("total", len(pairs)),
				logging.Float64("percent", progress.Percent(i+1)),
			)
		}
	}
	batch.Statistics = o.Statistics()
	logger.Info("batch organization completed",
		logging.Int("successful", batch.Successful),
		logging.Int("failed", batch.Failed),
		logging.Int("total", batch.TotalFiles),
	)
	return batch
}

func (o *Organizer) organizeIsolated(ctx context.Context, pair Pair) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = o.failure(fmt.Sprintf("Batch error: %v", r))
		}
	}()
	return o.OrganizeFile(ctx, pair.Video, pair.Metadata, "")
}

// LockTarget takes the advisory lock on the target root. It fails with
// ErrConflict when another process holds it.
func (o *Organizer) LockTarget() (func(), error) {
	lock := flock.New(filepath.Join(o.opts.TargetDir, LockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrConflict, "organizer", "lock target",
			"another avshelf process is organizing into "+o.opts.TargetDir, nil)
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			o.logger.Warn("failed to release target lock", logging.Error(err))
		}
	}, nil
}
