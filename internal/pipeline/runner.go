package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"avshelf/internal/dedupe"
	"avshelf/internal/history"
	"avshelf/internal/images"
	"avshelf/internal/logging"
	"avshelf/internal/media"
	"avshelf/internal/organizer"
	"avshelf/internal/services"
)

// Organizer places a single video in the library.
type Organizer interface {
	OrganizeFile(ctx context.Context, video media.VideoFile, meta *media.MovieMetadata, customPattern string) organizer.Result
	LockTarget() (func(), error)
}

// ImageFetcher downloads artwork for organized titles.
type ImageFetcher interface {
	DownloadMovieImages(ctx context.Context, meta *media.MovieMetadata, dir string, types ...images.ImageType) images.Result
}

// Deduplicator reports byte-identical inputs.
type Deduplicator interface {
	Detect(ctx context.Context, files []media.VideoFile) (dedupe.Report, error)
}

// Recorder persists per-file outcomes.
type Recorder interface {
	Record(ctx context.Context, entry history.Entry) (int64, error)
}

// Options wires a Runner. Organizer and Metadata are required; a nil Images
// skips artwork, a nil Duplicates skips duplicate detection, and a nil
// History skips recording.
type Options struct {
	Organizer     Organizer
	Images        ImageFetcher
	Duplicates    Deduplicator
	History       Recorder
	Metadata      MetadataSource
	NamingPattern string
	Logger        *slog.Logger
}

// Runner processes scanned videos one at a time.
type Runner struct {
	organizer  Organizer
	images     ImageFetcher
	duplicates Deduplicator
	history    Recorder
	metadata  MetadataSource
	pattern   string
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
}

// New validates opts and returns a Runner.
func New(opts Options) (*Runner, error) {
	if opts.Organizer == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "new runner", "organizer is required", nil)
	}
	if opts.Metadata == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "new runner", "metadata source is required", nil)
	}
	return &Runner{
		organizer:  opts.Organizer,
		images:     opts.Images,
		duplicates: opts.Duplicates,
		history:    opts.History,
		metadata:   opts.Metadata,
		pattern:    strings.TrimSpace(opts.NamingPattern),
		logger:     logging.NewComponentLogger(opts.Logger, "pipeline"),
		now:        time.Now,
		newID:      uuid.NewString,
	}, nil
}

// Outcome is the result for one video.
type Outcome struct {
	File       string            `json:"file"`
	Path       string            `json:"path"`
	Code       string            `json:"code,omitempty"`
	Status     history.Status    `json:"status"`
	Message    string            `json:"message"`
	TargetPath string            `json:"target_path,omitempty"`
	Organize   *organizer.Result `json:"organize,omitempty"`
	Images     *images.Result    `json:"images,omitempty"`
	Duration   time.Duration     `json:"duration"`
}

// Counts tallies outcomes by status.
type Counts struct {
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
	Partial    int `json:"partial"`
	Skipped    int `json:"skipped"`
}

func (c *Counts) add(status history.Status) {
	switch status {
	case history.StatusSuccess:
		c.Successful++
	case history.StatusPartial:
		c.Partial++
	case history.StatusSkipped:
		c.Skipped++
	default:
		c.Failed++
	}
}

// Report summarizes one Process call.
type Report struct {
	RunID      string         `json:"run_id"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Total      int            `json:"total"`
	Counts     Counts         `json:"counts"`
	Outcomes   []Outcome      `json:"outcomes"`
	Duplicates *dedupe.Report `json:"duplicates,omitempty"`
}

// Duration returns the wall time of the run.
func (r Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Process organizes files in order and returns one outcome per file. The
// library lock is held for the whole run; when another process owns it every
// file fails without being touched. With a Deduplicator, redundant copies of
// identical files are skipped before any metadata lookup. Cancellation stops
// the run and marks the remaining files failed.
func (r *Runner) Process(ctx context.Context, files []media.VideoFile) Report {
	report := Report{
		RunID:     r.newID(),
		StartedAt: r.now(),
		Total:     len(files),
		Outcomes:  make([]Outcome, 0, len(files)),
	}
	ctx = services.WithRequestID(ctx, report.RunID)
	logger := logging.WithContext(ctx, r.logger)
	logger.Info("organize run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.Int("files", len(files)),
		logging.Bool("images", r.images != nil),
		logging.Bool("dedupe", r.duplicates != nil),
		logging.Bool("history", r.history != nil),
	)

	unlock, lockErr := r.organizer.LockTarget()
	if lockErr != nil {
		logging.WarnWithContext(logger, "library locked", "run_lock_failed",
			logging.Error(lockErr),
			logging.String(logging.FieldErrorHint, "wait for the other avshelf run to finish"),
			logging.String(logging.FieldImpact, "no files organized in this run"),
		)
	} else {
		defer unlock()
	}

	if lockErr == nil && r.duplicates != nil {
		dupes, err := r.duplicates.Detect(ctx, files)
		if err != nil {
			logging.WarnWithContext(logger, "duplicate detection failed", "dedupe_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "duplicates are organized like any other file"),
			)
		} else {
			report.Duplicates = &dupes
		}
	}

	progress := logging.NewBatchProgress(len(files), 10)
	for i, video := range files {
		var out Outcome
		kept, duplicate := media.VideoFile{}, false
		if report.Duplicates != nil {
			kept, duplicate = report.Duplicates.KeptCopy(video.Path)
		}
		switch {
		case lockErr != nil:
			out = r.rejected(ctx, report.RunID, video, history.StatusFailed, "Batch error: "+lockErr.Error())
		case ctx.Err() != nil:
			out = newOutcome(video)
			out.Status = history.StatusFailed
			out.Message = "Cancelled: " + ctx.Err().Error()
		case duplicate:
			logger.Info("skipping duplicate file",
				logging.String("file", video.Path),
				logging.String("kept", kept.Path),
				logging.String(logging.FieldEventType, "duplicate_skipped"),
			)
			out = r.rejected(ctx, report.RunID, video, history.StatusSkipped, "Duplicate of "+kept.Filename)
		default:
			out = r.processOne(ctx, report.RunID, video)
		}
		report.Counts.add(out.Status)
		report.Outcomes = append(report.Outcomes, out)
		if progress.Advance(i + 1) {
			logger.Info("run progress",
				logging.Int("done", i+1),
				logging.Int("total", len(files)),
				logging.Float64("percent", progress.Percent(i+1)),
			)
		}
	}

	report.FinishedAt = r.now()
	logger.Info("organize run completed",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.Int("successful", report.Counts.Successful),
		logging.Int("partial", report.Counts.Partial),
		logging.Int("skipped", report.Counts.Skipped),
		logging.Int("failed", report.Counts.Failed),
		logging.Duration("run_duration", report.Duration()),
	)
	return report
}

func newOutcome(video media.VideoFile) Outcome {
	return Outcome{File: video.Filename, Path: video.Path, Code: video.DetectedCode}
}

func (r *Runner) rejected(ctx context.Context, runID string, video media.VideoFile, status history.Status, message string) Outcome {
	out := newOutcome(video)
	out.Status = status
	out.Message = message
	entry := baseEntry(runID, video)
	entry.ErrorMessage = message
	r.record(ctx, &out, entry)
	return out
}

func (r *Runner) processOne(ctx context.Context, runID string, video media.VideoFile) (out Outcome) {
	start := r.now()
	ctx = services.WithCode(ctx, video.DetectedCode)
	logger := logging.WithContext(ctx, r.logger).With(logging.String("file", video.Filename))
	out = newOutcome(video)
	entry := baseEntry(runID, video)

	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("processing panicked",
				logging.String("panic", fmt.Sprint(rec)),
				logging.String(logging.FieldEventType, "process_panic"),
			)
			out.Status = history.StatusFailed
			out.Message = fmt.Sprintf("Error: %v", rec)
		}
		out.Duration = r.now().Sub(start)
		entry.Status = out.Status
		entry.Duration = out.Duration
		if out.Status != history.StatusSuccess {
			entry.ErrorMessage = out.Message
		}
		r.record(ctx, &out, entry)
	}()

	meta, err := r.metadata.Lookup(ctx, video)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			out.Status = history.StatusSkipped
			out.Message = "No metadata found"
			logger.Info("no metadata found, skipping",
				logging.String(logging.FieldEventType, "metadata_missing"),
			)
			return out
		}
		out.Status = history.StatusFailed
		out.Message = "Metadata error: " + err.Error()
		logger.Error("metadata lookup failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "metadata_failed"),
			logging.String(logging.FieldErrorHint, "fix or remove the metadata file"),
		)
		return out
	}
	if out.Code == "" {
		out.Code = meta.Code
	}
	fillMetadata(&entry, meta)

	res := r.organizer.OrganizeFile(ctx, video, meta, r.pattern)
	out.Organize = &res
	if !res.Success || res.Details == nil {
		out.Message = res.Message
		out.Status = history.StatusFailed
		if strings.HasPrefix(res.Message, "Skipped") {
			out.Status = history.StatusSkipped
		}
		return out
	}
	out.TargetPath = res.Details.TargetPath
	entry.OrganizedPath = res.Details.TargetPath
	out.Status = history.StatusSuccess
	out.Message = res.Message

	if r.images == nil {
		return out
	}
	imgs := r.images.DownloadMovieImages(ctx, meta, filepath.Dir(res.Details.TargetPath))
	out.Images = &imgs
	entry.ImagesDownloaded = len(imgs.DownloadedFiles)
	entry.CoverDownloaded = coverDownloaded(imgs.DownloadedFiles)
	if !imgs.Success || len(imgs.FailedDownloads) > 0 {
		out.Status = history.StatusPartial
		out.Message = "Organized; images: " + imgs.Message
		logging.WarnWithContext(logger, "some images failed to download", "images_partial",
			logging.Int("failed", len(imgs.FailedDownloads)),
			logging.Int("downloaded", len(imgs.DownloadedFiles)),
			logging.String(logging.FieldImpact, "video organized with incomplete artwork"),
		)
	}
	return out
}

func (r *Runner) record(ctx context.Context, out *Outcome, entry history.Entry) {
	if r.history == nil {
		return
	}
	if entry.Status == "" {
		entry.Status = out.Status
	}
	entry.ProcessedAt = r.now()
	if _, err := r.history.Record(context.WithoutCancel(ctx), entry); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, r.logger), "history record failed", "history_record_failed",
			logging.Error(err),
			logging.String("file", out.File),
			logging.String(logging.FieldImpact, "outcome missing from processing history"),
		)
	}
}

func baseEntry(runID string, video media.VideoFile) history.Entry {
	return history.Entry{
		RunID:            runID,
		OriginalFilename: video.Filename,
		OriginalPath:     video.Path,
		FileSize:         video.Size,
		FileExtension:    video.Extension,
		DetectedCode:     video.DetectedCode,
	}
}

func fillMetadata(entry *history.Entry, meta *media.MovieMetadata) {
	entry.MetadataFound = true
	if entry.DetectedCode == "" {
		entry.DetectedCode = meta.Code
	}
	entry.Title = meta.Title
	entry.Actresses = append([]string(nil), meta.Actresses...)
	entry.Studio = meta.Studio
	if meta.ReleaseDate != nil {
		entry.ReleaseDate = meta.ReleaseDate.String()
	}
}

func coverDownloaded(paths []string) bool {
	for _, p := range paths {
		base := filepath.Base(p)
		if strings.HasSuffix(strings.TrimSuffix(base, filepath.Ext(base)), "_"+string(images.Cover)) {
			return true
		}
	}
	return false
}
