package images

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"avshelf/internal/fileutil"
	"avshelf/internal/logging"
	"avshelf/internal/media"
	"avshelf/internal/services"
)

// Downloader fetches movie artwork through an HTTPClient.
type Downloader struct {
	client              HTTPClient
	opts                Options
	maxBytes            int64
	processingAvailable bool
	sem                 *semaphore.Weighted
	logger              *slog.Logger
	now                 func() time.Time
	stats               counters
}

type task struct {
	kind   ImageType
	url    string
	target string
}

type outcome struct {
	path string
	err  error
}

// New builds a Downloader. Zero-valued options take defaults. When image
// processing is unavailable, resize, conversion, and thumbnails are turned
// off and Format falls back to auto.
func New(client HTTPClient, opts Options, logger *slog.Logger) *Downloader {
	opts = opts.withDefaults()
	d := &Downloader{
		client:   client,
		maxBytes: int64(opts.MaxFileSizeMB) * 1024 * 1024,
		logger:   logging.NewComponentLogger(logger, "images"),
		now:      time.Now,
	}
	d.processingAvailable = !opts.DisableProcessing && CodecsAvailable()
	if !d.processingAvailable {
		if opts.Resize || opts.Thumbnails || opts.Format != FormatAuto {
			logging.WarnWithContext(d.logger, "image processing unavailable; storing images as fetched", "processing_unavailable",
				logging.String(logging.FieldImpact, "resize, conversion, and thumbnails disabled"),
			)
		}
		opts.Resize = false
		opts.Thumbnails = false
		opts.Format = FormatAuto
	}
	d.opts = opts
	d.sem = semaphore.NewWeighted(int64(opts.MaxConcurrent))
	return d
}

// ProcessingAvailable reports whether decode and re-encode paths are enabled.
func (d *Downloader) ProcessingAvailable() bool {
	return d.processingAvailable
}

// Options returns the effective configuration.
func (d *Downloader) Options() Options {
	return d.opts
}

// DownloadMovieImages fetches the requested artwork for meta into dir. With no
// types given, cover, poster, and screenshots are all requested. The call
// succeeds when at least one image landed or when there was nothing to fetch.
func (d *Downloader) DownloadMovieImages(ctx context.Context, meta *media.MovieMetadata, dir string, types ...ImageType) Result {
	if meta == nil {
		return d.result(false, "Error: metadata is required", nil, nil, 0)
	}
	if len(types) == 0 {
		types = AllTypes()
	}
	logger := logging.WithContext(ctx, d.logger).With(logging.String(logging.FieldCode, meta.Code))
	logger.Info("downloading images", logging.String("dir", dir))

	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Error("failed to create image directory", logging.Error(err))
		return d.result(false, "Error: "+err.Error(), nil, nil, 0)
	}

	tasks := d.plan(meta, dir, types)
	if len(tasks) == 0 {
		logging.WarnWithContext(logger, "no images to download", "images_absent")
		return d.result(true, "No images available", []string{}, []string{}, 0)
	}

	outcomes := make([]outcome, len(tasks))
	var wg sync.WaitGroup
	for i, t := range tasks {
		wg.Add(1)
		go func(i int, t task) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					d.stats.downloadFailures.Add(1)
					logger.Error("image task panicked", logging.String("url", t.url), logging.String("panic", fmt.Sprint(r)))
					outcomes[i] = outcome{err: fmt.Errorf("%s: panic: %v", t.url, r)}
				}
			}()

			if err := d.sem.Acquire(ctx, 1); err != nil {
				d.stats.downloadFailures.Add(1)
				outcomes[i] = outcome{err: fmt.Errorf("%s: %w", t.url, err)}
				return
			}
			defer d.sem.Release(1)

			path, err := d.downloadOne(ctx, logger, t)
			if err != nil {
				d.stats.downloadFailures.Add(1)
				logger.Warn("image download failed",
					logging.String("url", t.url),
					logging.String("type", string(t.kind)),
					logging.Error(err),
					logging.String(logging.FieldEventType, "image_download_failed"),
				)
				outcomes[i] = outcome{err: fmt.Errorf("%s: %w", t.url, err)}
				return
			}
			outcomes[i] = outcome{path: path}
		}(i, t)
	}
	wg.Wait()

	downloaded := make([]string, 0, len(tasks))
	failed := make([]string, 0)
	for _, o := range outcomes {
		if o.err != nil {
			failed = append(failed, o.err.Error())
			continue
		}
		downloaded = append(downloaded, o.path)
	}

	message := fmt.Sprintf("Downloaded %d images", len(downloaded))
	if len(failed) > 0 {
		message += fmt.Sprintf(", %d failed", len(failed))
	}
	logger.Info("image downloads complete",
		logging.Int("downloaded", len(downloaded)),
		logging.Int("failed", len(failed)),
		logging.Int("requested", len(tasks)),
	)
	return d.result(len(downloaded) > 0, message, downloaded, failed, len(tasks))
}

func (d *Downloader) plan(meta *media.MovieMetadata, dir string, types []ImageType) []task {
	want := make(map[ImageType]bool, len(types))
	for _, t := range types {
		want[t] = true
	}
	var tasks []task
	add := func(kind ImageType, url string, index int) {
		name := Filename(meta.Code, kind, url, index, d.opts.Format)
		tasks = append(tasks, task{kind: kind, url: url, target: filepath.Join(dir, name)})
	}
	if want[Cover] && strings.TrimSpace(meta.CoverURL) != "" {
		add(Cover, meta.CoverURL, 0)
	}
	if want[Poster] && strings.TrimSpace(meta.PosterURL) != "" {
		add(Poster, meta.PosterURL, 0)
	}
	if want[Screenshot] {
		for i, url := range meta.Screenshots {
			add(Screenshot, url, i+1)
		}
	}
	return tasks
}

func (d *Downloader) downloadOne(ctx context.Context, logger *slog.Logger, t task) (string, error) {
	logger.Debug("downloading image", logging.String("type", string(t.kind)), logging.String("url", t.url))

	data, err := d.fetch(ctx, t.url)
	if err != nil {
		return "", err
	}

	if d.processingAvailable {
		processed, perr := d.process(data, t.target, t.kind)
		if perr != nil {
			d.stats.processingFailures.Add(1)
			logger.Warn("image processing failed; keeping original bytes",
				logging.String("target", t.target),
				logging.Error(perr),
				logging.String(logging.FieldEventType, "image_processing_failed"),
			)
		} else {
			data = processed
		}
	}

	if err := fileutil.WriteFileAtomic(t.target, data, 0o644); err != nil {
		return "", services.Wrap(services.ErrTransient, "images", "save", t.target, err)
	}

	if d.opts.Thumbnails {
		if thumb, err := d.createThumbnail(t.target); err != nil {
			logger.Warn("thumbnail creation failed", logging.String("image", t.target), logging.Error(err))
		} else {
			logger.Debug("thumbnail created", logging.String("thumbnail", filepath.Base(thumb)))
		}
	}

	d.stats.downloaded.Add(1)
	d.stats.bytes.Add(int64(len(data)))
	logger.Debug("image saved", logging.String("file", filepath.Base(t.target)), logging.Int("bytes", len(data)))
	return t.target, nil
}

func (d *Downloader) fetch(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, d.opts.Timeout)
	defer cancel()

	resp, err := d.client.Get(ctx, url)
	if err != nil {
		return nil, services.Wrap(services.ErrExternal, "images", "fetch", "request failed", err)
	}
	defer resp.Close()

	if status := resp.StatusCode(); status < 200 || status > 299 {
		return nil, services.Wrap(services.ErrExternal, "images", "fetch", fmt.Sprintf("HTTP %d", status), nil)
	}
	contentType := strings.ToLower(resp.Header("Content-Type"))
	if !imageContentType(contentType) {
		return nil, services.Wrap(services.ErrValidation, "images", "fetch", fmt.Sprintf("invalid content type %q", contentType), nil)
	}
	if raw := strings.TrimSpace(resp.Header("Content-Length")); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil && n > d.maxBytes {
			return nil, services.Wrap(services.ErrValidation, "images", "fetch", fmt.Sprintf("image too large: %d bytes", n), nil)
		}
	}
	data, err := resp.Read(ctx)
	if err != nil {
		return nil, services.Wrap(services.ErrExternal, "images", "fetch", "read body", err)
	}
	if int64(len(data)) > d.maxBytes {
		return nil, services.Wrap(services.ErrValidation, "images", "fetch", fmt.Sprintf("image too large: %d bytes", len(data)), nil)
	}
	return data, nil
}

func imageContentType(contentType string) bool {
	for _, marker := range []string{"image/", "jpeg", "png", "webp"} {
		if strings.Contains(contentType, marker) {
			return true
		}
	}
	return false
}

func (d *Downloader) result(success bool, message string, downloaded, failed []string, total int) Result {
	return Result{
		Success:         success,
		Message:         message,
		Timestamp:       d.now(),
		DownloadedFiles: downloaded,
		FailedDownloads: failed,
		TotalRequested:  total,
	}
}
