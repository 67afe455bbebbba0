package pipeline

import (
	"log/slog"
	"time"

	"avshelf/internal/config"
	"avshelf/internal/dedupe"
	"avshelf/internal/history"
	"avshelf/internal/httpx"
	"avshelf/internal/images"
	"avshelf/internal/organizer"
	"avshelf/internal/services"
)

// OrganizerOptions maps the [organizer] section onto organizer.Options.
func OrganizerOptions(cfg *config.Config) (organizer.Options, error) {
	policy, err := organizer.ParseConflictPolicy(cfg.Organizer.ConflictResolution)
	if err != nil {
		return organizer.Options{}, services.Wrap(services.ErrConfiguration, "pipeline", "organizer options", "conflict_resolution", err)
	}
	return organizer.Options{
		TargetDir:         cfg.Paths.LibraryDir,
		NamingPattern:     cfg.Organizer.NamingPattern,
		Conflict:          policy,
		CreateSidecars:    cfg.Organizer.CreateMetadataFiles,
		VerifyIntegrity:   cfg.Organizer.VerifyIntegrity,
		MaxFilenameLength: cfg.Organizer.MaxFilenameLength,
		SafeMode:          cfg.Organizer.SafeMode,
	}, nil
}

// ImageOptions maps the [images] section onto images.Options.
func ImageOptions(cfg *config.Config) (images.Options, error) {
	format, err := images.ParseFormat(cfg.Images.Format)
	if err != nil {
		return images.Options{}, services.Wrap(services.ErrConfiguration, "pipeline", "image options", "format", err)
	}
	return images.Options{
		MaxConcurrent:   cfg.Images.MaxConcurrentDownloads,
		Timeout:         time.Duration(cfg.Images.TimeoutSeconds) * time.Second,
		RetryAttempts:   cfg.Images.RetryAttempts,
		MaxFileSizeMB:   cfg.Images.MaxFileSizeMB,
		Format:          format,
		Resize:          cfg.Images.Resize,
		MaxWidth:        cfg.Images.MaxWidth,
		MaxHeight:       cfg.Images.MaxHeight,
		JPEGQuality:     cfg.Images.JPEGQuality,
		Thumbnails:      cfg.Images.Thumbnails,
		ThumbnailWidth:  cfg.Images.ThumbnailWidth,
		ThumbnailHeight: cfg.Images.ThumbnailHeight,
	}, nil
}

// DedupeOptions maps the [dedupe] section onto dedupe.Options. The cache is
// left for the caller to attach.
func DedupeOptions(cfg *config.Config) (dedupe.Options, error) {
	strategy, err := dedupe.ParseStrategy(cfg.Dedupe.Strategy)
	if err != nil {
		return dedupe.Options{}, services.Wrap(services.ErrConfiguration, "pipeline", "dedupe options", "strategy", err)
	}
	return dedupe.Options{Strategy: strategy, MaxConcurrent: cfg.Dedupe.MaxConcurrent}, nil
}

// HTTPConfig maps the [images] request settings onto httpx.Config.
func HTTPConfig(cfg *config.Config) httpx.Config {
	return httpx.Config{
		UserAgent:         cfg.Images.UserAgent,
		Timeout:           time.Duration(cfg.Images.TimeoutSeconds) * time.Second,
		RetryAttempts:     cfg.Images.RetryAttempts,
		RequestsPerSecond: cfg.Images.RequestsPerSecond,
		MaxBodyBytes:      int64(cfg.Images.MaxFileSizeMB) * 1024 * 1024,
	}
}

// Components holds everything an organize run needs. Images is nil when
// artwork downloads are disabled and Dedupe is nil when duplicate detection
// is.
type Components struct {
	Organizer *organizer.Organizer
	Images    *images.Downloader
	Dedupe    *dedupe.Detector
	History   *history.Store
	Runner    *Runner
}

// Build constructs the run components from cfg. Extra httpx options apply to
// the artwork client. Callers must Close the result.
func Build(cfg *config.Config, logger *slog.Logger, httpOpts ...httpx.Option) (*Components, error) {
	orgOpts, err := OrganizerOptions(cfg)
	if err != nil {
		return nil, err
	}
	org, err := organizer.New(orgOpts, logger)
	if err != nil {
		return nil, err
	}

	c := &Components{Organizer: org}
	if cfg.Images.Enabled {
		imgOpts, err := ImageOptions(cfg)
		if err != nil {
			return nil, err
		}
		httpOpts = append([]httpx.Option{httpx.WithLogger(logger)}, httpOpts...)
		client := httpx.NewClient(HTTPConfig(cfg), httpOpts...)
		c.Images = images.New(client, imgOpts, logger)
	}

	store, err := history.Open(cfg)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "build", "open history", err)
	}
	c.History = store

	if cfg.Dedupe.Enabled {
		dedupeOpts, err := DedupeOptions(cfg)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		if cfg.Dedupe.UseCache {
			dedupeOpts.Cache = store
		}
		c.Dedupe = dedupe.New(dedupeOpts, logger)
	}

	// Nil component pointers must stay nil interfaces.
	opts := Options{
		Organizer: org,
		History:   store,
		Metadata:  DirSource{Dir: cfg.Paths.MetadataDir},
		Logger:    logger,
	}
	if c.Images != nil {
		opts.Images = c.Images
	}
	if c.Dedupe != nil {
		opts.Duplicates = c.Dedupe
	}
	runner, err := New(opts)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	c.Runner = runner
	return c, nil
}

// Close releases the history database.
func (c *Components) Close() error {
	if c == nil || c.History == nil {
		return nil
	}
	return c.History.Close()
}
