package config

const (
	defaultConfigPath        = "~/.config/avshelf/config.toml"
	defaultLibraryDir        = "~/library/av"
	defaultMetadataDir       = "~/.local/share/avshelf/metadata"
	defaultLogDir            = "~/.local/share/avshelf/logs"
	defaultHistoryDB         = "~/.local/share/avshelf/history.db"
	defaultNamingPattern     = "{actress}/{code}/{code}.{ext}"
	defaultConflict          = "rename"
	defaultMaxFilenameLength = 255
	defaultMaxConcurrent     = 3
	defaultImageTimeout      = 30
	defaultRetryAttempts     = 3
	defaultMaxFileSizeMB     = 50
	defaultImageFormat       = "auto"
	defaultMaxWidth          = 1920
	defaultMaxHeight         = 1080
	defaultJPEGQuality       = 85
	defaultThumbnailWidth    = 300
	defaultThumbnailHeight   = 200
	defaultRequestsPerSecond = 2
	defaultUserAgent         = "avshelf/dev"
	defaultDedupeStrategy    = "keep_first"
	defaultDedupeConcurrent  = 4
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"

	libraryDirEnv = "AVSHELF_LIBRARY_DIR"
)

// DefaultVideoExtensions lists the container suffixes the scanner accepts.
var DefaultVideoExtensions = []string{".mp4", ".mkv", ".avi", ".wmv", ".mov", ".m4v", ".ts", ".flv", ".rmvb"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LibraryDir:  defaultLibraryDir,
			MetadataDir: defaultMetadataDir,
			LogDir:      defaultLogDir,
			HistoryDB:   defaultHistoryDB,
		},
		Organizer: Organizer{
			NamingPattern:       defaultNamingPattern,
			ConflictResolution:  defaultConflict,
			CreateMetadataFiles: true,
			VerifyIntegrity:     true,
			MaxFilenameLength:   defaultMaxFilenameLength,
			SafeMode:            true,
		},
		Images: Images{
			Enabled:                true,
			MaxConcurrentDownloads: defaultMaxConcurrent,
			TimeoutSeconds:         defaultImageTimeout,
			RetryAttempts:          defaultRetryAttempts,
			MaxFileSizeMB:          defaultMaxFileSizeMB,
			Format:                 defaultImageFormat,
			MaxWidth:               defaultMaxWidth,
			MaxHeight:              defaultMaxHeight,
			JPEGQuality:            defaultJPEGQuality,
			ThumbnailWidth:         defaultThumbnailWidth,
			ThumbnailHeight:        defaultThumbnailHeight,
			RequestsPerSecond:      defaultRequestsPerSecond,
			UserAgent:              defaultUserAgent,
		},
		Scan: Scan{
			Extensions: append([]string(nil), DefaultVideoExtensions...),
		},
		Dedupe: Dedupe{
			Strategy:      defaultDedupeStrategy,
			MaxConcurrent: defaultDedupeConcurrent,
			UseCache:      true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
