package organizer

import (
	"fmt"
	"strings"
	"time"

	"avshelf/internal/media"
)

// ConflictPolicy selects what happens when the resolved target already exists.
type ConflictPolicy string

const (
	ConflictSkip      ConflictPolicy = "skip"
	ConflictOverwrite ConflictPolicy = "overwrite"
	ConflictRename    ConflictPolicy = "rename"
	// ConflictAsk behaves like ConflictRename; avshelf never prompts.
	ConflictAsk ConflictPolicy = "ask"
)

// ParseConflictPolicy maps a config string onto a policy.
func ParseConflictPolicy(value string) (ConflictPolicy, error) {
	switch p := ConflictPolicy(strings.ToLower(strings.TrimSpace(value))); p {
	case ConflictSkip, ConflictOverwrite, ConflictRename, ConflictAsk:
		return p, nil
	case "":
		return ConflictRename, nil
	default:
		return "", fmt.Errorf("unknown conflict policy %q", value)
	}
}

// Operation names the transfer performed for a file.
type Operation string

const (
	OperationCopy Operation = "copy"
	OperationMove Operation = "move"
)

const (
	// DefaultNamingPattern places each title in an actress/code directory.
	DefaultNamingPattern = "{actress}/{code}/{code}.{ext}"
	// DefaultMaxFilenameLength bounds each path component, in runes.
	DefaultMaxFilenameLength = 255
	// Version is recorded in every sidecar.
	Version = "1.0"
)

// Options configures an Organizer for its whole lifetime.
type Options struct {
	TargetDir         string
	NamingPattern     string
	Conflict          ConflictPolicy
	CreateSidecars    bool
	VerifyIntegrity   bool
	MaxFilenameLength int
	// SafeMode copies files and leaves the source in place. When false files
	// are moved.
	SafeMode bool
}

// DefaultOptions returns the standard settings for targetDir.
func DefaultOptions(targetDir string) Options {
	return Options{
		TargetDir:         targetDir,
		NamingPattern:     DefaultNamingPattern,
		Conflict:          ConflictRename,
		CreateSidecars:    true,
		VerifyIntegrity:   true,
		MaxFilenameLength: DefaultMaxFilenameLength,
		SafeMode:          true,
	}
}

// Details describes a successful placement.
type Details struct {
	OriginalPath string    `json:"original_path"`
	TargetPath   string    `json:"target_path"`
	MetadataFile *string   `json:"metadata_file"`
	Operation    Operation `json:"operation"`
}

// Result is the outcome of organizing one file.
type Result struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Details   *Details  `json:"details,omitempty"`
}

// Pair couples a video with the metadata used to place it.
type Pair struct {
	Video    media.VideoFile
	Metadata *media.MovieMetadata
}

// BatchEntry records the result for one file of a batch.
type BatchEntry struct {
	File   string `json:"file"`
	Result Result `json:"result"`
}

// BatchResult summarizes OrganizeMultiple.
type BatchResult struct {
	TotalFiles int          `json:"total_files"`
	Successful int          `json:"successful"`
	Failed     int          `json:"failed"`
	Results    []BatchEntry `json:"results"`
	Statistics Statistics   `json:"statistics"`
}

// ValidationReport is returned by ValidateTargetDirectory.
type ValidationReport struct {
	Valid    bool           `json:"valid"`
	Errors   []string       `json:"errors"`
	Warnings []string       `json:"warnings"`
	Info     map[string]any `json:"info"`
}

// CleanupReport is returned by CleanupEmptyDirectories.
type CleanupReport struct {
	EmptyDirectories   []string `json:"empty_directories"`
	RemovedDirectories []string `json:"removed_directories"`
	Errors             []string `json:"errors"`
}
