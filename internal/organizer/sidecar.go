package organizer

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"avshelf/internal/fileutil"
	"avshelf/internal/media"
	"avshelf/internal/services"
)

// Sidecar is the JSON document written beside an organized video.
type Sidecar struct {
	FileInfo SidecarFileInfo      `json:"file_info"`
	Metadata *media.MovieMetadata `json:"metadata"`
}

// SidecarFileInfo is the sidecar envelope.
type SidecarFileInfo struct {
	Filename         string `json:"filename"`
	OrganizedAt      string `json:"organized_at"`
	OrganizerVersion string `json:"organizer_version"`
}

// SidecarPath returns the sidecar location for a video path.
func SidecarPath(videoPath string) string {
	return strings.TrimSuffix(videoPath, filepath.Ext(videoPath)) + ".json"
}

func writeSidecar(videoPath string, meta *media.MovieMetadata, at time.Time) (string, error) {
	doc := Sidecar{
		FileInfo: SidecarFileInfo{
			Filename:         filepath.Base(videoPath),
			OrganizedAt:      at.Format(time.RFC3339),
			OrganizerVersion: Version,
		},
		Metadata: meta,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "organizer", "encode sidecar", meta.Code, err)
	}
	path := SidecarPath(videoPath)
	if err := fileutil.WriteFileAtomic(path, append(data, '\n'), 0o644); err != nil {
		return "", services.Wrap(services.ErrTransient, "organizer", "write sidecar", path, err)
	}
	return path, nil
}

// ReadSidecar loads a sidecar document.
func ReadSidecar(path string) (*Sidecar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "organizer", "read sidecar", path, err)
	}
	var doc Sidecar
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, services.Wrap(services.ErrValidation, "organizer", "decode sidecar", path, err)
	}
	return &doc, nil
}
