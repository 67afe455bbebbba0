package testsupport

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"avshelf/internal/media"
)

// NewVideo writes a video file of size bytes at dir/filename and returns its
// VideoFile with the detected code set.
func NewVideo(t testing.TB, dir, filename string, size int64, code string) media.VideoFile {
	t.Helper()

	path := filepath.Join(dir, filename)
	WriteFile(t, path, size)
	vf, err := media.VideoFileFromPath(path)
	if err != nil {
		t.Fatalf("video file %s: %v", path, err)
	}
	return vf.WithCode(code)
}

// NewMetadata builds validated metadata for tests.
func NewMetadata(t testing.TB, code, title string, actresses ...string) *media.MovieMetadata {
	t.Helper()

	meta, err := media.NewMovieMetadata(media.MovieMetadata{Code: code, Title: title, Actresses: actresses})
	if err != nil {
		t.Fatalf("metadata %s: %v", code, err)
	}
	return meta
}

// WriteMetadataFile stores meta as dir/<CODE>.json, the layout the pipeline
// reads metadata from.
func WriteMetadataFile(t testing.TB, dir string, meta *media.MovieMetadata) string {
	t.Helper()

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		t.Fatalf("encode metadata: %v", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	path := filepath.Join(dir, meta.Code+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
