package media_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"avshelf/internal/media"
	"avshelf/internal/services"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func TestNewVideoFileValidation(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		filename string
		size     int64
		ext      string
	}{
		{"empty path", "", "a.mp4", 1, ".mp4"},
		{"empty filename", "/x/a.mp4", "", 1, ".mp4"},
		{"negative size", "/x/a.mp4", "a.mp4", -1, ".mp4"},
		{"empty extension", "/x/a.mp4", "a.mp4", 1, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := media.NewVideoFile(tt.path, tt.filename, tt.size, tt.ext, "")
			if !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}

	vf, err := media.NewVideoFile("/x/SSIS-001.mp4", "SSIS-001.mp4", 0, "mp4", " SSIS-001 ")
	if err != nil {
		t.Fatalf("NewVideoFile: %v", err)
	}
	if vf.Extension != ".mp4" || vf.DetectedCode != "SSIS-001" || vf.Stem() != "SSIS-001" {
		t.Fatalf("unexpected video file: %+v", vf)
	}
}

func TestVideoFileFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ABC-123.mkv")
	if err := os.WriteFile(path, []byte("0123456789"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	vf, err := media.VideoFileFromPath(path)
	if err != nil {
		t.Fatalf("VideoFileFromPath: %v", err)
	}
	if vf.Size != 10 || vf.Extension != ".mkv" || vf.Filename != "ABC-123.mkv" || vf.ModTime.IsZero() {
		t.Fatalf("unexpected video file: %+v", vf)
	}
	if _, err := media.VideoFileFromPath(filepath.Join(t.TempDir(), "missing.mp4")); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestNewMovieMetadataFailsFast(t *testing.T) {
	tests := []struct {
		name string
		meta media.MovieMetadata
	}{
		{"empty code", media.MovieMetadata{Title: "t"}},
		{"empty title", media.MovieMetadata{Code: "A-1", Title: "  "}},
		{"rating high", media.MovieMetadata{Code: "A-1", Title: "t", Rating: floatPtr(10.5)}},
		{"rating low", media.MovieMetadata{Code: "A-1", Title: "t", Rating: floatPtr(-0.1)}},
		{"negative duration", media.MovieMetadata{Code: "A-1", Title: "t", Duration: intPtr(-1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := media.NewMovieMetadata(tt.meta); !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
	if _, err := media.NewMovieMetadata(media.MovieMetadata{Code: "A-1", Title: "t", Rating: floatPtr(10), Duration: intPtr(0)}); err != nil {
		t.Fatalf("boundary values rejected: %v", err)
	}
}

func TestNewMovieMetadataNormalizes(t *testing.T) {
	m, err := media.NewMovieMetadata(media.MovieMetadata{
		Code:      "SSIS-001",
		Title:     "Beautiful Secretary",
		Actresses: []string{" Yua Mikami ", "", "Yua Mikami", "Other"},
		SourceURL: "https://example.test/v/1",
	})
	if err != nil {
		t.Fatalf("NewMovieMetadata: %v", err)
	}
	if strings.Join(m.Actresses, "|") != "Yua Mikami|Other" {
		t.Fatalf("actresses = %v", m.Actresses)
	}
	if m.SourceURLs["primary"] != "https://example.test/v/1" {
		t.Fatalf("source url not promoted: %v", m.SourceURLs)
	}
	if m.ScrapedAt.IsZero() {
		t.Fatal("scraped_at should default to now")
	}
	if m.Genres == nil || m.Screenshots == nil {
		t.Fatal("list fields should serialize as empty arrays")
	}
}

func TestDurationStringAndPrimaryActress(t *testing.T) {
	m := media.MovieMetadata{Code: "A", Title: "t"}
	if m.DurationString() != "Unknown" || m.PrimaryActress() != "" {
		t.Fatalf("unexpected defaults: %q %q", m.DurationString(), m.PrimaryActress())
	}
	m.Duration = intPtr(65)
	if got := m.DurationString(); got != "1h 5m" {
		t.Fatalf("DurationString = %q", got)
	}
	m.Duration = intPtr(45)
	if got := m.DurationString(); got != "45m" {
		t.Fatalf("DurationString = %q", got)
	}
}

func TestMergePrefersRicherData(t *testing.T) {
	early := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	late := early.Add(24 * time.Hour)
	a, _ := media.NewMovieMetadata(media.MovieMetadata{
		Code: "ABC-123", Title: "Short", Actresses: []string{"A"},
		ReleaseDate: media.NewDate(2020, time.May, 2), Duration: intPtr(90),
		Rating: floatPtr(7), ScrapedAt: early,
		SourceURLs: map[string]string{"javdb": "https://a"},
	})
	b, _ := media.NewMovieMetadata(media.MovieMetadata{
		Code: "ABC-123", Title: "A much longer title", Actresses: []string{"A", "B"},
		ReleaseDate: media.NewDate(2020, time.May, 1), Duration: intPtr(120),
		Rating: floatPtr(6), ScrapedAt: late,
		SourceURLs: map[string]string{"javdb": "https://b", "javlibrary": "https://c"},
	})
	merged, err := a.Merge(b)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if merged.Title != "A much longer title" {
		t.Fatalf("title = %q", merged.Title)
	}
	if strings.Join(merged.Actresses, ",") != "A,B" {
		t.Fatalf("actresses = %v", merged.Actresses)
	}
	if merged.ReleaseDate.String() != "2020-05-01" {
		t.Fatalf("release date = %s", merged.ReleaseDate)
	}
	if *merged.Duration != 120 || *merged.Rating != 7 {
		t.Fatalf("duration/rating = %d/%g", *merged.Duration, *merged.Rating)
	}
	if !merged.ScrapedAt.Equal(late) {
		t.Fatalf("scraped_at = %v", merged.ScrapedAt)
	}
	if merged.SourceURLs["javdb"] != "https://a" || merged.SourceURLs["javlibrary"] != "https://c" {
		t.Fatalf("source urls = %v", merged.SourceURLs)
	}

	other, _ := media.NewMovieMetadata(media.MovieMetadata{Code: "XYZ-999", Title: "x"})
	if _, err := a.Merge(other); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected code mismatch error, got %v", err)
	}
}

func TestAddSource(t *testing.T) {
	m := media.MovieMetadata{Code: "A", Title: "t"}
	m.AddSource("javdb", "")
	if _, ok := m.SourceURLs["javdb"]; !ok || m.SourceURL != "" {
		t.Fatalf("reserve failed: %+v", m.SourceURLs)
	}
	m.AddSource("javdb", "https://a")
	if m.SourceURLs["javdb"] != "https://a" || m.SourceURL != "https://a" {
		t.Fatalf("add failed: %q %v", m.SourceURL, m.SourceURLs)
	}
}

func TestLoadMetadataFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "SSIS-001.json")
	doc := `{"code":"SSIS-001","title":"Beautiful Secretary","actresses":["Yua Mikami"],
"release_date":"2021-02-19","duration":150,"rating":8.1,"screenshots":["https://img/1.jpg"]}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	m, err := media.LoadMetadataFile(path)
	if err != nil {
		t.Fatalf("LoadMetadataFile: %v", err)
	}
	if m.ReleaseDate == nil || m.ReleaseDate.String() != "2021-02-19" {
		t.Fatalf("release date = %v", m.ReleaseDate)
	}
	if m.PrimaryActress() != "Yua Mikami" || len(m.Screenshots) != 1 {
		t.Fatalf("unexpected metadata: %+v", m)
	}

	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"release_date":"2021-02-19"`) {
		t.Fatalf("release date not serialized as calendar date: %s", data)
	}

	bad := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(bad, []byte(`{"code":"X"}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := media.LoadMetadataFile(bad); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for missing title, got %v", err)
	}
}
