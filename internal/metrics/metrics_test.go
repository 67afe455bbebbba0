package metrics_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"avshelf/internal/images"
	"avshelf/internal/metrics"
	"avshelf/internal/organizer"
	"avshelf/internal/pipeline"
)

func TestWriteTextfile(t *testing.T) {
	exp := metrics.New()
	exp.ObserveOrganizer(organizer.Statistics{FilesProcessed: 4, FilesCopied: 3, Errors: 1, SuccessRate: 75})
	exp.ObserveImages(images.Statistics{ImagesDownloaded: 5, DownloadFailures: 1, TotalBytesDownloaded: 2048, SuccessRate: 83.3})
	finished := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	exp.ObserveRun(pipeline.Report{
		StartedAt:  finished.Add(-90 * time.Second),
		FinishedAt: finished,
		Counts:     pipeline.Counts{Successful: 2, Partial: 1, Failed: 1},
	})

	path := filepath.Join(t.TempDir(), "metrics", "avshelf.prom")
	if err := exp.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	text := string(data)
	for _, want := range []string{
		`avshelf_organizer_files{result="copied"} 3`,
		`avshelf_organizer_success_rate_percent 75`,
		`avshelf_images_handled{result="downloaded"} 5`,
		`avshelf_images_downloaded_bytes 2048`,
		`avshelf_run_files{status="partial"} 1`,
		`avshelf_run_duration_seconds 90`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("textfile missing %q\n%s", want, text)
		}
	}
}

func TestObserveRunOverwritesPreviousValues(t *testing.T) {
	exp := metrics.New()
	exp.ObserveRun(pipeline.Report{Counts: pipeline.Counts{Failed: 3}})
	exp.ObserveRun(pipeline.Report{Counts: pipeline.Counts{Failed: 1, Skipped: 2}})

	count, err := testutil.GatherAndCount(exp.Registry(), "avshelf_run_files")
	if err != nil {
		t.Fatalf("GatherAndCount: %v", err)
	}
	if count != 4 {
		t.Fatalf("expected 4 status series, got %d", count)
	}
	expected := `
# HELP avshelf_run_files Files in the last organize run by status.
# TYPE avshelf_run_files gauge
avshelf_run_files{status="failed"} 1
avshelf_run_files{status="partial"} 0
avshelf_run_files{status="skipped"} 2
avshelf_run_files{status="success"} 0
`
	if err := testutil.GatherAndCompare(exp.Registry(), strings.NewReader(expected), "avshelf_run_files"); err != nil {
		t.Fatalf("unexpected run metrics: %v", err)
	}
}

func TestWriteTextfileEmptyPathIsNoop(t *testing.T) {
	if err := metrics.New().WriteTextfile("  "); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
}
