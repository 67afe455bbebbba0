package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"avshelf/internal/dedupe"
	"avshelf/internal/history"
	"avshelf/internal/images"
	"avshelf/internal/organizer"
	"avshelf/internal/pipeline"
	"avshelf/internal/testsupport"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate", "--format", "table"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, env.cfg.Paths.LibraryDir)

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected init to refuse overwriting without --overwrite")
	}
}

func TestUnknownFormatRejected(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"scan", env.sourceDir, "--format", "yaml"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "unsupported output format") {
		t.Fatalf("expected format error, got %v", err)
	}
}

func TestScanListsDetectedCodes(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteFile(t, filepath.Join(env.sourceDir, "SSIS-001.mp4"), 1024)
	testsupport.WriteFile(t, filepath.Join(env.sourceDir, "nested", "holiday.mkv"), 1024)
	testsupport.WriteFile(t, filepath.Join(env.sourceDir, "notes.txt"), 16)

	out, _, err := runCLI(t, []string{"scan", env.sourceDir, "--format", "json"}, env.configPath)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	var result scanOutput
	decodeJSON(t, out, &result)
	if result.Summary.TotalFiles != 2 || result.Summary.FilesWithCodes != 1 {
		t.Fatalf("unexpected summary: %+v", result.Summary)
	}

	out, _, err = runCLI(t, []string{"scan", env.sourceDir, "--format", "table"}, env.configPath)
	if err != nil {
		t.Fatalf("scan table: %v", err)
	}
	requireContains(t, out, "SSIS-001")
	requireContains(t, out, "2 files")
}

func TestOrganizeRecordsHistoryAndMetrics(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithMetricsFile())
	testsupport.WriteMetadataFile(t, env.cfg.Paths.MetadataDir, testsupport.NewMetadata(t, "SSIS-001", "Title", "Aoi"))
	testsupport.WriteFile(t, filepath.Join(env.sourceDir, "SSIS-001.mp4"), 2048)
	testsupport.WriteFile(t, filepath.Join(env.sourceDir, "ZZZ-404.mp4"), 2048)

	out, _, err := runCLI(t, []string{"organize", env.sourceDir, "--format", "json"}, env.configPath)
	if err != nil {
		t.Fatalf("organize: %v", err)
	}
	var report pipeline.Report
	decodeJSON(t, out, &report)
	if report.Counts.Successful != 1 || report.Counts.Skipped != 1 || report.Counts.Failed != 0 {
		t.Fatalf("unexpected counts: %+v", report.Counts)
	}
	target := filepath.Join(env.cfg.Paths.LibraryDir, "Aoi", "SSIS-001", "SSIS-001.mp4")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected organized file: %v", err)
	}

	metricsData, err := os.ReadFile(env.cfg.Paths.MetricsFile)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	requireContains(t, string(metricsData), `avshelf_run_files{status="skipped"} 1`)

	out, _, err = runCLI(t, []string{"history", "list", "--format", "json"}, env.configPath)
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	var entries []history.Entry
	decodeJSON(t, out, &entries)
	if len(entries) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(entries))
	}

	out, _, err = runCLI(t, []string{"history", "list", "--status", "skipped", "--format", "json"}, env.configPath)
	if err != nil {
		t.Fatalf("history list --status: %v", err)
	}
	entries = nil
	decodeJSON(t, out, &entries)
	if len(entries) != 1 || entries[0].OriginalFilename != "ZZZ-404.mp4" {
		t.Fatalf("unexpected skipped entries: %+v", entries)
	}

	out, _, err = runCLI(t, []string{"history", "stats", "--format", "table"}, env.configPath)
	if err != nil {
		t.Fatalf("history stats: %v", err)
	}
	requireContains(t, out, "Total processed")

	out, _, err = runCLI(t, []string{"history", "prune", "--all"}, env.configPath)
	if err != nil {
		t.Fatalf("history prune: %v", err)
	}
	requireContains(t, out, "Removed 2 history entries")
}

func TestOrganizeReturnsErrorOnFailures(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithImagesDisabled())
	if err := os.WriteFile(filepath.Join(env.cfg.Paths.MetadataDir, "ABC-123.json"), []byte("{broken"), 0o644); err != nil {
		t.Fatalf("write metadata: %v", err)
	}
	testsupport.WriteFile(t, filepath.Join(env.sourceDir, "ABC-123.mp4"), 512)

	out, _, err := runCLI(t, []string{"organize", env.sourceDir, "--format", "table"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "1 of 1 files failed") {
		t.Fatalf("expected failure error, got %v", err)
	}
	requireContains(t, out, "failed")
}

func TestPreviewLeavesFilesInPlace(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteMetadataFile(t, env.cfg.Paths.MetadataDir, testsupport.NewMetadata(t, "SSIS-001", "Title", "Aoi"))
	testsupport.WriteFile(t, filepath.Join(env.sourceDir, "SSIS-001.mp4"), 256)

	out, _, err := runCLI(t, []string{"preview", env.sourceDir, "--pattern", "{code}.{ext}", "--format", "json"}, env.configPath)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	var rows []previewRow
	decodeJSON(t, out, &rows)
	want := filepath.Join(env.cfg.Paths.LibraryDir, "SSIS-001.mp4")
	if len(rows) != 1 || rows[0].TargetPath != want || rows[0].Conflict != "no_conflict" {
		t.Fatalf("unexpected preview: %+v", rows)
	}
	if _, err := os.Stat(want); !os.IsNotExist(err) {
		t.Fatalf("preview must not create %s (err=%v)", want, err)
	}
}

func TestLibraryValidateAndPruneDirs(t *testing.T) {
	env := setupCLITestEnv(t)
	empty := filepath.Join(env.cfg.Paths.LibraryDir, "Nobody", "EMPTY-1")
	if err := os.MkdirAll(empty, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	out, _, err := runCLI(t, []string{"library", "validate", "--format", "json"}, env.configPath)
	if err != nil {
		t.Fatalf("library validate: %v", err)
	}
	var validation organizer.ValidationReport
	decodeJSON(t, out, &validation)
	if !validation.Valid {
		t.Fatalf("expected valid library: %+v", validation)
	}

	out, _, err = runCLI(t, []string{"library", "prune-dirs", "--dry-run", "--format", "json"}, env.configPath)
	if err != nil {
		t.Fatalf("prune-dirs dry run: %v", err)
	}
	var report organizer.CleanupReport
	decodeJSON(t, out, &report)
	if len(report.EmptyDirectories) != 2 || len(report.RemovedDirectories) != 0 {
		t.Fatalf("unexpected dry run report: %+v", report)
	}

	if _, _, err := runCLI(t, []string{"library", "prune-dirs"}, env.configPath); err != nil {
		t.Fatalf("prune-dirs: %v", err)
	}
	if _, err := os.Stat(filepath.Dir(empty)); !os.IsNotExist(err) {
		t.Fatalf("expected empty tree removed, stat err = %v", err)
	}
}

func TestImagesFetchAndCleanup(t *testing.T) {
	env := setupCLITestEnv(t)
	cover := testsupport.PNGBytes(t, 20, 10)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(cover)
	}))
	defer srv.Close()

	meta := testsupport.NewMetadata(t, "SSIS-001", "Title")
	meta.CoverURL = srv.URL + "/cover.png"
	meta.PosterURL = srv.URL + "/poster.png"
	testsupport.WriteMetadataFile(t, env.cfg.Paths.MetadataDir, meta)

	dir := filepath.Join(env.baseDir, "art")
	out, _, err := runCLI(t, []string{"images", "fetch", "ssis-001", "--dir", dir, "--type", "cover", "--format", "json"}, env.configPath)
	if err != nil {
		t.Fatalf("images fetch: %v", err)
	}
	var result images.Result
	decodeJSON(t, out, &result)
	if !result.Success || len(result.DownloadedFiles) != 1 {
		t.Fatalf("unexpected fetch result: %+v", result)
	}
	if _, err := os.Stat(filepath.Join(dir, "SSIS-001_cover.png")); err != nil {
		t.Fatalf("expected cover: %v", err)
	}

	broken := filepath.Join(dir, "broken.jpg")
	if err := os.WriteFile(broken, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("write broken image: %v", err)
	}
	out, _, err = runCLI(t, []string{"images", "cleanup", dir, "--format", "json"}, env.configPath)
	if err != nil {
		t.Fatalf("images cleanup: %v", err)
	}
	var cleanup images.CleanupReport
	decodeJSON(t, out, &cleanup)
	if cleanup.CheckedFiles != 2 || len(cleanup.RemovedFiles) != 1 || cleanup.RemovedFiles[0] != broken {
		t.Fatalf("unexpected cleanup report: %+v", cleanup)
	}
}

func TestCheckReportsReadiness(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"check", "--format", "table"}, env.configPath)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	requireContains(t, out, "Library directory")
	requireContains(t, out, "History database")

	if err := os.RemoveAll(env.cfg.Paths.MetadataDir); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(env.cfg.Paths.MetadataDir, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, _, err = runCLI(t, []string{"check", "--format", "json"}, env.configPath)
	if err == nil {
		t.Fatal("expected check to fail when metadata_dir is a file")
	}
}

func TestDuplicatesScanAndClearCache(t *testing.T) {
	env := setupCLITestEnv(t)
	first := filepath.Join(env.sourceDir, "SSIS-001.mp4")
	second := filepath.Join(env.sourceDir, "backup", "SSIS-001.mp4")
	testsupport.WriteFile(t, first, 2048)
	testsupport.WriteFile(t, second, 2048)
	testsupport.WriteFilled(t, filepath.Join(env.sourceDir, "ABP-002.mp4"), 1536, 0x07)

	out, _, err := runCLI(t, []string{"duplicates", "scan", env.sourceDir, "--format", "json"}, env.configPath)
	if err != nil {
		t.Fatalf("duplicates scan: %v", err)
	}
	var report dedupe.Report
	decodeJSON(t, out, &report)
	if report.FilesScanned != 3 || report.FilesHashed != 2 || report.Duplicates != 1 || len(report.Groups) != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	paths := map[string]bool{report.Groups[0].Keep.Path: true, report.Groups[0].Redundant[0].Path: true}
	if !paths[first] || !paths[second] {
		t.Fatalf("unexpected group: %+v", report.Groups[0])
	}

	out, _, err = runCLI(t, []string{"duplicates", "scan", env.sourceDir, "--format", "json"}, env.configPath)
	if err != nil {
		t.Fatalf("duplicates rescan: %v", err)
	}
	report = dedupe.Report{}
	decodeJSON(t, out, &report)
	if report.CacheHits != 2 {
		t.Fatalf("expected cached digests on rescan, got %+v", report)
	}

	out, _, err = runCLI(t, []string{"duplicates", "scan", env.sourceDir, "--format", "table"}, env.configPath)
	if err != nil {
		t.Fatalf("duplicates table: %v", err)
	}
	requireContains(t, out, "1 duplicates in 1 groups")

	out, _, err = runCLI(t, []string{"duplicates", "clear-cache"}, env.configPath)
	if err != nil {
		t.Fatalf("clear-cache: %v", err)
	}
	requireContains(t, out, "Removed 2 cached digests")

	if _, _, err := runCLI(t, []string{"duplicates", "scan", env.sourceDir, "--strategy", "keep_larger"}, env.configPath); err == nil {
		t.Fatal("expected unknown strategy to fail")
	}
}

func TestOrganizeSkipDuplicatesFlag(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithImagesDisabled())
	testsupport.WriteMetadataFile(t, env.cfg.Paths.MetadataDir, testsupport.NewMetadata(t, "SSIS-001", "Title", "Aoi"))
	testsupport.WriteFile(t, filepath.Join(env.sourceDir, "SSIS-001.mp4"), 2048)
	testsupport.WriteFile(t, filepath.Join(env.sourceDir, "copy", "SSIS-001.mp4"), 2048)

	out, _, err := runCLI(t, []string{"organize", env.sourceDir, "--skip-duplicates", "--format", "json"}, env.configPath)
	if err != nil {
		t.Fatalf("organize: %v", err)
	}
	var report pipeline.Report
	decodeJSON(t, out, &report)
	if report.Counts.Successful != 1 || report.Counts.Skipped != 1 {
		t.Fatalf("unexpected counts: %+v", report.Counts)
	}
	if report.Duplicates == nil || report.Duplicates.Duplicates != 1 {
		t.Fatalf("expected duplicate report, got %+v", report.Duplicates)
	}
}
