package dedupe_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"avshelf/internal/dedupe"
	"avshelf/internal/media"
	"avshelf/internal/testsupport"
)

func video(t *testing.T, path string, size int64, fill byte) media.VideoFile {
	t.Helper()
	testsupport.WriteFilled(t, path, size, fill)
	vf, err := media.VideoFileFromPath(path)
	if err != nil {
		t.Fatalf("video %s: %v", path, err)
	}
	return vf
}

func TestDetectGroupsIdenticalContent(t *testing.T) {
	dir := t.TempDir()
	a := video(t, filepath.Join(dir, "SSIS-001.mp4"), 1024, 0x42)
	b := video(t, filepath.Join(dir, "copy", "SSIS-001 (1).mp4"), 1024, 0x42)
	c := video(t, filepath.Join(dir, "ABP-002.mp4"), 1024, 0x01)
	d := video(t, filepath.Join(dir, "IPX-003.mp4"), 2048, 0x42)

	report, err := dedupe.New(dedupe.Options{}, nil).Detect(context.Background(), []media.VideoFile{a, b, c, d})
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if report.FilesScanned != 4 || report.FilesHashed != 3 {
		t.Fatalf("scanned=%d hashed=%d, want 4 and 3", report.FilesScanned, report.FilesHashed)
	}
	if len(report.Groups) != 1 || report.Duplicates != 1 || report.WastedBytes != 1024 {
		t.Fatalf("unexpected report: %+v", report)
	}
	g := report.Groups[0]
	if g.Keep.Path != a.Path || len(g.Redundant) != 1 || g.Redundant[0].Path != b.Path {
		t.Fatalf("unexpected group: keep=%s redundant=%v", g.Keep.Path, g.Redundant)
	}
	if len(g.Files()) != 2 {
		t.Fatalf("Files() = %v", g.Files())
	}
	if kept, ok := report.KeptCopy(b.Path); !ok || kept.Path != a.Path {
		t.Fatalf("KeptCopy(%s) = %v, %v", b.Path, kept.Path, ok)
	}
	if _, ok := report.KeptCopy(a.Path); ok {
		t.Fatal("the kept copy is not redundant")
	}
	if got := report.DuplicatePercent(); got != 25 {
		t.Fatalf("DuplicatePercent = %v", got)
	}
}

func TestDetectKeepNewer(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "old.mp4")
	recent := filepath.Join(dir, "recent.mp4")
	testsupport.WriteFilled(t, old, 512, 0x07)
	testsupport.WriteFilled(t, recent, 512, 0x07)
	base := time.Now().Add(-time.Hour)
	if err := os.Chtimes(old, base, base); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(recent, base.Add(time.Minute), base.Add(time.Minute)); err != nil {
		t.Fatal(err)
	}
	var files []media.VideoFile
	for _, p := range []string{old, recent} {
		vf, err := media.VideoFileFromPath(p)
		if err != nil {
			t.Fatal(err)
		}
		files = append(files, vf)
	}

	report, err := dedupe.New(dedupe.Options{Strategy: dedupe.KeepNewer}, nil).Detect(context.Background(), files)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(report.Groups) != 1 || report.Groups[0].Keep.Path != files[1].Path {
		t.Fatalf("expected newer copy kept: %+v", report.Groups)
	}
}

func TestDetectReusesCachedDigests(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	dir := t.TempDir()
	files := []media.VideoFile{
		video(t, filepath.Join(dir, "a.mp4"), 256, 0x11),
		video(t, filepath.Join(dir, "b.mp4"), 256, 0x11),
	}
	d := dedupe.New(dedupe.Options{Cache: store}, nil)

	first, err := d.Detect(context.Background(), files)
	if err != nil {
		t.Fatal(err)
	}
	if first.CacheHits != 0 || len(first.Groups) != 1 {
		t.Fatalf("first run: %+v", first)
	}
	second, err := d.Detect(context.Background(), files)
	if err != nil {
		t.Fatal(err)
	}
	if second.CacheHits != 2 || len(second.Groups) != 1 || second.Groups[0].Digest != first.Groups[0].Digest {
		t.Fatalf("second run: %+v", second)
	}

	// Rewriting with different content at the same size must not reuse the
	// stale digest.
	later := time.Now().Add(time.Hour)
	testsupport.WriteFilled(t, files[1].Path, 256, 0x22)
	if err := os.Chtimes(files[1].Path, later, later); err != nil {
		t.Fatal(err)
	}
	third, err := d.Detect(context.Background(), files)
	if err != nil {
		t.Fatal(err)
	}
	if third.CacheHits != 1 || len(third.Groups) != 0 {
		t.Fatalf("third run: %+v", third)
	}
}

func TestDetectTreatsUnreadableFilesAsUnique(t *testing.T) {
	dir := t.TempDir()
	a := video(t, filepath.Join(dir, "a.mp4"), 64, 0x01)
	b := video(t, filepath.Join(dir, "b.mp4"), 64, 0x01)
	if err := os.Remove(b.Path); err != nil {
		t.Fatal(err)
	}
	report, err := dedupe.New(dedupe.Options{}, nil).Detect(context.Background(), []media.VideoFile{a, b})
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(report.HashErrors) != 1 || len(report.Groups) != 0 || report.FilesHashed != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestDetectCancelled(t *testing.T) {
	dir := t.TempDir()
	files := []media.VideoFile{
		video(t, filepath.Join(dir, "a.mp4"), 64, 0x01),
		video(t, filepath.Join(dir, "b.mp4"), 64, 0x01),
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := dedupe.New(dedupe.Options{}, nil).Detect(ctx, files); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestParseStrategy(t *testing.T) {
	for in, want := range map[string]dedupe.Strategy{
		"":           dedupe.KeepFirst,
		"keep_first": dedupe.KeepFirst,
		"KEEP_NEWER": dedupe.KeepNewer,
	} {
		got, err := dedupe.ParseStrategy(in)
		if err != nil || got != want {
			t.Errorf("ParseStrategy(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := dedupe.ParseStrategy("keep_larger"); err == nil {
		t.Error("expected error for unsupported strategy")
	}
}
