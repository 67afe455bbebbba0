package history_test

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"avshelf/internal/history"
	"avshelf/internal/services"
	"avshelf/internal/testsupport"
)

func entry(name, code string, status history.Status, at time.Time) history.Entry {
	return history.Entry{
		OriginalFilename: name,
		OriginalPath:     "/incoming/" + name,
		FileSize:         2 * 1024 * 1024,
		FileExtension:    ".mp4",
		DetectedCode:     code,
		ProcessedAt:      at,
		Status:           status,
	}
}

func TestRecordAndRecent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()
	now := time.Now()

	first := entry("SSIS-001.mp4", "SSIS-001", history.StatusSuccess, now.Add(-2*time.Hour))
	first.RunID = "run-1"
	first.OrganizedPath = "/library/Yua Mikami/SSIS-001/SSIS-001.mp4"
	first.MetadataFound = true
	first.Title = "Beautiful Secretary"
	first.Actresses = []string{"Yua Mikami"}
	first.Studio = "S1"
	first.ReleaseDate = "2021-02-19"
	first.CoverDownloaded = true
	first.ImagesDownloaded = 4
	first.Duration = 1500 * time.Millisecond

	id, err := store.Record(ctx, first)
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if id == 0 {
		t.Fatal("expected row id")
	}
	if _, err := store.Record(ctx, entry("ABP-123.mkv", "ABP-123", history.StatusFailed, now.Add(-time.Hour))); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	recent, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(recent))
	}
	if recent[0].DetectedCode != "ABP-123" {
		t.Fatalf("expected newest first, got %s", recent[0].DetectedCode)
	}

	got := recent[1]
	if got.RunID != "run-1" || got.Title != "Beautiful Secretary" || got.Studio != "S1" {
		t.Fatalf("unexpected round trip: %+v", got)
	}
	if len(got.Actresses) != 1 || got.Actresses[0] != "Yua Mikami" {
		t.Fatalf("actresses = %v", got.Actresses)
	}
	if !got.MetadataFound || !got.CoverDownloaded || got.ImagesDownloaded != 4 {
		t.Fatalf("flags lost: %+v", got)
	}
	if got.Duration != 1500*time.Millisecond {
		t.Fatalf("duration = %s", got.Duration)
	}
	if got.ProcessedAt.UnixMilli() != first.ProcessedAt.UnixMilli() {
		t.Fatalf("processed_at = %s, want %s", got.ProcessedAt, first.ProcessedAt)
	}

	limited, err := store.Recent(ctx, 1)
	if err != nil || len(limited) != 1 {
		t.Fatalf("expected limit to apply, got %d (err=%v)", len(limited), err)
	}
}

func TestRecordValidates(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*history.Entry)
	}{
		{"missing filename", func(e *history.Entry) { e.OriginalFilename = " " }},
		{"missing path", func(e *history.Entry) { e.OriginalPath = "" }},
		{"negative size", func(e *history.Entry) { e.FileSize = -1 }},
		{"unknown status", func(e *history.Entry) { e.Status = "done" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := entry("x.mp4", "X-1", history.StatusSuccess, time.Now())
			tc.mutate(&e)
			if _, err := store.Record(ctx, e); !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestQueries(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()
	now := time.Now()

	seed := []history.Entry{
		entry("ssis-001.mp4", "SSIS-001", history.StatusSkipped, now.Add(-3*time.Hour)),
		entry("SSIS-001 (2).mp4", "SSIS-001", history.StatusSuccess, now.Add(-2*time.Hour)),
		entry("ABP-123.mkv", "ABP-123", history.StatusPartial, now.Add(-time.Hour)),
	}
	seed[2].Title = "Summer_Story 100%"
	seed[2].Actresses = []string{"Airi Suzumura"}
	for _, e := range seed {
		if _, err := store.Record(ctx, e); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	byCode, err := store.ByCode(ctx, "ssis-001")
	if err != nil || len(byCode) != 2 {
		t.Fatalf("ByCode: got %d entries (err=%v)", len(byCode), err)
	}

	partial, err := store.ByStatus(ctx, history.StatusPartial)
	if err != nil || len(partial) != 1 || partial[0].DetectedCode != "ABP-123" {
		t.Fatalf("ByStatus: %+v (err=%v)", partial, err)
	}

	window, err := store.Between(ctx, now.Add(-150*time.Minute), now)
	if err != nil || len(window) != 2 {
		t.Fatalf("Between: got %d entries (err=%v)", len(window), err)
	}

	searches := map[string]int{
		"airi":     1,
		"summer_s": 1,
		"100%":     1,
		"ssis":     2,
		"_":        1,
		"nothing":  0,
	}
	for q, want := range searches {
		got, err := store.Search(ctx, q)
		if err != nil {
			t.Fatalf("Search(%q) failed: %v", q, err)
		}
		if len(got) != want {
			t.Errorf("Search(%q) = %d entries, want %d", q, len(got), want)
		}
	}
}

func TestStats(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()
	now := time.Now()

	empty, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if empty.Total != 0 || empty.SuccessRate != 0 {
		t.Fatalf("expected empty summary, got %+v", empty)
	}

	a := entry("a.mp4", "A-1", history.StatusSuccess, now.Add(-time.Hour))
	a.MetadataFound = true
	a.CoverDownloaded = true
	a.Actresses = []string{"One", "Two"}
	a.Studio = "S1"
	a.Duration = 2 * time.Second
	b := entry("b.mp4", "B-1", history.StatusPartial, now.Add(-3*24*time.Hour))
	b.MetadataFound = true
	b.Actresses = []string{"Two", "Three"}
	b.Studio = "S1"
	b.Duration = 4 * time.Second
	c := entry("c.mp4", "C-1", history.StatusFailed, now.Add(-10*24*time.Hour))
	d := entry("d.mp4", "D-1", history.StatusSkipped, now.Add(-40*24*time.Hour))
	d.Studio = "Moodyz"
	for _, e := range []history.Entry{a, b, c, d} {
		if _, err := store.Record(ctx, e); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	s, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if s.Total != 4 || s.Successful != 1 || s.Partial != 1 || s.Failed != 1 || s.Skipped != 1 {
		t.Fatalf("unexpected counts %+v", s)
	}
	if s.SuccessRate != 25 {
		t.Fatalf("success rate = %v", s.SuccessRate)
	}
	if s.TotalSizeMB != 8 || s.OrganizedSizeMB != 4 {
		t.Fatalf("sizes = %v / %v", s.TotalSizeMB, s.OrganizedSizeMB)
	}
	if s.WithMetadata != 2 || s.WithCover != 1 {
		t.Fatalf("metadata/cover = %d/%d", s.WithMetadata, s.WithCover)
	}
	if s.UniqueActresses != 3 || s.UniqueStudios != 2 {
		t.Fatalf("unique actresses/studios = %d/%d", s.UniqueActresses, s.UniqueStudios)
	}
	if math.Abs(s.AvgProcessingSeconds-3) > 0.001 {
		t.Fatalf("avg processing = %v", s.AvgProcessingSeconds)
	}
	if s.Last24h != 1 || s.Last7d != 2 || s.Last30d != 3 {
		t.Fatalf("activity = %d/%d/%d", s.Last24h, s.Last7d, s.Last30d)
	}
}

func TestPrune(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()
	now := time.Now()

	for i, age := range []time.Duration{time.Hour, 10 * 24 * time.Hour, 100 * 24 * time.Hour} {
		e := entry("f.mp4", "F-1", history.StatusSuccess, now.Add(-age))
		e.OriginalFilename = string(rune('a'+i)) + ".mp4"
		if _, err := store.Record(ctx, e); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	removed, err := store.Prune(ctx, 30*24*time.Hour)
	if err != nil || removed != 1 {
		t.Fatalf("expected 1 pruned, got %d (err=%v)", removed, err)
	}
	removed, err = store.Prune(ctx, 0)
	if err != nil || removed != 2 {
		t.Fatalf("expected 2 cleared, got %d (err=%v)", removed, err)
	}
	remaining, err := store.Recent(ctx, 0)
	if err != nil || len(remaining) != 0 {
		t.Fatalf("expected empty history, got %d (err=%v)", len(remaining), err)
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	store.Close()

	db, err := sql.Open("sqlite", cfg.Paths.HistoryDB)
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	db.Close()

	if _, err := history.Open(cfg); !errors.Is(err, history.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestReopenKeepsEntries(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := store.Record(context.Background(), entry("a.mp4", "A-1", history.StatusSuccess, time.Time{})); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	store.Close()

	reopened := testsupport.MustOpenHistory(t, cfg)
	entries, err := reopened.Recent(context.Background(), 5)
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected persisted entry, got %d (err=%v)", len(entries), err)
	}
	if entries[0].ProcessedAt.IsZero() {
		t.Fatal("zero ProcessedAt should be stamped on record")
	}
}

func TestParseStatus(t *testing.T) {
	if s, err := history.ParseStatus(" Partial "); err != nil || s != history.StatusPartial {
		t.Fatalf("ParseStatus = %s, %v", s, err)
	}
	if _, err := history.ParseStatus("pending"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestHashCache(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()
	mod := time.Date(2024, 5, 1, 10, 0, 0, 123, time.UTC)

	if _, ok, err := store.CachedHash(ctx, "/v/a.mp4", 10, mod); err != nil || ok {
		t.Fatalf("empty cache: ok=%v err=%v", ok, err)
	}
	if err := store.StoreHash(ctx, "/v/a.mp4", 10, mod, "abc"); err != nil {
		t.Fatalf("StoreHash: %v", err)
	}
	if got, ok, err := store.CachedHash(ctx, "/v/a.mp4", 10, mod); err != nil || !ok || got != "abc" {
		t.Fatalf("CachedHash = %q, %v, %v", got, ok, err)
	}
	if _, ok, _ := store.CachedHash(ctx, "/v/a.mp4", 11, mod); ok {
		t.Fatal("size change must invalidate the cached digest")
	}
	if _, ok, _ := store.CachedHash(ctx, "/v/a.mp4", 10, mod.Add(time.Second)); ok {
		t.Fatal("mtime change must invalidate the cached digest")
	}
	if err := store.StoreHash(ctx, "/v/a.mp4", 11, mod, "def"); err != nil {
		t.Fatalf("StoreHash replace: %v", err)
	}
	if n, err := store.HashCount(ctx); err != nil || n != 1 {
		t.Fatalf("HashCount = %d, %v", n, err)
	}
	if n, err := store.ClearHashes(ctx); err != nil || n != 1 {
		t.Fatalf("ClearHashes = %d, %v", n, err)
	}
}
