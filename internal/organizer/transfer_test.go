package organizer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"avshelf/internal/fileutil"
	"avshelf/internal/testsupport"
)

func TestOrganizeFileReportsChecksumMismatch(t *testing.T) {
	root := filepath.Join(t.TempDir(), "library")
	org, err := New(DefaultOptions(root), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	// Same size, different bytes: only the digest comparison can catch it.
	org.copyFile = func(src, dst string) error {
		if err := fileutil.CopyFile(src, dst); err != nil {
			return err
		}
		info, err := os.Stat(src)
		if err != nil {
			return err
		}
		testsupport.WriteFilled(t, dst, info.Size(), 0x00)
		return nil
	}

	src := testsupport.NewVideo(t, t.TempDir(), "SSIS-001.mp4", 4096, "SSIS-001")
	meta := testsupport.NewMetadata(t, "SSIS-001", "Title", "Aoi")
	res := org.OrganizeFile(context.Background(), src, meta, "")
	if res.Success {
		t.Fatal("expected integrity failure")
	}
	if !strings.HasPrefix(res.Message, "File transfer failed: ") || !strings.Contains(res.Message, "checksum mismatch") {
		t.Fatalf("unexpected message: %q", res.Message)
	}
	if _, err := os.Stat(src.Path); err != nil {
		t.Fatalf("source must survive a failed verification: %v", err)
	}
	if _, err := os.Stat(SidecarPath(filepath.Join(root, "Aoi", "SSIS-001", "SSIS-001.mp4"))); !os.IsNotExist(err) {
		t.Fatalf("no sidecar expected after failed verification, err=%v", err)
	}
	stats := org.Statistics()
	if stats.Errors != 1 || stats.FilesCopied != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	org.copyFile = fileutil.CopyFile
	org.opts.VerifyIntegrity = false
	other := testsupport.NewVideo(t, t.TempDir(), "SSIS-002.mp4", 16, "SSIS-002")
	if res := org.OrganizeFile(context.Background(), other, testsupport.NewMetadata(t, "SSIS-002", "T", "Aoi"), ""); !res.Success {
		t.Fatalf("organize without verification: %s", res.Message)
	}
}
