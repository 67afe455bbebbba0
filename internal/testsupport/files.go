package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// DefaultFill is the byte WriteFile repeats.
const DefaultFill byte = 0x42

// WriteFile writes a placeholder video payload of size bytes to path,
// creating parent directories. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()
	WriteFilled(t, path, size, DefaultFill)
}

// WriteFilled is WriteFile with a chosen fill byte. Two files with the same
// size and different fills have different digests.
func WriteFilled(t testing.TB, path string, size int64, fill byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, bytes.Repeat([]byte{fill}, int(max(size, 1))), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
