package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// WriteVideoFile creates a file of the requested size at path. The content
// starts with a plausible MP4 box header so sniffing code sees video bytes.
// A size smaller than the header still writes the full header.
func WriteVideoFile(t testing.TB, path string, size int64) {
	t.Helper()

	header := []byte{0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p', 'm', 'p', '4', '2'}
	if size < int64(len(header)) {
		size = int64(len(header))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	data := append(header, bytes.Repeat([]byte{0x5a}, int(size)-len(header))...)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
