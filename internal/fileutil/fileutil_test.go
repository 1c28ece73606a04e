package fileutil

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteStreamCreatesParents(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "123", "caption.jpg")

	written, err := WriteStream(dst, strings.NewReader("image bytes"), 0o644)
	if err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "image bytes" {
		t.Fatalf("content mismatch: got %q", got)
	}
	sum := sha256.Sum256([]byte("image bytes"))
	if written.SHA256 != hex.EncodeToString(sum[:]) {
		t.Fatalf("hash mismatch: %s", written.SHA256)
	}
	if written.Size != int64(len("image bytes")) {
		t.Fatalf("size = %d", written.Size)
	}
}

func TestWriteFileReplacesAndLeavesNoTemp(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "page.txt")
	if _, err := WriteFile(dst, []byte("old")); err != nil {
		t.Fatal(err)
	}
	if _, err := WriteFile(dst, []byte("new")); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "new" {
		t.Fatalf("expected replacement, got %q", got)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the destination file, got %d entries", len(entries))
	}
}

func TestUniquePath(t *testing.T) {
	taken := map[string]bool{}
	first := UniquePath("/out/a.jpg", taken)
	second := UniquePath("/out/a.jpg", taken)
	third := UniquePath("/out/a.jpg", taken)
	if first != "/out/a.jpg" || second != "/out/a_2.jpg" || third != "/out/a_3.jpg" {
		t.Fatalf("unexpected paths: %s %s %s", first, second, third)
	}
}
