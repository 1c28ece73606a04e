package fileutil

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Written describes a completed write.
type Written struct {
	Path   string
	Size   int64
	SHA256 string
}

// WriteStream copies r into dst through a temp file in the same directory and
// renames it into place, so readers never observe a partial file. Parent
// directories are created. The content hash is computed while copying.
func WriteStream(dst string, r io.Reader, mode os.FileMode) (Written, error) {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return Written{}, fmt.Errorf("create directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*.tmp")
	if err != nil {
		return Written{}, fmt.Errorf("create temp file: %w", err)
	}
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}

	hasher := sha256.New()
	size, err := io.Copy(io.MultiWriter(tmp, hasher), r)
	if err != nil {
		cleanup()
		return Written{}, fmt.Errorf("write %s: %w", dst, err)
	}
	if err := tmp.Chmod(mode); err != nil {
		cleanup()
		return Written{}, fmt.Errorf("chmod %s: %w", dst, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return Written{}, fmt.Errorf("close %s: %w", dst, err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		_ = os.Remove(tmp.Name())
		return Written{}, fmt.Errorf("rename into %s: %w", dst, err)
	}
	return Written{Path: dst, Size: size, SHA256: hex.EncodeToString(hasher.Sum(nil))}, nil
}

// WriteFile is WriteStream for in-memory content with mode 0o644.
func WriteFile(dst string, data []byte) (Written, error) {
	return WriteStream(dst, bytes.NewReader(data), 0o644)
}

// UniquePath returns path, or path with _2, _3, ... inserted before the
// extension when the name is already taken in taken.
func UniquePath(path string, taken map[string]bool) string {
	if !taken[path] {
		taken[path] = true
		return path
	}
	ext := filepath.Ext(path)
	base := path[:len(path)-len(ext)]
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s_%d%s", base, n, ext)
		if !taken[candidate] {
			taken[candidate] = true
			return candidate
		}
	}
}
