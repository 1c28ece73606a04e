package importlog

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"bahaibot/internal/fileutil"
)

const lockRetryDelay = 50 * time.Millisecond

// Log is an append-only, line-oriented audit file. Appends and removals take an
// exclusive lock on a sidecar "<path>.lock" so concurrent invocations do not
// interleave lines.
type Log struct {
	path string
	lock *flock.Flock
	mu   sync.Mutex
}

// Open prepares a log at path, creating the parent directory. The file itself
// is created on first append.
func Open(path string) (*Log, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("audit log path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create audit log directory: %w", err)
	}
	return &Log{path: path, lock: flock.New(path + ".lock")}, nil
}

// Path returns the log file location.
func (l *Log) Path() string { return l.path }

// Append writes line followed by a newline.
func (l *Log) Append(ctx context.Context, line string) error {
	if l == nil {
		return nil
	}
	return l.withLock(ctx, func() error {
		f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open audit log: %w", err)
		}
		if _, err := f.WriteString(strings.TrimRight(line, "\n") + "\n"); err != nil {
			_ = f.Close()
			return fmt.Errorf("append audit log: %w", err)
		}
		return f.Close()
	})
}

// Lines returns every non-empty line of the log. A missing file yields no lines.
func (l *Log) Lines() ([]string, error) {
	return ReadLines(l.path)
}

// Remove drops one occurrence of each line in done. The file is re-read under
// the lock, so lines appended since the caller read it are kept.
func (l *Log) Remove(ctx context.Context, done []string) error {
	return l.withLock(ctx, func() error {
		current, err := ReadLines(l.path)
		if err != nil {
			return err
		}
		pending := make(map[string]int, len(done))
		for _, line := range done {
			pending[line]++
		}
		var b strings.Builder
		for _, line := range current {
			if pending[line] > 0 {
				pending[line]--
				continue
			}
			b.WriteString(line + "\n")
		}
		if _, err := fileutil.WriteFile(l.path, []byte(b.String())); err != nil {
			return fmt.Errorf("replace audit log: %w", err)
		}
		return nil
	})
}

func (l *Log) withLock(ctx context.Context, fn func() error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	ok, err := l.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("lock audit log: %w", err)
	}
	if !ok {
		return fmt.Errorf("lock audit log: %s is held by another process", l.path)
	}
	defer func() { _ = l.lock.Unlock() }()
	return fn()
}

// ReadLines returns the non-empty lines of path. A missing file yields no lines.
func ReadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return lines, nil
}
