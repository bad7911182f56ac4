// package testing contains fakes and helpers shared by the package tests.
package testing

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

// ErrWrite is returned by [FailingWriter] once it stops accepting writes.
var ErrWrite = errors.New("write failed")

// FailingWriter accepts OK writes, forwarding them to W when set, then fails.
type FailingWriter struct {
	OK int
	W  io.Writer

	n int
}

func (f *FailingWriter) Write(p []byte) (int, error) {
	if f.n >= f.OK {
		return 0, ErrWrite
	}
	f.n++
	if f.W == nil {
		return len(p), nil
	}
	return f.W.Write(p)
}

// AssertFileExists fails the test when path is missing or is a directory.
func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	switch {
	case err != nil:
		t.Errorf("expected file %s: %v", path, err)
	case info.IsDir():
		t.Errorf("expected a file, %s is a directory", path)
	}
}

// MustReadFile returns the content of path, stopping the test when it cannot be read.
func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}

// MustWriteFile writes content to name under dir and returns the full path.
func MustWriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}
