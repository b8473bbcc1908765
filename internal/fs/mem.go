package fs

import (
	"fmt"
	"time"

	"github.com/spf13/afero"
)

// MemFileSystem is an in-memory filesystem for testing.
// Unlike DryRunFileSystem, it performs no logging.
type MemFileSystem struct {
	afero.Fs
}

// ListFiles returns matching regular files directly inside folder.
func (m *MemFileSystem) ListFiles(folder, pattern string) ([]string, error) {
	return listFiles(m.Fs, folder, pattern)
}

// EnsureDir creates path and its parents.
func (m *MemFileSystem) EnsureDir(path string) error {
	return m.Fs.MkdirAll(path, 0755)
}

// Move renames src to dst.
func (m *MemFileSystem) Move(src, dst string) error {
	return m.Fs.Rename(src, dst)
}

// Metadata returns size and modification time from the in-memory file.
func (m *MemFileSystem) Metadata(path string) (Metadata, error) {
	return statMetadata(m.Fs, path)
}

// ResolveConflict handles destination file conflicts.
func (m *MemFileSystem) ResolveConflict(mode ConflictMode, srcPath, destPath string) (string, bool, error) {
	return resolveConflict(m.Fs, m.Fs.Remove, mode, destPath)
}

// MustMkdirAll creates a directory and panics on error. For use in tests.
func (m *MemFileSystem) MustMkdirAll(path string) {
	if err := m.Fs.MkdirAll(path, 0755); err != nil {
		panic(fmt.Sprintf("MustMkdirAll(%q): %v", path, err))
	}
}

// MustWriteFile writes content to path, creating parents, and panics on error. For use in tests.
func (m *MemFileSystem) MustWriteFile(path string, content string) {
	if err := afero.WriteFile(m.Fs, path, []byte(content), 0644); err != nil {
		panic(fmt.Sprintf("MustWriteFile(%q): %v", path, err))
	}
}

// MustChtimes sets the modification time of path and panics on error. For use in tests.
func (m *MemFileSystem) MustChtimes(path string, mtime time.Time) {
	if err := m.Fs.Chtimes(path, mtime, mtime); err != nil {
		panic(fmt.Sprintf("MustChtimes(%q): %v", path, err))
	}
}
