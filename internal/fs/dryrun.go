package fs

import (
	"log/slog"
	"os"

	"github.com/spf13/afero"
)

// DryRunFileSystem simulates operations without modifying the real filesystem.
// Uses CopyOnWriteFs so operations work correctly in memory.
type DryRunFileSystem struct {
	afero.Fs
}

// Remove is a no-op in dry-run mode.
// CoW doesn't support removing files that only exist in the base layer.
func (d *DryRunFileSystem) Remove(name string) error {
	slog.Info("dry-run: would remove", "path", name)
	return nil
}

// RemoveAll is a no-op in dry-run mode.
// CoW doesn't support removing files that only exist in the base layer.
func (d *DryRunFileSystem) RemoveAll(path string) error {
	slog.Info("dry-run: would remove all", "path", path)
	return nil
}

// Rename copies to new location so subsequent operations work.
// CoW doesn't support renaming files that only exist in the base layer,
// so we copy instead. The original still exists but later stages use the new path.
func (d *DryRunFileSystem) Rename(oldname, newname string) error {
	srcInfo, err := d.Fs.Stat(oldname)
	if err != nil {
		return err
	}
	return copyFile(d.Fs, oldname, newname, srcInfo.Mode())
}

// OpenFile delegates to the CoW filesystem.
func (d *DryRunFileSystem) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	return d.Fs.OpenFile(name, flag, perm)
}

// ListFiles returns matching regular files directly inside folder.
func (d *DryRunFileSystem) ListFiles(folder, pattern string) ([]string, error) {
	return listFiles(d.Fs, folder, pattern)
}

// EnsureDir creates path in the memory layer.
func (d *DryRunFileSystem) EnsureDir(path string) error {
	return d.Fs.MkdirAll(path, 0755)
}

// Move copies src to dst in the memory layer.
func (d *DryRunFileSystem) Move(src, dst string) error {
	slog.Info("dry-run: would move", "from", src, "to", dst)
	return d.Rename(src, dst)
}

// Metadata returns size and modification time through the CoW layers.
func (d *DryRunFileSystem) Metadata(path string) (Metadata, error) {
	return statMetadata(d.Fs, path)
}

// ResolveConflict handles destination file conflicts in dry-run mode.
func (d *DryRunFileSystem) ResolveConflict(mode ConflictMode, srcPath, destPath string) (string, bool, error) {
	return resolveConflict(d.Fs, d.Remove, mode, destPath)
}
