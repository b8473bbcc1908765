package fs

import (
	"io"
	"log/slog"
	"os"

	"github.com/djherbis/times"
	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"
)

// RealFileSystem performs actual filesystem operations.
type RealFileSystem struct {
	afero.Fs
}

// Rename performs the rename operation.
func (r *RealFileSystem) Rename(oldname, newname string) error {
	slog.Debug("renaming", "from", oldname, "to", newname)
	return r.Fs.Rename(oldname, newname)
}

// Remove performs the remove operation.
func (r *RealFileSystem) Remove(name string) error {
	slog.Debug("removing", "path", name)
	return r.Fs.Remove(name)
}

// RemoveAll performs the recursive remove operation.
func (r *RealFileSystem) RemoveAll(path string) error {
	slog.Debug("removing all", "path", path)
	return r.Fs.RemoveAll(path)
}

// ListFiles returns matching regular files directly inside folder.
func (r *RealFileSystem) ListFiles(folder, pattern string) ([]string, error) {
	return listFiles(r.Fs, folder, pattern)
}

// EnsureDir creates path and its parents.
func (r *RealFileSystem) EnsureDir(path string) error {
	return r.Fs.MkdirAll(path, 0755)
}

// Move renames src to dst. When a rename is impossible (e.g. the destination
// is on another volume) the file is copied and the source removed.
func (r *RealFileSystem) Move(src, dst string) error {
	slog.Debug("moving", "from", src, "to", dst)
	err := r.Fs.Rename(src, dst)
	if err == nil {
		return nil
	}

	var linkErr *os.LinkError
	if !errors.As(err, &linkErr) {
		return err
	}

	info, statErr := r.Fs.Stat(src)
	if statErr != nil {
		return err
	}
	if copyErr := copyFile(r.Fs, src, dst, info.Mode()); copyErr != nil {
		if rmErr := r.Fs.Remove(dst); rmErr != nil && !os.IsNotExist(rmErr) {
			slog.Warn("failed to remove partial copy", "path", dst, "error", rmErr)
		}
		return errors.Errorf("copy after failed rename: %w", copyErr)
	}
	return r.Fs.Remove(src)
}

// Metadata reads size and modification time from the OS.
func (r *RealFileSystem) Metadata(path string) (Metadata, error) {
	info, err := r.Fs.Stat(path)
	if err != nil {
		return Metadata{}, err
	}
	t, err := times.Stat(path)
	if err != nil {
		return Metadata{}, err
	}
	return Metadata{
		Size:         info.Size(),
		LastModified: t.ModTime(),
		IsDir:        info.IsDir(),
	}, nil
}

// ResolveConflict handles destination file conflicts.
func (r *RealFileSystem) ResolveConflict(mode ConflictMode, srcPath, destPath string) (string, bool, error) {
	slog.Debug("resolving destination conflict", "mode", mode, "src", srcPath, "dest", destPath)
	return resolveConflict(r.Fs, r.Remove, mode, destPath)
}

// copyFile copies a single file. The copy only counts once dst is closed
// without error.
func copyFile(afs afero.Fs, src, dst string, mode os.FileMode) error {
	srcFile, err := afs.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	dstFile, err := afs.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		dstFile.Close()
		return err
	}
	if err := dstFile.Sync(); err != nil {
		dstFile.Close()
		return err
	}
	return dstFile.Close()
}
