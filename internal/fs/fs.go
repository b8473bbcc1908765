package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"
)

// ConflictMode defines what to do when the destination file already exists.
type ConflictMode string

const (
	ConflictOverwrite        ConflictMode = "overwrite"          // Replace the destination file
	ConflictRenameWithSuffix ConflictMode = "rename_with_suffix" // Rename with numeric suffix (file_2.txt)
	ConflictFail             ConflictMode = "fail"               // Leave both files, report the item as failed
)

// Valid reports whether the mode is one of the known conflict modes.
// The empty mode is valid and means ConflictOverwrite.
func (m ConflictMode) Valid() bool {
	switch m {
	case "", ConflictOverwrite, ConflictRenameWithSuffix, ConflictFail:
		return true
	}
	return false
}

// Metadata is the subset of file information the batch needs.
type Metadata struct {
	Size         int64
	LastModified time.Time
	IsDir        bool
}

// FileSystem extends afero.Fs with the operations the batch pipeline needs.
type FileSystem interface {
	afero.Fs

	// ListFiles returns the regular files directly inside folder whose base
	// name matches the glob pattern, sorted by name.
	ListFiles(folder, pattern string) ([]string, error)

	// EnsureDir creates the directory and any missing parents.
	EnsureDir(path string) error

	// Move relocates a single file from src to dst.
	Move(src, dst string) error

	// Metadata returns size and modification time for path.
	Metadata(path string) (Metadata, error)

	// ResolveConflict handles destination file conflicts.
	// Returns (newDestPath, proceed, err) - if proceed is true, caller should continue
	// using newDestPath as the destination. For most modes newDestPath equals destPath,
	// but for RenameWithSuffix it may be different (e.g., file_2.txt).
	ResolveConflict(mode ConflictMode, srcPath, destPath string) (string, bool, error)
}

// NewReal creates a FileSystem that performs actual filesystem operations.
func NewReal() FileSystem {
	return &RealFileSystem{
		Fs: afero.NewOsFs(),
	}
}

// NewDryRun creates a FileSystem that logs operations without modifying the real filesystem.
// Uses CopyOnWriteFs so subsequent operations work correctly (e.g., mkdir followed by move).
func NewDryRun() FileSystem {
	base := afero.NewReadOnlyFs(afero.NewOsFs())
	layer := afero.NewMemMapFs()
	cow := afero.NewCopyOnWriteFs(base, layer)
	return &DryRunFileSystem{Fs: cow}
}

// NewMem creates an in-memory FileSystem for testing.
// Unlike DryRunFileSystem, it performs no logging.
func NewMem() FileSystem {
	return &MemFileSystem{Fs: afero.NewMemMapFs()}
}

// NewMemTest returns a MemFileSystem for testing with access to Must* helpers.
func NewMemTest() *MemFileSystem {
	return &MemFileSystem{Fs: afero.NewMemMapFs()}
}

// listFiles implements FileSystem.ListFiles for any afero.Fs.
func listFiles(afs afero.Fs, folder, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = "*"
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, errors.Errorf("invalid match pattern %q", pattern)
	}

	entries, err := afero.ReadDir(afs, folder)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, entry := range entries {
		if !entry.Mode().IsRegular() {
			continue
		}
		matched, err := doublestar.Match(pattern, entry.Name())
		if err != nil {
			return nil, errors.Errorf("invalid match pattern %q: %w", pattern, err)
		}
		if matched {
			paths = append(paths, filepath.Join(folder, entry.Name()))
		}
	}

	sort.Strings(paths)
	return paths, nil
}

// statMetadata implements FileSystem.Metadata from afero's Stat.
func statMetadata(afs afero.Fs, path string) (Metadata, error) {
	info, err := afs.Stat(path)
	if err != nil {
		return Metadata{}, err
	}
	return Metadata{
		Size:         info.Size(),
		LastModified: info.ModTime(),
		IsDir:        info.IsDir(),
	}, nil
}

// resolveConflict implements FileSystem.ResolveConflict; remove is the
// filesystem's own removal so dry-run can suppress it.
func resolveConflict(afs afero.Fs, remove func(string) error, mode ConflictMode, destPath string) (string, bool, error) {
	switch mode {
	case "", ConflictOverwrite:
		if err := remove(destPath); err != nil {
			return "", false, err
		}
		return destPath, true, nil

	case ConflictRenameWithSuffix:
		return findAvailableSuffixedPath(afs, destPath), true, nil

	case ConflictFail:
		return destPath, false, nil

	default:
		return "", false, errors.Errorf("unknown conflict mode: %s", mode)
	}
}

// findAvailableSuffixedPath finds the next available path with a numeric suffix.
func findAvailableSuffixedPath(afs afero.Fs, destPath string) string {
	for i := 2; ; i++ {
		candidate := GenerateSuffixedPath(destPath, i)
		if _, err := afs.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

// GenerateSuffixedPath generates a path with a numeric suffix.
// For example: file.txt with suffix 2 becomes file_2.txt
// For multi-extension files: archive.tar.gz becomes archive_2.tar.gz
func GenerateSuffixedPath(path string, suffix int) string {
	dir := filepath.Dir(path)
	filename := filepath.Base(path)

	base, ext := splitFilenameAndExtensions(filename)

	newFilename := fmt.Sprintf("%s_%d%s", base, suffix, ext)
	return filepath.Join(dir, newFilename)
}

// splitFilenameAndExtensions splits a filename into base and extensions.
// Unlike filepath.Ext, this treats compound extensions as one unit.
// Examples:
//   - "file.txt" → ("file", ".txt")
//   - "archive.tar.gz" → ("archive", ".tar.gz")
//   - "file" → ("file", "")
//   - ".hidden" → (".hidden", "")
//   - ".hidden.txt" → (".hidden", ".txt")
func splitFilenameAndExtensions(filename string) (base, ext string) {
	if strings.HasPrefix(filename, ".") {
		rest := filename[1:]
		idx := strings.Index(rest, ".")
		if idx == -1 {
			return filename, ""
		}
		return filename[:idx+1], filename[idx+1:]
	}

	idx := strings.Index(filename, ".")
	if idx == -1 {
		return filename, ""
	}
	return filename[:idx], filename[idx:]
}
