// Package retention deletes old log files.
package retention

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/prettymuchbryce/batchmove/internal/fs"

	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"
)

// Sweeper removes files older than a maximum age from a folder.
type Sweeper struct {
	fs        fs.FileSystem
	recursive bool
	now       func() time.Time
}

// NewSweeper creates a Sweeper. When recursive is true, subfolders are swept too.
func NewSweeper(filesystem fs.FileSystem, recursive bool, now func() time.Time) *Sweeper {
	if now == nil {
		now = time.Now
	}
	return &Sweeper{fs: filesystem, recursive: recursive, now: now}
}

// Sweep deletes files in dir last modified before now minus maxAgeDays.
// It does nothing when maxAgeDays <= 0 or dir does not exist. Every failure
// is returned and the sweep carries on with the remaining files.
func (s *Sweeper) Sweep(dir string, maxAgeDays int) []error {
	if maxAgeDays <= 0 {
		return nil
	}
	ok, err := afero.DirExists(s.fs, dir)
	if err != nil {
		return []error{errors.Errorf("failed to read %s: %w", dir, err)}
	}
	if !ok {
		slog.Debug("log folder does not exist, nothing to sweep", "folder", dir)
		return nil
	}

	cutoff := s.now().AddDate(0, 0, -maxAgeDays)
	slog.Debug("sweeping old log files", "folder", dir, "before", cutoff, "recursive", s.recursive)

	var errs []error
	var deleted int

	walkErr := afero.Walk(s.fs, dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			errs = append(errs, errors.Errorf("failed to read %s: %w", path, err))
			if info != nil && info.IsDir() && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			if path != dir && !s.recursive {
				return filepath.SkipDir
			}
			return nil
		}

		md, err := s.fs.Metadata(path)
		if err != nil {
			errs = append(errs, errors.Errorf("failed to read metadata of %s: %w", path, err))
			return nil
		}
		if !md.LastModified.Before(cutoff) {
			return nil
		}

		if err := s.fs.Remove(path); err != nil {
			errs = append(errs, errors.Errorf("failed to remove old log file %s: %w", path, err))
			return nil
		}
		deleted++
		return nil
	})
	if walkErr != nil {
		errs = append(errs, errors.Errorf("failed to sweep %s: %w", dir, walkErr))
	}

	slog.Info("removed old log files", "folder", dir, "count", deleted, "failed", len(errs))
	return errs
}
