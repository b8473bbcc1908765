// Package batch runs one pass over the source folder and routes the
// resulting report to the configured sinks.
package batch

import (
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"

	"github.com/prettymuchbryce/batchmove/internal/fs"
	"github.com/prettymuchbryce/batchmove/internal/rename"
	"github.com/prettymuchbryce/batchmove/internal/report"
)

// Recorder turns one source file into a ResultRecord.
type Recorder struct {
	fs       fs.FileSystem
	renamer  rename.Renamer
	destRoot string
	conflict fs.ConflictMode
	now      func() time.Time
}

// NewRecorder creates a Recorder moving matched files below destRoot.
func NewRecorder(filesystem fs.FileSystem, renamer rename.Renamer, destRoot string, conflict fs.ConflictMode, now func() time.Time) *Recorder {
	if now == nil {
		now = time.Now
	}
	return &Recorder{
		fs:       filesystem,
		renamer:  renamer,
		destRoot: destRoot,
		conflict: conflict,
		now:      now,
	}
}

// RecordAttempt matches, renames and moves sourcePath. It always returns a
// record; a failure at any step is stored in the record's Err.
func (r *Recorder) RecordAttempt(sourcePath string) report.ResultRecord {
	rec := report.ResultRecord{
		Timestamp:      r.now(),
		SourceFolder:   filepath.Dir(sourcePath),
		SourceFileName: filepath.Base(sourcePath),
	}

	m, err := r.renamer.TryRename(rec.SourceFileName)
	if err != nil {
		rec.Err = err
		return rec
	}
	rec.NewFileName = m.NewFileName
	rec.DestinationFolder = r.renamer.DestinationFolder(r.destRoot, m)
	dest := filepath.Join(rec.DestinationFolder, rec.NewFileName)

	if err := r.fs.EnsureDir(rec.DestinationFolder); err != nil {
		rec.Err = errors.Errorf("failed to create destination folder %s: %w", rec.DestinationFolder, err)
		return rec
	}

	exists, err := afero.Exists(r.fs, dest)
	if err != nil {
		rec.Err = errors.Errorf("failed to check destination %s: %w", dest, err)
		return rec
	}
	if exists {
		resolved, proceed, err := r.fs.ResolveConflict(r.conflict, sourcePath, dest)
		if err != nil {
			rec.Err = errors.Errorf("failed to move file %s to %s: %w", sourcePath, dest, err)
			return rec
		}
		if !proceed {
			rec.Err = errors.Errorf("failed to move file %s to %s: destination already exists", sourcePath, dest)
			return rec
		}
		if resolved != dest {
			slog.Debug("destination exists, using suffixed name", "dest", dest, "resolved", resolved)
		}
		dest = resolved
		rec.NewFileName = filepath.Base(resolved)
	}

	if err := r.fs.Move(sourcePath, dest); err != nil {
		rec.Err = errors.Errorf("failed to move file %s to %s: %w", sourcePath, dest, err)
		return rec
	}

	rec.Moved = true
	return rec
}
