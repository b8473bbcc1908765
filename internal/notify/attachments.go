package notify

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/prettymuchbryce/batchmove/internal/fs"
)

// Attachments is the outcome of attachment assembly.
type Attachments struct {
	Paths     []string
	TotalSize int64
	Truncated bool
	Warnings  []string
}

// AssembleAttachments de-duplicates and sorts candidates and keeps regular
// files in order until the next one would bring the total to maxBytes or
// more; assembly stops there and Truncated is set. Folders and unreadable
// paths are skipped with a warning. maxBytes <= 0 disables the cap.
func AssembleAttachments(filesystem fs.FileSystem, candidates []string, maxBytes int64) Attachments {
	var out Attachments

	seen := make(map[string]bool, len(candidates))
	unique := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		unique = append(unique, c)
	}
	sort.Strings(unique)

	for _, path := range unique {
		md, err := filesystem.Metadata(path)
		if err != nil {
			out.warn(fmt.Sprintf("attachment %s skipped: %v", path, err))
			continue
		}
		if md.IsDir {
			out.warn(fmt.Sprintf("attachment %s skipped: it is a folder", path))
			continue
		}
		if maxBytes > 0 && out.TotalSize+md.Size >= maxBytes {
			out.Truncated = true
			out.warn(fmt.Sprintf("attachments truncated at %s: total size would reach the %d byte limit", path, maxBytes))
			break
		}
		out.TotalSize += md.Size
		out.Paths = append(out.Paths, path)
	}

	return out
}

func (a *Attachments) warn(msg string) {
	slog.Warn(msg)
	a.Warnings = append(a.Warnings, msg)
}

// TruncationNotice is appended to the body when attachments were dropped.
func TruncationNotice(maxBytes int64) string {
	return fmt.Sprintf("<p><b>Not all log files are attached:</b> the total attachment size would exceed %s. "+
		"The complete set of log files is available in the log folder.</p>", formatBytes(maxBytes))
}

func formatBytes(n int64) string {
	const mb = 1024 * 1024
	if n >= mb && n%mb == 0 {
		return fmt.Sprintf("%d MB", n/mb)
	}
	return fmt.Sprintf("%d bytes", n)
}
