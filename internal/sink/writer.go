// Package sink serializes tabular run data to log files in one or more formats.
package sink

import (
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"
)

// Format is a log file format, named by its file extension.
type Format string

const (
	CSV  Format = "csv"
	JSON Format = "json"
	TXT  Format = "txt"
	XLSX Format = "xlsx"
)

// ErrUnknownFormat is returned for a format without an encoder.
var ErrUnknownFormat = errors.New("unknown log file format")

// Table is a named set of rows with ordered columns.
// Cell values may be string, bool, integers, time.Time, error or nil.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]any
}

// encoder writes a table to path, appending to an existing file when asked.
type encoder func(w *Writer, path string, t Table, appendMode bool) error

// encoders is the per-format strategy table.
var encoders = map[Format]encoder{
	CSV:  writeCSV,
	JSON: writeJSON,
	TXT:  writeTXT,
	XLSX: writeXLSX,
}

// SupportedFormats returns the known formats in sorted order.
func SupportedFormats() []Format {
	formats := make([]Format, 0, len(encoders))
	for f := range encoders {
		formats = append(formats, f)
	}
	sort.Slice(formats, func(i, j int) bool { return formats[i] < formats[j] })
	return formats
}

// Supported reports whether f has an encoder.
func Supported(f Format) bool {
	_, ok := encoders[f]
	return ok
}

// NormalizeFormats lowercases the formats, strips leading dots, drops empty
// and duplicate entries and sorts the result.
func NormalizeFormats(formats []string) []Format {
	seen := make(map[Format]bool, len(formats))
	var out []Format
	for _, f := range formats {
		norm := Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(f), ".")))
		if norm == "" || seen[norm] {
			continue
		}
		seen[norm] = true
		out = append(out, norm)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Writer writes tables to files on a filesystem.
type Writer struct {
	fs afero.Fs

	// Style, when set, is consulted for every data cell of xlsx output.
	Style StyleFunc
}

// NewWriter creates a Writer on fs.
func NewWriter(fs afero.Fs) *Writer {
	return &Writer{fs: fs}
}

// Write serializes t to <stem>.<format> for every requested format.
// A failing format does not stop the others; its error is collected and
// returned alongside the paths that were written.
func (w *Writer) Write(t Table, stem string, formats []string, appendMode bool) ([]string, []error) {
	var written []string
	var errs []error

	if dir := filepath.Dir(stem); dir != "" {
		if err := w.fs.MkdirAll(dir, 0755); err != nil {
			return nil, []error{errors.Errorf("failed to create log folder %s: %w", dir, err)}
		}
	}

	for _, format := range NormalizeFormats(formats) {
		path := stem + "." + string(format)

		enc, ok := encoders[format]
		if !ok {
			errs = append(errs, errors.Errorf("%w %q for %s", ErrUnknownFormat, format, path))
			continue
		}

		if err := enc(w, path, t, appendMode); err != nil {
			slog.Warn("failed to write log file", "path", path, "error", err)
			errs = append(errs, errors.Errorf("failed to write log file %s: %w", path, err))
			continue
		}

		slog.Debug("wrote log file", "path", path, "rows", len(t.Rows))
		written = append(written, path)
	}

	return written, errs
}
