// Package rename derives canonical destination names from file names that
// carry a day-month-year token.
package rename

import (
	"path/filepath"
	"regexp"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// ExpectedPattern describes the accepted source file name shape.
const ExpectedPattern = "<prefix>_<dd><mm><yyyy>.<ext>"

// ErrNoMatch is returned when a file name does not have the expected shape.
var ErrNoMatch = errors.New("file name does not match pattern")

// sourceName matches <word>_<8 digits>.<ext>.
var sourceName = regexp.MustCompile(`^\w+_[0-9]{8}\.[A-Za-z0-9]+$`)

// Match is the result of a successful TryRename.
type Match struct {
	NewFileName string
	Year        string
	Month       string
	Day         string
}

// Renamer computes canonical names of the form <Prefix>_<yyyy><mm><dd>.<Extension>.
type Renamer struct {
	// Prefix replaces the source prefix.
	Prefix string
	// Extension replaces the source extension, without a leading dot.
	// Empty keeps the source extension.
	Extension string
	// YearFolder places files in a <root>/<yyyy> subfolder.
	YearFolder bool
}

// TryRename validates fileName and computes its canonical name.
// A name of the wrong shape returns an error wrapping ErrNoMatch.
func (r Renamer) TryRename(fileName string) (Match, error) {
	if !sourceName.MatchString(fileName) {
		return Match{}, errors.Errorf("%w: %q, expected %s", ErrNoMatch, fileName, ExpectedPattern)
	}

	// The token sits between the last '_' and the first '.' after it.
	underscore := strings.LastIndex(fileName, "_")
	token := fileName[underscore+1 : underscore+9]
	ext := fileName[underscore+10:]

	m := Match{
		Day:   token[0:2],
		Month: token[2:4],
		Year:  token[4:8],
	}

	if r.Extension != "" {
		ext = strings.TrimPrefix(r.Extension, ".")
	}
	prefix := r.Prefix
	if prefix == "" {
		prefix = fileName[:underscore]
	}

	m.NewFileName = prefix + "_" + m.Year + m.Month + m.Day + "." + ext
	return m, nil
}

// DestinationFolder returns the folder a matched file is moved to.
func (r Renamer) DestinationFolder(root string, m Match) string {
	if r.YearFolder {
		return filepath.Join(root, m.Year)
	}
	return root
}
