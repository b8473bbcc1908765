package pathutil

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// percentVar matches Windows style %NAME% references.
var percentVar = regexp.MustCompile(`%([A-Za-z_][A-Za-z0-9_()]*)%`)

// ExpandPath expands %NAME% environment references and then a leading ~.
// Unknown variables are left as written so the resulting error names them.
func ExpandPath(path string) string {
	return ExpandTilde(expandVars(path, os.LookupEnv))
}

// ExpandTilde expands a leading ~ to the user's home directory. Both ~/ and
// ~\ are accepted.
func ExpandTilde(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, `~\`) {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}

func expandVars(path string, lookup func(string) (string, bool)) string {
	if !strings.Contains(path, "%") {
		return path
	}
	return percentVar.ReplaceAllStringFunc(path, func(match string) string {
		if v, ok := lookup(match[1 : len(match)-1]); ok {
			return v
		}
		return match
	})
}
