package utils

import (
	"regexp"
	"time"

	"github.com/itchyny/timefmt-go"
)

// variablePattern matches ${var} patterns.
var variablePattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Template is a string that supports template expansion.
// It can contain ${script}, ${run} variables and strftime tokens like %Y, %m, %d.
type Template string

// ExpandWithVars replaces known ${var} occurrences and leaves the rest.
func (t Template) ExpandWithVars(vars map[string]string) Template {
	return replaceVariables(t, vars)
}

// ExpandWithTime formats strftime tokens with now. Expand time before
// variables so that a '%' in a variable value is kept literally.
func (t Template) ExpandWithTime(now time.Time) Template {
	return Template(timefmt.Format(now, string(t)))
}

func (t Template) String() string {
	return string(t)
}

func replaceVariables(template Template, vars map[string]string) Template {
	result := variablePattern.ReplaceAllStringFunc(string(template), func(match string) string {
		varName := match[2 : len(match)-1]
		if val, ok := vars[varName]; ok {
			return val
		}
		return match // leave unchanged if not found
	})
	return Template(result)
}
