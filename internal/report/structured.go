package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/xlab/treeprint"
)

// Styles for the console reporter
var (
	runStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")) // Cyan
	pathStyle   = lipgloss.NewStyle().Bold(true)
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2")) // Green
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")) // Red
	detailStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8")) // Gray
)

const (
	passIcon = "✓"
	failIcon = "✗"
)

// Console prints a tree-style summary of a RunReport.
type Console struct {
	w       io.Writer
	verbose bool
}

// NewConsole creates a Console writing to stdout.
func NewConsole(verbose bool) *Console {
	return &Console{
		w:       os.Stdout,
		verbose: verbose,
	}
}

// NewConsoleWithWriter creates a Console writing to a custom writer.
func NewConsoleWithWriter(w io.Writer, verbose bool) *Console {
	return &Console{
		w:       w,
		verbose: verbose,
	}
}

// Print renders the report. Moved files are only listed in verbose mode;
// failures and system errors are always listed.
func (c *Console) Print(r *RunReport) {
	if c == nil || r == nil {
		return
	}

	fmt.Fprintf(c.w, "\n%s\n", runStyle.Render("━━━ Run: "+r.ScriptName+" ━━━"))

	tree := treeprint.NewWithRoot(pathStyle.Render(r.ID.String()))

	failed := len(r.ActionErrors())
	summary := tree.AddBranch("summary:")
	summary.AddNode(fmt.Sprintf("files:         %d", len(r.Results)))
	summary.AddNode(fmt.Sprintf("moved:         %d", r.MovedCount()))
	summary.AddNode(fmt.Sprintf("failed:        %d", failed))
	summary.AddNode(fmt.Sprintf("system errors: %d", len(r.SystemErrors)))

	if len(r.Results) > 0 && (c.verbose || failed > 0) {
		actions := tree.AddBranch("actions:")
		for _, rec := range r.Results {
			if !rec.Failed() && !c.verbose {
				continue
			}
			actions.AddNode(formatResult(rec))
		}
	}

	if len(r.SystemErrors) > 0 {
		errs := tree.AddBranch("system errors:")
		for _, se := range r.SystemErrors {
			errs.AddNode(failStyle.Render(failIcon) + " " + se.Message)
		}
	}

	fmt.Fprint(c.w, tree.String())
}

// formatResult formats one result line.
func formatResult(rec ResultRecord) string {
	if rec.Failed() {
		return fmt.Sprintf("%s %s %s", failStyle.Render(failIcon), rec.SourceFileName,
			detailStyle.Render("("+rec.Err.Error()+")"))
	}
	return fmt.Sprintf("%s %s → %s", passStyle.Render(passIcon), rec.SourceFileName,
		filepath.Join(rec.DestinationFolder, rec.NewFileName))
}
