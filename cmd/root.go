package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// exitCode is set by commands that finish without an error but must still
// signal failure, such as a run with system errors.
var exitCode int

var rootCmd = &cobra.Command{
	Use:   "batchmove",
	Short: "batchmove - Move dated files into their archive folder and report on the run",
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		SetupLogging("warn")
	},
}

func SetVersion(v string) {
	rootCmd.Version = v
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
	os.Exit(exitCode)
}
