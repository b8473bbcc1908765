package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/prettymuchbryce/batchmove/internal/pathutil"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var validateConfigPath string

var okStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a config file without running the batch",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(afero.NewOsFs(), validateConfigPath)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %s -> %s\n",
			okStyle.Render("✓"), cfg.Settings.ScriptName, cfg.Source.Folder, cfg.Destination.Folder)
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVarP(&validateConfigPath, "config", "c", pathutil.MustDefaultConfigPath(), "path to config file")
	rootCmd.AddCommand(validateCmd)
}
