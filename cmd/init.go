package cmd

import (
	"fmt"

	"github.com/prettymuchbryce/batchmove/internal/config"
	"github.com/prettymuchbryce/batchmove/internal/pathutil"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var (
	initConfigPath string
	initForce      bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write an example config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.WriteDefaultConfig(afero.NewOsFs(), initConfigPath, initForce)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote example config to %s\n", path)
		return nil
	},
}

func init() {
	initCmd.Flags().StringVarP(&initConfigPath, "config", "c", pathutil.MustDefaultConfigPath(), "path to config file")
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "replace an existing config file")
	rootCmd.AddCommand(initCmd)
}
