package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/prettymuchbryce/batchmove/internal/batch"
	"github.com/prettymuchbryce/batchmove/internal/config"
	"github.com/prettymuchbryce/batchmove/internal/eventlog"
	"github.com/prettymuchbryce/batchmove/internal/fs"
	"github.com/prettymuchbryce/batchmove/internal/notify"
	"github.com/prettymuchbryce/batchmove/internal/pathutil"
	"github.com/prettymuchbryce/batchmove/internal/report"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
)

var (
	runConfigPath string
	runDryRun     bool
	runVerbose    bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Move the matching source files and report on the batch",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(afero.NewOsFs(), runConfigPath)
		if err != nil {
			return err
		}

		closeLog := SetupLoggingWithFile(cfg.Logging.Level, cfg.Logging.File)
		defer closeLog()

		var filesystem fs.FileSystem
		if runDryRun {
			filesystem = fs.NewDryRun()
			fmt.Println("Dry-run mode enabled - no files are moved, no event or mail is sent")
		} else {
			filesystem = fs.NewReal()
		}

		var events eventlog.Sink
		if cfg.Settings.SaveInEventLog.Save {
			events = eventlog.NewSystemSink()
			if c, ok := events.(io.Closer); ok {
				defer c.Close()
			}
		}

		var notifier *notify.Notifier
		if notify.Mode(cfg.Settings.SendMail.When) != notify.Never {
			notifier = notify.NewNotifier(filesystem, notify.NewSMTPSender(filesystem), batch.NotifySettings(cfg))
		}

		runner := batch.NewRunner(filesystem, batch.OptionsFromConfig(cfg, runDryRun), events, notifier, nil)
		rep := runner.Run()

		report.NewConsole(runVerbose).Print(rep)

		exitCode = rep.ExitCode()
		if exitCode != 0 {
			slog.Warn("batch finished with system errors", "count", len(rep.SystemErrors))
		}
		return nil
	},
}

// loadConfig reads, resolves and validates the configuration at path.
func loadConfig(afs afero.Fs, path string) (*config.Config, error) {
	path = pathutil.ExpandPath(path)

	cfg, err := config.LoadWithFs(path, afs)
	if err != nil {
		return nil, errors.Errorf("failed to load config: %w", err)
	}
	if err := cfg.ResolveEnvValues(os.LookupEnv); err != nil {
		return nil, errors.Errorf("failed to resolve config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func init() {
	runCmd.Flags().StringVarP(&runConfigPath, "config", "c", pathutil.MustDefaultConfigPath(), "path to config file")
	runCmd.Flags().BoolVarP(&runDryRun, "dry-run", "n", false, "simulate the batch without changing files or sending anything")
	runCmd.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "list moved files as well as failures")
	rootCmd.AddCommand(runCmd)
}
