package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/superbinary-trigger/internal/config"
	"github.com/oshokin/superbinary-trigger/internal/logger"
	"github.com/oshokin/superbinary-trigger/internal/service/composer"
	"github.com/oshokin/superbinary-trigger/internal/service/publisher"
	"github.com/oshokin/superbinary-trigger/internal/version"
)

// execActionMode is the argument the CI workflow passes to compose the SuperBinary.
const execActionMode = "exec_action"

var errInvalidLogLevel = errors.New("invalid log level")

var (
	// configPath to the configuration YAML file.
	configPath string
	// artifactDir holds the artifacts to publish or compose.
	artifactDir string
	// remoteName preselects the remote to push to.
	remoteName string
	// logLevel is the minimal level of emitted log entries.
	logLevel string
	// keepBranch leaves the trigger branch in place after composing.
	keepBranch bool

	// rootCmd publishes the artifacts, or composes them when run as the CI action.
	rootCmd = &cobra.Command{
		Use:   "superbinary-trigger [" + execActionMode + "]",
		Short: "Stage SuperBinary artifacts and trigger composing on CI",
		Long: `Without arguments the artifacts are classified, committed to a scratch copy of
the enclosing repository and force-pushed to the trigger branch.
With "` + execActionMode + `" (run by the CI workflow) the SuperBinary is composed
from the pushed artifacts, the results are collected into the output directory
and the trigger branch is deleted.`,
		Args:          cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs:     []string{execActionMode},
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			level, ok := logger.ParseLogLevel(logLevel)
			if !ok {
				return fmt.Errorf("%w: %q", errInvalidLogLevel, logLevel)
			}

			logger.SetLevel(level)

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			if len(args) == 1 && args[0] == execActionMode {
				return composer.Run(ctx, &composer.Options{
					ConfigPath: configPath,
					Dir:        artifactDir,
					KeepBranch: keepBranch,
					Stdout:     cmd.OutOrStdout(),
				})
			}

			return publisher.Run(ctx, &publisher.Options{
				ConfigPath: configPath,
				Dir:        artifactDir,
				Remote:     remoteName,
				Stdout:     cmd.OutOrStdout(),
			})
		},
	}
)

// Execute runs the superbinary-trigger CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)
	rootCmd.AddCommand(newInitCommand())

	if err := rootCmd.Execute(); err != nil {
		logger.ErrorKV(context.Background(), "Run failed", "error", err)
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	flags.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn or error")

	rootCmd.Flags().StringVarP(&artifactDir, "dir", "d", ".", "directory holding the artifacts")
	rootCmd.Flags().StringVarP(&remoteName, "remote", "r", "", "remote to push to, skips the selection menu")
	rootCmd.Flags().BoolVar(&keepBranch, "keep-branch", false, "do not delete the trigger branch after composing")
}
