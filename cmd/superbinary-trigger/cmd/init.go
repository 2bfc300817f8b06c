package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/oshokin/superbinary-trigger/internal/config"
	"github.com/oshokin/superbinary-trigger/internal/logger"
)

var errConfigExists = errors.New("settings file already exists, use --force to overwrite it")

// newInitCommand creates the command writing a settings file filled with defaults.
func newInitCommand() *cobra.Command {
	var force bool

	command := &cobra.Command{
		Use:   "init",
		Short: "Write a settings file with the default values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := os.Stat(configPath); err == nil && !force {
				return fmt.Errorf("%s: %w", configPath, errConfigExists)
			}

			if err := config.Save(configPath, config.Default()); err != nil {
				return err
			}

			logger.InfoKV(cmd.Context(), "Settings file written", "path", configPath)

			return nil
		},
	}

	command.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing settings file")

	return command
}
