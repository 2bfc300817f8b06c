package cmd

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/superbinary-trigger/internal/config"
)

// TestRootArgs accepts only the action mode as a positional argument.
func TestRootArgs(t *testing.T) {
	require.NoError(t, rootCmd.ValidateArgs([]string{execActionMode}))
	require.NoError(t, rootCmd.ValidateArgs(nil))
	require.Error(t, rootCmd.ValidateArgs([]string{"compose"}))
	require.Error(t, rootCmd.ValidateArgs([]string{execActionMode, execActionMode}))
}

// TestInitCommand writes the defaults once and refuses to overwrite them without --force.
func TestInitCommand(t *testing.T) {
	configPath = filepath.Join(t.TempDir(), config.DefaultConfigFilename)

	command := newInitCommand()
	command.SetArgs([]string{})
	require.NoError(t, command.Execute())

	cfg, err := config.Load(configPath)
	require.NoError(t, err)
	require.Equal(t, config.DefaultBranch, cfg.Branch)

	command.SetArgs([]string{})
	require.ErrorIs(t, command.Execute(), errConfigExists)

	command.SetArgs([]string{"--force"})
	require.NoError(t, command.Execute())
}
