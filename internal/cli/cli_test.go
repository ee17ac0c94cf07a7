package cli

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDefaultsToHelp(t *testing.T) {
	parsed, err := Parse(nil)
	require.NoError(t, err)
	require.Equal(t, CommandHelp, parsed.Command)
	require.True(t, parsed.ShowHelp)
}

func TestParseCommands(t *testing.T) {
	for _, cmd := range []Command{
		CommandRun, CommandStatus, CommandPress, CommandRelease,
		CommandQuit, CommandDevices, CommandDoctor, CommandVersion,
	} {
		parsed, err := Parse([]string{string(cmd)})
		require.NoError(t, err)
		require.Equal(t, cmd, parsed.Command)
		require.False(t, parsed.ShowHelp)
	}
}

func TestParseConfigFlag(t *testing.T) {
	parsed, err := Parse([]string{"--config", "/tmp/ptt.json", "run"})
	require.NoError(t, err)
	require.Equal(t, CommandRun, parsed.Command)
	require.Equal(t, "/tmp/ptt.json", parsed.ConfigPath)
}

func TestParseConfigFlagMissingValue(t *testing.T) {
	_, err := Parse([]string{"--config"})
	require.Error(t, err)
}

func TestParseUnknownCommand(t *testing.T) {
	_, err := Parse([]string{"dance"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "dance")
}

func TestParseUnknownFlag(t *testing.T) {
	_, err := Parse([]string{"--verbose"})
	require.Error(t, err)
}

func TestParseTrailingArguments(t *testing.T) {
	_, err := Parse([]string{"run", "extra"})
	require.Error(t, err)
}

func TestParseVersionFlag(t *testing.T) {
	parsed, err := Parse([]string{"--version"})
	require.NoError(t, err)
	require.Equal(t, CommandVersion, parsed.Command)
	require.False(t, parsed.ShowHelp)
}
