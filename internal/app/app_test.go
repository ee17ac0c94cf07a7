package app

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/XxMorganxX/Push-To-Type/internal/version"
)

func runApp(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Execute(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func isolateXDG(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_STATE_HOME", t.TempDir())
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())
	t.Setenv("ASSEMBLYAI_API_KEY", "test-key")
}

func TestExecuteHelp(t *testing.T) {
	code, stdout, _ := runApp(t)
	require.Equal(t, 0, code)
	require.Contains(t, stdout, "Usage:")
	require.Contains(t, stdout, "run")

	code, stdout, _ = runApp(t, "--help")
	require.Equal(t, 0, code)
	require.Contains(t, stdout, "Usage:")
}

func TestExecuteVersion(t *testing.T) {
	code, stdout, _ := runApp(t, "version")
	require.Equal(t, 0, code)
	require.Equal(t, version.String()+"\n", stdout)

	code, stdout, _ = runApp(t, "--version")
	require.Equal(t, 0, code)
	require.Equal(t, version.String()+"\n", stdout)
}

func TestExecuteParseError(t *testing.T) {
	code, _, stderr := runApp(t, "--bogus")
	require.Equal(t, 2, code)
	require.Contains(t, stderr, "unknown flag")
	require.Contains(t, stderr, "Usage:")

	code, _, stderr = runApp(t, "summon")
	require.Equal(t, 2, code)
	require.Contains(t, stderr, "unknown command")
}

func TestExecuteStatusWithoutDaemon(t *testing.T) {
	isolateXDG(t)

	code, stdout, _ := runApp(t, "status")
	require.Equal(t, 0, code)
	require.Contains(t, stdout, "not running")
}

func TestExecutePressWithoutDaemon(t *testing.T) {
	isolateXDG(t)

	code, _, stderr := runApp(t, "press")
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "no running ptt daemon")
}
