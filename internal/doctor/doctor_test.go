package doctor

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/XxMorganxX/Push-To-Type/internal/config"
)

func TestReportOKAndString(t *testing.T) {
	report := Report{Checks: []Check{
		{Name: "config", Pass: true, Message: "loaded"},
		{Name: "assemblyai.api_key", Pass: false, Message: "missing"},
	}}

	require.False(t, report.OK())
	require.Equal(t, "[OK] config: loaded\n[FAIL] assemblyai.api_key: missing", report.String())

	report.Checks[1].Pass = true
	require.True(t, report.OK())
}

func TestCheckAPIKeyNeverPrintsCredential(t *testing.T) {
	cfg := config.Default()
	cfg.Transcribe.APIKey = "super-secret-key"

	check := checkAPIKey(cfg)
	require.True(t, check.Pass)
	require.NotContains(t, check.Message, "super-secret-key")

	cfg.Transcribe.APIKey = "  "
	check = checkAPIKey(cfg)
	require.False(t, check.Pass)
}

func TestCheckCombo(t *testing.T) {
	cfg := config.Default()
	check := checkCombo(cfg)
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "watching")

	cfg.Keybind.Combo = "notakey+alsonotakey"
	check = checkCombo(cfg)
	require.False(t, check.Pass)
}

func TestCheckCommand(t *testing.T) {
	check := checkCommand(nil, "type_cmd")
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "empty")

	check = checkCommand([]string{"sh", "-c", "true"}, "type_cmd")
	require.True(t, check.Pass)

	check = checkCommand([]string{"definitely-not-a-real-binary-3141"}, "type_cmd")
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "not found in PATH")
}
