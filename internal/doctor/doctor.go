// Package doctor runs readiness diagnostics for config, credentials, audio,
// and injection tooling.
package doctor

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/XxMorganxX/Push-To-Type/internal/audio"
	"github.com/XxMorganxX/Push-To-Type/internal/config"
	"github.com/XxMorganxX/Push-To-Type/internal/keybind"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment/config/runtime checks for a loaded config.
func Run(cfg config.Loaded) Report {
	checks := []Check{}

	configMsg := fmt.Sprintf("loaded %q", cfg.Path)
	if !cfg.Exists {
		configMsg = fmt.Sprintf("%q not found; using defaults", cfg.Path)
	}
	checks = append(checks, Check{Name: "config", Pass: true, Message: configMsg})

	for _, warning := range cfg.Warnings {
		checks = append(checks, Check{Name: "config.warning", Pass: false, Message: warning.Message})
	}

	checks = append(checks, checkAPIKey(cfg.Config))
	checks = append(checks, checkCombo(cfg.Config))
	checks = append(checks, checkAudioSelection(cfg.Config))

	if cfg.Config.Injection.Mode == config.ModeKeystroke {
		checks = append(checks, checkCommand(cfg.Config.Injection.TypeText.Argv, "type_cmd"))
	} else {
		checks = append(checks, checkCommand(cfg.Config.Injection.ClipboardCopy.Argv, "clipboard_copy_cmd"))
		checks = append(checks, checkCommand(cfg.Config.Injection.PasteChord.Argv, "paste_chord_cmd"))
		if cfg.Config.Injection.PreserveClipboard {
			checks = append(checks, checkCommand(cfg.Config.Injection.ClipboardPaste.Argv, "clipboard_paste_cmd"))
		}
	}

	return Report{Checks: checks}
}

// checkAPIKey verifies the streaming credential without printing it.
func checkAPIKey(cfg config.Config) Check {
	if strings.TrimSpace(cfg.Transcribe.APIKey) == "" {
		return Check{
			Name:    "assemblyai.api_key",
			Pass:    false,
			Message: "missing; set ASSEMBLYAI_API_KEY or assemblyai.api_key",
		}
	}
	return Check{Name: "assemblyai.api_key", Pass: true, Message: "credential present"}
}

// checkCombo verifies the configured PTT combo parses.
func checkCombo(cfg config.Config) Check {
	combo, err := keybind.ParseCombo(cfg.Keybind.Combo)
	if err != nil {
		return Check{Name: "keybinds.combo", Pass: false, Message: err.Error()}
	}
	return Check{Name: "keybinds.combo", Pass: true, Message: fmt.Sprintf("watching %s", combo)}
}

// checkCommand validates that argv contains a runnable command.
func checkCommand(argv []string, name string) Check {
	if len(argv) == 0 {
		return Check{Name: name, Pass: false, Message: "command is empty"}
	}
	return checkBinary(argv[0], fmt.Sprintf("%s command is available", name))
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}

// checkAudioSelection runs live device selection to surface selection/fallback issues.
func checkAudioSelection(cfg config.Config) Check {
	selection, err := audio.SelectDevice(context.Background(), cfg.Audio.Input, cfg.Audio.Fallback)
	if err != nil {
		return Check{Name: "audio.device", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("selected %q", selection.Device.ID)
	if selection.Warning != "" {
		message = message + " (" + selection.Warning + ")"
	}
	return Check{Name: "audio.device", Pass: true, Message: message}
}
