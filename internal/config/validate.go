package config

import (
	"fmt"
	"time"
)

// Validate reports non-fatal issues in a materialized configuration.
// Out-of-range values are clamped by the consuming component; validation only
// warns so a partially wrong file still yields a runnable process.
func Validate(cfg Config) []Warning {
	var warnings []Warning

	warn := func(format string, args ...any) {
		warnings = append(warnings, Warning{Message: fmt.Sprintf(format, args...)})
	}

	if cfg.Transcribe.APIKey == "" {
		warn("no transcription API key configured; set ASSEMBLYAI_API_KEY or assemblyai.api_key")
	}
	if cfg.Transcribe.SampleRate <= 0 {
		warn("assemblyai.sample_rate %d is invalid; 16000 will be used", cfg.Transcribe.SampleRate)
	}
	if cfg.Transcribe.MaxReconnects < 0 {
		warn("assemblyai.max_reconnects %d is negative; reconnects disabled", cfg.Transcribe.MaxReconnects)
	}

	if cfg.Audio.ChunkDuration <= 0 {
		warn("audio.chunk_ms must be positive; 20ms will be used")
	}
	if cfg.Audio.MinSend > 0 && cfg.Audio.MinSend > time.Second {
		warn("audio.min_send_ms %d exceeds the 1000ms protocol limit", cfg.Audio.MinSend/time.Millisecond)
	}
	if cfg.Audio.PreRoll < 0 {
		warn("audio.preroll_ms is negative; pre-roll disabled")
	}

	if cfg.Keybind.Combo == "" {
		warn("keybinds.ptt is empty; push-to-talk cannot engage")
	}
	if cfg.Keybind.Debounce < 0 {
		warn("keybinds.debounce_ms is negative; debounce disabled")
	}

	if cfg.Injection.Mode == ModeKeystroke && len(cfg.Injection.TypeText.Argv) == 0 {
		warn("typing.mode is keystroke but commands.type_text is empty")
	}
	if cfg.Injection.Mode == ModePaste {
		if len(cfg.Injection.ClipboardCopy.Argv) == 0 {
			warn("typing.mode is paste but commands.clipboard_copy is empty")
		}
		if len(cfg.Injection.PasteChord.Argv) == 0 {
			warn("typing.mode is paste but commands.paste_chord is empty")
		}
		if cfg.Injection.PreserveClipboard && len(cfg.Injection.ClipboardPaste.Argv) == 0 {
			warn("typing.preserve_clipboard requires commands.clipboard_paste")
		}
	}

	if cfg.Indicator.Enable && !cfg.Indicator.Log && len(cfg.Indicator.Command.Argv) == 0 {
		warn("indicator.enable is set but no indicator.command or indicator.log sink is configured")
	}

	return warnings
}
