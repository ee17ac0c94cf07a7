package config

import "time"

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	return Config{
		Transcribe: TranscribeConfig{
			Endpoint:         "wss://streaming.assemblyai.com/v3/ws",
			SampleRate:       16000,
			FormatTurns:      true,
			DialTimeout:      3 * time.Second,
			DrainTimeout:     2 * time.Second,
			MaxReconnects:    3,
			ReconnectBackoff: 250 * time.Millisecond,
			ReplayFrameCap:   256,
		},
		Audio: AudioConfig{
			Input:         "default",
			Fallback:      "default",
			ChunkDuration: 20 * time.Millisecond,
			PreRoll:       300 * time.Millisecond,
			MinSend:       50 * time.Millisecond,
		},
		Keybind: KeybindConfig{
			Combo:           "leftshift+rightshift",
			Debounce:        150 * time.Millisecond,
			LivenessTimeout: 5 * time.Second,
		},
		Injection: InjectionConfig{
			Mode:              ModePaste,
			PreserveClipboard: true,
			KeyDelay:          5 * time.Millisecond,
			ClipboardCopy:     command("wl-copy --trim-newline"),
			ClipboardPaste:    command("wl-paste --no-newline"),
			TypeText:          command("wtype -"),
			PasteChord:        command("wtype -M ctrl v -m ctrl"),
		},
		Indicator: IndicatorConfig{
			Enable: true,
			Log:    true,
		},
		Replace: ReplaceConfig{
			Words:   defaultWordReplacements(),
			Phrases: defaultPhraseReplacements(),
			Joiners: []string{"/", "-", ":", "@", "#"},
		},
	}
}

// defaultWordReplacements covers common spoken punctuation out of the box.
func defaultWordReplacements() map[string]string {
	return map[string]string{
		"slash":      "/",
		"backslash":  "\\",
		"underscore": "_",
		"dash":       "-",
		"hyphen":     "-",
		"colon":      ":",
		"semicolon":  ";",
		"dot":        ".",
		"period":     ".",
		"comma":      ",",
	}
}

// defaultPhraseReplacements covers multi-word spellings of punctuation.
func defaultPhraseReplacements() map[string]string {
	return map[string]string{
		"forward slash": "/",
		"back slash":    "\\",
	}
}

func command(raw string) CommandConfig {
	return CommandConfig{Raw: raw, Argv: mustParseArgv(raw)}
}
