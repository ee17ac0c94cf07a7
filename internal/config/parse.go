package config

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// fileConfig mirrors the on-disk JSON layout. Pointer fields distinguish
// absent keys from zero values so unset keys inherit defaults.
type fileConfig struct {
	Transcription *struct {
		Endpoint   *string `json:"endpoint"`
		APIKey     *string `json:"api_key"`
		SampleRate *int    `json:"sample_rate"`

		FormatTurns        *bool `json:"format_turns"`
		DialTimeoutMS      *int  `json:"dial_timeout_ms"`
		DrainTimeoutMS     *int  `json:"drain_timeout_ms"`
		MaxReconnects      *int  `json:"max_reconnects"`
		ReconnectBackoffMS *int  `json:"reconnect_backoff_ms"`
		ReplayFrameCap     *int  `json:"replay_frame_cap"`
	} `json:"assemblyai"`

	Audio *struct {
		Input     *string `json:"input"`
		Fallback  *string `json:"fallback"`
		ChunkMS   *int    `json:"chunk_ms"`
		PreRollMS *int    `json:"preroll_ms"`
		MinSendMS *int    `json:"min_send_ms"`
	} `json:"audio"`

	Keybinds *struct {
		PTT               *string `json:"ptt"`
		DebounceMS        *int    `json:"debounce_ms"`
		LivenessTimeoutMS *int    `json:"liveness_timeout_ms"`
	} `json:"keybinds"`

	Typing *struct {
		Mode              *string `json:"mode"`
		DelayMS           *int    `json:"delay_ms"`
		PreserveClipboard *bool   `json:"preserve_clipboard"`
	} `json:"typing"`

	Commands *struct {
		ClipboardCopy  *string `json:"clipboard_copy"`
		ClipboardPaste *string `json:"clipboard_paste"`
		TypeText       *string `json:"type_text"`
		PasteChord     *string `json:"paste_chord"`
	} `json:"commands"`

	Indicator *struct {
		Enable  *bool   `json:"enable"`
		Command *string `json:"command"`
		Log     *bool   `json:"log"`
	} `json:"indicator"`

	WordReplacements   map[string]string `json:"word_replacements"`
	PhraseReplacements map[string]string `json:"phrase_replacements"`
	WordJoiners        []string          `json:"word_joiners"`
}

// Parse merges a JSON config document over base and returns warnings for
// recoverable issues.
func Parse(content string, base Config) (Config, []Warning, error) {
	cfg := base
	var warnings []Warning

	var file fileConfig
	dec := json.NewDecoder(strings.NewReader(content))
	if err := dec.Decode(&file); err != nil {
		return Config{}, nil, fmt.Errorf("decode config JSON: %w", err)
	}

	if t := file.Transcription; t != nil {
		setString(&cfg.Transcribe.Endpoint, t.Endpoint)
		setString(&cfg.Transcribe.APIKey, t.APIKey)
		setInt(&cfg.Transcribe.SampleRate, t.SampleRate)
		setBool(&cfg.Transcribe.FormatTurns, t.FormatTurns)
		setDurationMS(&cfg.Transcribe.DialTimeout, t.DialTimeoutMS)
		setDurationMS(&cfg.Transcribe.DrainTimeout, t.DrainTimeoutMS)
		setInt(&cfg.Transcribe.MaxReconnects, t.MaxReconnects)
		setDurationMS(&cfg.Transcribe.ReconnectBackoff, t.ReconnectBackoffMS)
		setInt(&cfg.Transcribe.ReplayFrameCap, t.ReplayFrameCap)
	}

	if a := file.Audio; a != nil {
		setString(&cfg.Audio.Input, a.Input)
		setString(&cfg.Audio.Fallback, a.Fallback)
		setDurationMS(&cfg.Audio.ChunkDuration, a.ChunkMS)
		setDurationMS(&cfg.Audio.PreRoll, a.PreRollMS)
		setDurationMS(&cfg.Audio.MinSend, a.MinSendMS)
	}

	if k := file.Keybinds; k != nil {
		setString(&cfg.Keybind.Combo, k.PTT)
		setDurationMS(&cfg.Keybind.Debounce, k.DebounceMS)
		setDurationMS(&cfg.Keybind.LivenessTimeout, k.LivenessTimeoutMS)
	}

	if t := file.Typing; t != nil {
		if t.Mode != nil {
			mode := strings.ToLower(strings.TrimSpace(*t.Mode))
			switch mode {
			case ModePaste, ModeKeystroke:
				cfg.Injection.Mode = mode
			default:
				warnings = append(warnings, Warning{
					Message: fmt.Sprintf("unknown typing.mode %q; keeping %q", *t.Mode, cfg.Injection.Mode),
				})
			}
		}
		setDurationMS(&cfg.Injection.KeyDelay, t.DelayMS)
		setBool(&cfg.Injection.PreserveClipboard, t.PreserveClipboard)
	}

	if c := file.Commands; c != nil {
		var err error
		if err = setCommand(&cfg.Injection.ClipboardCopy, c.ClipboardCopy); err != nil {
			return Config{}, nil, fmt.Errorf("commands.clipboard_copy: %w", err)
		}
		if err = setCommand(&cfg.Injection.ClipboardPaste, c.ClipboardPaste); err != nil {
			return Config{}, nil, fmt.Errorf("commands.clipboard_paste: %w", err)
		}
		if err = setCommand(&cfg.Injection.TypeText, c.TypeText); err != nil {
			return Config{}, nil, fmt.Errorf("commands.type_text: %w", err)
		}
		if err = setCommand(&cfg.Injection.PasteChord, c.PasteChord); err != nil {
			return Config{}, nil, fmt.Errorf("commands.paste_chord: %w", err)
		}
	}

	if i := file.Indicator; i != nil {
		setBool(&cfg.Indicator.Enable, i.Enable)
		setBool(&cfg.Indicator.Log, i.Log)
		if err := setCommand(&cfg.Indicator.Command, i.Command); err != nil {
			return Config{}, nil, fmt.Errorf("indicator.command: %w", err)
		}
	}

	// User replacement tables extend the defaults instead of replacing them.
	for k, v := range file.WordReplacements {
		cfg.Replace.Words[strings.ToLower(strings.TrimSpace(k))] = v
	}
	for k, v := range file.PhraseReplacements {
		cfg.Replace.Phrases[strings.ToLower(strings.TrimSpace(k))] = v
	}
	if file.WordJoiners != nil {
		cfg.Replace.Joiners = file.WordJoiners
	}

	return cfg, warnings, nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func setDurationMS(dst *time.Duration, src *int) {
	if src != nil {
		*dst = time.Duration(*src) * time.Millisecond
	}
}

func setCommand(dst *CommandConfig, src *string) error {
	if src == nil {
		return nil
	}
	argv, err := parseArgv(*src)
	if err != nil {
		return err
	}
	*dst = CommandConfig{Raw: *src, Argv: argv}
	return nil
}
