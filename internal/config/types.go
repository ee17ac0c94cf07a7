// Package config resolves, parses, validates, and defaults ptt configuration.
package config

import "time"

// Config is the fully materialized runtime configuration used by ptt.
// It is loaded once at startup and treated as an immutable snapshot.
type Config struct {
	Transcribe TranscribeConfig
	Audio      AudioConfig
	Keybind    KeybindConfig
	Injection  InjectionConfig
	Indicator  IndicatorConfig
	Replace    ReplaceConfig
}

// TranscribeConfig controls the streaming speech recognition session.
type TranscribeConfig struct {
	Endpoint         string
	APIKey           string
	SampleRate       int
	FormatTurns      bool
	DialTimeout      time.Duration
	DrainTimeout     time.Duration
	MaxReconnects    int
	ReconnectBackoff time.Duration
	ReplayFrameCap   int
}

// AudioConfig controls capture source selection and frame pacing.
type AudioConfig struct {
	Input         string
	Fallback      string
	ChunkDuration time.Duration
	PreRoll       time.Duration
	MinSend       time.Duration
}

// KeybindConfig controls push-to-talk combo reconciliation.
type KeybindConfig struct {
	Combo           string
	Debounce        time.Duration
	LivenessTimeout time.Duration
}

// InjectionConfig controls how normalized text reaches the OS input stream.
type InjectionConfig struct {
	Mode              string // "paste" or "keystroke"
	PreserveClipboard bool
	KeyDelay          time.Duration
	ClipboardCopy     CommandConfig
	ClipboardPaste    CommandConfig
	TypeText          CommandConfig
	PasteChord        CommandConfig
}

// IndicatorConfig controls the visual status indicator surface.
type IndicatorConfig struct {
	Enable  bool
	Command CommandConfig
	Log     bool
}

// ReplaceConfig holds the word/phrase replacement tables and joiner set.
type ReplaceConfig struct {
	Words   map[string]string
	Phrases map[string]string
	Joiners []string
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Message string
}

// Injection mode names accepted in configuration.
const (
	ModePaste     = "paste"
	ModeKeystroke = "keystroke"
)
