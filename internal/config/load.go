package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Loaded captures resolved config path, parsed values, and non-fatal warnings.
type Loaded struct {
	Path     string
	Config   Config
	Warnings []Warning
	Exists   bool
}

// Load resolves, reads, parses, and validates the runtime configuration.
func Load(explicitPath string) (Loaded, error) {
	resolvedPath, err := ResolvePath(explicitPath)
	if err != nil {
		return Loaded{}, err
	}

	base := Default()
	content, err := os.ReadFile(resolvedPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := applyEnv(base)
			warnings := []Warning{{
				Message: fmt.Sprintf("config file %q not found; using defaults", resolvedPath),
			}}
			warnings = append(warnings, Validate(cfg)...)
			return Loaded{Path: resolvedPath, Config: cfg, Warnings: warnings}, nil
		}
		return Loaded{}, fmt.Errorf("read config %q: %w", resolvedPath, err)
	}

	cfg, warnings, err := Parse(string(content), base)
	if err != nil {
		return Loaded{}, fmt.Errorf("parse config %q: %w", resolvedPath, err)
	}
	cfg = applyEnv(cfg)
	warnings = append(warnings, Validate(cfg)...)

	return Loaded{
		Path:     resolvedPath,
		Config:   cfg,
		Warnings: warnings,
		Exists:   true,
	}, nil
}

// applyEnv overlays the out-of-band credential. The environment wins over the
// file so the key never has to live on disk.
func applyEnv(cfg Config) Config {
	if key := strings.TrimSpace(os.Getenv("ASSEMBLYAI_API_KEY")); key != "" {
		cfg.Transcribe.APIKey = key
	}
	if cfg.Transcribe.APIKey == "in_env" {
		cfg.Transcribe.APIKey = ""
	}
	return cfg
}
