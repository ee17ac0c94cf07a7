// Package keybind reconciles redundant key-state observers into one debounced
// push-to-talk signal with engaged/released edges.
package keybind

import (
	"fmt"
	"strings"
)

// Key identifies one watched keyboard key in observer-neutral form.
type Key string

const (
	KeyLeftShift  Key = "leftshift"
	KeyRightShift Key = "rightshift"
	KeyShift      Key = "shift"
	KeyCtrl       Key = "ctrl"
	KeyAlt        Key = "alt"
	KeyCmd        Key = "cmd"
	KeySpace      Key = "space"
	KeyTab        Key = "tab"
	KeyEnter      Key = "enter"
	KeyEsc        Key = "esc"
)

// keyAliases maps accepted config spellings to canonical keys.
var keyAliases = map[string]Key{
	"leftshift":  KeyLeftShift,
	"shift_l":    KeyLeftShift,
	"rightshift": KeyRightShift,
	"shift_r":    KeyRightShift,
	"shift":      KeyShift,
	"ctrl":       KeyCtrl,
	"control":    KeyCtrl,
	"alt":        KeyAlt,
	"option":     KeyAlt,
	"cmd":        KeyCmd,
	"command":    KeyCmd,
	"space":      KeySpace,
	"tab":        KeyTab,
	"enter":      KeyEnter,
	"return":     KeyEnter,
	"esc":        KeyEsc,
	"escape":     KeyEsc,
}

// Combo is the set of keys that must all be held for PTT to engage.
type Combo struct {
	Keys []Key
}

// ParseCombo parses strings like "leftshift+rightshift" or "ctrl+alt+t".
func ParseCombo(spec string) (Combo, error) {
	var combo Combo
	seen := make(map[Key]struct{})

	for _, part := range strings.Split(spec, "+") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}

		var key Key
		if mapped, ok := keyAliases[part]; ok {
			key = mapped
		} else if len([]rune(part)) == 1 {
			key = Key(part)
		} else {
			return Combo{}, fmt.Errorf("unknown key %q in combo %q", part, spec)
		}

		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		combo.Keys = append(combo.Keys, key)
	}

	if len(combo.Keys) == 0 {
		return Combo{}, fmt.Errorf("combo %q contains no keys", spec)
	}
	return combo, nil
}

// String renders the combo back in config form.
func (c Combo) String() string {
	parts := make([]string, len(c.Keys))
	for i, key := range c.Keys {
		parts[i] = string(key)
	}
	return strings.Join(parts, "+")
}
