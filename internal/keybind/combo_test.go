package keybind

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCombo(t *testing.T) {
	combo, err := ParseCombo("leftshift+rightshift")
	require.NoError(t, err)
	require.Equal(t, []Key{KeyLeftShift, KeyRightShift}, combo.Keys)
	require.Equal(t, "leftshift+rightshift", combo.String())
}

func TestParseComboAliases(t *testing.T) {
	combo, err := ParseCombo("Shift_L + Control + Option")
	require.NoError(t, err)
	require.Equal(t, []Key{KeyLeftShift, KeyCtrl, KeyAlt}, combo.Keys)
}

func TestParseComboSingleCharacter(t *testing.T) {
	combo, err := ParseCombo("ctrl+alt+t")
	require.NoError(t, err)
	require.Equal(t, []Key{KeyCtrl, KeyAlt, Key("t")}, combo.Keys)
}

func TestParseComboDeduplicates(t *testing.T) {
	combo, err := ParseCombo("ctrl+control+ctrl")
	require.NoError(t, err)
	require.Equal(t, []Key{KeyCtrl}, combo.Keys)
}

func TestParseComboErrors(t *testing.T) {
	_, err := ParseCombo("")
	require.Error(t, err)

	_, err = ParseCombo("++")
	require.Error(t, err)

	_, err = ParseCombo("leftshift+bogus")
	require.Error(t, err)
	require.Contains(t, err.Error(), "bogus")
}
