package transcribe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBuildStreamURL(t *testing.T) {
	url, err := buildStreamURL("wss://streaming.assemblyai.com/v3/ws", 16000, true)
	require.NoError(t, err)
	require.Equal(t, "wss://streaming.assemblyai.com/v3/ws?format_turns=true&sample_rate=16000", url)
}

func TestBuildStreamURLUpgradesHTTPSchemes(t *testing.T) {
	url, err := buildStreamURL("https://example.com/v3/ws", 8000, false)
	require.NoError(t, err)
	require.Equal(t, "wss://example.com/v3/ws?format_turns=false&sample_rate=8000", url)

	url, err = buildStreamURL("http://127.0.0.1:8080/ws", 16000, true)
	require.NoError(t, err)
	require.Equal(t, "ws://127.0.0.1:8080/ws?format_turns=true&sample_rate=16000", url)
}

func TestBuildStreamURLDefaultsSampleRate(t *testing.T) {
	url, err := buildStreamURL("wss://example.com/ws", 0, true)
	require.NoError(t, err)
	require.Contains(t, url, "sample_rate=16000")
}

func TestBuildStreamURLErrors(t *testing.T) {
	_, err := buildStreamURL("", 16000, true)
	require.Error(t, err)

	_, err = buildStreamURL("ftp://example.com/ws", 16000, true)
	require.Error(t, err)
	require.Contains(t, err.Error(), "not a websocket URL")
}

func TestMinSendBytes(t *testing.T) {
	cfg := Config{SampleRate: 16000, MinSend: 50 * time.Millisecond}
	require.Equal(t, 1600, cfg.minSendBytes())

	require.Equal(t, 2, Config{}.minSendBytes())
}
