// Package transcribe streams PCM frames to the realtime speech API over a
// websocket and surfaces partial/final transcript events.
package transcribe

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Kind discriminates in-progress and committed transcript events.
type Kind int

const (
	KindPartial Kind = iota
	KindFinal
)

func (k Kind) String() string {
	if k == KindFinal {
		return "final"
	}
	return "partial"
}

// Event is one transcript update in arrival order.
type Event struct {
	SessionID  string
	Kind       Kind
	Text       string
	TurnID     int
	Confidence float64
	At         time.Time
}

// serverMessage is the union of JSON messages the streaming endpoint sends.
type serverMessage struct {
	Type                 string  `json:"type"`
	ID                   string  `json:"id"`
	Transcript           string  `json:"transcript"`
	TurnOrder            int     `json:"turn_order"`
	EndOfTurn            bool    `json:"end_of_turn"`
	EndOfTurnConfidence  float64 `json:"end_of_turn_confidence"`
	TurnIsFormatted      bool    `json:"turn_is_formatted"`
	AudioDurationSeconds float64 `json:"audio_duration_seconds"`
	Error                string  `json:"error"`
}

// terminateMessage asks the server to flush remaining turns and close.
const terminateMessage = `{"type":"Terminate"}`

// buildStreamURL appends the streaming query parameters to the configured
// endpoint, upgrading http(s) schemes to websocket schemes.
func buildStreamURL(endpoint string, sampleRate int, formatTurns bool) (string, error) {
	base := strings.TrimSpace(endpoint)
	if base == "" {
		return "", fmt.Errorf("transcription endpoint is empty")
	}

	if strings.HasPrefix(base, "https://") {
		base = "wss://" + strings.TrimPrefix(base, "https://")
	} else if strings.HasPrefix(base, "http://") {
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}

	streamURL, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid transcription endpoint: %w", err)
	}
	if streamURL.Scheme != "ws" && streamURL.Scheme != "wss" {
		return "", fmt.Errorf("transcription endpoint %q is not a websocket URL", endpoint)
	}

	if sampleRate <= 0 {
		sampleRate = 16000
	}
	query := streamURL.Query()
	query.Set("sample_rate", fmt.Sprintf("%d", sampleRate))
	query.Set("format_turns", fmt.Sprintf("%t", formatTurns))
	streamURL.RawQuery = query.Encode()
	return streamURL.String(), nil
}
