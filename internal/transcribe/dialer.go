package transcribe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// Dialer opens one streaming session per PTT hold.
type Dialer struct {
	cfg    Config
	logger *slog.Logger
}

// NewDialer builds a dialer with the given session configuration.
func NewDialer(cfg Config, logger *slog.Logger) *Dialer {
	return &Dialer{cfg: cfg, logger: logger}
}

// Dial connects to the streaming endpoint and starts the session loops.
func (d *Dialer) Dial(ctx context.Context, sessionID string) (*Session, error) {
	if strings.TrimSpace(d.cfg.APIKey) == "" {
		return nil, errors.New("transcription api key is not configured")
	}

	streamURL, err := buildStreamURL(d.cfg.Endpoint, d.cfg.SampleRate, d.cfg.FormatTurns)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	header.Set("Authorization", d.cfg.APIKey)

	conn, err := dialStream(ctx, streamURL, header, d.cfg.DialTimeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	replayCap := d.cfg.ReplayFrameCap
	if replayCap < 1 {
		replayCap = 32
	}

	session := &Session{
		id:     sessionID,
		cfg:    d.cfg,
		url:    streamURL,
		header: header,
		logger: d.logger,
		events: make(chan Event, 64),
		audio:  make(chan []byte, replayCap),
		done:   make(chan struct{}),
		stop:   make(chan struct{}),
	}
	session.state.Store(int32(StateConnecting))

	go session.run(conn)

	if d.logger != nil {
		d.logger.Info("transcription session opened",
			"session", sessionID, "sample_rate", d.cfg.SampleRate)
	}
	return session, nil
}

// dialStream performs one websocket handshake with a bounded timeout.
func dialStream(ctx context.Context, streamURL string, header http.Header, timeout time.Duration) (*websocket.Conn, error) {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	dialer := websocket.Dialer{HandshakeTimeout: timeout}
	conn, resp, err := dialer.DialContext(ctx, streamURL, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket handshake failed (%s): %w", resp.Status, err)
		}
		return nil, fmt.Errorf("websocket handshake failed: %w", err)
	}
	return conn, nil
}
