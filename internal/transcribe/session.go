package transcribe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/XxMorganxX/Push-To-Type/internal/audio"
)

// ErrUnavailable marks a session that exhausted its reconnect budget or
// could not reach the endpoint at all. The hold's audio is lost.
var ErrUnavailable = errors.New("transcription service unavailable")

// State tracks the session lifecycle for diagnostics and drain decisions.
type State int32

const (
	StateConnecting State = iota
	StateStreaming
	StateReconnecting
	StateDraining
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateStreaming:
		return "streaming"
	case StateReconnecting:
		return "reconnecting"
	case StateDraining:
		return "draining"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("unknown(%d)", int32(s))
	}
}

// Config tunes one streaming session.
type Config struct {
	Endpoint         string
	APIKey           string
	SampleRate       int
	FormatTurns      bool
	DialTimeout      time.Duration
	DrainTimeout     time.Duration
	MaxReconnects    int
	ReconnectBackoff time.Duration
	ReplayFrameCap   int
	MinSend          time.Duration
}

// minSendBytes is the smallest binary message the protocol accepts.
func (c Config) minSendBytes() int {
	n := int(int64(c.SampleRate) * 2 * int64(c.MinSend) / int64(time.Second))
	if n < 2 {
		n = 2
	}
	return n
}

// Session owns one websocket stream for one PTT hold. A single pump
// goroutine calls Send until the hold releases, then the coordinator calls
// Drain; Send and Drain are never concurrent.
type Session struct {
	id     string
	cfg    Config
	url    string
	header http.Header
	logger *slog.Logger

	events chan Event
	audio  chan []byte
	done   chan struct{}
	stop   chan struct{}

	state atomic.Int32

	// sendBuf coalesces frames below the protocol minimum. Pump-local.
	sendBuf []byte
	// carry holds a chunk whose write failed, resent first after reconnect.
	carry []byte

	closeSendOnce sync.Once
	eventsOnce    sync.Once
	stopOnce      sync.Once
	sendMu        sync.RWMutex
	sendClosed    bool

	errMu sync.Mutex
	err   error

	connMu sync.Mutex
	conn   *websocket.Conn

	lastMu      sync.Mutex
	lastPartial string
	finalSeen   bool
	dropped     atomic.Int64
}

// ID returns the session identifier attached to every event.
func (s *Session) ID() string {
	return s.id
}

// State reports the current lifecycle state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Events returns transcript updates in arrival order. The channel closes
// after Drain or Close completes.
func (s *Session) Events() <-chan Event {
	return s.events
}

// Err returns the terminal error, if any, once the session is closed.
func (s *Session) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

// Send coalesces one capture frame into protocol-sized binary messages.
func (s *Session) Send(frame audio.Frame) error {
	if len(frame.PCM) == 0 {
		return nil
	}
	s.sendBuf = append(s.sendBuf, frame.PCM...)
	if len(s.sendBuf) < s.cfg.minSendBytes() {
		return nil
	}
	chunk := s.sendBuf
	s.sendBuf = nil
	return s.enqueue(chunk)
}

// Drain stops sending, asks the server to flush remaining turns, and waits
// for in-flight finals up to the drain timeout. If no final arrived it emits
// a synthetic one carrying the last partial, so every hold yields exactly
// one injectable result. Always closes the events channel.
func (s *Session) Drain(ctx context.Context) error {
	s.state.Store(int32(StateDraining))
	if err := s.flushSendBuf(); err != nil && s.logger != nil {
		s.logger.Debug("drain flush failed", "session", s.id, "error", err.Error())
	}
	s.closeSend()

	select {
	case <-s.done:
	case <-time.After(s.cfg.DrainTimeout):
		if s.logger != nil {
			s.logger.Warn("drain timed out; forcing close", "session", s.id)
		}
		s.forceClose()
		<-s.done
	case <-ctx.Done():
		s.forceClose()
		<-s.done
	}

	s.emitSyntheticFinal()
	s.eventsOnce.Do(func() { close(s.events) })
	s.state.Store(int32(StateClosed))
	return s.Err()
}

// Close abandons the stream without waiting for finals.
func (s *Session) Close() error {
	s.state.Store(int32(StateDraining))
	s.forceClose()
	<-s.done
	s.eventsOnce.Do(func() { close(s.events) })
	s.state.Store(int32(StateClosed))
	return s.Err()
}

// flushSendBuf pads the residual coalescing buffer up to the protocol
// minimum with silence and sends it.
func (s *Session) flushSendBuf() error {
	if len(s.sendBuf) == 0 {
		return nil
	}
	chunk := s.sendBuf
	s.sendBuf = nil
	if min := s.cfg.minSendBytes(); len(chunk) < min {
		chunk = append(chunk, make([]byte, min-len(chunk))...)
	}
	return s.enqueue(chunk)
}

// enqueue buffers one binary message for the write loop. When the buffer is
// full (transport down, replay pending) the oldest message is evicted so the
// most recent audio survives a reconnect.
func (s *Session) enqueue(chunk []byte) error {
	s.sendMu.RLock()
	closed := s.sendClosed
	s.sendMu.RUnlock()
	if closed {
		return errors.New("audio stream is already draining")
	}

	for {
		select {
		case s.audio <- chunk:
			return nil
		case <-s.done:
			if err := s.Err(); err != nil {
				return err
			}
			return ErrUnavailable
		default:
		}
		select {
		case <-s.audio:
			s.dropped.Add(1)
		default:
		}
	}
}

func (s *Session) closeSend() {
	s.closeSendOnce.Do(func() {
		s.sendMu.Lock()
		s.sendClosed = true
		close(s.audio)
		s.sendMu.Unlock()
	})
}

// forceClose unblocks every loop: reconnect sleeps, writes, and reads.
func (s *Session) forceClose() {
	s.stopOnce.Do(func() { close(s.stop) })
	s.closeSend()
	s.connMu.Lock()
	conn := s.conn
	s.connMu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
}

func (s *Session) setConn(conn *websocket.Conn) {
	s.connMu.Lock()
	s.conn = conn
	s.connMu.Unlock()
}

func (s *Session) setErr(err error) {
	if err == nil {
		return
	}
	if websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
	) {
		return
	}
	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

// run owns the connection lifecycle: stream until a clean termination, and
// reconnect with exponential backoff on transport errors mid-hold.
func (s *Session) run(conn *websocket.Conn) {
	defer close(s.done)

	attempts := 0
	for {
		s.setConn(conn)
		s.state.Store(int32(StateStreaming))
		err := s.stream(conn)
		_ = conn.Close()

		if err == nil {
			s.state.Store(int32(StateClosed))
			return
		}
		if s.draining() || s.stopped() {
			s.state.Store(int32(StateClosed))
			return
		}

		// Transport lost mid-hold. Buffered audio replays after reconnect.
		for {
			attempts++
			if attempts > s.cfg.MaxReconnects {
				s.setErr(ErrUnavailable)
				s.state.Store(int32(StateClosed))
				if s.logger != nil {
					s.logger.Error("transcription reconnect budget exhausted",
						"session", s.id, "attempts", attempts-1, "error", err.Error())
				}
				return
			}
			s.state.Store(int32(StateReconnecting))
			delay := s.backoff(attempts)
			if s.logger != nil {
				s.logger.Warn("transcription stream lost; reconnecting",
					"session", s.id, "attempt", attempts, "backoff", delay.String(), "error", err.Error())
			}
			select {
			case <-time.After(delay):
			case <-s.stop:
				s.state.Store(int32(StateClosed))
				return
			}

			next, derr := dialStream(context.Background(), s.url, s.header, s.cfg.DialTimeout)
			if derr != nil {
				err = derr
				continue
			}
			conn = next
			break
		}
	}
}

// stream runs one connection's read/write loops until the server terminates
// the turn stream or the transport errors.
func (s *Session) stream(conn *websocket.Conn) error {
	connDone := make(chan struct{})
	defer close(connDone)

	var writeWG sync.WaitGroup
	writeWG.Add(1)
	go func() {
		defer writeWG.Done()
		s.writeLoop(conn, connDone)
	}()
	defer writeWG.Wait()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if s.draining() || s.stopped() {
				return nil
			}
			return fmt.Errorf("read transcript event: %w", err)
		}

		var msg serverMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			continue
		}
		if msg.Error != "" {
			return fmt.Errorf("transcription server error: %s", msg.Error)
		}

		switch msg.Type {
		case "Begin":
			if s.logger != nil {
				s.logger.Debug("transcription stream open", "session", s.id, "stream_id", msg.ID)
			}
		case "Turn":
			s.handleTurn(msg)
		case "Termination":
			if s.logger != nil {
				s.logger.Debug("transcription stream terminated",
					"session", s.id, "audio_seconds", msg.AudioDurationSeconds)
			}
			return nil
		}
	}
}

// handleTurn maps one Turn message to a partial or final event. With
// format_turns on, the unformatted end-of-turn copy is treated as a partial
// and the formatted copy commits the turn.
func (s *Session) handleTurn(msg serverMessage) {
	final := msg.EndOfTurn && (!s.cfg.FormatTurns || msg.TurnIsFormatted)
	if !final && msg.Transcript == "" {
		return
	}

	event := Event{
		SessionID:  s.id,
		Text:       msg.Transcript,
		TurnID:     msg.TurnOrder,
		Confidence: msg.EndOfTurnConfidence,
		At:         time.Now(),
	}
	if final {
		event.Kind = KindFinal
	} else {
		event.Kind = KindPartial
	}

	s.lastMu.Lock()
	if final {
		s.finalSeen = true
	} else {
		s.lastPartial = msg.Transcript
	}
	s.lastMu.Unlock()

	select {
	case s.events <- event:
	case <-s.stop:
	}
}

// emitSyntheticFinal commits the last partial when the server never did.
func (s *Session) emitSyntheticFinal() {
	s.lastMu.Lock()
	seen := s.finalSeen
	text := s.lastPartial
	s.finalSeen = true
	s.lastMu.Unlock()
	if seen {
		return
	}
	select {
	case s.events <- Event{SessionID: s.id, Kind: KindFinal, Text: text, At: time.Now()}:
	default:
	}
}

// writeLoop drains buffered audio onto one connection. When the audio
// channel closes it sends the terminate request so the server flushes its
// remaining turns.
func (s *Session) writeLoop(conn *websocket.Conn, connDone <-chan struct{}) {
	if s.carry != nil {
		chunk := s.carry
		s.carry = nil
		if err := conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
			s.carry = chunk
			_ = conn.Close()
			return
		}
	}

	for {
		select {
		case <-connDone:
			return
		case chunk, ok := <-s.audio:
			if !ok {
				if err := conn.WriteMessage(websocket.TextMessage, []byte(terminateMessage)); err != nil {
					s.setErr(fmt.Errorf("send terminate: %w", err))
					_ = conn.Close()
				}
				return
			}
			if err := conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
				s.carry = chunk
				// Failing the read loop triggers the reconnect path.
				_ = conn.Close()
				return
			}
		}
	}
}

func (s *Session) draining() bool {
	return State(s.state.Load()) == StateDraining
}

func (s *Session) stopped() bool {
	select {
	case <-s.stop:
		return true
	default:
		return false
	}
}

// backoff doubles the base delay per attempt.
func (s *Session) backoff(attempt int) time.Duration {
	base := s.cfg.ReconnectBackoff
	if base <= 0 {
		base = 250 * time.Millisecond
	}
	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
	}
	return delay
}
