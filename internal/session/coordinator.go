// Package session coordinates the push-to-talk lifecycle: keybind edges in,
// capture and transcription per hold, ordered text injection out.
package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/XxMorganxX/Push-To-Type/internal/audio"
	"github.com/XxMorganxX/Push-To-Type/internal/fsm"
	"github.com/XxMorganxX/Push-To-Type/internal/indicator"
	"github.com/XxMorganxX/Push-To-Type/internal/inject"
	"github.com/XxMorganxX/Push-To-Type/internal/keybind"
	"github.com/XxMorganxX/Push-To-Type/internal/replace"
	"github.com/XxMorganxX/Push-To-Type/internal/transcribe"
)

// Capturer is the coordinator-facing subset of the audio chunker.
type Capturer interface {
	Start(ctx context.Context) (<-chan audio.Frame, error)
	Stop() error
}

// Stream is the coordinator-facing subset of a transcription session.
type Stream interface {
	ID() string
	Events() <-chan transcribe.Event
	Send(frame audio.Frame) error
	Drain(ctx context.Context) error
}

// Dialer opens one Stream per hold.
type Dialer interface {
	Dial(ctx context.Context, sessionID string) (Stream, error)
}

// DialerFunc adapts a function to the Dialer interface.
type DialerFunc func(ctx context.Context, sessionID string) (Stream, error)

func (f DialerFunc) Dial(ctx context.Context, sessionID string) (Stream, error) {
	return f(ctx, sessionID)
}

// Injector delivers normalized text into the focused application.
type Injector interface {
	Inject(ctx context.Context, req inject.Request) error
}

// PttSession is the public snapshot of one hold's lifecycle.
type PttSession struct {
	ID        string
	StartedAt time.Time
}

// pttSession carries the private coordination surface of one hold.
type pttSession struct {
	PttSession

	frames <-chan audio.Frame
	slot   chan injectItem
	// slotQueued is false when the injection queue overflowed; the session's
	// text is dropped and no injection result will arrive.
	slotQueued bool

	// force cuts the drain wait short when a newer hold engages.
	force     chan struct{}
	forceOnce sync.Once
}

func (s *pttSession) forceFinish() {
	s.forceOnce.Do(func() { close(s.force) })
}

// sessionResult is the terminal report of one session goroutine.
type sessionResult struct {
	id     string
	text   string
	queued bool
	err    error
}

// Options tunes coordinator behavior.
type Options struct {
	Strategy inject.Strategy
}

// Coordinator owns the lifecycle state machine and every pipeline handoff.
// All state is touched only from the Run goroutine.
type Coordinator struct {
	logger    *slog.Logger
	capture   Capturer
	dialer    Dialer
	table     *replace.Table
	indicator *indicator.Store
	opts      Options

	queue      *injectQueue
	results    chan sessionResult
	injections chan injectResult
	stopping   chan struct{}

	mu      sync.RWMutex
	state   fsm.State
	current *pttSession

	// pending counts transcripts queued or injecting, for indicator state.
	pending int
}

// NewCoordinator wires the pipeline components into a coordinator.
func NewCoordinator(
	logger *slog.Logger,
	capture Capturer,
	dialer Dialer,
	injector Injector,
	table *replace.Table,
	store *indicator.Store,
	opts Options,
) *Coordinator {
	injections := make(chan injectResult, 8)
	return &Coordinator{
		logger:     logger,
		capture:    capture,
		dialer:     dialer,
		table:      table,
		indicator:  store,
		opts:       opts,
		queue:      newInjectQueue(injector, opts.Strategy, injections),
		results:    make(chan sessionResult, 8),
		injections: injections,
		stopping:   make(chan struct{}),
		state:      fsm.StateIdle,
	}
}

// State returns the current lifecycle state for status queries.
func (c *Coordinator) State() fsm.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Coordinator) setState(state fsm.State) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
}

// transition applies one lifecycle event; invalid transitions are logged
// and ignored so stray edges cannot wedge the loop.
func (c *Coordinator) transition(event fsm.Event) bool {
	next, err := fsm.Transition(c.State(), event)
	if err != nil {
		if c.logger != nil {
			c.logger.Debug("ignoring lifecycle event", "error", err.Error())
		}
		return false
	}
	c.setState(next)
	return true
}

// Run processes keybind edges, session results, and injection completions
// until the context is cancelled. It is the single writer of all state.
func (c *Coordinator) Run(ctx context.Context, edges <-chan keybind.Edge) {
	go c.queue.run(ctx)

	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			return
		case edge, ok := <-edges:
			if !ok {
				c.shutdown()
				return
			}
			switch edge.Kind {
			case keybind.EdgeEngaged:
				c.onEngage(ctx)
			case keybind.EdgeReleased:
				c.onRelease()
			}
		case res := <-c.results:
			c.onSessionResult(res)
		case res := <-c.injections:
			c.onInjectResult(res)
		}
	}
}

// onEngage starts a new session, force-finishing a previous drain so the
// microphone is available immediately. The old session's text still flows
// through its reserved injection slot.
func (c *Coordinator) onEngage(ctx context.Context) {
	if !c.transition(fsm.EventEngage) {
		return
	}

	if prev := c.current; prev != nil {
		prev.forceFinish()
	}

	sess := &pttSession{
		PttSession: PttSession{ID: uuid.NewString(), StartedAt: time.Now()},
		force:      make(chan struct{}),
	}

	frames, err := c.capture.Start(ctx)
	if err != nil {
		if c.logger != nil {
			c.logger.Error("audio capture failed to start", "session", sess.ID, "error", err.Error())
		}
		c.transition(fsm.EventRelease)
		c.transition(fsm.EventFinished)
		c.refreshIndicator()
		return
	}
	sess.frames = frames
	sess.slot, sess.slotQueued = c.queue.reserve()
	if !sess.slotQueued && c.logger != nil {
		c.logger.Warn("injection queue full; transcript for this hold will be dropped",
			"session", sess.ID)
	}

	c.current = sess
	c.refreshIndicator()
	if c.logger != nil {
		c.logger.Info("recording started", "session", sess.ID)
	}

	go c.runSession(ctx, sess)
}

// onRelease stops capture, which closes the session's frame channel and
// lets its goroutine move on to drain.
func (c *Coordinator) onRelease() {
	if !c.transition(fsm.EventRelease) {
		return
	}
	if err := c.capture.Stop(); err != nil && c.logger != nil {
		c.logger.Warn("audio capture stop failed", "error", err.Error())
	}
	c.refreshIndicator()
	if sess := c.current; sess != nil && c.logger != nil {
		c.logger.Info("recording stopped", "session", sess.ID)
	}
}

// onSessionResult retires one session. The transition to idle happens only
// when the finished session is still the current one; an overlapping hold
// keeps the state at recording.
func (c *Coordinator) onSessionResult(res sessionResult) {
	if res.err != nil && c.logger != nil {
		if errors.Is(res.err, transcribe.ErrUnavailable) {
			c.logger.Error("transcription unavailable; hold audio lost", "session", res.id)
		} else {
			c.logger.Error("session failed", "session", res.id, "error", res.err.Error())
		}
	}

	// Only queued text yields an injection result; a dropped slot must not
	// leave the pending counter (and the indicator) stuck.
	if res.text != "" && res.queued {
		c.pending++
	}

	if c.current != nil && c.current.ID == res.id {
		c.current = nil
		c.transition(fsm.EventFinished)
	}
	c.refreshIndicator()
}

// onInjectResult surfaces injection failures once and settles the indicator.
func (c *Coordinator) onInjectResult(res injectResult) {
	if c.pending > 0 {
		c.pending--
	}
	if res.err != nil && c.logger != nil {
		if errors.Is(res.err, inject.ErrDenied) {
			c.logger.Error("text injection denied; check input permissions", "session", res.sessionID)
		} else {
			c.logger.Error("text injection failed", "session", res.sessionID, "error", res.err.Error())
		}
	} else if res.err == nil && c.logger != nil {
		c.logger.Info("text injected", "session", res.sessionID)
	}
	c.refreshIndicator()
}

// refreshIndicator maps lifecycle state onto the tri-state indicator.
func (c *Coordinator) refreshIndicator() {
	if c.indicator == nil {
		return
	}
	switch {
	case c.State() == fsm.StateRecording:
		c.indicator.Set(indicator.StatusActive)
	case c.State() == fsm.StateProcessing || c.pending > 0:
		c.indicator.Set(indicator.StatusProcessing)
	default:
		c.indicator.Set(indicator.StatusReady)
	}
}

// shutdown stops capture, force-finishes the active session, and closes the
// indicator. The queue consumer stops with the shared context, cancelling
// any in-flight keystroke injection.
func (c *Coordinator) shutdown() {
	c.transition(fsm.EventShutdown)
	close(c.stopping)

	if err := c.capture.Stop(); err != nil && c.logger != nil {
		c.logger.Warn("audio capture stop failed", "error", err.Error())
	}
	if sess := c.current; sess != nil {
		sess.forceFinish()
		c.current = nil
	}
	if c.indicator != nil {
		c.indicator.Close()
	}
	if c.logger != nil {
		c.logger.Info("coordinator stopped")
	}
}

// runSession drives one hold end to end: dial, pump frames, drain, then
// deliver normalized text into the session's injection slot.
func (c *Coordinator) runSession(ctx context.Context, sess *pttSession) {
	res := sessionResult{id: sess.ID, queued: sess.slotQueued}
	defer func() {
		close(sess.slot)
		select {
		case c.results <- res:
		case <-c.stopping:
		}
	}()

	stream, err := c.dialer.Dial(ctx, sess.ID)
	if err != nil {
		res.err = err
		// The hold is still down; discard frames until release closes them.
		for range sess.frames {
		}
		return
	}

	var (
		finals      []string
		collectDone = make(chan struct{})
	)
	go func() {
		defer close(collectDone)
		for event := range stream.Events() {
			if event.Kind == transcribe.KindFinal && event.Text != "" {
				finals = append(finals, event.Text)
			}
		}
	}()

	var sendErr error
	for frame := range sess.frames {
		if sendErr != nil {
			continue
		}
		if err := stream.Send(frame); err != nil {
			sendErr = err
			if c.logger != nil {
				c.logger.Warn("frame send failed; discarding remaining audio",
					"session", sess.ID, "error", err.Error())
			}
		}
	}

	drainCtx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-sess.force:
			cancel()
		case <-drainCtx.Done():
		}
	}()
	drainErr := stream.Drain(drainCtx)
	cancel()
	<-collectDone

	switch {
	case sendErr != nil:
		res.err = sendErr
	case drainErr != nil:
		res.err = drainErr
	}

	text := c.table.Normalize(strings.Join(finals, " "))
	res.text = text
	if text != "" && sess.slotQueued {
		sess.slot <- injectItem{sessionID: sess.ID, text: text}
	}
}
