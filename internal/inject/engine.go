// Package inject delivers normalized transcript text into the focused
// application, by paste chord or synthetic keystrokes.
package inject

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrDenied marks an injection refused by the OS input/accessibility layer.
var ErrDenied = errors.New("text injection denied by the system")

// Strategy selects how text reaches the focused application.
type Strategy int

const (
	StrategyPaste Strategy = iota
	StrategyKeystroke
)

func (s Strategy) String() string {
	if s == StrategyKeystroke {
		return "keystroke"
	}
	return "paste"
}

// Request is one injection unit. Requests are serialized by the session
// coordinator; the engine never sees concurrent calls.
type Request struct {
	Text     string
	Strategy Strategy
}

// Clipboard reads and writes the system clipboard.
type Clipboard interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, text string) error
}

// Typist emits synthetic input: individual text and the paste chord.
type Typist interface {
	Type(ctx context.Context, text string) error
	PasteChord(ctx context.Context) error
}

// Options tunes engine behavior.
type Options struct {
	PreserveClipboard bool
	KeyDelay          time.Duration
}

// Engine performs one injection at a time against the focused application.
type Engine struct {
	clipboard Clipboard
	typist    Typist
	opts      Options
	logger    *slog.Logger
}

// NewEngine wires clipboard and typist capabilities into an engine.
func NewEngine(clipboard Clipboard, typist Typist, opts Options, logger *slog.Logger) *Engine {
	return &Engine{clipboard: clipboard, typist: typist, opts: opts, logger: logger}
}

// Inject delivers one request. Empty text is a no-op.
func (e *Engine) Inject(ctx context.Context, req Request) error {
	if req.Text == "" {
		return nil
	}
	switch req.Strategy {
	case StrategyKeystroke:
		return e.injectKeystrokes(ctx, req.Text)
	default:
		return e.injectPaste(ctx, req.Text)
	}
}

// injectPaste sets the clipboard, fires the paste chord, and restores the
// previous clipboard on every exit path when preservation is on.
func (e *Engine) injectPaste(ctx context.Context, text string) error {
	if e.opts.PreserveClipboard {
		previous, err := e.clipboard.Get(ctx)
		if err != nil {
			// An unreadable clipboard should not block injection.
			if e.logger != nil {
				e.logger.Warn("clipboard read failed; skipping restore", "error", err.Error())
			}
		} else {
			defer func() {
				// Restore must survive caller cancellation.
				restoreCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				if rerr := e.clipboard.Set(restoreCtx, previous); rerr != nil && e.logger != nil {
					e.logger.Warn("clipboard restore failed", "error", rerr.Error())
				}
			}()
		}
	}

	if err := e.clipboard.Set(ctx, text); err != nil {
		return fmt.Errorf("set clipboard: %w", err)
	}
	if err := e.typist.PasteChord(ctx); err != nil {
		return fmt.Errorf("dispatch paste chord: %w", err)
	}
	return nil
}

// injectKeystrokes types text one character at a time, honoring the
// configured inter-character delay and stopping between characters when the
// context is cancelled. No events are emitted after cancellation.
func (e *Engine) injectKeystrokes(ctx context.Context, text string) error {
	for _, r := range text {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.typist.Type(ctx, string(r)); err != nil {
			return fmt.Errorf("type character: %w", err)
		}
		if e.opts.KeyDelay <= 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(e.opts.KeyDelay):
		}
	}
	return nil
}
