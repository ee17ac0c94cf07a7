package indicator

import (
	"context"
	"log/slog"
	"os/exec"
	"time"
)

// Display renders one status change on some surface. Render failures are the
// display's problem; the pipeline never depends on rendering.
type Display interface {
	Render(ctx context.Context, status Status) error
}

// Run consumes a store watch channel and drives a display until the store
// closes or the context is cancelled.
func Run(ctx context.Context, store *Store, display Display, logger *slog.Logger) {
	watch := store.Watch()
	for {
		select {
		case <-ctx.Done():
			return
		case status, ok := <-watch:
			if !ok {
				return
			}
			renderCtx, cancel := context.WithTimeout(context.Background(), 400*time.Millisecond)
			err := display.Render(renderCtx, status)
			cancel()
			if err != nil && logger != nil {
				logger.Debug("indicator render failed", "status", string(status), "error", err.Error())
			}
		}
	}
}

// CommandDisplay shells out to a configured argv with the status name
// appended, letting any external surface (notification daemon, status bar,
// overlay helper) render the dot.
type CommandDisplay struct {
	Argv []string
}

func (d CommandDisplay) Render(ctx context.Context, status Status) error {
	if len(d.Argv) == 0 {
		return nil
	}
	args := append(append([]string(nil), d.Argv[1:]...), string(status))
	return exec.CommandContext(ctx, d.Argv[0], args...).Run()
}

// LogDisplay records status transitions to the runtime log.
type LogDisplay struct {
	Logger *slog.Logger
}

func (d LogDisplay) Render(_ context.Context, status Status) error {
	if d.Logger != nil {
		d.Logger.Info("indicator", "status", string(status))
	}
	return nil
}

// NoopDisplay preserves pipeline flow when no indicator surface is wired.
type NoopDisplay struct{}

func (NoopDisplay) Render(context.Context, Status) error { return nil }
