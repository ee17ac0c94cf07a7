// Package app dispatches CLI commands to the daemon and control-plane flows.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/XxMorganxX/Push-To-Type/internal/audio"
	"github.com/XxMorganxX/Push-To-Type/internal/cli"
	"github.com/XxMorganxX/Push-To-Type/internal/config"
	"github.com/XxMorganxX/Push-To-Type/internal/doctor"
	"github.com/XxMorganxX/Push-To-Type/internal/indicator"
	"github.com/XxMorganxX/Push-To-Type/internal/inject"
	"github.com/XxMorganxX/Push-To-Type/internal/ipc"
	"github.com/XxMorganxX/Push-To-Type/internal/keybind"
	"github.com/XxMorganxX/Push-To-Type/internal/logging"
	"github.com/XxMorganxX/Push-To-Type/internal/replace"
	"github.com/XxMorganxX/Push-To-Type/internal/session"
	"github.com/XxMorganxX/Push-To-Type/internal/transcribe"
	"github.com/XxMorganxX/Push-To-Type/internal/version"
)

type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText("ptt"))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText("ptt"))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	logRuntime, err := logging.New()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("load config failed", "error", err.Error())
		return 1
	}
	for _, w := range cfgLoaded.Warnings {
		fmt.Fprintf(r.Stderr, "warning: %s\n", w.Message)
		logger.Warn("config warning", "message", w.Message)
	}

	logger.Info("command start",
		"command", parsed.Command,
		"config", cfgLoaded.Path,
		"log", logRuntime.Path,
	)

	switch parsed.Command {
	case cli.CommandDoctor:
		report := doctor.Run(cfgLoaded)
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	case cli.CommandDevices:
		return r.commandDevices(ctx)
	case cli.CommandStatus:
		return r.commandStatus(ctx)
	case cli.CommandPress:
		return r.forwardOrFail(ctx, ipc.CommandPress)
	case cli.CommandRelease:
		return r.forwardOrFail(ctx, ipc.CommandRelease)
	case cli.CommandQuit:
		return r.forwardOrFail(ctx, ipc.CommandQuit)
	case cli.CommandRun:
		return r.commandRun(ctx, cfgLoaded.Config, logger)
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

func (r Runner) commandDevices(ctx context.Context) int {
	devices, err := audio.ListDevices(ctx)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(devices) == 0 {
		fmt.Fprintln(r.Stdout, "no audio devices found")
		return 1
	}

	for _, device := range devices {
		defaultMark := " "
		if device.Default {
			defaultMark = "*"
		}
		availability := "yes"
		if !device.Available {
			availability = "no"
		}
		muted := "no"
		if device.Muted {
			muted = "yes"
		}
		fmt.Fprintf(
			r.Stdout,
			"%s id=%s | description=%q | state=%s | available=%s | muted=%s\n",
			defaultMark,
			device.ID,
			device.Description,
			device.State,
			availability,
			muted,
		)
	}

	return 0
}

func (r Runner) commandStatus(ctx context.Context) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintln(r.Stdout, "not running")
		return 0
	}

	resp, handled, err := tryForward(ctx, socketPath, ipc.CommandStatus)
	if handled {
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		if resp.State == "" {
			resp.State = "idle"
		}
		fmt.Fprintln(r.Stdout, resp.State)
		return 0
	}

	fmt.Fprintln(r.Stdout, "not running")
	return 0
}

func (r Runner) forwardOrFail(ctx context.Context, command string) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	resp, handled, err := tryForward(ctx, socketPath, command)
	if !handled {
		fmt.Fprintln(r.Stderr, "error: no running ptt daemon")
		return 1
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if resp.Message != "" {
		fmt.Fprintln(r.Stdout, resp.Message)
	}
	return 0
}

// commandRun owns the daemon lifecycle: single-instance socket, pipeline
// wiring, IPC control plane, and the coordinator loop.
func (r Runner) commandRun(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	listener, err := ipc.Acquire(ctx, socketPath, 180*time.Millisecond, 8, nil)
	if err != nil {
		if errors.Is(err, ipc.ErrAlreadyRunning) {
			fmt.Fprintln(r.Stderr, "error: a ptt daemon is already running")
			return 1
		}
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	combo, err := keybind.ParseCombo(cfg.Keybind.Combo)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	reconciler := keybind.NewReconciler(combo, keybind.Options{
		Debounce:        cfg.Keybind.Debounce,
		LivenessTimeout: cfg.Keybind.LivenessTimeout,
	}, logger)

	chunker := audio.NewChunker(audio.ChunkerConfig{
		Input:         cfg.Audio.Input,
		Fallback:      cfg.Audio.Fallback,
		SampleRate:    cfg.Transcribe.SampleRate,
		ChunkDuration: cfg.Audio.ChunkDuration,
		PreRoll:       cfg.Audio.PreRoll,
	}, logger)

	dialer := transcribe.NewDialer(transcribe.Config{
		Endpoint:         cfg.Transcribe.Endpoint,
		APIKey:           cfg.Transcribe.APIKey,
		SampleRate:       cfg.Transcribe.SampleRate,
		FormatTurns:      cfg.Transcribe.FormatTurns,
		DialTimeout:      cfg.Transcribe.DialTimeout,
		DrainTimeout:     cfg.Transcribe.DrainTimeout,
		MaxReconnects:    cfg.Transcribe.MaxReconnects,
		ReconnectBackoff: cfg.Transcribe.ReconnectBackoff,
		ReplayFrameCap:   cfg.Transcribe.ReplayFrameCap,
		MinSend:          cfg.Audio.MinSend,
	}, logger)

	engine := inject.NewEngine(
		inject.CommandClipboard{
			CopyArgv:  cfg.Injection.ClipboardCopy.Argv,
			PasteArgv: cfg.Injection.ClipboardPaste.Argv,
		},
		inject.CommandTypist{
			TypeArgv:  cfg.Injection.TypeText.Argv,
			ChordArgv: cfg.Injection.PasteChord.Argv,
		},
		inject.Options{
			PreserveClipboard: cfg.Injection.PreserveClipboard,
			KeyDelay:          cfg.Injection.KeyDelay,
		},
		logger,
	)

	strategy := inject.StrategyPaste
	if cfg.Injection.Mode == config.ModeKeystroke {
		strategy = inject.StrategyKeystroke
	}

	table := replace.NewTable(cfg.Replace.Words, cfg.Replace.Phrases, cfg.Replace.Joiners)
	store := indicator.NewStore()

	coordinator := session.NewCoordinator(
		logger,
		chunker,
		session.DialerFunc(func(ctx context.Context, sessionID string) (session.Stream, error) {
			return dialer.Dial(ctx, sessionID)
		}),
		engine,
		table,
		store,
		session.Options{Strategy: strategy},
	)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go indicator.Run(runCtx, store, r.indicatorDisplay(cfg.Indicator, logger), logger)
	go reconciler.Run(runCtx)

	handler := ipc.HandlerFunc(func(_ context.Context, req ipc.Request) ipc.Response {
		state := string(coordinator.State())
		switch req.Command {
		case ipc.CommandStatus:
			return ipc.Response{OK: true, State: state}
		case ipc.CommandPress:
			reconciler.SyntheticPress(time.Now())
			return ipc.Response{OK: true, State: state, Message: "press accepted"}
		case ipc.CommandRelease:
			reconciler.SyntheticRelease(time.Now())
			return ipc.Response{OK: true, State: state, Message: "release accepted"}
		case ipc.CommandQuit:
			cancel()
			return ipc.Response{OK: true, State: state, Message: "shutting down"}
		default:
			return ipc.Response{OK: false, State: state, Error: fmt.Sprintf("unknown command: %s", req.Command)}
		}
	})

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- ipc.Serve(runCtx, listener, handler)
	}()

	fmt.Fprintf(r.Stdout, "ptt daemon running; hold %s to dictate\n", combo)
	logger.Info("daemon started", "combo", combo.String(), "socket", socketPath)

	coordinator.Run(runCtx, reconciler.Edges())
	cancel()

	if serverErr := <-serverErrCh; serverErr != nil {
		fmt.Fprintf(r.Stderr, "error: ipc server failed: %v\n", serverErr)
		return 1
	}

	logger.Info("daemon stopped")
	return 0
}

// indicatorDisplay picks the configured status surface.
func (r Runner) indicatorDisplay(cfg config.IndicatorConfig, logger *slog.Logger) indicator.Display {
	if !cfg.Enable {
		return indicator.NoopDisplay{}
	}
	if len(cfg.Command.Argv) > 0 {
		return indicator.CommandDisplay{Argv: cfg.Command.Argv}
	}
	if cfg.Log {
		return indicator.LogDisplay{Logger: logger}
	}
	return indicator.NoopDisplay{}
}

func tryForward(ctx context.Context, socketPath string, command string) (ipc.Response, bool, error) {
	resp, err := ipc.Send(ctx, socketPath, ipc.Request{Command: command}, 220*time.Millisecond)
	if err == nil {
		if resp.OK {
			return resp, true, nil
		}
		return resp, true, errors.New(resp.Error)
	}

	if isSocketMissing(err) {
		return ipc.Response{}, false, nil
	}
	if isConnectionRefused(err) {
		return ipc.Response{}, false, nil
	}

	return ipc.Response{}, true, fmt.Errorf("forward command %q: %w", command, err)
}

func isSocketMissing(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, os.ErrNotExist) ||
		strings.Contains(err.Error(), "no such file or directory")
}

func isConnectionRefused(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, syscall.ECONNREFUSED)
}
