package inject

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// CommandClipboard implements Clipboard via configured copy/paste argv
// (wl-copy/wl-paste on Wayland, xclip on X11, pbcopy/pbpaste elsewhere).
type CommandClipboard struct {
	CopyArgv  []string
	PasteArgv []string
}

func (c CommandClipboard) Set(ctx context.Context, text string) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return runCommandWithInput(ctx, c.CopyArgv, text)
}

func (c CommandClipboard) Get(ctx context.Context) (string, error) {
	if len(c.PasteArgv) == 0 {
		return "", fmt.Errorf("clipboard read command is not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.PasteArgv[0], c.PasteArgv[1:]...)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "", classifyExecError(fmt.Errorf("read clipboard via %s: %w", c.PasteArgv[0], err))
	}
	return out.String(), nil
}

// CommandTypist implements Typist via configured type/chord argv
// (wtype on Wayland, xdotool on X11).
type CommandTypist struct {
	TypeArgv  []string
	ChordArgv []string
}

func (t CommandTypist) Type(ctx context.Context, text string) error {
	return runCommandWithInput(ctx, t.TypeArgv, text)
}

func (t CommandTypist) PasteChord(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return runCommandWithInput(ctx, t.ChordArgv, "")
}

// runCommandWithInput executes argv and optionally writes input to stdin.
func runCommandWithInput(ctx context.Context, argv []string, input string) error {
	if len(argv) == 0 {
		return fmt.Errorf("command argv cannot be empty")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("open stdin for %s: %w", argv[0], err)
	}

	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		return classifyExecError(fmt.Errorf("start command %s: %w", argv[0], err))
	}

	if input != "" {
		if _, err := stdin.Write([]byte(input)); err != nil {
			_ = stdin.Close()
			_ = cmd.Wait()
			return fmt.Errorf("write stdin for %s: %w", argv[0], err)
		}
	}
	_ = stdin.Close()

	if err := cmd.Wait(); err != nil {
		return classifyExecError(fmt.Errorf("wait for %s: %w", argv[0], err))
	}
	return nil
}

// classifyExecError maps OS-level refusals onto ErrDenied so callers can
// surface an actionable permission message instead of a raw exit status.
func classifyExecError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, os.ErrPermission) || errors.Is(err, exec.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrDenied, err)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// Shells use 126 for "found but not executable" and 127 for "not found".
		if code := exitErr.ExitCode(); code == 126 || code == 127 {
			return fmt.Errorf("%w: %v", ErrDenied, err)
		}
	}
	return err
}
