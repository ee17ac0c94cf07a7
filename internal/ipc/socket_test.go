package ipc

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAcquireFreshSocket(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "ptt.sock")

	listener, err := Acquire(context.Background(), socketPath, 100*time.Millisecond, 2, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = listener.Close() })

	info, err := os.Stat(socketPath)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestAcquireRescuesStaleSocket(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "ptt.sock")

	// A crashed daemon leaves the socket path occupied with no listener.
	require.NoError(t, os.WriteFile(socketPath, nil, 0o600))

	listener, err := Acquire(context.Background(), socketPath, 100*time.Millisecond, 2, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = listener.Close() })
}

func TestAcquireRefusesLiveOwner(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "ptt.sock")

	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = listener.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = Serve(ctx, listener, HandlerFunc(func(context.Context, Request) Response {
			return Response{OK: true, State: "idle"}
		}))
	}()

	// Wait for the server goroutine to be accepting.
	require.Eventually(t, func() bool {
		alive, _ := Probe(context.Background(), socketPath, 100*time.Millisecond)
		return alive
	}, 2*time.Second, 20*time.Millisecond)

	_, err = Acquire(context.Background(), socketPath, 100*time.Millisecond, 1, nil)
	require.ErrorIs(t, err, ErrAlreadyRunning)
}

func TestRuntimeSocketPath(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")
	path, err := RuntimeSocketPath()
	require.NoError(t, err)
	require.Equal(t, "/run/user/1000/ptt.sock", path)

	t.Setenv("XDG_RUNTIME_DIR", "")
	_, err = RuntimeSocketPath()
	require.Error(t, err)
}
