// Package ipc provides the unix-socket control plane for a running ptt
// daemon: status queries, synthetic press/release, and shutdown.
package ipc

// Command names accepted by the daemon.
const (
	CommandStatus  = "status"
	CommandPress   = "press"
	CommandRelease = "release"
	CommandQuit    = "quit"
)

type Request struct {
	Command string `json:"command"`
}

type Response struct {
	OK      bool   `json:"ok"`
	State   string `json:"state,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}
