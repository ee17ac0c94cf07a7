// Package fsm defines the coordinator lifecycle state machine.
package fsm

import "fmt"

type State string

type Event string

const (
	StateIdle         State = "idle"
	StateRecording    State = "recording"
	StateProcessing   State = "processing"
	StateShuttingDown State = "shutting_down"
)

const (
	EventEngage   Event = "engage"
	EventRelease  Event = "release"
	EventFinished Event = "finished"
	EventShutdown Event = "shutdown"
)

func Transition(current State, event Event) (State, error) {
	if event == EventShutdown {
		return StateShuttingDown, nil
	}

	switch current {
	case StateIdle:
		switch event {
		case EventEngage:
			return StateRecording, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateRecording:
		switch event {
		case EventRelease:
			return StateProcessing, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateProcessing:
		switch event {
		case EventEngage:
			// A new hold may begin while the previous session still drains.
			return StateRecording, nil
		case EventFinished:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateShuttingDown:
		return current, invalidTransition(current, event)
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
