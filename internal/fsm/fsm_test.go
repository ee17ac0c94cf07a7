package fsm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransitionHappyPath(t *testing.T) {
	state, err := Transition(StateIdle, EventEngage)
	require.NoError(t, err)
	require.Equal(t, StateRecording, state)

	state, err = Transition(state, EventRelease)
	require.NoError(t, err)
	require.Equal(t, StateProcessing, state)

	state, err = Transition(state, EventFinished)
	require.NoError(t, err)
	require.Equal(t, StateIdle, state)
}

func TestTransitionOverlappingHold(t *testing.T) {
	state, err := Transition(StateProcessing, EventEngage)
	require.NoError(t, err)
	require.Equal(t, StateRecording, state)
}

func TestTransitionShutdownFromAnyState(t *testing.T) {
	for _, from := range []State{StateIdle, StateRecording, StateProcessing, StateShuttingDown} {
		state, err := Transition(from, EventShutdown)
		require.NoError(t, err)
		require.Equal(t, StateShuttingDown, state)
	}
}

func TestTransitionInvalid(t *testing.T) {
	cases := []struct {
		from  State
		event Event
	}{
		{StateIdle, EventRelease},
		{StateIdle, EventFinished},
		{StateRecording, EventEngage},
		{StateRecording, EventFinished},
		{StateProcessing, EventRelease},
		{StateShuttingDown, EventEngage},
	}
	for _, tc := range cases {
		state, err := Transition(tc.from, tc.event)
		require.Error(t, err, "%s --(%s)-->", tc.from, tc.event)
		require.Equal(t, tc.from, state)
	}
}
