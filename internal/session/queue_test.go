package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/XxMorganxX/Push-To-Type/internal/indicator"
	"github.com/XxMorganxX/Push-To-Type/internal/inject"
	"github.com/XxMorganxX/Push-To-Type/internal/replace"
)

func TestReserveReportsOverflow(t *testing.T) {
	q := newInjectQueue(&fakeInjector{}, inject.StrategyPaste, make(chan injectResult, 1))

	for i := 0; i < cap(q.slots); i++ {
		_, ok := q.reserve()
		require.True(t, ok)
	}

	// With no consumer running, the next reservation overflows.
	_, ok := q.reserve()
	require.False(t, ok)
}

func TestQueueDeliversSlotsInReservationOrder(t *testing.T) {
	injector := &fakeInjector{}
	results := make(chan injectResult, 4)
	q := newInjectQueue(injector, inject.StrategyPaste, results)

	first, ok := q.reserve()
	require.True(t, ok)
	second, ok := q.reserve()
	require.True(t, ok)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.run(ctx)

	// The later reservation is filled first but must inject second.
	second <- injectItem{sessionID: "b", text: "bravo"}
	close(second)
	first <- injectItem{sessionID: "a", text: "alpha"}
	close(first)

	require.Equal(t, "a", (<-results).sessionID)
	require.Equal(t, "b", (<-results).sessionID)
	require.Equal(t, []string{"alpha", "bravo"}, injector.injected())
}

func TestDroppedSlotDoesNotLeavePendingStuck(t *testing.T) {
	capture := &fakeCapturer{}
	table := replace.NewTable(nil, nil, nil)
	c := NewCoordinator(nil, capture, &fakeDialer{}, &fakeInjector{}, table, indicator.NewStore(), Options{})

	// A session whose slot overflowed reports queued=false; no injection
	// result will ever arrive, so it must not count as pending.
	c.onSessionResult(sessionResult{id: "orphan", text: "lost words", queued: false})
	require.Equal(t, 0, c.pending)

	c.onSessionResult(sessionResult{id: "kept", text: "kept words", queued: true})
	require.Equal(t, 1, c.pending)
}
