package keybind

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testCombo(t *testing.T) Combo {
	t.Helper()
	combo, err := ParseCombo("leftshift+rightshift")
	require.NoError(t, err)
	return combo
}

func startReconciler(t *testing.T, opts Options) (*Reconciler, context.CancelFunc) {
	t.Helper()
	r := NewReconciler(testCombo(t), opts, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go r.Run(ctx)
	t.Cleanup(cancel)
	return r, cancel
}

func waitEdge(t *testing.T, edges <-chan Edge) Edge {
	t.Helper()
	select {
	case edge := <-edges:
		return edge
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for edge")
		return Edge{}
	}
}

func requireNoEdge(t *testing.T, edges <-chan Edge, wait time.Duration) {
	t.Helper()
	select {
	case edge := <-edges:
		t.Fatalf("unexpected edge %s", edge.Kind)
	case <-time.After(wait):
	}
}

func TestEngageRequiresAllReportingObserversAgree(t *testing.T) {
	r, _ := startReconciler(t, Options{})
	now := time.Now()

	// Tap only sees one key while the hook holds both: no engage.
	r.Observe(HeldSnapshot(ObserverTap, now, KeyLeftShift))
	r.Observe(HeldSnapshot(ObserverHook, now, KeyLeftShift, KeyRightShift))
	requireNoEdge(t, r.Edges(), 100*time.Millisecond)

	// Tap catches up: engage.
	r.Observe(HeldSnapshot(ObserverTap, now, KeyLeftShift, KeyRightShift))
	edge := waitEdge(t, r.Edges())
	require.Equal(t, EdgeEngaged, edge.Kind)
}

func TestEngageWithSingleReportingObserver(t *testing.T) {
	r, _ := startReconciler(t, Options{})

	// Only the hook has ever reported; a never-seen tap must not block.
	r.Observe(HeldSnapshot(ObserverHook, time.Now(), KeyLeftShift, KeyRightShift))
	edge := waitEdge(t, r.Edges())
	require.Equal(t, EdgeEngaged, edge.Kind)
}

func TestReleaseIsFailFast(t *testing.T) {
	r, _ := startReconciler(t, Options{})
	now := time.Now()

	r.SyntheticPress(now)
	require.Equal(t, EdgeEngaged, waitEdge(t, r.Edges()).Kind)

	// A single observer reporting one key up releases immediately, even
	// though the other observer still reports the full combo held.
	r.Observe(HeldSnapshot(ObserverTap, now.Add(time.Millisecond), KeyLeftShift))
	require.Equal(t, EdgeReleased, waitEdge(t, r.Edges()).Kind)
}

func TestDebounceSuppressesRetrigger(t *testing.T) {
	r, _ := startReconciler(t, Options{Debounce: 250 * time.Millisecond})
	now := time.Now()

	r.SyntheticPress(now)
	require.Equal(t, EdgeEngaged, waitEdge(t, r.Edges()).Kind)
	r.SyntheticRelease(now.Add(10 * time.Millisecond))
	require.Equal(t, EdgeReleased, waitEdge(t, r.Edges()).Kind)

	// Chatter inside the debounce window: no engage.
	r.SyntheticPress(now.Add(50 * time.Millisecond))
	requireNoEdge(t, r.Edges(), 100*time.Millisecond)

	// A press after the window engages again.
	r.SyntheticPress(now.Add(400 * time.Millisecond))
	require.Equal(t, EdgeEngaged, waitEdge(t, r.Edges()).Kind)
}

func TestLivenessTimeoutSynthesizesRelease(t *testing.T) {
	r, _ := startReconciler(t, Options{LivenessTimeout: 80 * time.Millisecond})

	r.SyntheticPress(time.Now().Add(-time.Second))
	require.Equal(t, EdgeEngaged, waitEdge(t, r.Edges()).Kind)

	// Both observers go silent; the reconciler must not stay engaged.
	edge := waitEdge(t, r.Edges())
	require.Equal(t, EdgeReleased, edge.Kind)
}

func TestStaleObserverCannotVetoEngagement(t *testing.T) {
	r, _ := startReconciler(t, Options{LivenessTimeout: 50 * time.Millisecond})

	// The tap saw a partial hold and then went silent, as happens when an OS
	// security prompt blocks it mid-session.
	r.Observe(HeldSnapshot(ObserverTap, time.Now(), KeyLeftShift))

	// The hook keeps reporting the full combo. Once the tap passes the
	// liveness timeout it loses authority and the hook's view engages.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				r.Observe(HeldSnapshot(ObserverHook, time.Now(), KeyLeftShift, KeyRightShift))
			}
		}
	}()

	edge := waitEdge(t, r.Edges())
	require.Equal(t, EdgeEngaged, edge.Kind)

	// The demotion itself must not synthesize a release while the surviving
	// observer still holds the combo.
	requireNoEdge(t, r.Edges(), 150*time.Millisecond)
}

func TestObserveNeverBlocks(t *testing.T) {
	// No Run loop consuming: flooding Observe must not deadlock.
	r := NewReconciler(testCombo(t), Options{}, nil)
	for i := 0; i < 1000; i++ {
		r.Observe(HeldSnapshot(ObserverHook, time.Now(), KeyLeftShift))
	}
}
