package indicator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatchDeliversCurrentStatusImmediately(t *testing.T) {
	store := NewStore()
	store.Set(StatusActive)

	watch := store.Watch()
	select {
	case status := <-watch:
		require.Equal(t, StatusActive, status)
	default:
		t.Fatal("expected immediate status delivery")
	}
}

func TestSetFansOutToAllWatchers(t *testing.T) {
	store := NewStore()
	a := store.Watch()
	b := store.Watch()
	<-a
	<-b

	store.Set(StatusProcessing)
	require.Equal(t, StatusProcessing, <-a)
	require.Equal(t, StatusProcessing, <-b)
}

func TestSetSkipsDuplicate(t *testing.T) {
	store := NewStore()
	watch := store.Watch()
	<-watch

	store.Set(StatusReady) // already ready
	select {
	case status := <-watch:
		t.Fatalf("unexpected update %s", status)
	default:
	}
}

func TestCloseResetsAndClosesWatchers(t *testing.T) {
	store := NewStore()
	watch := store.Watch()
	<-watch
	store.Set(StatusActive)
	<-watch

	store.Close()
	require.Equal(t, StatusReady, <-watch)
	_, open := <-watch
	require.False(t, open)

	// Set after close is a no-op.
	store.Set(StatusActive)
	require.Equal(t, StatusReady, store.Status())
}

func TestRunRendersUntilStoreCloses(t *testing.T) {
	store := NewStore()

	var mu sync.Mutex
	var seen []Status
	rendered := make(chan struct{}, 16)
	display := displayFunc(func(_ context.Context, status Status) error {
		mu.Lock()
		seen = append(seen, status)
		mu.Unlock()
		rendered <- struct{}{}
		return nil
	})

	done := make(chan struct{})
	go func() {
		Run(context.Background(), store, display, nil)
		close(done)
	}()

	waitRender := func() {
		select {
		case <-rendered:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for render")
		}
	}

	waitRender() // initial ready
	store.Set(StatusActive)
	waitRender()
	store.Set(StatusProcessing)
	waitRender()
	store.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after store close")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []Status{StatusReady, StatusActive, StatusProcessing, StatusReady}, seen)
}

type displayFunc func(context.Context, Status) error

func (f displayFunc) Render(ctx context.Context, status Status) error {
	return f(ctx, status)
}
