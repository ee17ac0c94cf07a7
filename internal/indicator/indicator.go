// Package indicator exposes the tri-state status surface rendered while the
// pipeline runs.
package indicator

import "sync"

// Status is the process-wide indicator state. It has a single writer (the
// session coordinator) and any number of display readers.
type Status string

const (
	StatusReady      Status = "ready"
	StatusActive     Status = "active"
	StatusProcessing Status = "processing"
)

// Store holds the current status and fans updates out to watchers.
type Store struct {
	mu       sync.Mutex
	status   Status
	watchers []chan Status
	closed   bool
}

// NewStore creates a store in the Ready state.
func NewStore() *Store {
	return &Store{status: StatusReady}
}

// Status returns the current snapshot.
func (s *Store) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Set publishes a new status. Updates to slow watchers are dropped rather
// than blocking the writer.
func (s *Store) Set(status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.status == status {
		return
	}
	s.status = status
	for _, w := range s.watchers {
		select {
		case w <- status:
		default:
		}
	}
}

// Watch registers a new display watcher. The current status is delivered
// immediately so late subscribers render correctly.
func (s *Store) Watch() <-chan Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := make(chan Status, 8)
	if s.closed {
		close(w)
		return w
	}
	w <- s.status
	s.watchers = append(s.watchers, w)
	return w
}

// Close resets the status to Ready, notifies watchers, and tears the store
// down. Further Set calls are no-ops.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for _, w := range s.watchers {
		select {
		case w <- StatusReady:
		default:
		}
		close(w)
	}
	s.watchers = nil
	s.status = StatusReady
}
