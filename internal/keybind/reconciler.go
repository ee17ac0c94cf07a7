package keybind

import (
	"context"
	"log/slog"
	"time"
)

// ObserverID names one of the two independent key-state sources. The
// high-level hook can lag or be starved; the low-level tap can be blocked by
// OS security prompts. Either alone may miss transitions.
type ObserverID int

const (
	ObserverHook ObserverID = iota
	ObserverTap

	observerCount = 2
)

// Snapshot is one observer's current view of the watched keys.
type Snapshot struct {
	Observer ObserverID
	Held     map[Key]bool
	At       time.Time
}

// EdgeKind discriminates engaged/released transitions.
type EdgeKind int

const (
	EdgeEngaged EdgeKind = iota
	EdgeReleased
)

func (k EdgeKind) String() string {
	if k == EdgeEngaged {
		return "engaged"
	}
	return "released"
}

// Edge is one reconciled PTT transition.
type Edge struct {
	Kind EdgeKind
	At   time.Time
}

// Options tunes debounce and observer liveness behavior.
type Options struct {
	Debounce        time.Duration
	LivenessTimeout time.Duration
}

// Reconciler merges two observers into one authoritative PTT boolean.
// Engagement requires every reporting observer to agree all combo keys are
// held; release is authoritative on the first report of any combo key up.
type Reconciler struct {
	combo  Combo
	opts   Options
	logger *slog.Logger

	snapshots chan Snapshot
	edges     chan Edge

	// Loop-local state, touched only by Run.
	held        [observerCount]map[Key]bool
	reported    [observerCount]bool
	lastSeen    [observerCount]time.Time
	engaged     bool
	lastRelease time.Time
	degraded    bool
}

// NewReconciler builds a reconciler; call Run to start processing snapshots.
func NewReconciler(combo Combo, opts Options, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		combo:     combo,
		opts:      opts,
		logger:    logger,
		snapshots: make(chan Snapshot, 64),
		edges:     make(chan Edge, 16),
	}
}

// Edges returns the reconciled PTT edge stream. The session coordinator is
// the single consumer.
func (r *Reconciler) Edges() <-chan Edge {
	return r.edges
}

// Observe posts one observer snapshot. It never blocks the caller: when the
// queue is full the oldest snapshot is dropped, since a newer view of the
// same observer supersedes it.
func (r *Reconciler) Observe(s Snapshot) {
	if s.Observer < 0 || s.Observer >= observerCount {
		return
	}
	if s.At.IsZero() {
		s.At = time.Now()
	}
	select {
	case r.snapshots <- s:
	default:
		select {
		case <-r.snapshots:
		default:
		}
		select {
		case r.snapshots <- s:
		default:
		}
	}
}

// Run consumes snapshots and emits edges until the context is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	tickInterval := r.opts.LivenessTimeout / 4
	if tickInterval <= 0 {
		tickInterval = time.Second
	}
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case s := <-r.snapshots:
			r.apply(ctx, s)
		case now := <-ticker.C:
			r.checkLiveness(ctx, now)
		}
	}
}

// apply folds one snapshot into observer state and re-evaluates edges.
func (r *Reconciler) apply(ctx context.Context, s Snapshot) {
	held := make(map[Key]bool, len(r.combo.Keys))
	for _, key := range r.combo.Keys {
		held[key] = s.Held[key]
	}
	r.held[s.Observer] = held
	r.reported[s.Observer] = true
	r.lastSeen[s.Observer] = s.At

	if r.degraded {
		r.degraded = false
		r.log(slog.LevelInfo, "key observers recovered")
	}

	r.evaluate(ctx, s.At)
}

// evaluate emits at most one edge for the current merged observer view.
func (r *Reconciler) evaluate(ctx context.Context, at time.Time) {
	if r.engaged {
		if r.anyKeyReleased() {
			r.engaged = false
			r.lastRelease = at
			r.emit(ctx, Edge{Kind: EdgeReleased, At: at})
		}
		return
	}

	if !r.allObserversAgreeHeld() {
		return
	}
	if r.opts.Debounce > 0 && !r.lastRelease.IsZero() && at.Sub(r.lastRelease) < r.opts.Debounce {
		// Re-trigger chatter inside the guard interval is suppressed.
		return
	}
	r.engaged = true
	r.emit(ctx, Edge{Kind: EdgeEngaged, At: at})
}

// allObserversAgreeHeld requires every reporting observer to hold every combo
// key, and at least one observer to have reported at all.
func (r *Reconciler) allObserversAgreeHeld() bool {
	reporting := 0
	for i := 0; i < observerCount; i++ {
		if !r.reported[i] {
			continue
		}
		reporting++
		for _, key := range r.combo.Keys {
			if !r.held[i][key] {
				return false
			}
		}
	}
	return reporting > 0
}

// anyKeyReleased reports whether any observer currently reports any combo key
// up. First report wins; release is fail-fast.
func (r *Reconciler) anyKeyReleased() bool {
	for i := 0; i < observerCount; i++ {
		if !r.reported[i] {
			continue
		}
		for _, key := range r.combo.Keys {
			if !r.held[i][key] {
				return true
			}
		}
	}
	return false
}

// checkLiveness demotes each observer that has gone stale so its last view
// can neither pin nor veto the PTT condition. A dead observer's key-up
// snapshot must not block a live one from engaging; both stale means no
// trustworthy input at all, so the hold is released synthetically.
func (r *Reconciler) checkLiveness(ctx context.Context, now time.Time) {
	if r.opts.LivenessTimeout <= 0 {
		return
	}

	demoted := false
	live := 0
	for i := 0; i < observerCount; i++ {
		if !r.reported[i] {
			continue
		}
		if now.Sub(r.lastSeen[i]) < r.opts.LivenessTimeout {
			live++
			continue
		}
		r.reported[i] = false
		r.held[i] = nil
		demoted = true
		r.log(slog.LevelWarn, "key observer stale; demoting",
			"observer", i, "liveness_timeout", r.opts.LivenessTimeout.String())
	}
	if !demoted {
		return
	}

	if live == 0 {
		r.degraded = true
		r.log(slog.LevelWarn, "both key observers stale; degrading input",
			"liveness_timeout", r.opts.LivenessTimeout.String())
		if r.engaged {
			r.engaged = false
			r.lastRelease = now
			r.emit(ctx, Edge{Kind: EdgeReleased, At: now})
		}
		return
	}

	// The surviving observer's view is now authoritative.
	r.evaluate(ctx, now)
}

func (r *Reconciler) emit(ctx context.Context, edge Edge) {
	select {
	case r.edges <- edge:
	case <-ctx.Done():
	}
}

func (r *Reconciler) log(level slog.Level, msg string, args ...any) {
	if r.logger == nil {
		return
	}
	r.logger.Log(context.Background(), level, msg, args...)
}
